package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/projectvault/projectvault/pkg/models"
)

// WithActor stores the authenticated caller in the context.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// ActorFromContext returns the authenticated caller set by the auth middleware.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(models.Actor)
	return actor, ok && actor.UserID != uuid.Nil
}

// RequireActor returns the authenticated caller or an error if there is none.
func RequireActor(ctx context.Context) (models.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return models.Actor{}, fmt.Errorf("authentication required: no actor in context")
	}
	return actor, nil
}
