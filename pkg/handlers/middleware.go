package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/projectvault/projectvault/pkg/auth"
	"github.com/projectvault/projectvault/pkg/services"
)

// RouteMiddleware wraps a handler with the authentication and database
// scope every /api route needs.
type RouteMiddleware func(http.HandlerFunc) http.HandlerFunc

// ProvisionUser ensures the authenticated caller has a stored user record.
// It must run inside the database scope and after authentication.
func ProvisionUser(users services.UserService, logger *zap.Logger) RouteMiddleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			actor, ok := requireActor(w, r, logger)
			if !ok {
				return
			}

			var email string
			if claims, ok := auth.GetClaims(r.Context()); ok {
				email = claims.Email
			}

			user, err := users.EnsureUser(r.Context(), actor, email)
			if err != nil {
				writeServiceError(w, err, "Provision user", logger, zap.String("user_id", actor.UserID.String()))
				return
			}

			// The stored username may differ from the claimed one.
			actor.Username = user.Username
			next(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		}
	}
}

// Chain composes middlewares so the first one runs outermost.
func Chain(mws ...RouteMiddleware) RouteMiddleware {
	return func(h http.HandlerFunc) http.HandlerFunc {
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}
