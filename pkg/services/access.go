package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/projectvault/projectvault/pkg/apperrors"
	"github.com/projectvault/projectvault/pkg/models"
	"github.com/projectvault/projectvault/pkg/repositories"
)

// aggregate is a project loaded together with the state every
// authorization decision needs.
type aggregate struct {
	project  *models.Project
	members  []*models.Member
	checkout *models.Checkout // nil when not checked out
}

// canAccess reports whether the actor is the owner or a member.
func (a *aggregate) canAccess(actor models.Actor) bool {
	return a.project.CanAccess(a.members, actor.UserID)
}

// canRead additionally lets administrators in.
func (a *aggregate) canRead(actor models.Actor) bool {
	return actor.IsAdmin || a.canAccess(actor)
}

// lockedByOther reports whether someone other than the actor holds the checkout.
func (a *aggregate) lockedByOther(actor models.Actor) bool {
	return a.checkout != nil && a.checkout.UserID != actor.UserID
}

// aggregateLoader reads the project aggregate. Write loads must run inside a
// transaction; they take the project row lock before reading anything else.
type aggregateLoader struct {
	projects  repositories.ProjectRepository
	members   repositories.MemberRepository
	checkouts repositories.CheckoutRepository
}

func (l *aggregateLoader) loadForWrite(ctx context.Context, projectID uuid.UUID) (*aggregate, error) {
	project, err := l.projects.GetForUpdate(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return l.complete(ctx, project)
}

func (l *aggregateLoader) loadForRead(ctx context.Context, projectID uuid.UUID) (*aggregate, error) {
	project, err := l.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return l.complete(ctx, project)
}

func (l *aggregateLoader) complete(ctx context.Context, project *models.Project) (*aggregate, error) {
	members, err := l.members.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	checkout, err := l.checkouts.GetActive(ctx, project.ID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to get active checkout: %w", err)
	}

	return &aggregate{project: project, members: members, checkout: checkout}, nil
}

// readable loads the aggregate and checks read access.
func (l *aggregateLoader) readable(ctx context.Context, actor models.Actor, projectID uuid.UUID) (*aggregate, error) {
	agg, err := l.loadForRead(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !agg.canRead(actor) {
		return nil, apperrors.ErrForbidden
	}
	return agg, nil
}

// writable loads the aggregate under the row lock and enforces membership and
// the checkout lock discipline.
func (l *aggregateLoader) writable(ctx context.Context, actor models.Actor, projectID uuid.UUID) (*aggregate, error) {
	agg, err := l.loadForWrite(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !agg.canAccess(actor) {
		return nil, apperrors.ErrForbidden
	}
	if agg.lockedByOther(actor) {
		return nil, apperrors.ErrAlreadyLocked
	}
	return agg, nil
}

func checkoutStatus(c *models.Checkout, now time.Time) *models.CheckoutStatus {
	if c == nil {
		return &models.CheckoutStatus{}
	}
	return &models.CheckoutStatus{
		IsCheckedOut: true,
		Checkout:     c,
		Overdue:      c.IsOverdue(now),
	}
}

func projectIDPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
