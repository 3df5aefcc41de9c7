package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/projectvault/projectvault/pkg/apperrors"
	"github.com/projectvault/projectvault/pkg/database"
	"github.com/projectvault/projectvault/pkg/models"
	"github.com/projectvault/projectvault/pkg/repositories"
)

// CheckoutService manages the exclusive edit lock of projects.
type CheckoutService interface {
	// Checkout locks the project for the actor. expectedReturn defaults to
	// now plus the configured duration when nil.
	Checkout(ctx context.Context, actor models.Actor, projectID uuid.UUID, expectedReturn *time.Time, notes string) (*models.Checkout, error)
	// Checkin releases the lock. Only the holder or an administrator may do so.
	Checkin(ctx context.Context, actor models.Actor, projectID uuid.UUID, notes string) (*models.Checkout, error)
	Status(ctx context.Context, projectID uuid.UUID) (*models.CheckoutStatus, error)
	HistoryForUser(ctx context.Context, userID uuid.UUID) ([]*models.Checkout, error)
	HistoryForProject(ctx context.Context, actor models.Actor, projectID uuid.UUID) ([]*models.Checkout, error)
}

type checkoutService struct {
	tx              database.Transactor
	loader          *aggregateLoader
	projects        repositories.ProjectRepository
	checkouts       repositories.CheckoutRepository
	activity        ActivityRecorder
	defaultDuration time.Duration
	now             func() time.Time
	logger          *zap.Logger
}

// NewCheckoutService creates a checkout service. defaultDuration applies when
// a checkout carries no expected return time.
func NewCheckoutService(
	tx database.Transactor,
	projects repositories.ProjectRepository,
	members repositories.MemberRepository,
	checkouts repositories.CheckoutRepository,
	activity ActivityRecorder,
	defaultDuration time.Duration,
	logger *zap.Logger,
) CheckoutService {
	if defaultDuration <= 0 {
		defaultDuration = models.DefaultCheckoutDuration
	}
	return &checkoutService{
		tx:              tx,
		loader:          &aggregateLoader{projects: projects, members: members, checkouts: checkouts},
		projects:        projects,
		checkouts:       checkouts,
		activity:        activity,
		defaultDuration: defaultDuration,
		now:             func() time.Time { return time.Now().UTC() },
		logger:          logger.Named("checkout"),
	}
}

var _ CheckoutService = (*checkoutService)(nil)

func (s *checkoutService) Checkout(ctx context.Context, actor models.Actor, projectID uuid.UUID, expectedReturn *time.Time, notes string) (*models.Checkout, error) {
	now := s.now()
	due := now.Add(s.defaultDuration)
	if expectedReturn != nil {
		if !expectedReturn.After(now) {
			return nil, fmt.Errorf("%w: expected return must be in the future", apperrors.ErrInvalidArgument)
		}
		due = expectedReturn.UTC()
	}

	checkout := &models.Checkout{
		ID:             uuid.New(),
		ProjectID:      projectID,
		UserID:         actor.UserID,
		UserName:       actor.UserName,
		CheckedOutAt:   now,
		ExpectedReturn: due,
		Notes:          notes,
	}

	var project *models.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		agg, err := s.loader.loadForWrite(ctx, projectID)
		if err != nil {
			return err
		}
		project = agg.project

		if !agg.canAccess(actor) {
			return apperrors.ErrForbidden
		}
		if agg.checkout != nil {
			return apperrors.ErrAlreadyLocked
		}

		if err := s.checkouts.Create(ctx, checkout); err != nil {
			return err
		}
		if err := s.projects.SetCheckedOut(ctx, projectID, true); err != nil {
			return err
		}
		_, err = s.projects.Touch(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Project checked out",
		zap.String("project_id", projectID.String()),
		zap.String("user_id", actor.UserID.String()),
		zap.Time("expected_return", checkout.ExpectedReturn))

	s.activity.Record(ctx, &models.Activity{
		UserID:      actor.UserID,
		Type:        models.ActivityProjectCheckedOut,
		Title:       "Checked out project",
		Description: fmt.Sprintf("%s checked out %s", actor.UserName, project.Name),
		ProjectID:   projectIDPtr(projectID),
		Metadata: map[string]any{
			"checkout_id":     checkout.ID.String(),
			"expected_return": checkout.ExpectedReturn.Format(time.RFC3339),
		},
		CreatedAt: now,
	})

	return checkout, nil
}

// Checkin returns ErrNotLocked before considering who the caller is.
func (s *checkoutService) Checkin(ctx context.Context, actor models.Actor, projectID uuid.UUID, notes string) (*models.Checkout, error) {
	now := s.now()

	var (
		project  *models.Project
		returned *models.Checkout
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		agg, err := s.loader.loadForWrite(ctx, projectID)
		if err != nil {
			return err
		}
		project = agg.project

		if agg.checkout == nil {
			return apperrors.ErrNotLocked
		}
		if agg.checkout.UserID != actor.UserID && !actor.IsAdmin {
			return apperrors.ErrForbidden
		}

		returned, err = s.checkouts.MarkReturned(ctx, agg.checkout.ID, now, notes)
		if err != nil {
			return err
		}
		if err := s.projects.SetCheckedOut(ctx, projectID, false); err != nil {
			return err
		}
		_, err = s.projects.Touch(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	duration := returned.Duration(now)
	s.logger.Info("Project checked in",
		zap.String("project_id", projectID.String()),
		zap.String("user_id", actor.UserID.String()),
		zap.Duration("held_for", duration))

	s.activity.Record(ctx, &models.Activity{
		UserID:      actor.UserID,
		Type:        models.ActivityProjectCheckedIn,
		Title:       "Checked in project",
		Description: fmt.Sprintf("%s checked in %s", actor.UserName, project.Name),
		ProjectID:   projectIDPtr(projectID),
		Metadata: map[string]any{
			"checkout_id":      returned.ID.String(),
			"duration_seconds": int64(duration / time.Second),
		},
		CreatedAt: now,
	})

	return returned, nil
}

// Status reports the lock state. Overdue is informational; overdue checkouts
// stay locked until checked in.
func (s *checkoutService) Status(ctx context.Context, projectID uuid.UUID) (*models.CheckoutStatus, error) {
	agg, err := s.loader.loadForRead(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return checkoutStatus(agg.checkout, s.now()), nil
}

func (s *checkoutService) HistoryForUser(ctx context.Context, userID uuid.UUID) ([]*models.Checkout, error) {
	return s.checkouts.ListByUser(ctx, userID)
}

func (s *checkoutService) HistoryForProject(ctx context.Context, actor models.Actor, projectID uuid.UUID) ([]*models.Checkout, error) {
	if _, err := s.loader.readable(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return s.checkouts.ListByProject(ctx, projectID)
}
