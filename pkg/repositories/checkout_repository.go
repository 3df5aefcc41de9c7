package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/projectvault/projectvault/pkg/apperrors"
	"github.com/projectvault/projectvault/pkg/database"
	"github.com/projectvault/projectvault/pkg/models"
)

// activeCheckoutIndex enforces a single unreturned checkout per project.
const activeCheckoutIndex = "checkouts_one_active_per_project"

// CheckoutRepository stores checkout locks and their history.
type CheckoutRepository interface {
	// Create inserts an active checkout. Returns ErrAlreadyLocked if the
	// project already has one.
	Create(ctx context.Context, checkout *models.Checkout) error
	GetActive(ctx context.Context, projectID uuid.UUID) (*models.Checkout, error)
	MarkReturned(ctx context.Context, id uuid.UUID, returnedAt time.Time, notes string) (*models.Checkout, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Checkout, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Checkout, error)
	// ListOverdue returns active checkouts whose expected return is before now.
	ListOverdue(ctx context.Context, now time.Time) ([]*models.Checkout, error)
}

type checkoutRepository struct{}

// NewCheckoutRepository creates a new checkout repository.
func NewCheckoutRepository() CheckoutRepository {
	return &checkoutRepository{}
}

var _ CheckoutRepository = (*checkoutRepository)(nil)

const checkoutColumns = `id, project_id, user_id, user_name, checked_out_at, expected_return, returned_at, status, notes, return_notes`

func scanCheckout(row pgx.Row) (*models.Checkout, error) {
	var c models.Checkout
	err := row.Scan(
		&c.ID,
		&c.ProjectID,
		&c.UserID,
		&c.UserName,
		&c.CheckedOutAt,
		&c.ExpectedReturn,
		&c.ReturnedAt,
		&c.Status,
		&c.Notes,
		&c.ReturnNotes,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *checkoutRepository) Create(ctx context.Context, checkout *models.Checkout) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if checkout.ID == uuid.Nil {
		checkout.ID = uuid.New()
	}
	checkout.Status = models.CheckoutStatusActive
	checkout.ReturnedAt = nil

	_, err := q.Exec(ctx, `
		INSERT INTO checkouts (id, project_id, user_id, user_name, checked_out_at, expected_return, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		checkout.ID,
		checkout.ProjectID,
		checkout.UserID,
		checkout.UserName,
		checkout.CheckedOutAt,
		checkout.ExpectedReturn,
		checkout.Status,
		checkout.Notes,
	)
	if err != nil {
		if database.IsUniqueViolation(err, activeCheckoutIndex) {
			return apperrors.ErrAlreadyLocked
		}
		return fmt.Errorf("failed to create checkout: %w", err)
	}

	return nil
}

func (r *checkoutRepository) GetActive(ctx context.Context, projectID uuid.UUID) (*models.Checkout, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	c, err := scanCheckout(q.QueryRow(ctx, `
		SELECT `+checkoutColumns+`
		FROM checkouts
		WHERE project_id = $1 AND returned_at IS NULL`, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active checkout: %w", err)
	}

	return c, nil
}

func (r *checkoutRepository) MarkReturned(ctx context.Context, id uuid.UUID, returnedAt time.Time, notes string) (*models.Checkout, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	c, err := scanCheckout(q.QueryRow(ctx, `
		UPDATE checkouts
		SET returned_at = $2, status = $3, return_notes = $4
		WHERE id = $1 AND returned_at IS NULL
		RETURNING `+checkoutColumns,
		id, returnedAt, models.CheckoutStatusReturned, notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotLocked
		}
		return nil, fmt.Errorf("failed to return checkout: %w", err)
	}

	return c, nil
}

func (r *checkoutRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Checkout, error) {
	return r.list(ctx, `WHERE user_id = $1 ORDER BY checked_out_at DESC`, userID)
}

func (r *checkoutRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Checkout, error) {
	return r.list(ctx, `WHERE project_id = $1 ORDER BY checked_out_at DESC`, projectID)
}

func (r *checkoutRepository) ListOverdue(ctx context.Context, now time.Time) ([]*models.Checkout, error) {
	return r.list(ctx, `WHERE returned_at IS NULL AND expected_return < $1 ORDER BY expected_return`, now)
}

func (r *checkoutRepository) list(ctx context.Context, clause string, args ...any) ([]*models.Checkout, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := q.Query(ctx, `SELECT `+checkoutColumns+` FROM checkouts `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkouts: %w", err)
	}
	defer rows.Close()

	checkouts := make([]*models.Checkout, 0)
	for rows.Next() {
		c, err := scanCheckout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkout: %w", err)
		}
		checkouts = append(checkouts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checkouts: %w", err)
	}

	return checkouts, nil
}
