package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/projectvault/projectvault/pkg/apperrors"
	"github.com/projectvault/projectvault/pkg/database"
)

// FavoriteRepository stores favorite edges between users and projects.
type FavoriteRepository interface {
	// Add returns ErrConflict if the project is already a favorite.
	Add(ctx context.Context, userID, projectID uuid.UUID) error
	// Remove returns ErrNotFound if the project was not a favorite.
	Remove(ctx context.Context, userID, projectID uuid.UUID) error
	Count(ctx context.Context, projectID uuid.UUID) (int64, error)
}

type favoriteRepository struct{}

// NewFavoriteRepository creates a new favorite repository.
func NewFavoriteRepository() FavoriteRepository {
	return &favoriteRepository{}
}

var _ FavoriteRepository = (*favoriteRepository)(nil)

func (r *favoriteRepository) Add(ctx context.Context, userID, projectID uuid.UUID) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	result, err := q.Exec(ctx, `
		INSERT INTO favorites (user_id, project_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, userID, projectID)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}

	return nil
}

func (r *favoriteRepository) Remove(ctx context.Context, userID, projectID uuid.UUID) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	result, err := q.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND project_id = $2`, userID, projectID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *favoriteRepository) Count(ctx context.Context, projectID uuid.UUID) (int64, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	var count int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM favorites WHERE project_id = $1`, projectID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}

	return count, nil
}
