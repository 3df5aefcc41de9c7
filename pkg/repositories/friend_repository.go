package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/projectvault/projectvault/pkg/apperrors"
	"github.com/projectvault/projectvault/pkg/database"
	"github.com/projectvault/projectvault/pkg/models"
)

// FriendRepository stores the friend graph. Friendship is symmetric and is
// stored as one row per direction.
type FriendRepository interface {
	Add(ctx context.Context, userID, friendID uuid.UUID) error
	Remove(ctx context.Context, userID, friendID uuid.UUID) error
	Exists(ctx context.Context, userID, friendID uuid.UUID) (bool, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.Friend, error)
}

type friendRepository struct{}

// NewFriendRepository creates a new friend repository.
func NewFriendRepository() FriendRepository {
	return &friendRepository{}
}

var _ FriendRepository = (*friendRepository)(nil)

// Add stores both directions of the friendship in one statement.
// Returns ErrConflict if the users are already friends.
func (r *friendRepository) Add(ctx context.Context, userID, friendID uuid.UUID) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	result, err := q.Exec(ctx, `
		INSERT INTO friendships (user_id, friend_id)
		VALUES ($1, $2), ($2, $1)
		ON CONFLICT DO NOTHING`, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to add friendship: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}

	return nil
}

func (r *friendRepository) Remove(ctx context.Context, userID, friendID uuid.UUID) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	result, err := q.Exec(ctx, `
		DELETE FROM friendships
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)`,
		userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to remove friendship: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *friendRepository) Exists(ctx context.Context, userID, friendID uuid.UUID) (bool, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return false, fmt.Errorf("no database scope in context")
	}

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`,
		userID, friendID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}

	return exists, nil
}

func (r *friendRepository) List(ctx context.Context, userID uuid.UUID) ([]*models.Friend, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := q.Query(ctx, `
		SELECT u.id, u.name, u.username, f.created_at
		FROM friendships f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1
		ORDER BY u.name, u.username`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	friends := make([]*models.Friend, 0)
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.UserID, &f.Name, &f.Username, &f.Since); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friends: %w", err)
	}

	return friends, nil
}
