package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/projectvault/projectvault/pkg/database"
	"github.com/projectvault/projectvault/pkg/models"
)

// ActivityRepository stores activity feed entries.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	// ListByUser returns the newest entries first, at most limit of them.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Activity, error)
}

type activityRepository struct{}

// NewActivityRepository creates a PostgreSQL activity repository.
func NewActivityRepository() ActivityRepository {
	return &activityRepository{}
}

var _ ActivityRepository = (*activityRepository)(nil)

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}

	metadata := activity.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO activities (id, user_id, type, title, description, project_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		activity.ID,
		activity.UserID,
		activity.Type,
		activity.Title,
		activity.Description,
		activity.ProjectID,
		metadataJSON,
		activity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}

func (r *activityRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Activity, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := q.Query(ctx, `
		SELECT id, user_id, type, title, description, project_id, metadata, created_at
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := make([]*models.Activity, 0)
	for rows.Next() {
		var a models.Activity
		var metadataJSON []byte
		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.Type,
			&a.Title,
			&a.Description,
			&a.ProjectID,
			&metadataJSON,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &a.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		activities = append(activities, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}
