package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/projectvault/projectvault/pkg/models"
	"github.com/projectvault/projectvault/pkg/repositories"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

// ActivityRecorder appends entries to a user's activity feed.
// Record never fails the caller; storage errors are logged and dropped.
type ActivityRecorder interface {
	Record(ctx context.Context, activity *models.Activity)
}

// ActivityService records and lists activity feed entries.
type ActivityService interface {
	ActivityRecorder
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Activity, error)
}

type activityService struct {
	repo   repositories.ActivityRepository
	logger *zap.Logger
}

// NewActivityService creates an activity service on top of the configured store.
func NewActivityService(repo repositories.ActivityRepository, logger *zap.Logger) ActivityService {
	return &activityService{
		repo:   repo,
		logger: logger.Named("activity"),
	}
}

var _ ActivityService = (*activityService)(nil)

func (s *activityService) Record(ctx context.Context, activity *models.Activity) {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.Create(ctx, activity); err != nil {
		s.logger.Warn("Failed to record activity",
			zap.String("type", activity.Type),
			zap.String("user_id", activity.UserID.String()),
			zap.Error(err))
	}
}

func (s *activityService) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Activity, error) {
	switch {
	case limit <= 0:
		limit = defaultActivityLimit
	case limit > maxActivityLimit:
		limit = maxActivityLimit
	}
	return s.repo.ListByUser(ctx, userID, limit)
}
