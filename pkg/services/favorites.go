package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/projectvault/projectvault/pkg/repositories"
)

// FavoriteService manages favorites and serves per-project favorite counts.
type FavoriteService interface {
	// Add marks the project as a favorite of the user. Returns ErrConflict
	// if it already is.
	Add(ctx context.Context, userID, projectID uuid.UUID) error
	// Remove returns ErrNotFound if the project was not a favorite.
	Remove(ctx context.Context, userID, projectID uuid.UUID) error
	Count(ctx context.Context, projectID uuid.UUID) (int64, error)
}

// CountCache caches favorite counts per project.
type CountCache interface {
	// Get reports ok=false on a cache miss.
	Get(ctx context.Context, projectID uuid.UUID) (count int64, ok bool, err error)
	Set(ctx context.Context, projectID uuid.UUID, count int64) error
	Invalidate(ctx context.Context, projectID uuid.UUID) error
}

const favoritesCountKeyPrefix = "projectvault:favorites:count:"

type redisCountCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCountCache returns a Redis backed CountCache, or nil when client is
// nil so callers can pass the result straight to NewFavoriteService.
func NewRedisCountCache(client *redis.Client, ttl time.Duration) CountCache {
	if client == nil {
		return nil
	}
	return &redisCountCache{client: client, ttl: ttl}
}

func favoritesCountKey(projectID uuid.UUID) string {
	return favoritesCountKeyPrefix + projectID.String()
}

func (c *redisCountCache) Get(ctx context.Context, projectID uuid.UUID) (int64, bool, error) {
	n, err := c.client.Get(ctx, favoritesCountKey(projectID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (c *redisCountCache) Set(ctx context.Context, projectID uuid.UUID, count int64) error {
	return c.client.Set(ctx, favoritesCountKey(projectID), count, c.ttl).Err()
}

func (c *redisCountCache) Invalidate(ctx context.Context, projectID uuid.UUID) error {
	return c.client.Del(ctx, favoritesCountKey(projectID)).Err()
}

type favoriteService struct {
	repo   repositories.FavoriteRepository
	cache  CountCache // nil disables caching
	logger *zap.Logger
}

// NewFavoriteService creates a favorite service. cache may be nil.
func NewFavoriteService(repo repositories.FavoriteRepository, cache CountCache, logger *zap.Logger) FavoriteService {
	return &favoriteService{
		repo:   repo,
		cache:  cache,
		logger: logger.Named("favorites"),
	}
}

var _ FavoriteService = (*favoriteService)(nil)

func (s *favoriteService) Add(ctx context.Context, userID, projectID uuid.UUID) error {
	if err := s.repo.Add(ctx, userID, projectID); err != nil {
		return err
	}
	s.invalidate(ctx, projectID)
	return nil
}

func (s *favoriteService) Remove(ctx context.Context, userID, projectID uuid.UUID) error {
	if err := s.repo.Remove(ctx, userID, projectID); err != nil {
		return err
	}
	s.invalidate(ctx, projectID)
	return nil
}

// Count reads through the cache. Cache failures fall back to the database.
func (s *favoriteService) Count(ctx context.Context, projectID uuid.UUID) (int64, error) {
	if s.cache != nil {
		n, ok, err := s.cache.Get(ctx, projectID)
		if err != nil {
			s.logger.Warn("Favorites cache read failed",
				zap.String("project_id", projectID.String()),
				zap.Error(err))
		} else if ok {
			return n, nil
		}
	}

	n, err := s.repo.Count(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, projectID, n); err != nil {
			s.logger.Warn("Favorites cache write failed",
				zap.String("project_id", projectID.String()),
				zap.Error(err))
		}
	}
	return n, nil
}

func (s *favoriteService) invalidate(ctx context.Context, projectID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, projectID); err != nil {
		s.logger.Warn("Favorites cache invalidation failed",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
	}
}
