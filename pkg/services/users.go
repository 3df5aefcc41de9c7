package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/projectvault/projectvault/pkg/apperrors"
	"github.com/projectvault/projectvault/pkg/models"
	"github.com/projectvault/projectvault/pkg/repositories"
)

// maxUsernameAttempts bounds the suffixes tried when a username is taken.
const maxUsernameAttempts = 5

// UserService provisions users from verified identity claims.
type UserService interface {
	// EnsureUser returns the stored user for the actor, creating it on first
	// sight. The stored username may carry a numeric suffix when the claimed
	// one was already taken.
	EnsureUser(ctx context.Context, actor models.Actor, email string) (*models.User, error)
}

type userService struct {
	repo   repositories.UserRepository
	logger *zap.Logger
}

// NewUserService creates a new user service with dependencies.
func NewUserService(repo repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{
		repo:   repo,
		logger: logger.Named("users"),
	}
}

var _ UserService = (*userService)(nil)

func (s *userService) EnsureUser(ctx context.Context, actor models.Actor, email string) (*models.User, error) {
	existing, err := s.repo.GetByID(ctx, actor.UserID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if existing != nil {
		if existing.Name == actor.UserName && existing.Email == email {
			return existing, nil
		}
		existing.Name = actor.UserName
		existing.Email = email
		if err := s.repo.Upsert(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		return existing, nil
	}

	user := &models.User{
		ID:    actor.UserID,
		Name:  actor.UserName,
		Email: email,
	}
	for attempt := 1; attempt <= maxUsernameAttempts; attempt++ {
		user.Username = actor.Username
		if attempt > 1 {
			user.Username = fmt.Sprintf("%s-%d", actor.Username, attempt)
		}

		err := s.repo.Upsert(ctx, user)
		if err == nil {
			s.logger.Info("Provisioned user",
				zap.String("user_id", user.ID.String()),
				zap.String("username", user.Username))
			return user, nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	return nil, fmt.Errorf("%w: username %q is taken", apperrors.ErrConflict, actor.Username)
}
