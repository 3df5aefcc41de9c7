package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/projectvault/projectvault/pkg/apperrors"
	"github.com/projectvault/projectvault/pkg/models"
	"github.com/projectvault/projectvault/pkg/repositories"
)

// FriendService manages the symmetric friend graph.
type FriendService interface {
	IsFriend(ctx context.Context, userID, otherID uuid.UUID) (bool, error)
	AddFriend(ctx context.Context, actor models.Actor, username string) (*models.Friend, error)
	RemoveFriend(ctx context.Context, actor models.Actor, friendID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*models.Friend, error)
}

type friendService struct {
	friends repositories.FriendRepository
	users   repositories.UserRepository
	logger  *zap.Logger
}

// NewFriendService creates a friend service.
func NewFriendService(friends repositories.FriendRepository, users repositories.UserRepository, logger *zap.Logger) FriendService {
	return &friendService{
		friends: friends,
		users:   users,
		logger:  logger.Named("friends"),
	}
}

var _ FriendService = (*friendService)(nil)

func (s *friendService) IsFriend(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	if userID == otherID {
		return false, nil
	}
	return s.friends.Exists(ctx, userID, otherID)
}

// AddFriend befriends the user with the given username.
func (s *friendService) AddFriend(ctx context.Context, actor models.Actor, username string) (*models.Friend, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", apperrors.ErrInvalidArgument)
	}

	other, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if other.ID == actor.UserID {
		return nil, fmt.Errorf("%w: cannot befriend yourself", apperrors.ErrInvalidArgument)
	}

	if err := s.friends.Add(ctx, actor.UserID, other.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Friendship created",
		zap.String("user_id", actor.UserID.String()),
		zap.String("friend_id", other.ID.String()))

	return &models.Friend{
		UserID:   other.ID,
		Name:     other.Name,
		Username: other.Username,
	}, nil
}

func (s *friendService) RemoveFriend(ctx context.Context, actor models.Actor, friendID uuid.UUID) error {
	return s.friends.Remove(ctx, actor.UserID, friendID)
}

func (s *friendService) List(ctx context.Context, userID uuid.UUID) ([]*models.Friend, error) {
	return s.friends.List(ctx, userID)
}
