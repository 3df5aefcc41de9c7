package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/projectvault/projectvault/pkg/apperrors"
	"github.com/projectvault/projectvault/pkg/database"
	"github.com/projectvault/projectvault/pkg/models"
	"github.com/projectvault/projectvault/pkg/repositories"
)

// ProjectService manages projects, their membership and ownership.
type ProjectService interface {
	Create(ctx context.Context, actor models.Actor, name, description string) (*models.Project, error)
	// Get returns the project decorated with members, favorites count and checkout status.
	Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.ProjectSummary, error)
	// ListForUser returns the projects the actor owns or is a member of.
	ListForUser(ctx context.Context, actor models.Actor) ([]*models.ProjectSummary, error)
	// Delete removes the project and everything it contains. Owner only.
	Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error

	AddMember(ctx context.Context, actor models.Actor, projectID, candidateID uuid.UUID) (*models.Member, error)
	RemoveMember(ctx context.Context, actor models.Actor, projectID, memberID uuid.UUID) error
	// TransferOwnership hands the project to an existing member. Membership
	// records are left untouched.
	TransferOwnership(ctx context.Context, actor models.Actor, projectID, newOwnerID uuid.UUID) (*models.Project, error)

	// Favorite and Unfavorite are idempotent and return the new favorites count.
	Favorite(ctx context.Context, actor models.Actor, id uuid.UUID) (int64, error)
	Unfavorite(ctx context.Context, actor models.Actor, id uuid.UUID) (int64, error)
}

type projectService struct {
	tx        database.Transactor
	loader    *aggregateLoader
	projects  repositories.ProjectRepository
	members   repositories.MemberRepository
	users     repositories.UserRepository
	friends   FriendService
	favorites FavoriteService
	activity  ActivityRecorder
	now       func() time.Time
	logger    *zap.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(
	tx database.Transactor,
	projects repositories.ProjectRepository,
	members repositories.MemberRepository,
	checkouts repositories.CheckoutRepository,
	users repositories.UserRepository,
	friends FriendService,
	favorites FavoriteService,
	activity ActivityRecorder,
	logger *zap.Logger,
) ProjectService {
	return &projectService{
		tx:        tx,
		loader:    &aggregateLoader{projects: projects, members: members, checkouts: checkouts},
		projects:  projects,
		members:   members,
		users:     users,
		friends:   friends,
		favorites: favorites,
		activity:  activity,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.Named("projects"),
	}
}

var _ ProjectService = (*projectService)(nil)

func (s *projectService) Create(ctx context.Context, actor models.Actor, name, description string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperrors.ErrInvalidArgument)
	}

	project := &models.Project{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		OwnerID:     actor.UserID,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.String("owner_id", actor.UserID.String()))

	s.record(ctx, actor, project.ID, models.ActivityProjectCreated, "Created project",
		fmt.Sprintf("%s created %s", actor.UserName, project.Name), nil)

	return project, nil
}

func (s *projectService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.ProjectSummary, error) {
	agg, err := s.loader.readable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, agg)
}

func (s *projectService) ListForUser(ctx context.Context, actor models.Actor) ([]*models.ProjectSummary, error) {
	projects, err := s.projects.ListForUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		agg, err := s.loader.complete(ctx, p)
		if err != nil {
			return nil, err
		}
		summary, err := s.summarize(ctx, agg)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *projectService) summarize(ctx context.Context, agg *aggregate) (*models.ProjectSummary, error) {
	count, err := s.favorites.Count(ctx, agg.project.ID)
	if err != nil {
		return nil, err
	}

	members := agg.members
	if members == nil {
		members = []*models.Member{}
	}
	return &models.ProjectSummary{
		Project:        *agg.project,
		Members:        members,
		FavoritesCount: count,
		Checkout:       checkoutStatus(agg.checkout, s.now()),
	}, nil
}

// Delete fails with ErrAlreadyLocked while another user holds the checkout.
func (s *projectService) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	var project *models.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		agg, err := s.loader.loadForWrite(ctx, id)
		if err != nil {
			return err
		}
		project = agg.project

		if !project.IsOwner(actor.UserID) {
			return apperrors.ErrForbidden
		}
		if agg.lockedByOther(actor) {
			return apperrors.ErrAlreadyLocked
		}
		return s.projects.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Project deleted", zap.String("project_id", id.String()))
	s.record(ctx, actor, id, models.ActivityProjectDeleted, "Deleted project",
		fmt.Sprintf("%s deleted %s", actor.UserName, project.Name), nil)
	return nil
}

// AddMember checks, in order: the actor belongs to the project, the candidate
// is the actor's friend, the candidate is not already on the project.
func (s *projectService) AddMember(ctx context.Context, actor models.Actor, projectID, candidateID uuid.UUID) (*models.Member, error) {
	var (
		project *models.Project
		member  *models.Member
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		agg, err := s.loader.loadForWrite(ctx, projectID)
		if err != nil {
			return err
		}
		project = agg.project

		if !agg.canAccess(actor) {
			return apperrors.ErrForbidden
		}

		friend, err := s.friends.IsFriend(ctx, actor.UserID, candidateID)
		if err != nil {
			return fmt.Errorf("failed to check friendship: %w", err)
		}
		if !friend {
			return apperrors.ErrNotAFriend
		}

		if agg.canAccess(models.Actor{UserID: candidateID}) {
			return apperrors.ErrConflict
		}

		candidate, err := s.users.GetByID(ctx, candidateID)
		if err != nil {
			return err
		}

		member = &models.Member{
			ProjectID: projectID,
			UserID:    candidate.ID,
			Name:      candidate.Name,
			Username:  candidate.Username,
			AddedAt:   s.now(),
		}
		if err := s.members.Add(ctx, member); err != nil {
			return err
		}
		_, err = s.projects.Touch(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, projectID, models.ActivityMemberAdded, "Added member",
		fmt.Sprintf("%s added %s to %s", actor.UserName, member.Name, project.Name),
		map[string]any{"member_id": member.UserID.String()})

	return member, nil
}

func (s *projectService) RemoveMember(ctx context.Context, actor models.Actor, projectID, memberID uuid.UUID) error {
	var project *models.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.projects.GetForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		project = p

		if !project.IsOwner(actor.UserID) {
			return apperrors.ErrForbidden
		}
		if err := s.members.Remove(ctx, projectID, memberID); err != nil {
			return err
		}
		_, err = s.projects.Touch(ctx, projectID)
		return err
	})
	if err != nil {
		return err
	}

	s.record(ctx, actor, projectID, models.ActivityMemberRemoved, "Removed member",
		fmt.Sprintf("%s removed a member from %s", actor.UserName, project.Name),
		map[string]any{"member_id": memberID.String()})

	return nil
}

func (s *projectService) TransferOwnership(ctx context.Context, actor models.Actor, projectID, newOwnerID uuid.UUID) (*models.Project, error) {
	var project *models.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		agg, err := s.loader.loadForWrite(ctx, projectID)
		if err != nil {
			return err
		}
		project = agg.project

		if !project.IsOwner(actor.UserID) {
			return apperrors.ErrForbidden
		}
		if !models.HasMember(agg.members, newOwnerID) {
			return fmt.Errorf("%w: new owner must be a member of the project", apperrors.ErrInvalidArgument)
		}

		if err := s.projects.UpdateOwner(ctx, projectID, newOwnerID); err != nil {
			return err
		}
		project.OwnerID = newOwnerID
		project.Version, err = s.projects.Touch(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Project ownership transferred",
		zap.String("project_id", projectID.String()),
		zap.String("from", actor.UserID.String()),
		zap.String("to", newOwnerID.String()))

	s.record(ctx, actor, projectID, models.ActivityOwnershipTransfer, "Transferred ownership",
		fmt.Sprintf("%s transferred %s", actor.UserName, project.Name),
		map[string]any{"new_owner_id": newOwnerID.String()})

	return project, nil
}

func (s *projectService) Favorite(ctx context.Context, actor models.Actor, id uuid.UUID) (int64, error) {
	agg, err := s.loader.readable(ctx, actor, id)
	if err != nil {
		return 0, err
	}

	err = s.favorites.Add(ctx, actor.UserID, id)
	switch {
	case err == nil:
		s.record(ctx, actor, id, models.ActivityProjectFavorited, "Favorited project",
			fmt.Sprintf("%s favorited %s", actor.UserName, agg.project.Name), nil)
	case !errors.Is(err, apperrors.ErrConflict):
		return 0, err
	}

	return s.favorites.Count(ctx, id)
}

func (s *projectService) Unfavorite(ctx context.Context, actor models.Actor, id uuid.UUID) (int64, error) {
	agg, err := s.loader.readable(ctx, actor, id)
	if err != nil {
		return 0, err
	}

	err = s.favorites.Remove(ctx, actor.UserID, id)
	switch {
	case err == nil:
		s.record(ctx, actor, id, models.ActivityProjectUnfavorited, "Unfavorited project",
			fmt.Sprintf("%s unfavorited %s", actor.UserName, agg.project.Name), nil)
	case !errors.Is(err, apperrors.ErrNotFound):
		return 0, err
	}

	return s.favorites.Count(ctx, id)
}

func (s *projectService) record(ctx context.Context, actor models.Actor, projectID uuid.UUID, activityType, title, description string, metadata map[string]any) {
	s.activity.Record(ctx, &models.Activity{
		UserID:      actor.UserID,
		Type:        activityType,
		Title:       title,
		Description: description,
		ProjectID:   projectIDPtr(projectID),
		Metadata:    metadata,
		CreatedAt:   s.now(),
	})
}
