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
	"github.com/projectvault/projectvault/pkg/filetree"
	"github.com/projectvault/projectvault/pkg/models"
	"github.com/projectvault/projectvault/pkg/repositories"
)

// JustNowLabel is the display time stored on freshly edited files.
const JustNowLabel = "Just now"

// AddFileRequest describes a new file or folder record.
type AddFileRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

// FileService manages the virtual file tree of a project.
type FileService interface {
	Add(ctx context.Context, actor models.Actor, projectID uuid.UUID, req *AddFileRequest) (*models.FileRecord, error)
	GetContent(ctx context.Context, actor models.Actor, projectID uuid.UUID, name, path string) (*models.FileRecord, error)
	UpdateContent(ctx context.Context, actor models.Actor, projectID uuid.UUID, name, path, content string) (*models.FileRecord, error)
	Delete(ctx context.Context, actor models.Actor, projectID uuid.UUID, name, path, recordType string) error
	List(ctx context.Context, actor models.Actor, projectID uuid.UUID, path string) ([]*models.FileRecord, error)
	Tree(ctx context.Context, actor models.Actor, projectID uuid.UUID) (*filetree.Node, error)
	Breadcrumbs(ctx context.Context, actor models.Actor, projectID uuid.UUID, path string) ([]filetree.Crumb, error)
}

type fileService struct {
	tx       database.Transactor
	loader   *aggregateLoader
	projects repositories.ProjectRepository
	files    repositories.FileRepository
	activity ActivityRecorder
	logger   *zap.Logger
}

// NewFileService creates a file service.
func NewFileService(
	tx database.Transactor,
	projects repositories.ProjectRepository,
	members repositories.MemberRepository,
	checkouts repositories.CheckoutRepository,
	files repositories.FileRepository,
	activity ActivityRecorder,
	logger *zap.Logger,
) FileService {
	return &fileService{
		tx:       tx,
		loader:   &aggregateLoader{projects: projects, members: members, checkouts: checkouts},
		projects: projects,
		files:    files,
		activity: activity,
		logger:   logger.Named("files"),
	}
}

var _ FileService = (*fileService)(nil)

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", apperrors.ErrInvalidArgument)
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("%w: name must not contain '/'", apperrors.ErrInvalidArgument)
	}
	return nil
}

func (s *fileService) Add(ctx context.Context, actor models.Actor, projectID uuid.UUID, req *AddFileRequest) (*models.FileRecord, error) {
	if err := validateName(req.Name); err != nil {
		return nil, err
	}
	if !models.IsValidFileType(req.Type) {
		return nil, fmt.Errorf("%w: unknown type %q", apperrors.ErrInvalidArgument, req.Type)
	}
	if req.Type == models.FileTypeFolder && req.Content != "" {
		return nil, fmt.Errorf("%w: folders cannot have content", apperrors.ErrInvalidArgument)
	}

	record := &models.FileRecord{
		ID:        uuid.New(),
		ProjectID: projectID,
		Name:      req.Name,
		Type:      req.Type,
		Path:      filetree.Normalize(req.Path),
		Content:   req.Content,
	}
	record.FullPath = filetree.FullPath(record.Path, record.Name)
	if record.Type == models.FileTypeFile {
		record.Changes = actor.UserName
		record.Time = JustNowLabel
	}

	var project *models.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		agg, err := s.loader.writable(ctx, actor, projectID)
		if err != nil {
			return err
		}
		project = agg.project

		_, err = s.files.Get(ctx, projectID, record.Path, record.Name)
		switch {
		case err == nil:
			return apperrors.ErrConflict
		case !errors.Is(err, apperrors.ErrNotFound):
			return err
		}

		if err := s.files.Create(ctx, record); err != nil {
			return err
		}
		_, err = s.projects.Touch(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Record added",
		zap.String("project_id", projectID.String()),
		zap.String("full_path", record.FullPath),
		zap.String("type", record.Type))

	s.record(ctx, actor, project, models.ActivityFileAdded, "Added "+record.Type,
		fmt.Sprintf("%s added %s to %s", actor.UserName, record.FullPath, project.Name),
		map[string]any{"name": record.Name, "path": record.Path, "type": record.Type})

	return record, nil
}

// GetContent returns the file record at (path, name). Folders are not files
// and yield ErrNotFound.
func (s *fileService) GetContent(ctx context.Context, actor models.Actor, projectID uuid.UUID, name, path string) (*models.FileRecord, error) {
	if _, err := s.loader.readable(ctx, actor, projectID); err != nil {
		return nil, err
	}

	record, err := s.files.Get(ctx, projectID, filetree.Normalize(path), name)
	if err != nil {
		return nil, err
	}
	if record.IsFolder() {
		return nil, apperrors.ErrNotFound
	}
	return record, nil
}

func (s *fileService) UpdateContent(ctx context.Context, actor models.Actor, projectID uuid.UUID, name, path, content string) (*models.FileRecord, error) {
	path = filetree.Normalize(path)

	var (
		project *models.Project
		record  *models.FileRecord
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		agg, err := s.loader.writable(ctx, actor, projectID)
		if err != nil {
			return err
		}
		project = agg.project

		record, err = s.files.UpdateContent(ctx, projectID, path, name, content, actor.UserName, JustNowLabel)
		if err != nil {
			return err
		}
		_, err = s.projects.Touch(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, project, models.ActivityFileUpdated, "Updated file",
		fmt.Sprintf("%s updated %s in %s", actor.UserName, record.FullPath, project.Name),
		map[string]any{"name": record.Name, "path": record.Path})

	return record, nil
}

// Delete removes a record. A folder with any record at or below its full
// path is not deleted.
func (s *fileService) Delete(ctx context.Context, actor models.Actor, projectID uuid.UUID, name, path, recordType string) error {
	if !models.IsValidFileType(recordType) {
		return fmt.Errorf("%w: unknown type %q", apperrors.ErrInvalidArgument, recordType)
	}
	path = filetree.Normalize(path)
	fullPath := filetree.FullPath(path, name)

	var project *models.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		agg, err := s.loader.writable(ctx, actor, projectID)
		if err != nil {
			return err
		}
		project = agg.project

		if recordType == models.FileTypeFolder {
			nonEmpty, err := s.files.HasDescendants(ctx, projectID, fullPath)
			if err != nil {
				return err
			}
			if nonEmpty {
				return fmt.Errorf("%w: folder %q is not empty", apperrors.ErrConflict, fullPath)
			}
		}

		if err := s.files.Delete(ctx, projectID, path, name, recordType); err != nil {
			return err
		}
		_, err = s.projects.Touch(ctx, projectID)
		return err
	})
	if err != nil {
		return err
	}

	s.record(ctx, actor, project, models.ActivityFileDeleted, "Deleted "+recordType,
		fmt.Sprintf("%s deleted %s from %s", actor.UserName, fullPath, project.Name),
		map[string]any{"name": name, "path": path, "type": recordType})

	return nil
}

// List returns the records stored directly at path. Implicit folders are
// only visible through Tree.
func (s *fileService) List(ctx context.Context, actor models.Actor, projectID uuid.UUID, path string) ([]*models.FileRecord, error) {
	if _, err := s.loader.readable(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return s.files.ListByPath(ctx, projectID, filetree.Normalize(path))
}

func (s *fileService) Tree(ctx context.Context, actor models.Actor, projectID uuid.UUID) (*filetree.Node, error) {
	if _, err := s.loader.readable(ctx, actor, projectID); err != nil {
		return nil, err
	}

	records, err := s.files.ListAll(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return filetree.BuildTree(records), nil
}

func (s *fileService) Breadcrumbs(ctx context.Context, actor models.Actor, projectID uuid.UUID, path string) ([]filetree.Crumb, error) {
	if _, err := s.loader.readable(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return filetree.Breadcrumbs(path), nil
}

func (s *fileService) record(ctx context.Context, actor models.Actor, project *models.Project, activityType, title, description string, metadata map[string]any) {
	s.activity.Record(ctx, &models.Activity{
		UserID:      actor.UserID,
		Type:        activityType,
		Title:       title,
		Description: description,
		ProjectID:   projectIDPtr(project.ID),
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	})
}
