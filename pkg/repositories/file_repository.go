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
	"github.com/projectvault/projectvault/pkg/filetree"
	"github.com/projectvault/projectvault/pkg/models"
)

// FileRepository stores the flat, path-tagged records of a project's virtual
// file tree. Paths passed in must already be normalized.
type FileRepository interface {
	// Create inserts a record. Returns ErrConflict if (path, name) is taken.
	Create(ctx context.Context, record *models.FileRecord) error
	Get(ctx context.Context, projectID uuid.UUID, path, name string) (*models.FileRecord, error)
	// UpdateContent replaces the content of a file record. Folders never match.
	UpdateContent(ctx context.Context, projectID uuid.UUID, path, name, content, changedBy, timeLabel string) (*models.FileRecord, error)
	Delete(ctx context.Context, projectID uuid.UUID, path, name, recordType string) error
	// HasDescendants reports whether any record lives inside the folder at fullPath.
	HasDescendants(ctx context.Context, projectID uuid.UUID, fullPath string) (bool, error)
	ListByPath(ctx context.Context, projectID uuid.UUID, path string) ([]*models.FileRecord, error)
	ListAll(ctx context.Context, projectID uuid.UUID) ([]*models.FileRecord, error)
}

type fileRepository struct{}

// NewFileRepository creates a new file record repository.
func NewFileRepository() FileRepository {
	return &fileRepository{}
}

var _ FileRepository = (*fileRepository)(nil)

const fileColumns = `id, project_id, name, type, path, content, changes, time_label, created_at, updated_at`

func scanFileRecord(row pgx.Row) (*models.FileRecord, error) {
	var f models.FileRecord
	err := row.Scan(
		&f.ID,
		&f.ProjectID,
		&f.Name,
		&f.Type,
		&f.Path,
		&f.Content,
		&f.Changes,
		&f.Time,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.FullPath = filetree.FullPath(f.Path, f.Name)
	return &f, nil
}

func (r *fileRepository) Create(ctx context.Context, record *models.FileRecord) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now
	record.FullPath = filetree.FullPath(record.Path, record.Name)

	_, err := q.Exec(ctx, `
		INSERT INTO project_files (id, project_id, name, type, path, content, changes, time_label, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		record.ID,
		record.ProjectID,
		record.Name,
		record.Type,
		record.Path,
		record.Content,
		record.Changes,
		record.Time,
		now,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "project_files_name_path_unique") {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create file record: %w", err)
	}

	return nil
}

func (r *fileRepository) Get(ctx context.Context, projectID uuid.UUID, path, name string) (*models.FileRecord, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	f, err := scanFileRecord(q.QueryRow(ctx, `
		SELECT `+fileColumns+`
		FROM project_files
		WHERE project_id = $1 AND path = $2 AND name = $3`, projectID, path, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get file record: %w", err)
	}

	return f, nil
}

func (r *fileRepository) UpdateContent(ctx context.Context, projectID uuid.UUID, path, name, content, changedBy, timeLabel string) (*models.FileRecord, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	f, err := scanFileRecord(q.QueryRow(ctx, `
		UPDATE project_files
		SET content = $4, changes = $5, time_label = $6, updated_at = now()
		WHERE project_id = $1 AND path = $2 AND name = $3 AND type = 'file'
		RETURNING `+fileColumns,
		projectID, path, name, content, changedBy, timeLabel))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update file content: %w", err)
	}

	return f, nil
}

func (r *fileRepository) Delete(ctx context.Context, projectID uuid.UUID, path, name, recordType string) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	result, err := q.Exec(ctx, `
		DELETE FROM project_files
		WHERE project_id = $1 AND path = $2 AND name = $3 AND type = $4`,
		projectID, path, name, recordType)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *fileRepository) HasDescendants(ctx context.Context, projectID uuid.UUID, fullPath string) (bool, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return false, fmt.Errorf("no database scope in context")
	}

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM project_files
			WHERE project_id = $1
			AND (path = $2 OR starts_with(path, $2 || '/'))
		)`, projectID, fullPath).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check folder contents: %w", err)
	}

	return exists, nil
}

func (r *fileRepository) ListByPath(ctx context.Context, projectID uuid.UUID, path string) ([]*models.FileRecord, error) {
	return r.list(ctx, `WHERE project_id = $1 AND path = $2`, projectID, path)
}

func (r *fileRepository) ListAll(ctx context.Context, projectID uuid.UUID) ([]*models.FileRecord, error) {
	return r.list(ctx, `WHERE project_id = $1`, projectID)
}

func (r *fileRepository) list(ctx context.Context, where string, args ...any) ([]*models.FileRecord, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := q.Query(ctx, `
		SELECT `+fileColumns+`
		FROM project_files `+where+`
		ORDER BY path, type DESC, name`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list file records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.FileRecord, 0)
	for rows.Next() {
		f, err := scanFileRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file record: %w", err)
		}
		records = append(records, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file records: %w", err)
	}

	return records, nil
}
