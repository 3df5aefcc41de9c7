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
	"github.com/projectvault/projectvault/pkg/models"
)

// ProjectRepository defines the interface for project data access.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	// GetForUpdate reads the project and holds its row lock until the
	// surrounding transaction ends. Every mutation of the aggregate starts here.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateOwner(ctx context.Context, id, ownerID uuid.UUID) error
	SetCheckedOut(ctx context.Context, id uuid.UUID, checkedOut bool) error
	// Touch increments the aggregate version and returns the new value.
	Touch(ctx context.Context, id uuid.UUID) (int64, error)
}

// projectRepository implements ProjectRepository using PostgreSQL.
type projectRepository struct{}

// NewProjectRepository creates a new project repository.
func NewProjectRepository() ProjectRepository {
	return &projectRepository{}
}

var _ ProjectRepository = (*projectRepository)(nil)

const projectColumns = `id, name, description, owner_id, is_checked_out, version, created_at, updated_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.OwnerID,
		&p.IsCheckedOut,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}

	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now
	project.Version = 1
	project.IsCheckedOut = false

	_, err := q.Exec(ctx, `
		INSERT INTO projects (id, name, description, owner_id, is_checked_out, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, false, 1, $5, $5)`,
		project.ID,
		project.Name,
		project.Description,
		project.OwnerID,
		now,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

func (r *projectRepository) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return r.get(ctx, id, "")
}

func (r *projectRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if !database.InTx(ctx) {
		return nil, fmt.Errorf("project row lock requires a transaction")
	}
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *projectRepository) get(ctx context.Context, id uuid.UUID, lock string) (*models.Project, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	p, err := scanProject(q.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`+lock, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return p, nil
}

// ListForUser returns the projects the user owns or is a member of, newest first.
func (r *projectRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := q.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects p
		WHERE p.owner_id = $1
		   OR EXISTS (SELECT 1 FROM project_members m WHERE m.project_id = p.id AND m.user_id = $1)
		ORDER BY p.updated_at DESC, p.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*models.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// Delete removes the project. Members, files, checkouts and favorites cascade.
func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	result, err := q.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *projectRepository) UpdateOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	return r.update(ctx, id, `owner_id = $2`, ownerID)
}

func (r *projectRepository) SetCheckedOut(ctx context.Context, id uuid.UUID, checkedOut bool) error {
	return r.update(ctx, id, `is_checked_out = $2`, checkedOut)
}

func (r *projectRepository) update(ctx context.Context, id uuid.UUID, set string, arg any) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	result, err := q.Exec(ctx, `UPDATE projects SET `+set+`, updated_at = now() WHERE id = $1`, id, arg)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *projectRepository) Touch(ctx context.Context, id uuid.UUID) (int64, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	var version int64
	err := q.QueryRow(ctx, `
		UPDATE projects SET version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING version`, id).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrNotFound
		}
		return 0, fmt.Errorf("failed to bump project version: %w", err)
	}

	return version, nil
}
