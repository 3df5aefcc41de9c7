package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/projectvault/projectvault/pkg/apperrors"
	"github.com/projectvault/projectvault/pkg/database"
	"github.com/projectvault/projectvault/pkg/models"
)

// MemberRepository stores denormalized project membership entries.
type MemberRepository interface {
	Add(ctx context.Context, member *models.Member) error
	Remove(ctx context.Context, projectID, userID uuid.UUID) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Member, error)
}

type memberRepository struct{}

// NewMemberRepository creates a new member repository.
func NewMemberRepository() MemberRepository {
	return &memberRepository{}
}

var _ MemberRepository = (*memberRepository)(nil)

// Add appends a member. Returns ErrConflict if the user is already a member.
func (r *memberRepository) Add(ctx context.Context, member *models.Member) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	member.AddedAt = time.Now()

	_, err := q.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, name, username, added_at)
		VALUES ($1, $2, $3, $4, $5)`,
		member.ProjectID,
		member.UserID,
		member.Name,
		member.Username,
		member.AddedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "project_members_pkey") {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

func (r *memberRepository) Remove(ctx context.Context, projectID, userID uuid.UUID) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	result, err := q.Exec(ctx, `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *memberRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Member, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := q.Query(ctx, `
		SELECT project_id, user_id, name, username, added_at
		FROM project_members
		WHERE project_id = $1
		ORDER BY added_at, user_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.Member, 0)
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Name, &m.Username, &m.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}
