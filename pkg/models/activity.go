package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity types.
const (
	ActivityProjectCreated     = "project_created"
	ActivityProjectDeleted     = "project_deleted"
	ActivityMemberAdded        = "member_added"
	ActivityMemberRemoved      = "member_removed"
	ActivityOwnershipTransfer  = "ownership_transferred"
	ActivityProjectCheckedOut  = "project_checked_out"
	ActivityProjectCheckedIn   = "project_checked_in"
	ActivityFileAdded          = "file_added"
	ActivityFileUpdated        = "file_updated"
	ActivityFileDeleted        = "file_deleted"
	ActivityProjectFavorited   = "project_favorited"
	ActivityProjectUnfavorited = "project_unfavorited"
)

// Activity is an entry of a user's activity feed.
type Activity struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	ProjectID   *uuid.UUID     `json:"project_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
