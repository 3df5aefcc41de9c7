package models

import (
	"time"

	"github.com/google/uuid"
)

// Favorite is a user's bookmark of a project.
type Favorite struct {
	UserID    uuid.UUID `json:"user_id"`
	ProjectID uuid.UUID `json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}
