package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered person, provisioned from identity token claims.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Actor is the verified caller of an operation.
// Authentication happens upstream; services only perform authorization.
type Actor struct {
	UserID   uuid.UUID
	UserName string
	Username string
	IsAdmin  bool
}

// Friend is an entry in a user's friend list.
type Friend struct {
	UserID   uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Since    time.Time `json:"since"`
}
