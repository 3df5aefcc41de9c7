// Package models contains domain types for projectvault.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is the aggregate root tying together ownership, membership,
// checkout state and the virtual file tree.
type Project struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	OwnerID      uuid.UUID `json:"owner_id"`
	IsCheckedOut bool      `json:"is_checked_out"` // mirrors the existence of an active Checkout
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Member is a denormalized membership entry of a project.
type Member struct {
	ProjectID uuid.UUID `json:"-"`
	UserID    uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	AddedAt   time.Time `json:"added_at"`
}

// ProjectSummary is a project decorated with the data a listing needs.
type ProjectSummary struct {
	Project
	Members        []*Member       `json:"members"`
	FavoritesCount int64           `json:"favorites_count"`
	Checkout       *CheckoutStatus `json:"checkout"`
}

// IsOwner reports whether userID currently owns the project.
func (p *Project) IsOwner(userID uuid.UUID) bool {
	return p.OwnerID == userID
}

// HasMember reports whether userID appears in members.
// The owner is not implicitly included; use CanAccess for permission checks.
func HasMember(members []*Member, userID uuid.UUID) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// CanAccess reports whether userID is the owner or a member of the project.
func (p *Project) CanAccess(members []*Member, userID uuid.UUID) bool {
	return p.IsOwner(userID) || HasMember(members, userID)
}
