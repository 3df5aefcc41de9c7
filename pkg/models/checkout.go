package models

import (
	"time"

	"github.com/google/uuid"
)

// Checkout status values.
const (
	CheckoutStatusActive   = "active"
	CheckoutStatusReturned = "returned"
)

// DefaultCheckoutDuration is used when no expected return is supplied.
const DefaultCheckoutDuration = 7 * 24 * time.Hour

// Checkout is a time-bounded exclusive edit lock on a project.
// A checkout is active while ReturnedAt is nil.
type Checkout struct {
	ID             uuid.UUID  `json:"id"`
	ProjectID      uuid.UUID  `json:"project_id"`
	UserID         uuid.UUID  `json:"user_id"`
	UserName       string     `json:"user_name"`
	CheckedOutAt   time.Time  `json:"checked_out_at"`
	ExpectedReturn time.Time  `json:"expected_return"`
	ReturnedAt     *time.Time `json:"returned_at,omitempty"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes,omitempty"`
	ReturnNotes    string     `json:"return_notes,omitempty"`
}

// IsActive reports whether the checkout has not been returned.
func (c *Checkout) IsActive() bool {
	return c.ReturnedAt == nil
}

// IsOverdue reports whether an active checkout is past its expected return.
// Overdue checkouts stay locked until an explicit check-in.
func (c *Checkout) IsOverdue(now time.Time) bool {
	return c.IsActive() && now.After(c.ExpectedReturn)
}

// Duration returns how long the lock was held, or has been held so far.
func (c *Checkout) Duration(now time.Time) time.Duration {
	if c.ReturnedAt != nil {
		return c.ReturnedAt.Sub(c.CheckedOutAt)
	}
	return now.Sub(c.CheckedOutAt)
}

// CheckoutStatus is the lock state of a project.
type CheckoutStatus struct {
	IsCheckedOut bool      `json:"is_checked_out"`
	Checkout     *Checkout `json:"checkout,omitempty"`
	Overdue      bool      `json:"overdue"`
}
