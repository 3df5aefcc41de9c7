package apperrors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyLocked is returned when a project already has an active checkout
	// held by someone other than the caller.
	ErrAlreadyLocked = errors.New("project is already checked out")
	// ErrNotLocked is returned when a check-in is attempted without an active checkout.
	ErrNotLocked = errors.New("project is not checked out")
	// ErrNotAFriend is returned when adding a member who is not a friend of the actor.
	ErrNotAFriend = errors.New("candidate is not a friend")
)
