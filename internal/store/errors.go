package store

import "errors"

// Common store errors
var (
	// ErrListNotFound is returned when a list is not found
	ErrListNotFound = errors.New("list not found")

	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvitationNotFound is returned when an invitation is not found
	ErrInvitationNotFound = errors.New("invitation not found")

	// ErrInvitationResolved is returned when accept/reject hits a terminal status
	ErrInvitationResolved = errors.New("invitation already resolved")

	// ErrForbidden is returned when the acting user has no access to the list
	ErrForbidden = errors.New("no access to list")
)
