package sync

import "errors"

var (
	// ErrNotAuthenticated is returned by any mutation without a resolved user
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrEmptyName is returned when a list name is blank after trimming
	ErrEmptyName = errors.New("list name must not be empty")

	// ErrEmptyTitle is returned when a task title is blank after trimming
	ErrEmptyTitle = errors.New("task title must not be empty")

	// ErrInvalidDueDate is returned when a due date is not an ISO date
	ErrInvalidDueDate = errors.New("due date must be YYYY-MM-DD")
)
