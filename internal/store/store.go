package store

import (
	"context"

	"tasky/internal/model"
)

// Collection names match the remote document collections.
type Collection string

const (
	CollectionLists       Collection = "lists"
	CollectionTasks       Collection = "tasks"
	CollectionInvitations Collection = "invitations"
	CollectionPermissions Collection = "listPermissions"
)

// Event описывает зафиксированное изменение в коллекции.
type Event struct {
	Collection Collection
	EntityID   string
	ListID     string // заполнен для задач и приглашений
}

// Fields is a partial update payload. A nil value marks an absent field and
// is stripped before the write, so absent never turns into an explicit null.
type Fields map[string]any

// Sanitize returns a copy of the payload with absent fields dropped.
func (f Fields) Sanitize() Fields {
	clean := make(Fields, len(f))
	for k, v := range f {
		if v == nil {
			continue
		}
		clean[k] = v
	}
	return clean
}

// Canonical field keys accepted by UpdateList / UpdateTask.
const (
	FieldName       = "name"
	FieldColor      = "color"
	FieldSharedWith = "shared_with"
	FieldTitle      = "title"
	FieldNotes      = "notes"
	FieldDueDate    = "due_date"
	FieldPriority   = "priority"
	FieldCompleted  = "completed"
	FieldOrder      = "sort_order"
	FieldAssignedTo = "assigned_to"
)

type ListStore interface {
	CreateList(ctx context.Context, list *model.List) error
	GetList(ctx context.Context, id string) (*model.List, error)
	UpdateList(ctx context.Context, id string, fields Fields) error
	// DeleteList removes the list together with its tasks and permissions.
	// Deleting a missing id is not an error.
	DeleteList(ctx context.Context, id string) error
	ListsOwnedBy(ctx context.Context, userID string) ([]model.List, error)
	ListsSharedWith(ctx context.Context, userID string) ([]model.List, error)
	ShareList(ctx context.Context, listID, userID string, role model.Role) error
	HasListAccess(ctx context.Context, listID, userID string) (bool, error)
	// RoleFor returns the user's role for the list, or "" when there is none.
	// The owner always resolves to editor.
	RoleFor(ctx context.Context, listID, userID string) (model.Role, error)
}

type TaskStore interface {
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	UpdateTask(ctx context.Context, id string, fields Fields) error
	// DeleteTask is idempotent: deleting a missing id is not an error.
	DeleteTask(ctx context.Context, id string) error
	TasksByList(ctx context.Context, listID string) ([]model.Task, error)
	// TasksDueOn returns the user's own incomplete tasks due on the given
	// ISO date (YYYY-MM-DD), across all lists.
	TasksDueOn(ctx context.Context, userID, day string) ([]model.Task, error)
	CountIncomplete(ctx context.Context, listID string) (int64, error)
}

type InvitationStore interface {
	CreateInvitation(ctx context.Context, inv *model.Invitation) error
	GetInvitation(ctx context.Context, id string) (*model.Invitation, error)
	PendingInvitations(ctx context.Context, email string) ([]model.Invitation, error)
	// AcceptInvitation flips the status and grants list access as one unit.
	AcceptInvitation(ctx context.Context, invitationID, userID string) error
	RejectInvitation(ctx context.Context, invitationID string) error
}

// Store — единственная точка доступа к удалённому хранилищу.
// Сервисы синхронизации не ходят в БД напрямую.
type Store interface {
	ListStore
	TaskStore
	InvitationStore

	// Watch registers a listener for committed changes in a collection.
	// The callback runs synchronously after the write; it must not block.
	Watch(c Collection, fn func(Event)) (cancel func())
	Close() error
}
