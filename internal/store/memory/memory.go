// Package memory implements the store gateway in process memory. It backs
// tests and the degraded offline mode; semantics mirror the remote store,
// including idempotent deletes and sanitized partial updates.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tasky/internal/model"
	"tasky/internal/store"
)

type Memory struct {
	mu          sync.RWMutex
	lists       map[string]*model.List
	tasks       map[string]*model.Task
	invitations map[string]*model.Invitation
	permissions map[string]*model.ListPermission // key: listID + "/" + userID
	hub         *store.Hub
}

func New() *Memory {
	return &Memory{
		lists:       make(map[string]*model.List),
		tasks:       make(map[string]*model.Task),
		invitations: make(map[string]*model.Invitation),
		permissions: make(map[string]*model.ListPermission),
		hub:         store.NewHub(),
	}
}

func (m *Memory) Watch(c store.Collection, fn func(store.Event)) (cancel func()) {
	return m.hub.Watch(c, fn)
}

func (m *Memory) Close() error { return nil }

func permKey(listID, userID string) string { return listID + "/" + userID }

func now() time.Time { return time.Now().UTC() }

// ----- lists -----

func (m *Memory) CreateList(ctx context.Context, list *model.List) error {
	if list.ID == "" {
		list.ID = uuid.NewString()
	}
	list.Color = model.NormalizeColor(list.Color)
	if list.SharedWith == nil {
		list.SharedWith = model.Members{}
	}
	ts := now()
	list.CreatedAt = ts
	list.UpdatedAt = ts

	m.mu.Lock()
	cp := *list
	m.lists[list.ID] = &cp
	m.mu.Unlock()

	m.hub.Publish(store.Event{Collection: store.CollectionLists, EntityID: list.ID})
	return nil
}

func (m *Memory) GetList(ctx context.Context, id string) (*model.List, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list, ok := m.lists[id]
	if !ok {
		return nil, store.ErrListNotFound
	}
	cp := *list
	return &cp, nil
}

func (m *Memory) UpdateList(ctx context.Context, id string, fields store.Fields) error {
	m.mu.Lock()
	list, ok := m.lists[id]
	if !ok {
		m.mu.Unlock()
		return store.ErrListNotFound
	}
	applyListFields(list, fields.Sanitize())
	list.UpdatedAt = now()
	m.mu.Unlock()

	m.hub.Publish(store.Event{Collection: store.CollectionLists, EntityID: id})
	return nil
}

func (m *Memory) DeleteList(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.lists, id)
	for tid, t := range m.tasks {
		if t.ListID == id {
			delete(m.tasks, tid)
		}
	}
	for key, p := range m.permissions {
		if p.ListID == id {
			delete(m.permissions, key)
		}
	}
	m.mu.Unlock()

	m.hub.Publish(store.Event{Collection: store.CollectionTasks, ListID: id})
	m.hub.Publish(store.Event{Collection: store.CollectionLists, EntityID: id})
	return nil
}

func (m *Memory) ListsOwnedBy(ctx context.Context, userID string) ([]model.List, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.List
	for _, l := range m.lists {
		if l.CreatedBy == userID {
			out = append(out, *l)
		}
	}
	sortListsByRecency(out)
	return out, nil
}

func (m *Memory) ListsSharedWith(ctx context.Context, userID string) ([]model.List, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.List
	for _, l := range m.lists {
		if l.SharedWith.Contains(userID) {
			out = append(out, *l)
		}
	}
	sortListsByRecency(out)
	return out, nil
}

func (m *Memory) ShareList(ctx context.Context, listID, userID string, role model.Role) error {
	m.mu.Lock()
	err := m.shareLocked(listID, userID, role)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.hub.Publish(store.Event{Collection: store.CollectionLists, EntityID: listID})
	m.hub.Publish(store.Event{Collection: store.CollectionPermissions, EntityID: listID, ListID: listID})
	return nil
}

func (m *Memory) shareLocked(listID, userID string, role model.Role) error {
	list, ok := m.lists[listID]
	if !ok {
		return store.ErrListNotFound
	}
	if list.CreatedBy != userID {
		list.SharedWith = list.SharedWith.Add(userID)
		list.UpdatedAt = now()
	}
	key := permKey(listID, userID)
	if p, ok := m.permissions[key]; ok {
		p.Role = role
		return nil
	}
	m.permissions[key] = &model.ListPermission{
		ID:        uuid.NewString(),
		ListID:    listID,
		UserID:    userID,
		Role:      role,
		GrantedAt: now(),
	}
	return nil
}

func (m *Memory) HasListAccess(ctx context.Context, listID, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list, ok := m.lists[listID]
	if !ok {
		return false, nil
	}
	return list.CreatedBy == userID || list.SharedWith.Contains(userID), nil
}

func (m *Memory) RoleFor(ctx context.Context, listID, userID string) (model.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list, ok := m.lists[listID]
	if !ok {
		return "", nil
	}
	if list.CreatedBy == userID {
		return model.RoleEditor, nil
	}
	if p, ok := m.permissions[permKey(listID, userID)]; ok {
		return p.Role, nil
	}
	return "", nil
}

// ----- tasks -----

func (m *Memory) CreateTask(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.ListID == "" {
		task.ListID = model.ListInbox
	}
	ts := now()
	task.CreatedAt = ts
	task.UpdatedAt = ts

	m.mu.Lock()
	cp := *task
	m.tasks[task.ID] = &cp
	m.mu.Unlock()

	m.hub.Publish(store.Event{Collection: store.CollectionTasks, EntityID: task.ID, ListID: task.ListID})
	return nil
}

func (m *Memory) GetTask(ctx context.Context, id string) (*model.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *task
	return &cp, nil
}

func (m *Memory) UpdateTask(ctx context.Context, id string, fields store.Fields) error {
	m.mu.Lock()
	task, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return store.ErrTaskNotFound
	}
	applyTaskFields(task, fields.Sanitize())
	task.UpdatedAt = now()
	listID := task.ListID
	m.mu.Unlock()

	m.hub.Publish(store.Event{Collection: store.CollectionTasks, EntityID: id, ListID: listID})
	return nil
}

func (m *Memory) DeleteTask(ctx context.Context, id string) error {
	m.mu.Lock()
	task, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	listID := task.ListID
	delete(m.tasks, id)
	m.mu.Unlock()

	m.hub.Publish(store.Event{Collection: store.CollectionTasks, EntityID: id, ListID: listID})
	return nil
}

func (m *Memory) TasksByList(ctx context.Context, listID string) ([]model.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Task
	for _, t := range m.tasks {
		if t.ListID == listID {
			out = append(out, *t)
		}
	}
	sortTasksByRecency(out)
	return out, nil
}

func (m *Memory) TasksDueOn(ctx context.Context, userID, day string) ([]model.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Task
	for _, t := range m.tasks {
		if t.CreatedBy == userID && !t.Completed && t.DueDate != nil && *t.DueDate == day {
			out = append(out, *t)
		}
	}
	sortTasksByRecency(out)
	return out, nil
}

func (m *Memory) CountIncomplete(ctx context.Context, listID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, t := range m.tasks {
		if t.ListID == listID && !t.Completed {
			n++
		}
	}
	return n, nil
}

// ----- invitations -----

func (m *Memory) CreateInvitation(ctx context.Context, inv *model.Invitation) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.Status == "" {
		inv.Status = model.InvitationPending
	}
	inv.CreatedAt = now()

	m.mu.Lock()
	cp := *inv
	m.invitations[inv.ID] = &cp
	m.mu.Unlock()

	m.hub.Publish(store.Event{Collection: store.CollectionInvitations, EntityID: inv.ID, ListID: inv.ListID})
	return nil
}

func (m *Memory) GetInvitation(ctx context.Context, id string) (*model.Invitation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inv, ok := m.invitations[id]
	if !ok {
		return nil, store.ErrInvitationNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *Memory) PendingInvitations(ctx context.Context, email string) ([]model.Invitation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Invitation
	for _, inv := range m.invitations {
		if inv.InviteeEmail == email && inv.Status == model.InvitationPending {
			out = append(out, *inv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) AcceptInvitation(ctx context.Context, invitationID, userID string) error {
	m.mu.Lock()
	inv, ok := m.invitations[invitationID]
	if !ok {
		m.mu.Unlock()
		return store.ErrInvitationNotFound
	}
	if inv.Resolved() {
		m.mu.Unlock()
		return store.ErrInvitationResolved
	}
	list, ok := m.lists[inv.ListID]
	if !ok {
		m.mu.Unlock()
		return store.ErrListNotFound
	}
	if list.CreatedBy != inv.InviterUserID && !list.SharedWith.Contains(inv.InviterUserID) {
		m.mu.Unlock()
		return store.ErrForbidden
	}

	inv.Status = model.InvitationAccepted
	listID := inv.ListID
	err := m.shareLocked(listID, userID, model.RoleEditor)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.hub.Publish(store.Event{Collection: store.CollectionInvitations, EntityID: invitationID, ListID: listID})
	m.hub.Publish(store.Event{Collection: store.CollectionLists, EntityID: listID})
	return nil
}

func (m *Memory) RejectInvitation(ctx context.Context, invitationID string) error {
	m.mu.Lock()
	inv, ok := m.invitations[invitationID]
	if !ok {
		m.mu.Unlock()
		return store.ErrInvitationNotFound
	}
	if inv.Resolved() {
		m.mu.Unlock()
		return store.ErrInvitationResolved
	}
	inv.Status = model.InvitationRejected
	listID := inv.ListID
	m.mu.Unlock()

	m.hub.Publish(store.Event{Collection: store.CollectionInvitations, EntityID: invitationID, ListID: listID})
	return nil
}

// ----- helpers -----

func applyListFields(list *model.List, fields store.Fields) {
	for key, value := range fields {
		switch key {
		case store.FieldName:
			if v, ok := value.(string); ok {
				list.Name = v
			}
		case store.FieldColor:
			if v, ok := value.(string); ok {
				list.Color = model.NormalizeColor(v)
			}
		case store.FieldSharedWith:
			if v, ok := value.(model.Members); ok {
				list.SharedWith = v
			}
		}
	}
}

func applyTaskFields(task *model.Task, fields store.Fields) {
	for key, value := range fields {
		switch key {
		case store.FieldTitle:
			if v, ok := value.(string); ok {
				task.Title = v
			}
		case store.FieldNotes:
			if v, ok := value.(string); ok {
				task.Notes = v
			}
		case store.FieldDueDate:
			switch v := value.(type) {
			case string:
				task.DueDate = &v
			case *string:
				task.DueDate = v
			}
		case store.FieldPriority:
			switch v := value.(type) {
			case model.Priority:
				task.Priority = v
			case int:
				task.Priority = model.Priority(v)
			}
		case store.FieldCompleted:
			if v, ok := value.(bool); ok {
				task.Completed = v
			}
		case store.FieldOrder:
			switch v := value.(type) {
			case int:
				order := v
				task.Order = &order
			case *int:
				task.Order = v
			}
		case store.FieldAssignedTo:
			if v, ok := value.(string); ok {
				task.AssignedTo = v
			}
		}
	}
}

func sortListsByRecency(lists []model.List) {
	sort.SliceStable(lists, func(i, j int) bool {
		return lists[i].UpdatedAt.After(lists[j].UpdatedAt)
	})
}

func sortTasksByRecency(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].UpdatedAt.After(tasks[j].UpdatedAt)
	})
}
