package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	stdsync "sync"

	"go.uber.org/zap"

	"tasky/internal/cache"
	"tasky/internal/logger"
	"tasky/internal/model"
	"tasky/internal/store"
)

// ListService даёт реактивную коллекцию списков пользователя:
// собственные ∪ расшаренные, без дубликатов. Источник истины — подписка
// на удалённое хранилище; мутации списков не применяются оптимистично.
type ListService struct {
	store  store.Store
	cache  *cache.Cache // nil, если зеркало не используется
	userID string

	lists  *Subscribable[[]model.List]
	cancel func()

	mu      stdsync.Mutex
	lastErr error
}

// NewListService builds a service scoped to one user. A user change means a
// new service: the old one is Closed, a fresh one Started.
func NewListService(st store.Store, c *cache.Cache, userID string) *ListService {
	return &ListService{
		store:  st,
		cache:  c,
		userID: userID,
		lists:  NewSubscribable[[]model.List](nil),
	}
}

// Start loads the initial snapshot and begins listening for changes.
func (s *ListService) Start(ctx context.Context) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}
	if err := s.Refetch(ctx); err != nil {
		return err
	}
	s.cancel = s.store.Watch(store.CollectionLists, func(store.Event) {
		s.reload(context.Background())
	})
	return nil
}

// Close tears down the subscription. Further store changes no longer reach
// this service, so stale callbacks cannot repopulate state after sign-out.
func (s *ListService) Close() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.lists.Close()
}

// Lists returns the current merged snapshot.
func (s *ListService) Lists() []model.List {
	return s.lists.Get()
}

// Subscribe attaches a listener; it immediately receives the current snapshot.
func (s *ListService) Subscribe(fn func([]model.List)) (cancel func()) {
	return s.lists.Subscribe(fn)
}

// Err returns the sticky error from the last failed load, if any.
func (s *ListService) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Refetch forces a one-shot reload, the degraded fallback when the
// subscription stream is in error. Falls back to the local mirror when the
// remote store is unreachable.
func (s *ListService) Refetch(ctx context.Context) error {
	lists, err := s.fetchMerged(ctx)
	if err != nil {
		s.setErr(err)
		if s.cache != nil {
			if cached, cerr := s.cache.Lists(ctx); cerr == nil {
				s.lists.Set(cached)
			}
		}
		return err
	}
	s.setErr(nil)
	s.lists.Set(lists)
	s.mirror(ctx, lists)
	return nil
}

func (s *ListService) reload(ctx context.Context) {
	lists, err := s.fetchMerged(ctx)
	if err != nil {
		s.setErr(err)
		logger.Error("не удалось обновить списки", err, zap.String("user_id", s.userID))
		return
	}
	s.setErr(nil)
	s.lists.Set(lists)
	s.mirror(ctx, lists)
}

// FetchAll returns the merged owned ∪ shared collection without touching
// the reactive state; the one-shot path for stateless callers.
func (s *ListService) FetchAll(ctx context.Context) ([]model.List, error) {
	if s.userID == "" {
		return nil, ErrNotAuthenticated
	}
	return s.fetchMerged(ctx)
}

// fetchMerged returns owned ∪ shared, deduplicated by id (later wins).
func (s *ListService) fetchMerged(ctx context.Context) ([]model.List, error) {
	owned, err := s.store.ListsOwnedBy(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("load owned lists: %w", err)
	}
	shared, err := s.store.ListsSharedWith(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("load shared lists: %w", err)
	}

	seen := make(map[string]int, len(owned))
	merged := make([]model.List, 0, len(owned)+len(shared))
	for _, l := range owned {
		seen[l.ID] = len(merged)
		merged = append(merged, l)
	}
	for _, l := range shared {
		if i, ok := seen[l.ID]; ok {
			merged[i] = l
			continue
		}
		seen[l.ID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}

// CreateList creates a list owned by the current user. State updates arrive
// through the subscription, not optimistically.
func (s *ListService) CreateList(ctx context.Context, name, color string) (*model.List, error) {
	if s.userID == "" {
		return nil, ErrNotAuthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	list := &model.List{
		Name:      name,
		Color:     color,
		CreatedBy: s.userID,
	}
	if err := s.store.CreateList(ctx, list); err != nil {
		s.setErr(err)
		return nil, fmt.Errorf("create list: %w", err)
	}
	return list, nil
}

// UpdateList renames or recolors a list; nil fields stay untouched.
func (s *ListService) UpdateList(ctx context.Context, id string, name, color *string) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return ErrEmptyName
		}
		name = &trimmed
	}
	if err := s.requireEditor(ctx, id); err != nil {
		return err
	}

	fields := store.Fields{}
	if name != nil {
		fields[store.FieldName] = *name
	}
	if color != nil {
		fields[store.FieldColor] = *color
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.store.UpdateList(ctx, id, fields); err != nil {
		s.setErr(err)
		return fmt.Errorf("update list: %w", err)
	}
	return nil
}

// DeleteList removes the list and every task in it. Only the owner may
// delete a list.
func (s *ListService) DeleteList(ctx context.Context, id string) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}
	list, err := s.store.GetList(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrListNotFound) {
			return nil // идемпотентно
		}
		return err
	}
	if list.CreatedBy != s.userID {
		return store.ErrForbidden
	}

	if err := s.store.DeleteList(ctx, id); err != nil {
		s.setErr(err)
		return fmt.Errorf("delete list: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.DeleteList(ctx, id); err != nil {
			logger.Warn("не удалось удалить список из зеркала", zap.String("list_id", id), zap.Error(err))
		}
	}
	return nil
}

// ShareList grants a user access with the given role. Owner or editor only.
func (s *ListService) ShareList(ctx context.Context, listID, userID string, role model.Role) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}
	if err := s.requireEditor(ctx, listID); err != nil {
		return err
	}
	if err := s.store.ShareList(ctx, listID, userID, role); err != nil {
		s.setErr(err)
		return fmt.Errorf("share list: %w", err)
	}
	return nil
}

// HasAccess reports whether a user may see the list (owner or member).
func (s *ListService) HasAccess(ctx context.Context, listID, userID string) (bool, error) {
	return s.store.HasListAccess(ctx, listID, userID)
}

func (s *ListService) requireEditor(ctx context.Context, listID string) error {
	if _, err := s.store.GetList(ctx, listID); err != nil {
		return err
	}
	role, err := s.store.RoleFor(ctx, listID, s.userID)
	if err != nil {
		return err
	}
	if !role.CanEdit() {
		return store.ErrForbidden
	}
	return nil
}

func (s *ListService) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *ListService) mirror(ctx context.Context, lists []model.List) {
	if s.cache == nil {
		return
	}
	if err := s.cache.PutLists(ctx, lists); err != nil {
		logger.Warn("не удалось обновить зеркало списков", zap.Error(err))
	}
}
