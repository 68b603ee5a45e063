package sync

import (
	"context"
	stdsync "sync"

	"go.uber.org/zap"

	"tasky/internal/cache"
	"tasky/internal/logger"
	"tasky/internal/store"
)

// Session владеет всеми живыми подписками одного пользователя. Смена
// пользователя — это Close старой сессии и создание новой.
type Session struct {
	store  store.Store
	cache  *cache.Cache
	userID string
	email  string

	Lists       *ListService
	Invitations *InvitationService

	mu    stdsync.Mutex
	tasks map[string]*TaskService
}

func NewSession(st store.Store, c *cache.Cache, userID, email string) *Session {
	return &Session{
		store:       st,
		cache:       c,
		userID:      userID,
		email:       email,
		Lists:       NewListService(st, c, userID),
		Invitations: NewInvitationService(st, userID, email),
		tasks:       make(map[string]*TaskService),
	}
}

// Start begins the list subscription. Task subscriptions are opened lazily
// per list through TasksFor.
func (s *Session) Start(ctx context.Context) error {
	return s.Lists.Start(ctx)
}

// TasksFor returns the live task collection for a list (or TodayScope),
// starting it on first use.
func (s *Session) TasksFor(ctx context.Context, listID string) (*TaskService, error) {
	s.mu.Lock()
	if svc, ok := s.tasks[listID]; ok {
		s.mu.Unlock()
		return svc, nil
	}
	svc := NewTaskService(s.store, s.cache, s.userID, listID)
	s.tasks[listID] = svc
	s.mu.Unlock()

	if err := svc.Start(ctx); err != nil {
		s.mu.Lock()
		delete(s.tasks, listID)
		s.mu.Unlock()
		svc.Close()
		return nil, err
	}
	return svc, nil
}

// Close tears down every subscription the session owns.
func (s *Session) Close() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = make(map[string]*TaskService)
	s.mu.Unlock()

	for _, svc := range tasks {
		svc.Close()
	}
	s.Lists.Close()
}

// SignOut closes all subscriptions first and only then clears the local
// mirror, so a stale subscription cannot repopulate state after logout.
func (s *Session) SignOut(ctx context.Context) {
	s.Close()
	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			logger.Warn("не удалось очистить локальное зеркало", zap.Error(err))
		}
	}
}
