package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	stdsync "sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tasky/internal/cache"
	"tasky/internal/logger"
	"tasky/internal/model"
	"tasky/internal/store"
)

// TodayScope — виртуальный список «на сегодня»: собственные незавершённые
// задачи пользователя с dueDate на текущий день, по всем спискам.
const TodayScope = ""

// TaskService — реактивная коллекция задач одного списка (или
// today-выборки). Мутации уходят в хранилище и возвращаются через подписку;
// единственное исключение — Reorder, который применяется оптимистично.
type TaskService struct {
	store  store.Store
	cache  *cache.Cache
	userID string
	listID string // TodayScope для выборки «на сегодня»

	state  *Subscribable[[]model.Task]
	cancel func()

	mu      stdsync.Mutex
	server  []model.Task // последний снимок из хранилища
	overlay []model.Task // оптимистичное наложение, nil когда его нет
	lastErr error
}

type CreateTaskInput struct {
	Title    string
	Notes    string
	DueDate  *string
	Priority *model.Priority
	ListID   string
}

// TaskPatch — частичное обновление; nil-поля не трогаются.
type TaskPatch struct {
	Title      *string
	Notes      *string
	DueDate    *string
	Priority   *model.Priority
	Completed  *bool
	AssignedTo *string
}

func NewTaskService(st store.Store, c *cache.Cache, userID, listID string) *TaskService {
	return &TaskService{
		store:  st,
		cache:  c,
		userID: userID,
		listID: listID,
		state:  NewSubscribable[[]model.Task](nil),
	}
}

// Start loads the initial snapshot and begins listening for changes.
func (s *TaskService) Start(ctx context.Context) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}
	if err := s.Refetch(ctx); err != nil {
		return err
	}
	s.cancel = s.store.Watch(store.CollectionTasks, func(e store.Event) {
		if s.listID != TodayScope && e.ListID != "" && e.ListID != s.listID {
			return
		}
		s.reload(context.Background())
	})
	return nil
}

func (s *TaskService) Close() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state.Close()
}

// Tasks returns the current snapshot in display order. While an optimistic
// reorder is in flight the overlay wins over the server snapshot.
func (s *TaskService) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overlay != nil {
		return SortTasks(s.overlay)
	}
	return SortTasks(s.server)
}

func (s *TaskService) Subscribe(fn func([]model.Task)) (cancel func()) {
	return s.state.Subscribe(fn)
}

func (s *TaskService) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Refetch forces a one-shot reload and discards any optimistic overlay.
// Falls back to the local mirror when the remote store is unreachable.
func (s *TaskService) Refetch(ctx context.Context) error {
	tasks, err := s.fetch(ctx)
	if err != nil {
		s.setErr(err)
		if cached, ok := s.fromCache(ctx); ok {
			s.apply(cached)
		}
		return err
	}
	s.setErr(nil)
	s.apply(tasks)
	s.mirror(ctx, tasks)
	return nil
}

func (s *TaskService) reload(ctx context.Context) {
	tasks, err := s.fetch(ctx)
	if err != nil {
		s.setErr(err)
		logger.Error("не удалось обновить задачи", err, zap.String("list_id", s.listID))
		return
	}
	s.setErr(nil)
	s.apply(tasks)
	s.mirror(ctx, tasks)
}

func (s *TaskService) fetch(ctx context.Context) ([]model.Task, error) {
	if s.listID == TodayScope {
		return s.store.TasksDueOn(ctx, s.userID, today())
	}
	tasks, err := s.store.TasksByList(ctx, s.listID)
	if err != nil {
		return nil, err
	}
	return s.scopeInbox(tasks), nil
}

// scopeInbox сужает инбокс до задач текущего пользователя: коллекция одна
// на всех, но каждый видит только своё.
func (s *TaskService) scopeInbox(tasks []model.Task) []model.Task {
	if s.listID != model.ListInbox {
		return tasks
	}
	own := tasks[:0]
	for _, t := range tasks {
		if t.CreatedBy == s.userID {
			own = append(own, t)
		}
	}
	return own
}

// apply устанавливает серверный снимок и сбрасывает оптимистичное наложение:
// подтверждённое состояние хранилища всегда побеждает.
func (s *TaskService) apply(tasks []model.Task) {
	s.mu.Lock()
	s.server = tasks
	s.overlay = nil
	s.mu.Unlock()
	s.state.Set(SortTasks(tasks))
}

// CreateTask appends a task to the end of the manual ordering: its order is
// the max existing sibling order + 1, or 0 on an empty list.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*model.Task, error) {
	if s.userID == "" {
		return nil, ErrNotAuthenticated
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if input.DueDate != nil {
		if _, err := time.Parse("2006-01-02", *input.DueDate); err != nil {
			return nil, ErrInvalidDueDate
		}
	}

	listID := input.ListID
	if listID == "" {
		if s.listID != TodayScope {
			listID = s.listID
		} else {
			listID = model.ListInbox
		}
	}
	if err := s.requireEditor(ctx, listID); err != nil {
		return nil, err
	}

	siblings, err := s.store.TasksByList(ctx, listID)
	if err != nil {
		s.setErr(err)
		return nil, fmt.Errorf("load siblings: %w", err)
	}
	order := NextOrder(siblings)

	priority := model.PriorityLow
	if input.Priority != nil {
		priority = *input.Priority
	}

	task := &model.Task{
		ListID:     listID,
		Title:      title,
		Notes:      input.Notes,
		DueDate:    input.DueDate,
		Priority:   priority,
		Completed:  false,
		Order:      &order,
		CreatedBy:  s.userID,
		AssignedTo: s.userID,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		s.setErr(err)
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// UpdateTask applies a partial update; state comes back via the subscription.
func (s *TaskService) UpdateTask(ctx context.Context, id string, patch TaskPatch) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}

	fields := store.Fields{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return ErrEmptyTitle
		}
		fields[store.FieldTitle] = title
	}
	if patch.Notes != nil {
		fields[store.FieldNotes] = *patch.Notes
	}
	if patch.DueDate != nil {
		if _, err := time.Parse("2006-01-02", *patch.DueDate); err != nil {
			return ErrInvalidDueDate
		}
		fields[store.FieldDueDate] = *patch.DueDate
	}
	if patch.Priority != nil {
		fields[store.FieldPriority] = *patch.Priority
	}
	if patch.Completed != nil {
		fields[store.FieldCompleted] = *patch.Completed
	}
	if patch.AssignedTo != nil {
		fields[store.FieldAssignedTo] = *patch.AssignedTo
	}
	if len(fields) == 0 {
		return nil
	}

	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireTaskEditor(ctx, task); err != nil {
		return err
	}

	if err := s.store.UpdateTask(ctx, id, fields); err != nil {
		s.setErr(err)
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// ToggleComplete flips the completion state. The task keeps its order value,
// so the ordering of the partition it left stays intact.
func (s *TaskService) ToggleComplete(ctx context.Context, id string) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	completed := !task.Completed
	return s.UpdateTask(ctx, id, TaskPatch{Completed: &completed})
}

// DeleteTask removes a task. Deleting a missing id is not an error; deleting
// someone else's task requires editor access to its list.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil // идемпотентно
		}
		return err
	}
	if err := s.requireTaskEditor(ctx, task); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		s.setErr(err)
		return fmt.Errorf("delete task: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.DeleteTask(ctx, id); err != nil {
			logger.Warn("не удалось удалить задачу из зеркала", zap.Error(err))
		}
	}
	return nil
}

// Reorder persists a new manual ordering. The local state is replaced
// immediately for responsive drag feedback; the order writes then go out in
// parallel. On any failure the overlay is discarded via Refetch, so the
// state self-heals to whatever the store holds.
func (s *TaskService) Reorder(ctx context.Context, ordered []model.Task) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}
	if len(ordered) == 0 {
		return nil
	}

	ordered = Reindex(ordered)

	s.mu.Lock()
	s.overlay = ordered
	s.mu.Unlock()
	s.state.Set(SortTasks(ordered))

	g, gctx := errgroup.WithContext(ctx)
	for i := range ordered {
		task := ordered[i]
		g.Go(func() error {
			return s.store.UpdateTask(gctx, task.ID, store.Fields{
				store.FieldOrder: task.OrderValue(),
			})
		})
	}
	if err := g.Wait(); err != nil {
		s.setErr(err)
		if rerr := s.Refetch(ctx); rerr != nil {
			logger.Error("refetch после неудачного reorder", rerr, zap.String("list_id", s.listID))
		}
		return fmt.Errorf("reorder tasks: %w", err)
	}
	return nil
}

// requireTaskEditor guards mutations of an existing task. Инбокс не
// расшаривается: его задачи меняет только автор.
func (s *TaskService) requireTaskEditor(ctx context.Context, task *model.Task) error {
	if task.ListID == model.ListInbox {
		if task.CreatedBy != s.userID {
			return store.ErrForbidden
		}
		return nil
	}
	return s.requireEditor(ctx, task.ListID)
}

func (s *TaskService) requireEditor(ctx context.Context, listID string) error {
	if listID == model.ListInbox {
		return nil
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

func (s *TaskService) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *TaskService) fromCache(ctx context.Context) ([]model.Task, bool) {
	if s.cache == nil {
		return nil, false
	}
	var (
		tasks []model.Task
		err   error
	)
	if s.listID == TodayScope {
		tasks, err = s.cache.TasksDueOn(ctx, today())
	} else {
		tasks, err = s.cache.TasksByList(ctx, s.listID)
	}
	if err != nil {
		return nil, false
	}
	return s.scopeInbox(tasks), true
}

func (s *TaskService) mirror(ctx context.Context, tasks []model.Task) {
	if s.cache == nil {
		return
	}
	if err := s.cache.PutTasks(ctx, tasks); err != nil {
		logger.Warn("не удалось обновить зеркало задач", zap.Error(err))
	}
}

func today() string {
	return time.Now().Format("2006-01-02")
}
