package sync

import (
	stdsync "sync"
)

// Subscribable держит текущее значение и набор слушателей. Новый слушатель
// сразу получает текущее значение, дальше — каждое обновление.
type Subscribable[T any] struct {
	mu        stdsync.Mutex
	value     T
	nextID    int
	listeners map[int]func(T)
	closed    bool
}

func NewSubscribable[T any](initial T) *Subscribable[T] {
	return &Subscribable[T]{
		value:     initial,
		listeners: make(map[int]func(T)),
	}
}

func (s *Subscribable[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set stores the value and notifies every listener. Listeners run outside
// the lock so they may call back into the Subscribable.
func (s *Subscribable[T]) Set(value T) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.value = value
	fns := make([]func(T), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

// Subscribe attaches a listener and immediately replays the current value.
func (s *Subscribable[T]) Subscribe(fn func(T)) (cancel func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	current := s.value
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Close drops all listeners; subsequent Set calls are ignored. A closed
// Subscribable never emits again, so a stale subscription cannot repopulate
// state after teardown.
func (s *Subscribable[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.listeners = make(map[int]func(T))
	s.mu.Unlock()
}
