package store

import (
	"sync"
)

// Hub fans out change events to watchers of a collection. Dispatch is
// synchronous so a watcher that re-queries the store sees the committed
// state; implementations publish only after their own locks are released.
type Hub struct {
	mu      sync.RWMutex
	nextID  int
	watches map[int]watch
}

type watch struct {
	collection Collection
	fn         func(Event)
}

func NewHub() *Hub {
	return &Hub{watches: make(map[int]watch)}
}

func (h *Hub) Watch(c Collection, fn func(Event)) (cancel func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.watches[id] = watch{collection: c, fn: fn}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.watches, id)
		h.mu.Unlock()
	}
}

func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	fns := make([]func(Event), 0, len(h.watches))
	for _, w := range h.watches {
		if w.collection == e.Collection {
			fns = append(fns, w.fn)
		}
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}

// WatcherCount returns the number of watchers for a collection.
func (h *Hub) WatcherCount(c Collection) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, w := range h.watches {
		if w.collection == c {
			n++
		}
	}
	return n
}
