package ws

import (
	stdsync "sync"

	"tasky/internal/model"
)

// Hub отслеживает подключённых клиентов по email и доставляет им
// push-уведомления.
type Hub struct {
	mu      stdsync.RWMutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Notify enqueues a push payload for every live connection of the user
// with the given email. Unreachable users are skipped silently; real push
// delivery belongs to the platform, not this hub.
func (h *Hub) Notify(email string, payload model.PushPayload) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.email == email {
			c.send(Message{Type: MessageNotification, Notification: &payload})
		}
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
