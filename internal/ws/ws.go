// Package ws exposes the real-time surface: a client opens one socket, gets
// an immediate snapshot of its lists, subscribes to task collections and
// receives a fresh snapshot after every committed change.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tasky/internal/auth"
	"tasky/internal/cache"
	"tasky/internal/logger"
	"tasky/internal/model"
	"tasky/internal/store"
	"tasky/internal/sync"
)

const (
	// Сообщения сервер → клиент
	MessageLists        = "lists"
	MessageTasks        = "tasks"
	MessageNotification = "notification"
	MessageError        = "error"

	// Сообщения клиент → сервер
	MessageWatchTasks   = "watchTasks"
	MessageUnwatchTasks = "unwatchTasks"
)

type Message struct {
	Type         string             `json:"type"`
	ListID       string             `json:"listId,omitempty"`
	Lists        []model.List       `json:"lists,omitempty"`
	Tasks        []model.Task       `json:"tasks,omitempty"`
	Notification *model.PushPayload `json:"notification,omitempty"`
	Error        string             `json:"error,omitempty"`
}

type Server struct {
	store     store.Store
	cache     *cache.Cache
	hub       *Hub
	jwtSecret string
	upgrader  websocket.Upgrader
}

func NewServer(st store.Store, c *cache.Cache, hub *Hub, jwtSecret string) *Server {
	return &Server{
		store:     st,
		cache:     c,
		hub:       hub,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

type client struct {
	conn   *websocket.Conn
	email  string
	out    chan Message
	closed chan struct{}
}

// send enqueues a message without blocking; a slow consumer loses snapshots
// but always receives the latest one eventually.
func (c *client) send(msg Message) {
	select {
	case c.out <- msg:
	case <-c.closed:
	default:
	}
}

// Handle upgrades the connection and serves it until the peer goes away.
// Токен передаётся query-параметром, потому что браузерный WebSocket API
// не даёт выставить заголовок Authorization.
func (s *Server) Handle(c *gin.Context) {
	identity, err := auth.ParseToken(s.jwtSecret, c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("не удалось установить websocket-соединение", err)
		return
	}

	cl := &client{
		conn:   conn,
		email:  identity.Email,
		out:    make(chan Message, 16),
		closed: make(chan struct{}),
	}
	s.hub.register(cl)

	session := sync.NewSession(s.store, s.cache, identity.UserID, identity.Email)
	if err := session.Start(c.Request.Context()); err != nil {
		cl.send(Message{Type: MessageError, Error: "failed to load lists"})
	}

	unsubscribe := session.Lists.Subscribe(func(lists []model.List) {
		cl.send(Message{Type: MessageLists, Lists: lists})
	})

	go s.writeLoop(cl)
	s.readLoop(cl, session)

	// Подписки сворачиваются до закрытия канала отправки: после разрыва
	// соединения ни один снимок больше не уходит в отвал.
	unsubscribe()
	session.Close()
	s.hub.unregister(cl)
	close(cl.closed)
	conn.Close()
}

func (s *Server) readLoop(cl *client, session *sync.Session) {
	taskSubs := make(map[string]func())
	defer func() {
		for _, cancel := range taskSubs {
			cancel()
		}
	}()

	for {
		var msg Message
		if err := cl.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case MessageWatchTasks:
			if _, ok := taskSubs[msg.ListID]; ok {
				continue
			}
			svc, err := session.TasksFor(context.Background(), msg.ListID)
			if err != nil {
				cl.send(Message{Type: MessageError, ListID: msg.ListID, Error: "failed to load tasks"})
				continue
			}
			listID := msg.ListID
			taskSubs[listID] = svc.Subscribe(func(tasks []model.Task) {
				cl.send(Message{Type: MessageTasks, ListID: listID, Tasks: tasks})
			})
		case MessageUnwatchTasks:
			if cancel, ok := taskSubs[msg.ListID]; ok {
				cancel()
				delete(taskSubs, msg.ListID)
			}
		}
	}
}

func (s *Server) writeLoop(cl *client) {
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case msg := <-cl.out:
			if err := cl.conn.WriteJSON(msg); err != nil {
				logger.Warn("запись в websocket не удалась", zap.Error(err))
				cl.conn.Close()
				return
			}
		case <-ping.C:
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cl.conn.Close()
				return
			}
		case <-cl.closed:
			return
		}
	}
}
