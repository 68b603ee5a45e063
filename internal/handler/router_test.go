package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tasky/internal/auth"
	"tasky/internal/handler"
	"tasky/internal/middleware"
	"tasky/internal/model"
	"tasky/internal/store"
	"tasky/internal/store/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

// testNotifier накапливает отправленные уведомления
type testNotifier struct {
	sent []model.PushPayload
	to   []string
}

func (n *testNotifier) Notify(email string, payload model.PushPayload) {
	n.to = append(n.to, email)
	n.sent = append(n.sent, payload)
}

func setupRouter(st store.Store, notifier handler.Notifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	listHandler := handler.NewListHandler(st, nil)
	taskHandler := handler.NewTaskHandler(st, nil)
	invitationHandler := handler.NewInvitationHandler(st, notifier)

	authorized := r.Group("/api")
	authorized.Use(middleware.JWTAuthMiddleware(testJWTSecret))
	{
		authorized.POST("/lists", listHandler.Create)
		authorized.GET("/lists", listHandler.GetAll)
		authorized.GET("/lists/:id", listHandler.GetByID)
		authorized.PUT("/lists/:id", listHandler.Update)
		authorized.DELETE("/lists/:id", listHandler.Delete)
		authorized.POST("/lists/:id/share", listHandler.Share)
		authorized.POST("/lists/:id/tasks/reorder", taskHandler.Reorder)

		authorized.POST("/tasks", taskHandler.Create)
		authorized.GET("/tasks", taskHandler.GetAll)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PATCH("/tasks/:id", taskHandler.Patch)
		authorized.POST("/tasks/:id/toggle", taskHandler.Toggle)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)

		authorized.POST("/invitations", invitationHandler.Create)
		authorized.GET("/invitations", invitationHandler.GetPending)
		authorized.POST("/invitations/:id/accept", invitationHandler.Accept)
		authorized.POST("/invitations/:id/reject", invitationHandler.Reject)
	}

	return r
}

func tokenFor(t *testing.T, userID, email string) string {
	t.Helper()
	token, err := auth.GenerateToken(testJWTSecret, auth.Identity{UserID: userID, Email: email}, time.Hour)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func mustList(t *testing.T, st store.Store, owner, name string) *model.List {
	t.Helper()
	list := &model.List{Name: name, CreatedBy: owner}
	require.NoError(t, st.CreateList(context.Background(), list))
	return list
}

func mustTask(t *testing.T, st store.Store, listID, title string, order int) *model.Task {
	t.Helper()
	o := order
	task := &model.Task{ListID: listID, Title: title, Order: &o, CreatedBy: "u1", AssignedTo: "u1"}
	require.NoError(t, st.CreateTask(context.Background(), task))
	return task
}

func newTestStore() *memory.Memory {
	return memory.New()
}
