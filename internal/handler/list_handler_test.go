package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"tasky/internal/handler"
	"tasky/internal/model"
	"tasky/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListHandler_Create(t *testing.T) {
	// Arrange
	st := newTestStore()
	router := setupRouter(st, nil)
	token := tokenFor(t, "u1", "u1@example.com")

	// Act
	resp := doJSON(t, router, "POST", "/api/lists", token, payload{"name": "Покупки", "color": "green"})

	// Assert
	require.Equal(t, http.StatusCreated, resp.Code)
	var created model.List
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.Equal(t, "Покупки", created.Name)
	assert.Equal(t, "green", created.Color)
	assert.Equal(t, "u1", created.CreatedBy)
}

func TestListHandler_Create_Unauthorized(t *testing.T) {
	router := setupRouter(newTestStore(), nil)

	resp := doJSON(t, router, "POST", "/api/lists", "", payload{"name": "x"})

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestListHandler_GetAll_WithTaskCounts(t *testing.T) {
	// Arrange: два списка, в одном незавершённая задача
	st := newTestStore()
	list := mustList(t, st, "u1", "Дом")
	mustList(t, st, "u1", "Работа")
	mustTask(t, st, list.ID, "открытая", 0)
	done := mustTask(t, st, list.ID, "закрытая", 1)
	require.NoError(t, st.UpdateTask(context.Background(), done.ID, store.Fields{store.FieldCompleted: true}))

	router := setupRouter(st, nil)
	token := tokenFor(t, "u1", "u1@example.com")

	// Act
	resp := doJSON(t, router, "GET", "/api/lists", token, nil)

	// Assert
	require.Equal(t, http.StatusOK, resp.Code)
	var lists []handler.ListResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &lists))
	require.Len(t, lists, 2)

	counts := map[string]int64{}
	for _, l := range lists {
		counts[l.ID] = l.TaskCount
	}
	assert.Equal(t, int64(1), counts[list.ID])
}

func TestListHandler_GetByID_NoAccess(t *testing.T) {
	// Arrange: чужой нерасшаренный список
	st := newTestStore()
	list := mustList(t, st, "u1", "Дом")

	router := setupRouter(st, nil)
	token := tokenFor(t, "u2", "u2@example.com")

	// Act
	resp := doJSON(t, router, "GET", "/api/lists/"+list.ID, token, nil)

	// Assert
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestListHandler_GetByID_NotFound(t *testing.T) {
	router := setupRouter(newTestStore(), nil)
	token := tokenFor(t, "u1", "u1@example.com")

	resp := doJSON(t, router, "GET", "/api/lists/no-such-id", token, nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListHandler_Update(t *testing.T) {
	// Arrange
	st := newTestStore()
	list := mustList(t, st, "u1", "Дом")
	router := setupRouter(st, nil)
	token := tokenFor(t, "u1", "u1@example.com")

	// Act: обновляем только имя
	resp := doJSON(t, router, "PUT", "/api/lists/"+list.ID, token, payload{"name": "Дача"})

	// Assert
	require.Equal(t, http.StatusOK, resp.Code)
	got, err := st.GetList(context.Background(), list.ID)
	require.NoError(t, err)
	assert.Equal(t, "Дача", got.Name)
}

func TestListHandler_Update_ViewerForbidden(t *testing.T) {
	// Arrange
	st := newTestStore()
	list := mustList(t, st, "u1", "Дом")
	require.NoError(t, st.ShareList(context.Background(), list.ID, "u2", model.RoleViewer))

	router := setupRouter(st, nil)
	token := tokenFor(t, "u2", "u2@example.com")

	// Act
	resp := doJSON(t, router, "PUT", "/api/lists/"+list.ID, token, payload{"name": "Взлом"})

	// Assert
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestListHandler_Delete(t *testing.T) {
	// Arrange
	st := newTestStore()
	list := mustList(t, st, "u1", "Дом")
	mustTask(t, st, list.ID, "задача", 0)

	router := setupRouter(st, nil)
	token := tokenFor(t, "u1", "u1@example.com")

	// Act
	resp := doJSON(t, router, "DELETE", "/api/lists/"+list.ID, token, nil)

	// Assert: 204 и каскадное удаление задач
	require.Equal(t, http.StatusNoContent, resp.Code)
	tasks, err := st.TasksByList(context.Background(), list.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestListHandler_Share(t *testing.T) {
	// Arrange
	st := newTestStore()
	list := mustList(t, st, "u1", "Дом")
	router := setupRouter(st, nil)
	token := tokenFor(t, "u1", "u1@example.com")

	// Act
	resp := doJSON(t, router, "POST", "/api/lists/"+list.ID+"/share", token, payload{"userId": "u2", "role": "viewer"})

	// Assert
	require.Equal(t, http.StatusNoContent, resp.Code)
	role, err := st.RoleFor(context.Background(), list.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, model.RoleViewer, role)
}

func TestListHandler_Share_BadRole(t *testing.T) {
	st := newTestStore()
	list := mustList(t, st, "u1", "Дом")
	router := setupRouter(st, nil)
	token := tokenFor(t, "u1", "u1@example.com")

	resp := doJSON(t, router, "POST", "/api/lists/"+list.ID+"/share", token, payload{"userId": "u2", "role": "admin"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

// payload — сокращение для тел запросов в тестах
type payload = map[string]any
