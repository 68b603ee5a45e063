package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tasky/internal/cache"
	"tasky/internal/middleware"
	"tasky/internal/model"
	"tasky/internal/store"
	"tasky/internal/sync"
)

type ListHandler struct {
	store store.Store
	cache *cache.Cache
}

func NewListHandler(st store.Store, c *cache.Cache) *ListHandler {
	return &ListHandler{store: st, cache: c}
}

// ListRequest представляет запрос на создание или обновление списка
type ListRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

type ListUpdateRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

type ShareRequest struct {
	UserID string `json:"userId" binding:"required"`
	Role   string `json:"role"`
}

// ListResponse представляет ответ с данными списка
type ListResponse struct {
	model.List
	TaskCount int64 `json:"taskCount"`
}

func (h *ListHandler) service(c *gin.Context) (*sync.ListService, bool) {
	identity, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}
	return sync.NewListService(h.store, h.cache, identity.UserID), true
}

// Create создает новый список
func (h *ListHandler) Create(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	var req ListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	list, err := svc.CreateList(c.Request.Context(), req.Name, req.Color)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, list)
}

// GetAll возвращает собственные и расшаренные списки пользователя
// со счётчиком незавершённых задач.
func (h *ListHandler) GetAll(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	lists, err := svc.FetchAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]ListResponse, 0, len(lists))
	for _, list := range lists {
		count, err := h.store.CountIncomplete(c.Request.Context(), list.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		response = append(response, ListResponse{List: list, TaskCount: count})
	}

	c.JSON(http.StatusOK, response)
}

// GetByID возвращает список, если у пользователя есть к нему доступ
func (h *ListHandler) GetByID(c *gin.Context) {
	identity, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	listID := c.Param("id")
	list, err := h.store.GetList(c.Request.Context(), listID)
	if err != nil {
		respondError(c, err)
		return
	}

	hasAccess, err := h.store.HasListAccess(c.Request.Context(), listID, identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to access this list"})
		return
	}

	c.JSON(http.StatusOK, list)
}

// Update переименовывает или перекрашивает список
func (h *ListHandler) Update(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	var req ListUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := svc.UpdateList(c.Request.Context(), c.Param("id"), req.Name, req.Color); err != nil {
		respondError(c, err)
		return
	}

	list, err := h.store.GetList(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Delete удаляет список вместе со всеми его задачами
func (h *ListHandler) Delete(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	if err := svc.DeleteList(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Share выдаёт пользователю доступ к списку с указанной ролью
func (h *ListHandler) Share(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	role := model.Role(req.Role)
	if role == "" {
		role = model.RoleEditor
	}
	if role != model.RoleEditor && role != model.RoleViewer {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be editor or viewer"})
		return
	}

	if err := svc.ShareList(c.Request.Context(), c.Param("id"), req.UserID, role); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
