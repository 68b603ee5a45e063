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

type TaskHandler struct {
	store store.Store
	cache *cache.Cache
}

func NewTaskHandler(st store.Store, c *cache.Cache) *TaskHandler {
	return &TaskHandler{store: st, cache: c}
}

// TaskRequest представляет запрос на создание задачи
type TaskRequest struct {
	Title    string  `json:"title" binding:"required"`
	ListID   string  `json:"listId"`
	Notes    string  `json:"notes"`
	DueDate  *string `json:"dueDate"`
	Priority *int    `json:"priority" binding:"omitempty,min=0,max=2"`
}

// TaskPatchRequest — частичное обновление; отсутствующие поля не трогаются
type TaskPatchRequest struct {
	Title      *string `json:"title"`
	Notes      *string `json:"notes"`
	DueDate    *string `json:"dueDate"`
	Priority   *int    `json:"priority" binding:"omitempty,min=0,max=2"`
	Completed  *bool   `json:"completed"`
	AssignedTo *string `json:"assignedTo"`
}

// ReorderRequest описывает перетаскивание внутри одной партиции
// (завершённые или незавершённые). Destination = null — отменённый drop.
type ReorderRequest struct {
	Source      int  `json:"source" binding:"min=0"`
	Destination *int `json:"destination"`
	Completed   bool `json:"completed"`
}

func (h *TaskHandler) service(c *gin.Context, listID string) (*sync.TaskService, bool) {
	identity, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}
	return sync.NewTaskService(h.store, h.cache, identity.UserID, listID), true
}

// Create создает новую задачу
func (h *TaskHandler) Create(c *gin.Context) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	svc, ok := h.service(c, req.ListID)
	if !ok {
		return
	}

	input := sync.CreateTaskInput{
		Title:   req.Title,
		Notes:   req.Notes,
		DueDate: req.DueDate,
		ListID:  req.ListID,
	}
	if req.Priority != nil {
		p := model.Priority(*req.Priority)
		input.Priority = &p
	}

	task, err := svc.CreateTask(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// GetAll возвращает задачи списка (?listId=...) в отображаемом порядке.
// Без listId отдаётся выборка «на сегодня».
func (h *TaskHandler) GetAll(c *gin.Context) {
	identity, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	listID := c.Query("listId")
	if listID != "" && listID != model.ListInbox {
		hasAccess, err := h.store.HasListAccess(c.Request.Context(), listID, identity.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !hasAccess {
			c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to access this list"})
			return
		}
	}

	svc, ok := h.service(c, listID)
	if !ok {
		return
	}
	if err := svc.Refetch(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc.Tasks())
}

// GetByID возвращает задачу по идентификатору
func (h *TaskHandler) GetByID(c *gin.Context) {
	identity, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	task, err := h.store.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if task.ListID == model.ListInbox {
		// Инбокс персональный: чужие задачи в нём не видны
		if task.CreatedBy != identity.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to access this task"})
			return
		}
	} else {
		hasAccess, err := h.store.HasListAccess(c.Request.Context(), task.ListID, identity.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !hasAccess && task.CreatedBy != identity.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to access this task"})
			return
		}
	}

	c.JSON(http.StatusOK, task)
}

// Patch применяет частичное обновление задачи
func (h *TaskHandler) Patch(c *gin.Context) {
	svc, ok := h.service(c, "")
	if !ok {
		return
	}

	var req TaskPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	patch := sync.TaskPatch{
		Title:      req.Title,
		Notes:      req.Notes,
		DueDate:    req.DueDate,
		Completed:  req.Completed,
		AssignedTo: req.AssignedTo,
	}
	if req.Priority != nil {
		p := model.Priority(*req.Priority)
		patch.Priority = &p
	}

	if err := svc.UpdateTask(c.Request.Context(), c.Param("id"), patch); err != nil {
		respondError(c, err)
		return
	}

	task, err := h.store.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Toggle переключает состояние выполнения задачи
func (h *TaskHandler) Toggle(c *gin.Context) {
	svc, ok := h.service(c, "")
	if !ok {
		return
	}

	if err := svc.ToggleComplete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	task, err := h.store.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Delete удаляет задачу
func (h *TaskHandler) Delete(c *gin.Context) {
	svc, ok := h.service(c, "")
	if !ok {
		return
	}

	if err := svc.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reorder применяет перетаскивание к задачам списка. Отменённый drop и
// бросок на то же место не порождают ни одной записи в хранилище.
func (h *TaskHandler) Reorder(c *gin.Context) {
	identity, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	listID := c.Param("id")
	role, err := h.store.RoleFor(c.Request.Context(), listID, identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !role.CanEdit() {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to reorder tasks in this list"})
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Destination == nil {
		c.JSON(http.StatusOK, gin.H{"reordered": false})
		return
	}

	svc, ok := h.service(c, listID)
	if !ok {
		return
	}
	if err := svc.Refetch(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	// Перетаскивание действует только внутри одной партиции
	var partition []model.Task
	for _, t := range svc.Tasks() {
		if t.Completed == req.Completed {
			partition = append(partition, t)
		}
	}

	ordered, changed := sync.PlanMove(partition, req.Source, *req.Destination)
	if !changed {
		c.JSON(http.StatusOK, gin.H{"reordered": false})
		return
	}

	if err := svc.Reorder(c.Request.Context(), ordered); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reordered": true, "tasks": svc.Tasks()})
}
