package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tasky/internal/middleware"
	"tasky/internal/model"
	"tasky/internal/store"
	"tasky/internal/sync"
)

// Notifier доставляет push-уведомление приглашённому, если тот подключён.
type Notifier interface {
	Notify(email string, payload model.PushPayload)
}

type InvitationHandler struct {
	store    store.Store
	notifier Notifier // nil, если доставка уведомлений не настроена
}

func NewInvitationHandler(st store.Store, notifier Notifier) *InvitationHandler {
	return &InvitationHandler{store: st, notifier: notifier}
}

// InvitationRequest представляет запрос на приглашение пользователя
type InvitationRequest struct {
	ListID       string `json:"listId" binding:"required"`
	InviteeEmail string `json:"inviteeEmail" binding:"required,email"`
}

func (h *InvitationHandler) service(c *gin.Context) (*sync.InvitationService, bool) {
	identity, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}
	return sync.NewInvitationService(h.store, identity.UserID, identity.Email), true
}

// Create отправляет приглашение к списку
func (h *InvitationHandler) Create(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	var req InvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	inv, err := svc.Create(c.Request.Context(), req.ListID, req.InviteeEmail)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.notifier != nil {
		listName := req.ListID
		if list, err := h.store.GetList(c.Request.Context(), req.ListID); err == nil {
			listName = list.Name
		}
		h.notifier.Notify(inv.InviteeEmail, svc.Notification(inv, listName))
	}

	c.JSON(http.StatusCreated, inv)
}

// GetPending возвращает открытые приглашения текущего пользователя
func (h *InvitationHandler) GetPending(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	invitations, err := svc.Pending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invitations)
}

// Accept принимает приглашение и выдаёт доступ к списку
func (h *InvitationHandler) Accept(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	if err := svc.Accept(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reject отклоняет приглашение
func (h *InvitationHandler) Reject(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	if err := svc.Reject(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
