package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tasky/internal/store"
	"tasky/internal/sync"
)

// respondError переводит ошибки сервисов в HTTP-статусы.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sync.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
	case errors.Is(err, store.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to access this list"})
	case errors.Is(err, store.ErrListNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
	case errors.Is(err, store.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, store.ErrInvitationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
	case errors.Is(err, store.ErrInvitationResolved):
		c.JSON(http.StatusConflict, gin.H{"error": "Invitation already resolved"})
	case errors.Is(err, sync.ErrEmptyName),
		errors.Is(err, sync.ErrEmptyTitle),
		errors.Is(err, sync.ErrInvalidDueDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
