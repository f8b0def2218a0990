package handler

import (
	"context"
	"net/http"

	"pmboard/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationStore interface {
	ListByUser(ctx context.Context, userID int, unreadOnly bool) ([]model.Notification, error)
	MarkAsRead(ctx context.Context, id, userID int) error
}

type NotificationHandler struct {
	store  NotificationStore
	logger *zap.Logger
}

func NewNotificationHandler(store NotificationStore, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{store: store, logger: logger}
}

// List GET /api/notifications?unread=true
func (h *NotificationHandler) List(c *gin.Context) {
	actor := actorFrom(c)
	unread := c.Query("unread") == "true"
	list, err := h.store.ListByUser(c.Request.Context(), actor.UserID, unread)
	if err != nil {
		writeError(c, h.logger, "ListNotifications", err)
		return
	}
	respond(c, http.StatusOK, list)
}

// MarkRead POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.store.MarkAsRead(c.Request.Context(), id, actorFrom(c).UserID); err != nil {
		writeError(c, h.logger, "MarkNotificationRead", err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id, "isRead": true})
}
