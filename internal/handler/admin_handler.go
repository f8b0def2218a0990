package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"pmboard/pkg/outbox"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Replayer interface {
	ReplayEvent(ctx context.Context, eventID int64) error
	ReplayFailedEvents(ctx context.Context, limit int) (int, error)
}

type AdminHandler struct {
	replayService Replayer
	logger        *zap.Logger
}

func NewAdminHandler(replayService Replayer, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		replayService: replayService,
		logger:        logger,
	}
}

// ReplayOutboxEvent POST /admin/outbox/replay?id=
// POST /admin/outbox/replay?id=xxx
func (h *AdminHandler) ReplayOutboxEvent(c *gin.Context) {
	idStr := c.Query("id")
	if idStr == "" {
		badRequest(c, "missing id parameter")
		return
	}

	eventID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		badRequest(c, "invalid id parameter")
		return
	}

	if err := h.replayService.ReplayEvent(c.Request.Context(), eventID); err != nil {
		if errors.Is(err, outbox.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to replay event",
			zap.Int64("event_id", eventID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to replay event",
			"details": err.Error(),
		})
		return
	}

	respond(c, http.StatusOK, gin.H{
		"status":  "replayed",
		"eventId": eventID,
	})
}

// ReplayFailedEvents POST /admin/outbox/replay-failed?limit=
// POST /admin/outbox/replay-failed?limit=100
func (h *AdminHandler) ReplayFailedEvents(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "100")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 100
	}

	successCount, err := h.replayService.ReplayFailedEvents(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to replay failed events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to replay failed events",
			"details": err.Error(),
		})
		return
	}

	respond(c, http.StatusOK, gin.H{
		"status":       "completed",
		"successCount": successCount,
		"limit":        limit,
	})
}
