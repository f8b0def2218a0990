package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	mqcontracts "pmboard/contracts/mq"
	"pmboard/internal/model"
	"pmboard/pkg/logger"

	"go.uber.org/zap"
)

type BlockerNotificationHandler struct {
	repo    NotificationWriter
	deduper Deduper
	logger  *zap.Logger
}

func NewBlockerNotificationHandler(repo NotificationWriter, deduper Deduper, logger *zap.Logger) *BlockerNotificationHandler {
	return &BlockerNotificationHandler{
		repo:    repo,
		deduper: deduper,
		logger:  logger,
	}
}

// HandleBlockerReported notifies the project lead of a new blocker.
func (h *BlockerNotificationHandler) HandleBlockerReported(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.BlockerReportedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		logger.WithTrace(ctx, h.logger).Error("Failed to unmarshal blocker event (non-retryable)", zap.Error(err))
		return nil
	}
	ctx = withPayloadTrace(ctx, p.TraceID)
	log := logger.WithTrace(ctx, h.logger).With(zap.String("routing_key", mqcontracts.RoutingBlockerReported))

	if p.LeadID <= 0 || p.LeadID == p.ReporterID {
		return nil
	}

	return deliver(ctx, log, h.repo, h.deduper, "blocker_notification", mqcontracts.RoutingBlockerReported, &model.Notification{
		UserID:    p.LeadID,
		ProjectID: p.ProjectID,
		Type:      TypeBlockerReported,
		Content:   fmt.Sprintf("%s: task #%d is blocked: %s", p.ProjectName, p.TaskID, p.Reason),
		EventID:   p.EventID,
	})
}
