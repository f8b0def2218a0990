package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	mqcontracts "pmboard/contracts/mq"
	"pmboard/internal/model"
	"pmboard/internal/stage"
	"pmboard/pkg/logger"
	"pmboard/pkg/metrics"
	"pmboard/pkg/trace"
	"pmboard/pkg/util"

	"go.uber.org/zap"
)

type StageNotificationHandler struct {
	repo    NotificationWriter
	deduper Deduper
	logger  *zap.Logger
}

func NewStageNotificationHandler(repo NotificationWriter, deduper Deduper, logger *zap.Logger) *StageNotificationHandler {
	return &StageNotificationHandler{
		repo:    repo,
		deduper: deduper,
		logger:  logger,
	}
}

// Handle notifies the lead of a submission and the requester of a decision.
func (h *StageNotificationHandler) Handle(routingKey string) func(ctx context.Context, raw json.RawMessage) error {
	return func(ctx context.Context, raw json.RawMessage) error {
		var p mqcontracts.StageEventPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			// JSON decode error, not retryable
			logger.WithTrace(ctx, h.logger).Error("Failed to unmarshal stage event (non-retryable)",
				zap.String("routing_key", routingKey),
				zap.Error(err),
			)
			return nil
		}
		ctx = withPayloadTrace(ctx, p.TraceID)
		log := logger.WithTrace(ctx, h.logger).With(zap.String("routing_key", routingKey))

		recipient, typ, content := stageNotification(routingKey, p)
		if recipient <= 0 || recipient == p.ActorID {
			log.Debug("Stage event has no recipient",
				zap.String("event_id", p.EventID),
				zap.Int("project_id", p.ProjectID),
			)
			return nil
		}

		return deliver(ctx, log, h.repo, h.deduper, "stage_notification", routingKey, &model.Notification{
			UserID:    recipient,
			ProjectID: p.ProjectID,
			Type:      typ,
			Content:   content,
			EventID:   p.EventID,
		})
	}
}

func stageNotification(routingKey string, p mqcontracts.StageEventPayload) (int, string, string) {
	title := p.StageID
	if s, ok := stage.Lookup(p.StageID); ok {
		title = s.Title
	}

	requester := p.RequesterID
	if requester <= 0 {
		requester = p.LeadID
	}

	switch routingKey {
	case mqcontracts.RoutingStageSubmitted:
		return p.LeadID, TypeStageSubmitted,
			fmt.Sprintf("%s: %s was submitted for approval", p.ProjectName, title)
	case mqcontracts.RoutingStageApproved:
		return requester, TypeStageApproved,
			fmt.Sprintf("%s: %s was approved", p.ProjectName, title)
	case mqcontracts.RoutingStageRejected:
		content := fmt.Sprintf("%s: %s was rejected", p.ProjectName, title)
		if p.Comment != "" {
			content += ": " + p.Comment
		}
		return requester, TypeStageRejected, content
	default:
		return 0, "", ""
	}
}

// withPayloadTrace falls back to the payload trace id when the headers carry none.
func withPayloadTrace(ctx context.Context, traceID string) context.Context {
	if traceID == "" || trace.FromContext(ctx) != "" {
		return ctx
	}
	return trace.WithContext(ctx, traceID)
}

// deliver inserts the notification once per event. A retryable failure
// releases the dedup key so the redelivery can run.
func deliver(ctx context.Context, log *zap.Logger, repo NotificationWriter, deduper Deduper, name, routingKey string, n *model.Notification) error {
	if n.EventID == "" {
		log.Warn("Event without event_id skipped", zap.Int("user_id", n.UserID))
		return nil
	}

	if !deduper.AcquireOnce(ctx, name, n.EventID) {
		log.Info("Duplicate event skipped",
			zap.String("event_id", n.EventID),
			zap.Int("user_id", n.UserID),
		)
		return nil
	}

	inserted, err := repo.Insert(ctx, n)
	if err != nil {
		retryable, errType := util.IsRetryableError(err)
		log.Error("Failed to insert notification",
			zap.String("event_id", n.EventID),
			zap.Int("user_id", n.UserID),
			zap.String("error_type", errType),
			zap.Bool("retryable", retryable),
			zap.Error(err),
		)
		if !retryable {
			return nil
		}
		deduper.Release(ctx, name, n.EventID)
		return err
	}

	if inserted {
		metrics.IncrementNotification(routingKey)
	}
	log.Info("Notification created",
		zap.String("event_id", n.EventID),
		zap.Int("user_id", n.UserID),
		zap.String("type", n.Type),
		zap.Bool("inserted", inserted),
	)
	return nil
}
