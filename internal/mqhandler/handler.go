package mqhandler

import (
	"context"

	"pmboard/internal/model"
)

// NotificationWriter persists notifications. Insert reports false when the
// (user, event) pair already exists.
type NotificationWriter interface {
	Insert(ctx context.Context, n *model.Notification) (bool, error)
}

// Deduper is the Redis SetNX guard shared by all consumers.
type Deduper interface {
	AcquireOnce(ctx context.Context, handler, eventID string) bool
	Release(ctx context.Context, handler, eventID string)
}

// Notification types.
const (
	TypeStageSubmitted  = "stage_submitted"
	TypeStageApproved   = "stage_approved"
	TypeStageRejected   = "stage_rejected"
	TypeBlockerReported = "blocker_reported"
)
