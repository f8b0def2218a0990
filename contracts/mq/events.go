package mq

import "time"

// Routing keys on the pm.events exchange.
const (
	RoutingStageSubmitted  = "stage.submitted"
	RoutingStageApproved   = "stage.approved"
	RoutingStageRejected   = "stage.rejected"
	RoutingBlockerReported = "blocker.reported"
	AggregateStageApproval = "stage_approval"
	AggregateBlocker       = "blocker"
)

// StageEventPayload is published when a stage is submitted, approved or rejected.
type StageEventPayload struct {
	EventID     string    `json:"event_id"`
	ProjectID   int       `json:"project_id"`
	ProjectName string    `json:"project_name"`
	StageID     string    `json:"stage_id"`
	Status      string    `json:"status"`
	ActorID     int       `json:"actor_id"`
	RequesterID int       `json:"requester_id,omitempty"`
	LeadID      int       `json:"lead_id"`
	Comment     string    `json:"comment,omitempty"`
	TraceID     string    `json:"trace_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BlockerReportedPayload is published when a member reports a blocker.
type BlockerReportedPayload struct {
	EventID     string    `json:"event_id"`
	BlockerID   int       `json:"blocker_id"`
	TaskID      int       `json:"task_id"`
	ProjectID   int       `json:"project_id"`
	ProjectName string    `json:"project_name"`
	ReporterID  int       `json:"reporter_id"`
	LeadID      int       `json:"lead_id"`
	Reason      string    `json:"reason"`
	TraceID     string    `json:"trace_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
