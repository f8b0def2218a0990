package workflow

import (
	"context"
	"errors"
	"strings"

	contractmq "pmboard/contracts/mq"
	"pmboard/internal/model"
	"pmboard/pkg/rbac"
	"pmboard/pkg/trace"

	"github.com/google/uuid"
)

// BlockerStore persists blockers. Insert must queue the reported event in
// the same transaction as the row.
type BlockerStore interface {
	Insert(ctx context.Context, b *model.Blocker, event *contractmq.BlockerReportedPayload) error
	GetByID(ctx context.Context, id int) (*model.Blocker, error)
	MarkOpenIfUnset(ctx context.Context, id int) (*model.Blocker, error)
	ListByProject(ctx context.Context, projectID int) ([]model.Blocker, error)
	ListByTask(ctx context.Context, taskID int) ([]model.Blocker, error)
	UpdateStatus(ctx context.Context, id int, status string, assigneeID *int) (*model.Blocker, error)
}

type BlockerInput struct {
	TaskID        int
	Reason        string
	Notes         string
	AttachmentURL string
}

// ReportBlocker records an impediment on a task. The blocker starts without a
// status and becomes Open the first time someone views it.
func (s *Service) ReportBlocker(ctx context.Context, actor model.Actor, in BlockerInput) (*model.Blocker, error) {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionReportBlocker); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, validation("reason is required")
	}
	t, p, err := s.taskWithProject(ctx, actor, in.TaskID)
	if err != nil {
		return nil, err
	}

	b := &model.Blocker{
		TaskID:        t.ID,
		ProjectID:     p.ID,
		ReporterID:    actor.UserID,
		Reason:        reason,
		Notes:         in.Notes,
		AttachmentURL: in.AttachmentURL,
	}
	event := &contractmq.BlockerReportedPayload{
		EventID:     uuid.NewString(),
		TaskID:      t.ID,
		ProjectID:   p.ID,
		ProjectName: p.Name,
		ReporterID:  actor.UserID,
		LeadID:      p.LeadID,
		Reason:      reason,
		TraceID:     trace.FromContext(ctx),
		OccurredAt:  s.now().UTC(),
	}
	if err := s.blockers.Insert(ctx, b, event); err != nil {
		return nil, storeError("blocker", err)
	}
	return b, nil
}

// GetBlocker returns a blocker, opening it if nobody has looked at it yet.
func (s *Service) GetBlocker(ctx context.Context, actor model.Actor, id int) (*model.Blocker, error) {
	b, err := s.blocker(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if b.Status != "" {
		return b, nil
	}
	opened, err := s.blockers.MarkOpenIfUnset(ctx, b.ID)
	if err != nil {
		return nil, storeError("blocker", err)
	}
	return opened, nil
}

func (s *Service) ListBlockers(ctx context.Context, actor model.Actor, projectID int) ([]model.Blocker, error) {
	p, err := s.project(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	return s.blockers.ListByProject(ctx, p.ID)
}

func (s *Service) ListTaskBlockers(ctx context.Context, actor model.Actor, taskID int) ([]model.Blocker, error) {
	t, _, err := s.taskWithProject(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	return s.blockers.ListByTask(ctx, t.ID)
}

// UpdateBlocker moves a blocker through Open, Assigned, Investigating and
// Resolved. Assigned needs an assignee, given now or already stored.
func (s *Service) UpdateBlocker(ctx context.Context, actor model.Actor, id int, status string, assigneeID *int) (*model.Blocker, error) {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionManageBlocker); err != nil {
		return nil, err
	}
	if !model.ValidBlockerStatus(status) {
		return nil, validation("unknown blocker status %q", status)
	}
	b, err := s.blocker(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if status == model.BlockerAssigned && assigneeID == nil && b.AssigneeID == nil {
		return nil, validation("assigneeId is required to assign a blocker")
	}
	updated, err := s.blockers.UpdateStatus(ctx, b.ID, status, assigneeID)
	if err != nil {
		return nil, storeError("blocker", err)
	}
	return updated, nil
}

func (s *Service) blocker(ctx context.Context, actor model.Actor, id int) (*model.Blocker, error) {
	b, err := s.blockers.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("blocker", err)
	}
	_, err = s.project(ctx, actor, b.ProjectID)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("blocker")
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}
