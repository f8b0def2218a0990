package workflow

import (
	"context"
	"fmt"
	"strings"

	contractmq "pmboard/contracts/mq"
	"pmboard/internal/model"
	"pmboard/internal/stage"
	"pmboard/pkg/logger"
	"pmboard/pkg/metrics"
	"pmboard/pkg/rbac"
	"pmboard/pkg/trace"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Board evaluates the stage gate for a project the actor can see.
func (s *Service) Board(ctx context.Context, actor model.Actor, projectID int) (stage.Board, error) {
	p, err := s.project(ctx, actor, projectID)
	if err != nil {
		return stage.Board{}, err
	}
	return s.evaluate(ctx, p.ID)
}

// evaluate loads tasks and approval rows concurrently and runs the gate.
func (s *Service) evaluate(ctx context.Context, projectID int) (stage.Board, error) {
	var (
		tasks     []model.Task
		approvals []model.StageApproval
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.tasks.ListByProject(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		approvals, err = s.approvals.ListByProject(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return stage.Board{}, fmt.Errorf("load stage data: %w", err)
	}

	board := stage.Evaluate(tasks, approvals)
	board.ProjectID = projectID
	return board, nil
}

// ListApprovals returns the stored approval rows of a project.
func (s *Service) ListApprovals(ctx context.Context, actor model.Actor, projectID int) ([]model.StageApproval, error) {
	p, err := s.project(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	return s.approvals.ListByProject(ctx, p.ID)
}

// PendingApprovals is the PM review queue. Rows leave it as soon as they are
// approved or rejected.
func (s *Service) PendingApprovals(ctx context.Context, actor model.Actor) ([]model.StageApproval, error) {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionApproveStage); err != nil {
		return nil, err
	}
	return s.approvals.ListPending(ctx)
}

// Submit asks for review of a stage whose tasks are all done.
func (s *Service) Submit(ctx context.Context, actor model.Actor, projectID int, stageAlias string) (*model.StageApproval, error) {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionSubmitStage); err != nil {
		return nil, err
	}
	p, view, err := s.stageView(ctx, actor, projectID, stageAlias)
	if err != nil {
		return nil, err
	}

	if view.Locked {
		return nil, fmt.Errorf("%s: %w", view.Code, ErrStageLocked)
	}
	if !view.CanSubmit {
		return nil, fmt.Errorf("%s: %w: %s", view.Code, ErrNotSubmittable, notSubmittableReason(view))
	}

	now := s.now()
	requester := actor.UserID
	a := &model.StageApproval{
		ProjectID:   p.ID,
		ProjectName: p.Name,
		StageID:     view.ID,
		Status:      model.ApprovalPending,
		RequesterID: &requester,
		SubmittedAt: &now,
	}
	if err := s.store(ctx, p, a, actor, contractmq.RoutingStageSubmitted); err != nil {
		return nil, err
	}
	return a, nil
}

// Approve records a PM approval. Task completion is not re-checked; this is
// also how a stage without tasks gets approved.
func (s *Service) Approve(ctx context.Context, actor model.Actor, projectID int, stageAlias string) (*model.StageApproval, error) {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionApproveStage); err != nil {
		return nil, err
	}
	p, view, err := s.stageView(ctx, actor, projectID, stageAlias)
	if err != nil {
		return nil, err
	}
	if view.Locked {
		return nil, fmt.Errorf("%s: %w", view.Code, ErrStageLocked)
	}

	now := s.now()
	approver := actor.UserID
	a := &model.StageApproval{
		ProjectID:   p.ID,
		ProjectName: p.Name,
		StageID:     view.ID,
		Status:      model.ApprovalApproved,
		RequesterID: requesterOf(view),
		ApproverID:  &approver,
		DecidedAt:   &now,
	}
	if err := s.store(ctx, p, a, actor, contractmq.RoutingStageApproved); err != nil {
		return nil, err
	}
	return a, nil
}

// Reject sends a stage back to the team with a comment. The stage stays
// unapproved, so the next one stays locked, and the team may resubmit.
func (s *Service) Reject(ctx context.Context, actor model.Actor, projectID int, stageAlias, comment string) (*model.StageApproval, error) {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionApproveStage); err != nil {
		return nil, err
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, ErrCommentRequired
	}
	p, view, err := s.stageView(ctx, actor, projectID, stageAlias)
	if err != nil {
		return nil, err
	}
	if view.Locked {
		return nil, fmt.Errorf("%s: %w", view.Code, ErrStageLocked)
	}

	now := s.now()
	approver := actor.UserID
	a := &model.StageApproval{
		ProjectID:   p.ID,
		ProjectName: p.Name,
		StageID:     view.ID,
		Status:      model.ApprovalRejected,
		RequesterID: requesterOf(view),
		ApproverID:  &approver,
		Comment:     comment,
		DecidedAt:   &now,
	}
	if err := s.store(ctx, p, a, actor, contractmq.RoutingStageRejected); err != nil {
		return nil, err
	}
	return a, nil
}

// Decide dispatches a status change from the approvals endpoint.
func (s *Service) Decide(ctx context.Context, actor model.Actor, projectID int, stageAlias, status, comment string) (*model.StageApproval, error) {
	canonical, ok := stage.CanonicalApprovalStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	switch canonical {
	case model.ApprovalApproved:
		return s.Approve(ctx, actor, projectID, stageAlias)
	case model.ApprovalRejected:
		return s.Reject(ctx, actor, projectID, stageAlias, comment)
	case model.ApprovalPending:
		return s.Submit(ctx, actor, projectID, stageAlias)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
}

func (s *Service) stageView(ctx context.Context, actor model.Actor, projectID int, stageAlias string) (*model.Project, stage.View, error) {
	p, err := s.project(ctx, actor, projectID)
	if err != nil {
		return nil, stage.View{}, err
	}
	board, err := s.evaluate(ctx, p.ID)
	if err != nil {
		return nil, stage.View{}, err
	}
	return p, board.View(stage.NormalizeID(stageAlias)), nil
}

// store writes the row together with its event.
func (s *Service) store(ctx context.Context, p *model.Project, a *model.StageApproval, actor model.Actor, routingKey string) error {
	log := logger.WithTrace(ctx, s.logger)

	payload := contractmq.StageEventPayload{
		EventID:     uuid.NewString(),
		ProjectID:   p.ID,
		ProjectName: p.Name,
		StageID:     a.StageID,
		Status:      a.Status,
		ActorID:     actor.UserID,
		LeadID:      p.LeadID,
		Comment:     a.Comment,
		TraceID:     trace.FromContext(ctx),
		OccurredAt:  s.now().UTC(),
	}
	if a.RequesterID != nil {
		payload.RequesterID = *a.RequesterID
	}

	if err := s.approvals.Upsert(ctx, a, routingKey, &payload); err != nil {
		log.Error("Failed to store stage approval",
			zap.Int("project_id", p.ID),
			zap.String("stage_id", a.StageID),
			zap.String("status", a.Status),
			zap.Error(err),
		)
		return storeError("stage approval", err)
	}

	metrics.IncrementStageTransition(a.StageID, a.Status)
	log.Info("Stage approval status changed",
		zap.Int("project_id", p.ID),
		zap.String("stage_id", a.StageID),
		zap.String("status", a.Status),
		zap.Int("actor_id", actor.UserID),
	)
	return nil
}

func requesterOf(v stage.View) *int {
	if v.Approval == nil {
		return nil
	}
	return v.Approval.RequesterID
}

func notSubmittableReason(v stage.View) string {
	switch {
	case v.TaskCount == 0:
		return "stage has no tasks"
	case v.DoneCount < v.TaskCount:
		return fmt.Sprintf("%d of %d tasks done", v.DoneCount, v.TaskCount)
	case v.StoredStatus == model.ApprovalPending:
		return "already pending review"
	case v.StoredStatus == model.ApprovalApproved:
		return "already approved"
	default:
		return "not allowed"
	}
}
