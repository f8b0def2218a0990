// Package workflow applies the stage gate to project data: it loads a
// project's tasks and approval rows, evaluates the board and permits or
// refuses each mutation against it.
package workflow

import (
	"context"
	"errors"
	"time"

	"pmboard/internal/model"
	"pmboard/pkg/rbac"

	"go.uber.org/zap"
)

type ProjectStore interface {
	Insert(ctx context.Context, p *model.Project) (int, error)
	GetByID(ctx context.Context, id int) (*model.Project, error)
	ListAll(ctx context.Context) ([]model.Project, error)
	ListForUser(ctx context.Context, userID int) ([]model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	UpdateProgress(ctx context.Context, id, progress int) error
	Delete(ctx context.Context, id int) error
}

type TaskStore interface {
	Insert(ctx context.Context, t *model.Task) (int, error)
	ListByProject(ctx context.Context, projectID int) ([]model.Task, error)
	GetByID(ctx context.Context, id int) (*model.Task, error)
	Update(ctx context.Context, id int, patch model.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, id int) error
}

// ApprovalStore persists approval rows. Upsert must write the row and the
// event atomically.
type ApprovalStore interface {
	ListByProject(ctx context.Context, projectID int) ([]model.StageApproval, error)
	ListPending(ctx context.Context) ([]model.StageApproval, error)
	Upsert(ctx context.Context, a *model.StageApproval, routingKey string, payload any) error
}

type Stores struct {
	Projects  ProjectStore
	Tasks     TaskStore
	Approvals ApprovalStore
	Blockers  BlockerStore
	Comments  CommentStore
}

type Service struct {
	projects  ProjectStore
	tasks     TaskStore
	approvals ApprovalStore
	blockers  BlockerStore
	comments  CommentStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(stores Stores, logger *zap.Logger) *Service {
	return &Service{
		projects:  stores.Projects,
		tasks:     stores.Tasks,
		approvals: stores.Approvals,
		blockers:  stores.Blockers,
		comments:  stores.Comments,
		logger:    logger,
		now:       time.Now,
	}
}

// isManager reports whether the role sees every project.
func isManager(role string) bool {
	return rbac.HasPermission(role, rbac.PermissionApproveStage)
}

// project loads a project the actor may see. Projects outside the actor's
// reach are reported as not found.
func (s *Service) project(ctx context.Context, actor model.Actor, id int) (*model.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("project", err)
	}
	if isManager(actor.Role) || p.LeadID == actor.UserID {
		return p, nil
	}
	for _, m := range p.MemberIDs {
		if m == actor.UserID {
			return p, nil
		}
	}
	return nil, notFound("project")
}

// taskWithProject loads a task and checks access through its project.
func (s *Service) taskWithProject(ctx context.Context, actor model.Actor, taskID int) (*model.Task, *model.Project, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, nil, storeError("task", err)
	}
	p, err := s.project(ctx, actor, t.ProjectID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil, notFound("task")
	}
	if err != nil {
		return nil, nil, err
	}
	return t, p, nil
}
