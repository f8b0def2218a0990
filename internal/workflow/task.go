package workflow

import (
	"context"
	"strings"
	"time"

	"pmboard/internal/model"
	"pmboard/internal/stage"
	"pmboard/pkg/logger"
	"pmboard/pkg/rbac"

	"go.uber.org/zap"
)

type TaskInput struct {
	ProjectID   int
	StageID     string
	Title       string
	Description string
	Priority    string
	Status      string
	DueDate     *time.Time
	AssigneeID  *int
}

func (s *Service) ListTasks(ctx context.Context, actor model.Actor, projectID int) ([]model.Task, error) {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionReadTask); err != nil {
		return nil, err
	}
	p, err := s.project(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	return s.tasks.ListByProject(ctx, p.ID)
}

// CreateTask adds a task to one (project, stage) pair. The stage reference is
// stored in canonical form.
func (s *Service) CreateTask(ctx context.Context, actor model.Actor, in TaskInput) (*model.Task, error) {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionCreateTask); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validation("title is required")
	}
	if in.ProjectID <= 0 {
		return nil, validation("projectId is required")
	}

	priority := model.PriorityMedium
	if in.Priority != "" {
		p, ok := model.CanonicalPriority(in.Priority)
		if !ok {
			return nil, validation("unknown priority %q", in.Priority)
		}
		priority = p
	}
	status := model.TaskStatusNotStarted
	if in.Status != "" {
		st, ok := model.CanonicalTaskStatus(in.Status)
		if !ok {
			return nil, validation("unknown status %q", in.Status)
		}
		status = st
	}

	p, err := s.project(ctx, actor, in.ProjectID)
	if err != nil {
		return nil, err
	}

	t := &model.Task{
		ProjectID:   p.ID,
		StageID:     stage.NormalizeID(in.StageID),
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		Status:      status,
		DueDate:     in.DueDate,
		AssigneeID:  in.AssigneeID,
		CreatedBy:   actor.UserID,
	}
	if _, err := s.tasks.Insert(ctx, t); err != nil {
		return nil, storeError("task", err)
	}
	s.syncProgress(ctx, p.ID)
	return t, nil
}

// UpdateTask applies a partial update. Status and priority accept any
// letter case and are stored in their canonical spelling.
func (s *Service) UpdateTask(ctx context.Context, actor model.Actor, taskID int, patch model.TaskPatch) (*model.Task, error) {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionUpdateTask); err != nil {
		return nil, err
	}
	if patch.Status != nil {
		st, ok := model.CanonicalTaskStatus(*patch.Status)
		if !ok {
			return nil, validation("unknown status %q", *patch.Status)
		}
		patch.Status = &st
	}
	if patch.Priority != nil {
		p, ok := model.CanonicalPriority(*patch.Priority)
		if !ok {
			return nil, validation("unknown priority %q", *patch.Priority)
		}
		patch.Priority = &p
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, validation("title cannot be empty")
		}
		patch.Title = &title
	}

	t, _, err := s.taskWithProject(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	updated, err := s.tasks.Update(ctx, t.ID, patch)
	if err != nil {
		return nil, storeError("task", err)
	}
	if patch.Status != nil {
		s.syncProgress(ctx, updated.ProjectID)
	}
	return updated, nil
}

func (s *Service) DeleteTask(ctx context.Context, actor model.Actor, taskID int) error {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionDeleteTask); err != nil {
		return err
	}
	t, _, err := s.taskWithProject(ctx, actor, taskID)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, t.ID); err != nil {
		return storeError("task", err)
	}
	s.syncProgress(ctx, t.ProjectID)
	return nil
}

// syncProgress refreshes the stored project progress after a task change.
// Failures are logged only; the board always recomputes progress itself.
func (s *Service) syncProgress(ctx context.Context, projectID int) {
	log := logger.WithTrace(ctx, s.logger)

	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		log.Warn("Failed to load tasks for progress", zap.Int("project_id", projectID), zap.Error(err))
		return
	}
	progress := 0
	if len(tasks) > 0 {
		done := 0
		for _, t := range tasks {
			if t.IsDone() {
				done++
			}
		}
		progress = done * 100 / len(tasks)
	}
	if err := s.projects.UpdateProgress(ctx, projectID, progress); err != nil {
		log.Warn("Failed to update project progress", zap.Int("project_id", projectID), zap.Error(err))
	}
}
