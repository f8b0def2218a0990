package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pmboard/internal/model"
)

// DoneSpellings are tried in order when marking a task done. Older rows use
// "Completed" and some deployments only accept that spelling.
var DoneSpellings = []string{model.TaskStatusDone, model.TaskStatusCompleted}

// TaskAPI is the slice of Client the task board needs.
type TaskAPI interface {
	ListTasks(ctx context.Context, projectID int) ([]model.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID int, status string) (*model.Task, error)
}

// TaskBoard is a local snapshot of one project's tasks.
type TaskBoard struct {
	api       TaskAPI
	projectID int

	mu    sync.Mutex
	tasks []model.Task
	// status a task had before it was toggled done
	undo map[int]string
}

func NewTaskBoard(api TaskAPI, projectID int) *TaskBoard {
	return &TaskBoard{
		api:       api,
		projectID: projectID,
		undo:      make(map[int]string),
	}
}

// Refresh replaces the snapshot with the server's tasks.
func (b *TaskBoard) Refresh(ctx context.Context) error {
	tasks, err := b.api.ListTasks(ctx, b.projectID)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.tasks = tasks
	b.mu.Unlock()
	return nil
}

// Tasks returns a copy of the snapshot.
func (b *TaskBoard) Tasks() []model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Task, len(b.tasks))
	copy(out, b.tasks)
	return out
}

func (b *TaskBoard) Task(id int) (model.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(id); i >= 0 {
		return b.tasks[i], true
	}
	return model.Task{}, false
}

func (b *TaskBoard) indexOf(id int) int {
	for i, t := range b.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (b *TaskBoard) setStatus(id int, status string) {
	if i := b.indexOf(id); i >= 0 {
		b.tasks[i].Status = status
	}
}

// ToggleTask flips a task between done and not done. The snapshot changes
// immediately; if the server rejects every accepted spelling the previous
// status is restored, the snapshot is re-fetched and the last error returned.
func (b *TaskBoard) ToggleTask(ctx context.Context, taskID int) (*model.Task, error) {
	b.mu.Lock()
	i := b.indexOf(taskID)
	if i < 0 {
		b.mu.Unlock()
		return nil, fmt.Errorf("task %d is not on the board", taskID)
	}
	previous := b.tasks[i].Status
	markDone := !model.IsDoneStatus(previous)

	var candidates []string
	if markDone {
		candidates = DoneSpellings
		b.undo[taskID] = previous
	} else {
		original, ok := b.undo[taskID]
		if !ok || original == "" || model.IsDoneStatus(original) {
			original = model.TaskStatusNotStarted
		}
		candidates = []string{original}
	}
	b.tasks[i].Status = candidates[0]
	b.mu.Unlock()

	var lastErr error
	for _, status := range candidates {
		updated, err := b.api.UpdateTaskStatus(ctx, taskID, status)
		if err != nil {
			lastErr = err
			continue
		}

		if updated.ID == 0 {
			updated.ID = taskID
			updated.Status = status
		}
		b.mu.Lock()
		if j := b.indexOf(taskID); j >= 0 {
			if updated.ProjectID == 0 {
				b.tasks[j].Status = updated.Status
				*updated = b.tasks[j]
			} else {
				b.tasks[j] = *updated
			}
		}
		if !markDone {
			delete(b.undo, taskID)
		}
		b.mu.Unlock()
		return updated, nil
	}

	b.mu.Lock()
	b.setStatus(taskID, previous)
	if markDone {
		delete(b.undo, taskID)
	}
	b.mu.Unlock()

	if err := b.Refresh(ctx); err != nil {
		return nil, errors.Join(lastErr, fmt.Errorf("refresh: %w", err))
	}
	return nil, lastErr
}
