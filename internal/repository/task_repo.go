package repository

import (
	"context"

	"pmboard/internal/model"
	"pmboard/pkg/otel"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

const taskColumns = `id, project_id, stage_id, title, description, priority, status,
               due_date, assignee_id, created_by, created_at, updated_at`

func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) (int, error) {
	r.logger.Debug("Inserting task",
		zap.Int("project_id", t.ProjectID),
		zap.String("stage_id", t.StageID),
		zap.String("title", t.Title),
		zap.String("status", t.Status),
	)
	query := `
        INSERT INTO tasks (project_id, stage_id, title, description, priority, status, due_date, assignee_id, created_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at, updated_at
    `
	err := otel.Do(ctx, "INSERT", "tasks", func(ctx context.Context) error {
		return r.db.QueryRow(ctx, query,
			t.ProjectID,
			t.StageID,
			t.Title,
			t.Description,
			t.Priority,
			t.Status,
			t.DueDate,
			t.AssigneeID,
			t.CreatedBy,
		).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	})
	if err != nil {
		r.logger.Error("Failed to insert task",
			zap.Error(err),
			zap.Int("project_id", t.ProjectID),
			zap.String("stage_id", t.StageID),
		)
		return 0, mapError(err)
	}
	r.logger.Info("Task inserted successfully",
		zap.Int("task_id", t.ID),
		zap.Int("project_id", t.ProjectID),
	)
	return t.ID, nil
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID int) ([]model.Task, error) {
	r.logger.Debug("Listing tasks for project", zap.Int("project_id", projectID))
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE project_id = $1
        ORDER BY stage_id, created_at
    `
	tasks := []model.Task{}
	err := otel.Do(ctx, "SELECT", "tasks", func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, projectID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			tasks = append(tasks, *t)
		}
		return rows.Err()
	})
	if err != nil {
		r.logger.Error("Failed to list tasks",
			zap.Error(err),
			zap.Int("project_id", projectID),
		)
		return nil, err
	}
	r.logger.Debug("Tasks listed",
		zap.Int("project_id", projectID),
		zap.Int("count", len(tasks)),
	)
	return tasks, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

// Update applies the non-nil fields of the patch and returns the stored row.
func (r *TaskRepository) Update(ctx context.Context, id int, patch model.TaskPatch) (*model.Task, error) {
	r.logger.Debug("Updating task", zap.Int("task_id", id))
	query := `
        UPDATE tasks
        SET status      = COALESCE($2, status),
            title       = COALESCE($3, title),
            description = COALESCE($4, description),
            priority    = COALESCE($5, priority),
            due_date    = COALESCE($6, due_date),
            assignee_id = COALESCE($7, assignee_id),
            updated_at  = NOW()
        WHERE id = $1
        RETURNING ` + taskColumns

	var t *model.Task
	err := otel.Do(ctx, "UPDATE", "tasks", func(ctx context.Context) error {
		var err error
		t, err = scanTask(r.db.QueryRow(ctx, query,
			id,
			patch.Status,
			patch.Title,
			patch.Description,
			patch.Priority,
			patch.DueDate,
			patch.AssigneeID,
		))
		return err
	})
	if err != nil {
		r.logger.Error("Failed to update task", zap.Error(err), zap.Int("task_id", id))
		return nil, mapError(err)
	}
	r.logger.Info("Task updated",
		zap.Int("task_id", id),
		zap.String("status", t.Status),
	)
	return t, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int) error {
	r.logger.Debug("Deleting task", zap.Int("task_id", id))
	result, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete task", zap.Error(err), zap.Int("task_id", id))
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	r.logger.Info("Task deleted", zap.Int("task_id", id))
	return nil
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.StageID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.Status,
		&t.DueDate,
		&t.AssigneeID,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
