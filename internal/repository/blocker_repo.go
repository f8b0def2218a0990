package repository

import (
	"context"
	"errors"
	"fmt"

	contractmq "pmboard/contracts/mq"
	"pmboard/internal/model"
	"pmboard/pkg/outbox"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type BlockerRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewBlockerRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *BlockerRepository {
	return &BlockerRepository{db: db, outbox: outboxRepo, logger: logger}
}

const blockerColumns = `id, task_id, project_id, reporter_id, assignee_id, reason, notes, status,
               attachment_url, resolved_at, created_at, updated_at`

// Insert stores a new blocker and queues blocker.reported in the same
// transaction. The event's BlockerID is filled in from the new row.
func (r *BlockerRepository) Insert(ctx context.Context, b *model.Blocker, event *contractmq.BlockerReportedPayload) error {
	r.logger.Debug("Inserting blocker",
		zap.Int("task_id", b.TaskID),
		zap.Int("reporter_id", b.ReporterID),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO blockers (task_id, project_id, reporter_id, assignee_id, reason, notes, status, attachment_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at
    `
	err = tx.QueryRow(ctx, query,
		b.TaskID,
		b.ProjectID,
		b.ReporterID,
		b.AssigneeID,
		b.Reason,
		b.Notes,
		b.Status,
		b.AttachmentURL,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert blocker", zap.Error(err), zap.Int("task_id", b.TaskID))
		return mapError(err)
	}

	event.BlockerID = b.ID
	aggregateID := int64(b.ID)
	if err := outbox.InsertEventInTx(ctx, tx, r.outbox, contractmq.AggregateBlocker, &aggregateID, contractmq.RoutingBlockerReported, event); err != nil {
		r.logger.Error("Failed to insert outbox event", zap.Error(err), zap.Int("blocker_id", b.ID))
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("Blocker inserted successfully",
		zap.Int("blocker_id", b.ID),
		zap.Int("project_id", b.ProjectID),
	)
	return nil
}

func (r *BlockerRepository) GetByID(ctx context.Context, id int) (*model.Blocker, error) {
	query := `SELECT ` + blockerColumns + ` FROM blockers WHERE id = $1`
	b, err := scanBlocker(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return b, nil
}

// MarkOpenIfUnset moves a freshly reported blocker to Open and returns the
// current row. Blockers that already carry a status are returned unchanged.
func (r *BlockerRepository) MarkOpenIfUnset(ctx context.Context, id int) (*model.Blocker, error) {
	query := `
        UPDATE blockers
        SET status = $2, updated_at = NOW()
        WHERE id = $1 AND status = ''
        RETURNING ` + blockerColumns
	b, err := scanBlocker(r.db.QueryRow(ctx, query, id, model.BlockerOpen))
	if err == nil {
		r.logger.Info("Blocker opened on first view", zap.Int("blocker_id", id))
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("Failed to open blocker", zap.Error(err), zap.Int("blocker_id", id))
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *BlockerRepository) ListByProject(ctx context.Context, projectID int) ([]model.Blocker, error) {
	query := `SELECT ` + blockerColumns + ` FROM blockers WHERE project_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, projectID)
}

func (r *BlockerRepository) ListByTask(ctx context.Context, taskID int) ([]model.Blocker, error) {
	query := `SELECT ` + blockerColumns + ` FROM blockers WHERE task_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, taskID)
}

func (r *BlockerRepository) list(ctx context.Context, query string, args ...any) ([]model.Blocker, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query blockers", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	blockers := []model.Blocker{}
	for rows.Next() {
		b, err := scanBlocker(rows)
		if err != nil {
			r.logger.Error("Failed to scan blocker row", zap.Error(err))
			return nil, err
		}
		blockers = append(blockers, *b)
	}
	return blockers, rows.Err()
}

// UpdateStatus sets the status, and the assignee when one is given.
// Resolving stamps resolved_at.
func (r *BlockerRepository) UpdateStatus(ctx context.Context, id int, status string, assigneeID *int) (*model.Blocker, error) {
	r.logger.Debug("Updating blocker status",
		zap.Int("blocker_id", id),
		zap.String("status", status),
	)
	query := `
        UPDATE blockers
        SET status      = $2,
            assignee_id = COALESCE($3, assignee_id),
            resolved_at = CASE WHEN $2 = 'Resolved' THEN NOW() ELSE NULL END,
            updated_at  = NOW()
        WHERE id = $1
        RETURNING ` + blockerColumns
	b, err := scanBlocker(r.db.QueryRow(ctx, query, id, status, assigneeID))
	if err != nil {
		r.logger.Error("Failed to update blocker", zap.Error(err), zap.Int("blocker_id", id))
		return nil, mapError(err)
	}
	r.logger.Info("Blocker status updated",
		zap.Int("blocker_id", id),
		zap.String("status", status),
	)
	return b, nil
}

func scanBlocker(row pgx.Row) (*model.Blocker, error) {
	var b model.Blocker
	err := row.Scan(
		&b.ID,
		&b.TaskID,
		&b.ProjectID,
		&b.ReporterID,
		&b.AssigneeID,
		&b.Reason,
		&b.Notes,
		&b.Status,
		&b.AttachmentURL,
		&b.ResolvedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
