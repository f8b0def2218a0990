package repository

import (
	"context"
	"fmt"

	contractmq "pmboard/contracts/mq"
	"pmboard/internal/model"
	"pmboard/pkg/otel"
	"pmboard/pkg/outbox"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ApprovalRepository stores one approval row per (project, stage).
type ApprovalRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewApprovalRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *ApprovalRepository {
	return &ApprovalRepository{
		db:     db,
		outbox: outboxRepo,
		logger: logger,
	}
}

const approvalColumns = `a.id, a.project_id, p.name, a.stage_id, a.status, a.requester_id, a.approver_id,
               a.comment, a.submitted_at, a.decided_at, a.created_at, a.updated_at`

func (r *ApprovalRepository) ListByProject(ctx context.Context, projectID int) ([]model.StageApproval, error) {
	r.logger.Debug("Listing stage approvals", zap.Int("project_id", projectID))
	query := `
        SELECT ` + approvalColumns + `
        FROM stage_approvals a
        JOIN projects p ON p.id = a.project_id
        WHERE a.project_id = $1
        ORDER BY a.stage_id
    `
	return r.list(ctx, query, projectID)
}

// ListPending returns every submission waiting for a PM decision, oldest first.
func (r *ApprovalRepository) ListPending(ctx context.Context) ([]model.StageApproval, error) {
	query := `
        SELECT ` + approvalColumns + `
        FROM stage_approvals a
        JOIN projects p ON p.id = a.project_id
        WHERE a.status = $1
        ORDER BY a.submitted_at NULLS LAST, a.id
    `
	return r.list(ctx, query, model.ApprovalPending)
}

func (r *ApprovalRepository) list(ctx context.Context, query string, args ...any) ([]model.StageApproval, error) {
	approvals := []model.StageApproval{}
	err := otel.Do(ctx, "SELECT", "stage_approvals", func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			a, err := scanApproval(rows)
			if err != nil {
				return err
			}
			approvals = append(approvals, *a)
		}
		return rows.Err()
	})
	if err != nil {
		r.logger.Error("Failed to list stage approvals", zap.Error(err))
		return nil, err
	}
	return approvals, nil
}

// Upsert writes the approval row and the matching outbox event in one
// transaction. Concurrent writers are not serialized; the last one wins.
func (r *ApprovalRepository) Upsert(ctx context.Context, a *model.StageApproval, routingKey string, payload any) error {
	r.logger.Debug("Upserting stage approval",
		zap.Int("project_id", a.ProjectID),
		zap.String("stage_id", a.StageID),
		zap.String("status", a.Status),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO stage_approvals
            (project_id, stage_id, status, requester_id, approver_id, comment, submitted_at, decided_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (project_id, stage_id) DO UPDATE
        SET status       = EXCLUDED.status,
            requester_id = COALESCE(EXCLUDED.requester_id, stage_approvals.requester_id),
            approver_id  = EXCLUDED.approver_id,
            comment      = EXCLUDED.comment,
            submitted_at = COALESCE(EXCLUDED.submitted_at, stage_approvals.submitted_at),
            decided_at   = EXCLUDED.decided_at,
            updated_at   = NOW()
        RETURNING id, requester_id, submitted_at, created_at, updated_at
    `
	err = otel.Do(ctx, "UPSERT", "stage_approvals", func(ctx context.Context) error {
		return tx.QueryRow(ctx, query,
			a.ProjectID,
			a.StageID,
			a.Status,
			a.RequesterID,
			a.ApproverID,
			a.Comment,
			a.SubmittedAt,
			a.DecidedAt,
		).Scan(&a.ID, &a.RequesterID, &a.SubmittedAt, &a.CreatedAt, &a.UpdatedAt)
	})
	if err != nil {
		r.logger.Error("Failed to upsert stage approval",
			zap.Error(err),
			zap.Int("project_id", a.ProjectID),
			zap.String("stage_id", a.StageID),
		)
		return mapError(err)
	}

	aggregateID := int64(a.ID)
	if err := outbox.InsertEventInTx(ctx, tx, r.outbox, contractmq.AggregateStageApproval, &aggregateID, routingKey, payload); err != nil {
		r.logger.Error("Failed to insert outbox event",
			zap.Error(err),
			zap.String("routing_key", routingKey),
		)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("Stage approval stored",
		zap.Int("approval_id", a.ID),
		zap.Int("project_id", a.ProjectID),
		zap.String("stage_id", a.StageID),
		zap.String("status", a.Status),
	)
	return nil
}

func scanApproval(row pgx.Row) (*model.StageApproval, error) {
	var a model.StageApproval
	err := row.Scan(
		&a.ID,
		&a.ProjectID,
		&a.ProjectName,
		&a.StageID,
		&a.Status,
		&a.RequesterID,
		&a.ApproverID,
		&a.Comment,
		&a.SubmittedAt,
		&a.DecidedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
