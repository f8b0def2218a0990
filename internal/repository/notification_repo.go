package repository

import (
	"context"

	"pmboard/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type NotificationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewNotificationRepository(db *pgxpool.Pool, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Insert stores a notification. The (user_id, event_id) pair is unique, so a
// redelivered event is a no-op and reports inserted=false.
func (r *NotificationRepository) Insert(ctx context.Context, n *model.Notification) (bool, error) {
	r.logger.Debug("Inserting notification",
		zap.Int("user_id", n.UserID),
		zap.String("type", n.Type),
		zap.String("event_id", n.EventID),
	)

	query := `
        INSERT INTO notifications (user_id, project_id, type, content, event_id)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id, event_id) DO NOTHING
        RETURNING id, created_at
    `
	rows, err := r.db.Query(ctx, query, n.UserID, n.ProjectID, n.Type, n.Content, n.EventID)
	if err != nil {
		r.logger.Error("Failed to insert notification", zap.Error(err))
		return false, err
	}
	defer rows.Close()

	inserted := false
	if rows.Next() {
		if err := rows.Scan(&n.ID, &n.CreatedAt); err != nil {
			return false, err
		}
		inserted = true
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to insert notification", zap.Error(err))
		return false, err
	}

	if inserted {
		r.logger.Info("Notification inserted successfully",
			zap.Int("id", n.ID),
			zap.Int("user_id", n.UserID),
		)
	} else {
		r.logger.Debug("Notification already exists", zap.String("event_id", n.EventID))
	}
	return inserted, nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID int, unreadOnly bool) ([]model.Notification, error) {
	query := `
        SELECT id, user_id, project_id, type, content, event_id, is_read, created_at
        FROM notifications
        WHERE user_id = $1 AND ($2 = FALSE OR is_read = FALSE)
        ORDER BY created_at DESC
        LIMIT 200
    `
	rows, err := r.db.Query(ctx, query, userID, unreadOnly)
	if err != nil {
		r.logger.Error("Failed to query notifications", zap.Error(err), zap.Int("user_id", userID))
		return nil, err
	}
	defer rows.Close()

	list := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.ProjectID,
			&n.Type,
			&n.Content,
			&n.EventID,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkAsRead only touches the caller's own notifications.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, userID int) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	result, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
