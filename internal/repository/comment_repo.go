package repository

import (
	"context"

	"pmboard/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// CommentRepository covers task comments and file attachment metadata.
type CommentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCommentRepository(db *pgxpool.Pool, logger *zap.Logger) *CommentRepository {
	return &CommentRepository{db: db, logger: logger}
}

func (r *CommentRepository) InsertComment(ctx context.Context, c *model.Comment) error {
	query := `
        INSERT INTO comments (task_id, author_id, body)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query, c.TaskID, c.AuthorID, c.Body).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert comment", zap.Error(err), zap.Int("task_id", c.TaskID))
		return mapError(err)
	}
	r.logger.Info("Comment inserted",
		zap.Int("comment_id", c.ID),
		zap.Int("task_id", c.TaskID),
	)
	return nil
}

func (r *CommentRepository) ListComments(ctx context.Context, taskID int) ([]model.Comment, error) {
	query := `
        SELECT id, task_id, author_id, body, created_at
        FROM comments
        WHERE task_id = $1
        ORDER BY created_at
    `
	rows, err := r.db.Query(ctx, query, taskID)
	if err != nil {
		r.logger.Error("Failed to query comments", zap.Error(err), zap.Int("task_id", taskID))
		return nil, err
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *CommentRepository) InsertAttachment(ctx context.Context, a *model.FileAttachment) error {
	query := `
        INSERT INTO file_attachments (task_id, uploader_id, file_name, url, size_bytes)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		a.TaskID,
		a.UploaderID,
		a.FileName,
		a.URL,
		a.SizeBytes,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert attachment", zap.Error(err), zap.Int("task_id", a.TaskID))
		return mapError(err)
	}
	r.logger.Info("Attachment recorded",
		zap.Int("attachment_id", a.ID),
		zap.Int("task_id", a.TaskID),
		zap.String("file_name", a.FileName),
	)
	return nil
}

func (r *CommentRepository) ListAttachments(ctx context.Context, taskID int) ([]model.FileAttachment, error) {
	query := `
        SELECT id, task_id, uploader_id, file_name, url, size_bytes, created_at
        FROM file_attachments
        WHERE task_id = $1
        ORDER BY created_at
    `
	rows, err := r.db.Query(ctx, query, taskID)
	if err != nil {
		r.logger.Error("Failed to query attachments", zap.Error(err), zap.Int("task_id", taskID))
		return nil, err
	}
	defer rows.Close()

	attachments := []model.FileAttachment{}
	for rows.Next() {
		var a model.FileAttachment
		if err := rows.Scan(&a.ID, &a.TaskID, &a.UploaderID, &a.FileName, &a.URL, &a.SizeBytes, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}
