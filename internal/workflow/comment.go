package workflow

import (
	"context"
	"strings"

	"pmboard/internal/model"
	"pmboard/pkg/rbac"
)

type CommentStore interface {
	InsertComment(ctx context.Context, c *model.Comment) error
	ListComments(ctx context.Context, taskID int) ([]model.Comment, error)
	InsertAttachment(ctx context.Context, a *model.FileAttachment) error
	ListAttachments(ctx context.Context, taskID int) ([]model.FileAttachment, error)
}

func (s *Service) ListComments(ctx context.Context, actor model.Actor, taskID int) ([]model.Comment, error) {
	t, _, err := s.taskWithProject(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	return s.comments.ListComments(ctx, t.ID)
}

func (s *Service) AddComment(ctx context.Context, actor model.Actor, taskID int, body string) (*model.Comment, error) {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionUpdateTask); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, validation("body is required")
	}
	t, _, err := s.taskWithProject(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	c := &model.Comment{TaskID: t.ID, AuthorID: actor.UserID, Body: body}
	if err := s.comments.InsertComment(ctx, c); err != nil {
		return nil, storeError("comment", err)
	}
	return c, nil
}

func (s *Service) ListAttachments(ctx context.Context, actor model.Actor, taskID int) ([]model.FileAttachment, error) {
	t, _, err := s.taskWithProject(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	return s.comments.ListAttachments(ctx, t.ID)
}

// AddAttachment records where an already uploaded file lives.
func (s *Service) AddAttachment(ctx context.Context, actor model.Actor, taskID int, a model.FileAttachment) (*model.FileAttachment, error) {
	if err := rbac.CheckPermission(actor.UserID, actor.Role, rbac.PermissionUpdateTask); err != nil {
		return nil, err
	}
	a.FileName = strings.TrimSpace(a.FileName)
	a.URL = strings.TrimSpace(a.URL)
	if a.FileName == "" || a.URL == "" {
		return nil, validation("fileName and url are required")
	}
	if a.SizeBytes < 0 {
		return nil, validation("sizeBytes cannot be negative")
	}
	t, _, err := s.taskWithProject(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	a.TaskID = t.ID
	a.UploaderID = actor.UserID
	if err := s.comments.InsertAttachment(ctx, &a); err != nil {
		return nil, storeError("attachment", err)
	}
	return &a, nil
}
