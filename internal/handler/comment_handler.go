package handler

import (
	"context"
	"net/http"

	"pmboard/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CommentService interface {
	ListComments(ctx context.Context, actor model.Actor, taskID int) ([]model.Comment, error)
	AddComment(ctx context.Context, actor model.Actor, taskID int, body string) (*model.Comment, error)
	ListAttachments(ctx context.Context, actor model.Actor, taskID int) ([]model.FileAttachment, error)
	AddAttachment(ctx context.Context, actor model.Actor, taskID int, a model.FileAttachment) (*model.FileAttachment, error)
}

type CommentHandler struct {
	svc    CommentService
	logger *zap.Logger
}

func NewCommentHandler(svc CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{svc: svc, logger: logger}
}

type commentRequest struct {
	Body string `json:"body"`
}

type attachmentRequest struct {
	FileName  string `json:"fileName"`
	URL       string `json:"url"`
	SizeBytes int64  `json:"sizeBytes"`
}

// ListComments GET /api/project-tasks/:taskId/comments
func (h *CommentHandler) ListComments(c *gin.Context) {
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}
	list, err := h.svc.ListComments(c.Request.Context(), actorFrom(c), taskID)
	if err != nil {
		writeError(c, h.logger, "ListComments", err)
		return
	}
	respond(c, http.StatusOK, list)
}

// AddComment POST /api/project-tasks/:taskId/comments
func (h *CommentHandler) AddComment(c *gin.Context) {
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	comment, err := h.svc.AddComment(c.Request.Context(), actorFrom(c), taskID, req.Body)
	if err != nil {
		writeError(c, h.logger, "AddComment", err)
		return
	}
	respond(c, http.StatusCreated, comment)
}

// ListAttachments GET /api/project-tasks/:taskId/attachments
func (h *CommentHandler) ListAttachments(c *gin.Context) {
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}
	list, err := h.svc.ListAttachments(c.Request.Context(), actorFrom(c), taskID)
	if err != nil {
		writeError(c, h.logger, "ListAttachments", err)
		return
	}
	respond(c, http.StatusOK, list)
}

// AddAttachment POST /api/project-tasks/:taskId/attachments
func (h *CommentHandler) AddAttachment(c *gin.Context) {
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}
	var req attachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	a, err := h.svc.AddAttachment(c.Request.Context(), actorFrom(c), taskID, model.FileAttachment{
		FileName:  req.FileName,
		URL:       req.URL,
		SizeBytes: req.SizeBytes,
	})
	if err != nil {
		writeError(c, h.logger, "AddAttachment", err)
		return
	}
	respond(c, http.StatusCreated, a)
}
