package handler

import (
	"context"
	"net/http"

	"pmboard/internal/model"
	"pmboard/internal/workflow"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BlockerService interface {
	ReportBlocker(ctx context.Context, actor model.Actor, in workflow.BlockerInput) (*model.Blocker, error)
	GetBlocker(ctx context.Context, actor model.Actor, id int) (*model.Blocker, error)
	ListBlockers(ctx context.Context, actor model.Actor, projectID int) ([]model.Blocker, error)
	ListTaskBlockers(ctx context.Context, actor model.Actor, taskID int) ([]model.Blocker, error)
	UpdateBlocker(ctx context.Context, actor model.Actor, id int, status string, assigneeID *int) (*model.Blocker, error)
}

type BlockerHandler struct {
	svc    BlockerService
	logger *zap.Logger
}

func NewBlockerHandler(svc BlockerService, logger *zap.Logger) *BlockerHandler {
	return &BlockerHandler{svc: svc, logger: logger}
}

type reportBlockerRequest struct {
	TaskID        int    `json:"taskId"`
	Reason        string `json:"reason"`
	Notes         string `json:"notes"`
	AttachmentURL string `json:"attachmentUrl"`
}

type updateBlockerRequest struct {
	Status     string `json:"status"`
	AssigneeID *int   `json:"assigneeId"`
}

// Report POST /api/blockers
func (h *BlockerHandler) Report(c *gin.Context) {
	var req reportBlockerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.TaskID <= 0 {
		badRequest(c, "taskId is required")
		return
	}
	b, err := h.svc.ReportBlocker(c.Request.Context(), actorFrom(c), workflow.BlockerInput{
		TaskID:        req.TaskID,
		Reason:        req.Reason,
		Notes:         req.Notes,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		writeError(c, h.logger, "ReportBlocker", err)
		return
	}
	h.logger.Info("ReportBlocker: success",
		zap.Int("blocker_id", b.ID),
		zap.Int("task_id", b.TaskID),
	)
	respond(c, http.StatusCreated, b)
}

// Get GET /api/blockers/:id
func (h *BlockerHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.GetBlocker(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, h.logger, "GetBlocker", err)
		return
	}
	respond(c, http.StatusOK, b)
}

// ListForProject GET /api/projects/:id/blockers
func (h *BlockerHandler) ListForProject(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListBlockers(c.Request.Context(), actorFrom(c), projectID)
	if err != nil {
		writeError(c, h.logger, "ListBlockers", err)
		return
	}
	respond(c, http.StatusOK, list)
}

// ListForTask GET /api/project-tasks/:taskId/blockers
func (h *BlockerHandler) ListForTask(c *gin.Context) {
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}
	list, err := h.svc.ListTaskBlockers(c.Request.Context(), actorFrom(c), taskID)
	if err != nil {
		writeError(c, h.logger, "ListTaskBlockers", err)
		return
	}
	respond(c, http.StatusOK, list)
}

// Update PATCH /api/blockers/:id
func (h *BlockerHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateBlockerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	b, err := h.svc.UpdateBlocker(c.Request.Context(), actorFrom(c), id, req.Status, req.AssigneeID)
	if err != nil {
		writeError(c, h.logger, "UpdateBlocker", err)
		return
	}
	respond(c, http.StatusOK, b)
}
