package handler

import (
	"context"
	"net/http"
	"strings"

	"pmboard/internal/model"
	"pmboard/internal/stage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ApprovalService interface {
	Board(ctx context.Context, actor model.Actor, projectID int) (stage.Board, error)
	ListApprovals(ctx context.Context, actor model.Actor, projectID int) ([]model.StageApproval, error)
	PendingApprovals(ctx context.Context, actor model.Actor) ([]model.StageApproval, error)
	Submit(ctx context.Context, actor model.Actor, projectID int, stageAlias string) (*model.StageApproval, error)
	Decide(ctx context.Context, actor model.Actor, projectID int, stageAlias, status, comment string) (*model.StageApproval, error)
}

type ApprovalHandler struct {
	svc    ApprovalService
	logger *zap.Logger
}

func NewApprovalHandler(svc ApprovalService, logger *zap.Logger) *ApprovalHandler {
	return &ApprovalHandler{svc: svc, logger: logger}
}

type submitApprovalRequest struct {
	ProjectID int    `json:"projectId"`
	StageID   string `json:"stageId"`
	Status    string `json:"status"`
}

type decideApprovalRequest struct {
	ProjectID int    `json:"projectId"`
	Status    string `json:"status"`
	Comment   string `json:"comment"`
}

// ListApprovals GET /api/project-stage-approvals?projectId=
func (h *ApprovalHandler) ListApprovals(c *gin.Context) {
	projectID, ok := queryID(c, "projectId")
	if !ok {
		return
	}
	rows, err := h.svc.ListApprovals(c.Request.Context(), actorFrom(c), projectID)
	if err != nil {
		writeError(c, h.logger, "ListApprovals", err)
		return
	}
	respond(c, http.StatusOK, rows)
}

// Submit POST /api/project-stage-approvals
func (h *ApprovalHandler) Submit(c *gin.Context) {
	var req submitApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.ProjectID <= 0 || strings.TrimSpace(req.StageID) == "" {
		badRequest(c, "projectId and stageId are required")
		return
	}
	if req.Status != "" && !strings.EqualFold(strings.TrimSpace(req.Status), model.ApprovalPending) {
		badRequest(c, "only Pending can be submitted; use PATCH to approve or reject")
		return
	}

	a, err := h.svc.Submit(c.Request.Context(), actorFrom(c), req.ProjectID, req.StageID)
	if err != nil {
		writeError(c, h.logger, "SubmitApproval", err)
		return
	}
	respond(c, http.StatusOK, a)
}

// Decide PATCH /api/project-stage-approvals/:stageId
func (h *ApprovalHandler) Decide(c *gin.Context) {
	stageAlias := c.Param("stageId")
	var req decideApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.ProjectID <= 0 {
		badRequest(c, "projectId is required")
		return
	}

	a, err := h.svc.Decide(c.Request.Context(), actorFrom(c), req.ProjectID, stageAlias, req.Status, req.Comment)
	if err != nil {
		writeError(c, h.logger, "DecideApproval", err)
		return
	}
	respond(c, http.StatusOK, a)
}

// Pending GET /api/stage-approvals/pending
func (h *ApprovalHandler) Pending(c *gin.Context) {
	rows, err := h.svc.PendingApprovals(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, h.logger, "PendingApprovals", err)
		return
	}
	respond(c, http.StatusOK, rows)
}

// Board GET /api/projects/:id/stages
func (h *ApprovalHandler) Board(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	board, err := h.svc.Board(c.Request.Context(), actorFrom(c), projectID)
	if err != nil {
		writeError(c, h.logger, "Board", err)
		return
	}
	respond(c, http.StatusOK, board)
}

// Stages GET /api/stages
func (h *ApprovalHandler) Stages(c *gin.Context) {
	respond(c, http.StatusOK, stage.All())
}
