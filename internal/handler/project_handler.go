package handler

import (
	"context"
	"net/http"

	"pmboard/internal/model"
	"pmboard/internal/workflow"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProjectService interface {
	ListProjects(ctx context.Context, actor model.Actor) ([]model.Project, error)
	GetProject(ctx context.Context, actor model.Actor, id int) (*model.Project, error)
	CreateProject(ctx context.Context, actor model.Actor, in workflow.ProjectInput) (*model.Project, error)
	UpdateProject(ctx context.Context, actor model.Actor, id int, in workflow.ProjectInput) (*model.Project, error)
	DeleteProject(ctx context.Context, actor model.Actor, id int) error
}

type ProjectHandler struct {
	svc    ProjectService
	logger *zap.Logger
}

func NewProjectHandler(svc ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, logger: logger}
}

type projectRequest struct {
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	Status    string  `json:"status"`
	LeadID    *int    `json:"leadId"`
	MemberIDs []int   `json:"memberIds"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

func (r projectRequest) input() (workflow.ProjectInput, error) {
	start, err := parseDate(r.StartDate)
	if err != nil {
		return workflow.ProjectInput{}, err
	}
	end, err := parseDate(r.EndDate)
	if err != nil {
		return workflow.ProjectInput{}, err
	}
	return workflow.ProjectInput{
		Name:      r.Name,
		Code:      r.Code,
		Status:    r.Status,
		LeadID:    r.LeadID,
		MemberIDs: r.MemberIDs,
		StartDate: start,
		EndDate:   end,
	}, nil
}

// List GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.svc.ListProjects(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, h.logger, "ListProjects", err)
		return
	}
	respond(c, http.StatusOK, projects)
}

// Get GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.GetProject(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, h.logger, "GetProject", err)
		return
	}
	respond(c, http.StatusOK, p)
}

// Create POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	in, err := req.input()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := h.svc.CreateProject(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		writeError(c, h.logger, "CreateProject", err)
		return
	}
	h.logger.Info("CreateProject: success", zap.Int("project_id", p.ID), zap.String("code", p.Code))
	respond(c, http.StatusCreated, p)
}

// Update PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	in, err := req.input()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := h.svc.UpdateProject(c.Request.Context(), actorFrom(c), id, in)
	if err != nil {
		writeError(c, h.logger, "UpdateProject", err)
		return
	}
	respond(c, http.StatusOK, p)
}

// Delete DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteProject(c.Request.Context(), actorFrom(c), id); err != nil {
		writeError(c, h.logger, "DeleteProject", err)
		return
	}
	h.logger.Info("DeleteProject: success", zap.Int("project_id", id))
	respond(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}
