package handler

import (
	"context"
	"net/http"

	"pmboard/internal/model"
	"pmboard/internal/workflow"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TaskService interface {
	ListTasks(ctx context.Context, actor model.Actor, projectID int) ([]model.Task, error)
	CreateTask(ctx context.Context, actor model.Actor, in workflow.TaskInput) (*model.Task, error)
	UpdateTask(ctx context.Context, actor model.Actor, taskID int, patch model.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, actor model.Actor, taskID int) error
}

type TaskHandler struct {
	svc    TaskService
	logger *zap.Logger
}

func NewTaskHandler(svc TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, logger: logger}
}

type createTaskRequest struct {
	ProjectID   int     `json:"projectId"`
	StageID     string  `json:"stageId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	DueDate     *string `json:"dueDate"`
	AssigneeID  *int    `json:"assigneeId"`
}

type updateTaskRequest struct {
	Status      *string `json:"status"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
	AssigneeID  *int    `json:"assigneeId"`
}

// ListTasks GET /api/project-tasks?projectId=
func (h *TaskHandler) ListTasks(c *gin.Context) {
	projectID, ok := queryID(c, "projectId")
	if !ok {
		return
	}
	tasks, err := h.svc.ListTasks(c.Request.Context(), actorFrom(c), projectID)
	if err != nil {
		writeError(c, h.logger, "ListTasks", err)
		return
	}
	respond(c, http.StatusOK, tasks)
}

// CreateTask POST /api/project-tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	task, err := h.svc.CreateTask(c.Request.Context(), actorFrom(c), workflow.TaskInput{
		ProjectID:   req.ProjectID,
		StageID:     req.StageID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		DueDate:     due,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		writeError(c, h.logger, "CreateTask", err)
		return
	}
	h.logger.Info("CreateTask: success",
		zap.Int("task_id", task.ID),
		zap.Int("project_id", task.ProjectID),
		zap.String("stage_id", task.StageID),
	)
	respond(c, http.StatusCreated, task)
}

// UpdateTask PATCH /api/project-tasks/:taskId
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	task, err := h.svc.UpdateTask(c.Request.Context(), actorFrom(c), taskID, model.TaskPatch{
		Status:      req.Status,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     due,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		writeError(c, h.logger, "UpdateTask", err)
		return
	}
	respond(c, http.StatusOK, task)
}

// DeleteTask DELETE /api/project-tasks/:taskId
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}
	if err := h.svc.DeleteTask(c.Request.Context(), actorFrom(c), taskID); err != nil {
		writeError(c, h.logger, "DeleteTask", err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": taskID, "deleted": true})
}
