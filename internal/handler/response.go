package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pmboard/internal/model"
	"pmboard/internal/repository"
	"pmboard/internal/service"
	"pmboard/internal/workflow"
	"pmboard/pkg/logger"
	"pmboard/pkg/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by the auth middleware.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

func actorFrom(c *gin.Context) model.Actor {
	return model.Actor{
		UserID: c.GetInt(CtxUserID),
		Role:   c.GetString(CtxRole),
	}
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var denied *rbac.PermissionDeniedError
	switch {
	case errors.As(err, &denied):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrValidation),
		errors.Is(err, workflow.ErrCommentRequired),
		errors.Is(err, workflow.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidSignup),
		errors.Is(err, service.ErrUnknownRole):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, workflow.ErrNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrStageLocked),
		errors.Is(err, workflow.ErrNotSubmittable),
		errors.Is(err, workflow.ErrConflict),
		errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders {"error": msg}. Unexpected errors are logged and hidden.
func writeError(c *gin.Context, log *zap.Logger, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithTrace(c.Request.Context(), log).Error(op+" failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryID(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		badRequest(c, name+" is required")
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, errors.New("dates must be YYYY-MM-DD or RFC 3339")
	}
	return &t, nil
}
