package handler

import (
	"context"
	"net/http"

	"pmboard/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, email, name, password, role string) (*model.User, error)
	Login(ctx context.Context, email, password string) (string, *model.User, error)
}

type AuthHandler struct {
	svc    AuthService
	logger *zap.Logger
}

func NewAuthHandler(svc AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	u, err := h.svc.Register(c.Request.Context(), req.Email, req.Name, req.Password, req.Role)
	if err != nil {
		writeError(c, h.logger, "Register", err)
		return
	}
	h.logger.Info("User registered", zap.Int("user_id", u.ID), zap.String("role", u.Role))
	respond(c, http.StatusCreated, u)
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	token, u, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("Login failed", zap.String("client_ip", c.ClientIP()))
		writeError(c, h.logger, "Login", err)
		return
	}
	respond(c, http.StatusOK, gin.H{"token": token, "user": u})
}
