package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pmboard/internal/handler"
	"pmboard/pkg/otel"
	"pmboard/pkg/rbac"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BrokerStatus is satisfied by the MQ publisher.
type BrokerStatus interface {
	IsConnected() bool
}

type Options struct {
	JWTSecret string
	DB        Pinger
	// Broker is optional; when nil /readyz skips the MQ check.
	Broker BrokerStatus
	Logger *zap.Logger
}

type Handlers struct {
	Auth         *handler.AuthHandler
	Projects     *handler.ProjectHandler
	Tasks        *handler.TaskHandler
	Approvals    *handler.ApprovalHandler
	Blockers     *handler.BlockerHandler
	Comments     *handler.CommentHandler
	Notification *handler.NotificationHandler
	Admin        *handler.AdminHandler
}

type Router struct {
	Engine *gin.Engine
}

func NewRouter(h Handlers, opts Options) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(), otel.GinMiddleware(), RequestLogger(opts.Logger))

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := opts.DB.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		if opts.Broker != nil && !opts.Broker.IsConnected() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/auth/register", h.Auth.Register)
	r.POST("/auth/login", h.Auth.Login)

	// Protected
	api := r.Group("/api")
	api.Use(AuthMiddleware(opts.JWTSecret))
	{
		api.GET("/stages", h.Approvals.Stages)

		api.GET("/projects", h.Projects.List)
		api.POST("/projects", h.Projects.Create)
		api.GET("/projects/:id", h.Projects.Get)
		api.PATCH("/projects/:id", h.Projects.Update)
		api.DELETE("/projects/:id", h.Projects.Delete)
		api.GET("/projects/:id/stages", h.Approvals.Board)
		api.GET("/projects/:id/blockers", h.Blockers.ListForProject)

		api.GET("/project-tasks", h.Tasks.ListTasks)
		api.POST("/project-tasks", h.Tasks.CreateTask)
		api.PATCH("/project-tasks/:taskId", h.Tasks.UpdateTask)
		api.DELETE("/project-tasks/:taskId", h.Tasks.DeleteTask)
		api.GET("/project-tasks/:taskId/comments", h.Comments.ListComments)
		api.POST("/project-tasks/:taskId/comments", h.Comments.AddComment)
		api.GET("/project-tasks/:taskId/attachments", h.Comments.ListAttachments)
		api.POST("/project-tasks/:taskId/attachments", h.Comments.AddAttachment)
		api.GET("/project-tasks/:taskId/blockers", h.Blockers.ListForTask)

		api.GET("/project-stage-approvals", h.Approvals.ListApprovals)
		api.POST("/project-stage-approvals", h.Approvals.Submit)
		api.PATCH("/project-stage-approvals/:stageId", h.Approvals.Decide)
		api.GET("/stage-approvals/pending", h.Approvals.Pending)

		api.POST("/blockers", h.Blockers.Report)
		api.GET("/blockers/:id", h.Blockers.Get)
		api.PATCH("/blockers/:id", h.Blockers.Update)

		api.GET("/notifications", h.Notification.List)
		api.POST("/notifications/:id/read", h.Notification.MarkRead)
	}

	admin := r.Group("/admin")
	admin.Use(AuthMiddleware(opts.JWTSecret), RequirePermission(rbac.PermissionReplayOutbox))
	{
		admin.POST("/outbox/replay", h.Admin.ReplayOutboxEvent)
		admin.POST("/outbox/replay-failed", h.Admin.ReplayFailedEvents)
	}

	return &Router{Engine: r}
}

// Serve listens on addr and shuts down gracefully within shutdownTimeout once ctx is done.
func (r *Router) Serve(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
