package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pmboard/internal/handler"
	"pmboard/internal/httpserver"
	"pmboard/internal/repository"
	"pmboard/internal/service"
	"pmboard/internal/workflow"
	"pmboard/migrations"
	"pmboard/pkg/circuitbreaker"
	"pmboard/pkg/config"
	"pmboard/pkg/db"
	"pmboard/pkg/logger"
	"pmboard/pkg/mq"
	"pmboard/pkg/otel"
	"pmboard/pkg/outbox"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load config
	cfg, err := config.Load(config.GetConfigEnv(), os.Getenv("CONFIG_DIR"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logger.NewLogger(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(cfg.OTel, logger)
	if err != nil {
		logger.Fatal("OTel initialization failed", zap.Error(err))
	}
	defer shutdownTracing()

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	if err := db.Migrate(ctx, dbConn, migrations.FS, logger); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}

	// Init MQ Publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Init Outbox
	breakerCfg := circuitbreaker.DefaultConfig()
	breakerCfg.FailureThreshold = cfg.Outbox.BreakerThreshold
	breakerCfg.Timeout = cfg.Outbox.BreakerTimeout
	outboxRepo := outbox.NewRepository(dbConn)
	replayService := outbox.NewReplayService(outboxRepo, publisher)
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, logger).
		WithInterval(cfg.Outbox.Interval).
		WithBatchSize(cfg.Outbox.BatchSize).
		WithMaxRetries(cfg.Outbox.MaxRetries).
		WithBreaker(circuitbreaker.NewCircuitBreaker(breakerCfg))

	// Init Repositories
	userRepo := repository.NewUserRepository(dbConn, logger)
	projectRepo := repository.NewProjectRepository(dbConn, logger)
	taskRepo := repository.NewTaskRepository(dbConn, logger)
	approvalRepo := repository.NewApprovalRepository(dbConn, outboxRepo, logger)
	blockerRepo := repository.NewBlockerRepository(dbConn, outboxRepo, logger)
	commentRepo := repository.NewCommentRepository(dbConn, logger)
	notificationRepo := repository.NewNotificationRepository(dbConn, logger)

	// Init Services
	workflowService := workflow.NewService(workflow.Stores{
		Projects:  projectRepo,
		Tasks:     taskRepo,
		Approvals: approvalRepo,
		Blockers:  blockerRepo,
		Comments:  commentRepo,
	}, logger)
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.TTL)

	// Router
	router := httpserver.NewRouter(httpserver.Handlers{
		Auth:         handler.NewAuthHandler(authService, logger),
		Projects:     handler.NewProjectHandler(workflowService, logger),
		Tasks:        handler.NewTaskHandler(workflowService, logger),
		Approvals:    handler.NewApprovalHandler(workflowService, logger),
		Blockers:     handler.NewBlockerHandler(workflowService, logger),
		Comments:     handler.NewCommentHandler(workflowService, logger),
		Notification: handler.NewNotificationHandler(notificationRepo, logger),
		Admin:        handler.NewAdminHandler(replayService, logger),
	}, httpserver.Options{
		JWTSecret: cfg.JWT.Secret,
		DB:        dbConn,
		Broker:    publisher,
		Logger:    logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dispatcher.Start(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("Starting API server", zap.String("port", cfg.Server.Port))
		return router.Serve(gctx, cfg.Server.Port, 10*time.Second)
	})

	if err := g.Wait(); err != nil {
		logger.Error("API server stopped with error", zap.Error(err))
		return
	}
	logger.Info("API server stopped")
}
