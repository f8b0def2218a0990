package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqcontracts "pmboard/contracts/mq"
	"pmboard/internal/mqhandler"
	"pmboard/internal/repository"
	"pmboard/pkg/config"
	"pmboard/pkg/db"
	"pmboard/pkg/logger"
	"pmboard/pkg/mq"
	"pmboard/pkg/otel"
	redisclient "pmboard/pkg/redis"
	"pmboard/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type binding struct {
	queue      string
	routingKey string
	handle     mq.MessageHandler
}

func main() {
	// Load config
	cfg, err := config.Load(config.GetConfigEnv(), os.Getenv("CONFIG_DIR"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logger.NewLogger(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	logger.Info("Starting worker service...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(cfg.OTel, logger)
	if err != nil {
		logger.Fatal("OTel initialization failed", zap.Error(err))
	}
	defer shutdownTracing()

	// Init Redis
	rdb := redisclient.NewRedisClient(cfg.Redis)
	defer rdb.Close()
	if err := redisclient.Ping(ctx, rdb); err != nil {
		// without Redis every delivery passes dedup; the unique (user_id, event_id) index still holds
		logger.Warn("Redis not reachable, dedup degraded", zap.Error(err))
	}
	deduper := util.NewDeduper(rdb, cfg.Redis.DedupTTL)

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init Handlers
	notiRepo := repository.NewNotificationRepository(dbConn, logger)
	stageHandler := mqhandler.NewStageNotificationHandler(notiRepo, deduper, logger)
	blockerHandler := mqhandler.NewBlockerNotificationHandler(notiRepo, deduper, logger)

	bindings := []binding{
		{"pm.stage.submitted.notification.q", mqcontracts.RoutingStageSubmitted, stageHandler.Handle(mqcontracts.RoutingStageSubmitted)},
		{"pm.stage.approved.notification.q", mqcontracts.RoutingStageApproved, stageHandler.Handle(mqcontracts.RoutingStageApproved)},
		{"pm.stage.rejected.notification.q", mqcontracts.RoutingStageRejected, stageHandler.Handle(mqcontracts.RoutingStageRejected)},
		{"pm.blocker.reported.notification.q", mqcontracts.RoutingBlockerReported, blockerHandler.HandleBlockerReported},
	}

	g, gctx := errgroup.WithContext(ctx)
	consumers := make([]*mq.Consumer, 0, len(bindings))
	for _, b := range bindings {
		logger.Info("Initializing consumer", zap.String("queue", b.queue), zap.String("routing_key", b.routingKey))
		consumer, err := mq.NewConsumer(cfg.MQ.URL, b.queue, b.routingKey, logger)
		if err != nil {
			logger.Fatal("Failed to init consumer", zap.String("queue", b.queue), zap.Error(err))
		}
		defer consumer.Close()
		consumer.SetHandler(b.handle)
		consumers = append(consumers, consumer)

		g.Go(func() error {
			return consumer.StartConsuming(gctx)
		})
	}

	// health + metrics
	port := os.Getenv("WORKER_HTTP_PORT")
	if port == "" {
		port = ":9091"
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		for _, consumer := range consumers {
			if !consumer.IsConnected() {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "mq_disconnected"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	srv := &http.Server{Addr: port, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info("Worker service started", zap.Int("consumers", len(consumers)), zap.String("http_port", port))
	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", zap.Error(err))
		return
	}
	logger.Info("Worker service stopped")
}
