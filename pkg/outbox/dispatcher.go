package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pmboard/pkg/circuitbreaker"
	"pmboard/pkg/metrics"
	"pmboard/pkg/trace"
)

// Dispatcher 负责从 outbox 中读取事件并发布到 MQ
type Dispatcher struct {
	store      Store
	publisher  Publisher
	logger     *zap.Logger
	maxRetries int
	interval   time.Duration
	batchSize  int
}

func NewDispatcher(store Store, publisher Publisher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:      store,
		publisher:  publisher,
		logger:     logger,
		maxRetries: 5,
		interval:   time.Second,
		batchSize:  100,
	}
}

// WithMaxRetries 设置最大重试次数
func (d *Dispatcher) WithMaxRetries(maxRetries int) *Dispatcher {
	d.maxRetries = maxRetries
	return d
}

// WithInterval 设置扫描间隔
func (d *Dispatcher) WithInterval(interval time.Duration) *Dispatcher {
	d.interval = interval
	return d
}

// WithBatchSize 设置批次大小
func (d *Dispatcher) WithBatchSize(batchSize int) *Dispatcher {
	d.batchSize = batchSize
	return d
}

// WithBreaker 用熔断器包装 publisher，broker 故障期间不消耗事件的重试次数
func (d *Dispatcher) WithBreaker(cb *circuitbreaker.CircuitBreaker) *Dispatcher {
	d.publisher = breakerPublisher{next: d.publisher, cb: cb}
	return d
}

type breakerPublisher struct {
	next Publisher
	cb   *circuitbreaker.CircuitBreaker
}

func (p breakerPublisher) PublishWithContext(ctx context.Context, routingKey string, payload any) error {
	return p.cb.Execute(func() error {
		return p.next.PublishWithContext(ctx, routingKey, payload)
	})
}

// Start 阻塞运行直到 ctx 取消
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting Outbox Dispatcher",
		zap.Int("max_retries", d.maxRetries),
		zap.Duration("interval", d.interval),
		zap.Int("batch_size", d.batchSize),
	)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Outbox Dispatcher stopped")
			return
		case <-ticker.C:
			d.ProcessPending(ctx)
		}
	}
}

// ProcessPending 处理一批待发送的事件，返回成功发送的数量
func (d *Dispatcher) ProcessPending(ctx context.Context) int {
	events, err := d.store.GetPendingEvents(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("Failed to get pending events", zap.Error(err))
		return 0
	}
	if len(events) == 0 {
		return 0
	}

	d.logger.Debug("Processing pending events", zap.Int("count", len(events)))

	sent := 0
	for i, event := range events {
		if err := publishEvent(ctx, d.publisher, event); err != nil {
			if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
				// 熔断期间剩余事件留在 pending，下个周期再试
				d.logger.Warn("Circuit breaker open, pausing dispatch",
					zap.Int("remaining", len(events)-i),
				)
				metrics.IncrementOutboxDispatch(event.RoutingKey, "deferred")
				break
			}
			d.logger.Error("Failed to publish event",
				zap.Int64("event_id", event.ID),
				zap.String("routing_key", event.RoutingKey),
				zap.Error(err),
			)
			metrics.IncrementOutboxDispatch(event.RoutingKey, "failed")
			if err := d.store.MarkAsFailed(ctx, event.ID, d.maxRetries); err != nil {
				d.logger.Error("Failed to mark event as failed",
					zap.Int64("event_id", event.ID),
					zap.Error(err),
				)
			}
			continue
		}

		metrics.IncrementOutboxDispatch(event.RoutingKey, "sent")
		if err := d.store.MarkAsSent(ctx, event.ID); err != nil {
			d.logger.Error("Failed to mark event as sent",
				zap.Int64("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		sent++
	}
	return sent
}

// publishEvent 发布单个事件，payload 中的 trace_id 会被带到消息头
func publishEvent(ctx context.Context, publisher Publisher, event *Event) error {
	var payload map[string]interface{}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if traceID, ok := payload["trace_id"].(string); ok && traceID != "" {
		ctx = trace.WithContext(ctx, traceID)
	}

	if err := publisher.PublishWithContext(ctx, event.RoutingKey, json.RawMessage(event.Payload)); err != nil {
		return fmt.Errorf("failed to publish to MQ: %w", err)
	}
	return nil
}
