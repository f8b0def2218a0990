package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Total number of queries slower than the configured threshold",
		},
		[]string{"statement"},
	)

	// 慢查询耗时（秒）
	SlowQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_slow_query_duration_seconds",
			Help:    "Duration of slow queries in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8), // 100ms to ~12s
		},
	)

	// 阶段审批状态变化
	StageApprovalTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stage_approval_transitions_total",
			Help: "Stage approval rows written, by resulting status",
		},
		[]string{"stage", "status"},
	)

	// MQ 消费延迟（毫秒）
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	// Outbox 发布结果
	OutboxDispatchCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_dispatch_total",
			Help: "Outbox events dispatched to the broker, by result",
		},
		[]string{"routing_key", "result"}, // result: sent / failed / deferred
	)

	// 通知生成计数
	NotificationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_created_total",
			Help: "Total number of notifications created from workflow events",
		},
		[]string{"routing_key"},
	)
)

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementSlowQuery 记录慢查询
func IncrementSlowQuery(statement string, duration time.Duration) {
	SlowQueryCount.WithLabelValues(statement).Inc()
	SlowQueryDuration.Observe(duration.Seconds())
}

// IncrementStageTransition 记录审批状态写入
func IncrementStageTransition(stageID, status string) {
	StageApprovalTransitions.WithLabelValues(stageID, status).Inc()
}

// RecordMQConsumeLatency 记录 MQ 消费延迟
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// IncrementOutboxDispatch 记录 outbox 发布结果
func IncrementOutboxDispatch(routingKey, result string) {
	OutboxDispatchCount.WithLabelValues(routingKey, result).Inc()
}

// IncrementNotification 记录通知生成
func IncrementNotification(routingKey string) {
	NotificationCount.WithLabelValues(routingKey).Inc()
}
