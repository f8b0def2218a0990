package db

import (
	"bytes"
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"pmboard/pkg/metrics"
)

type queryStartKey struct{}

type queryStart struct {
	at  time.Time
	sql string
}

// SlowQueryTracer 慢查询监控 Tracer
type SlowQueryTracer struct {
	logger        *zap.Logger
	slowThreshold time.Duration
}

// NewSlowQueryTracer 创建慢查询 Tracer，阈值为 0 时默认 100ms
func NewSlowQueryTracer(logger *zap.Logger, slowThreshold time.Duration) *SlowQueryTracer {
	if slowThreshold == 0 {
		slowThreshold = 100 * time.Millisecond
	}
	return &SlowQueryTracer{
		logger:        logger,
		slowThreshold: slowThreshold,
	}
}

// TraceQueryStart 查询开始时的钩子
func (t *SlowQueryTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{at: time.Now(), sql: data.SQL})
}

// TraceQueryEnd 查询结束时的钩子
func (t *SlowQueryTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}

	duration := time.Since(start.at)
	if duration <= t.slowThreshold {
		return
	}

	sql := truncateSQL(start.sql)
	t.logger.Warn("slow-query",
		zap.String("sql", sql),
		zap.Duration("took", duration),
		zap.String("command_tag", data.CommandTag.String()),
	)
	metrics.IncrementSlowQuery(sql, duration)
}

// truncateSQL 截断 SQL 语句（避免日志过长），并压缩空白
func truncateSQL(sql string) string {
	compact := make([]byte, 0, len(sql))
	space := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			if !space && len(compact) > 0 {
				compact = append(compact, ' ')
			}
			space = true
			continue
		}
		space = false
		compact = append(compact, c)
	}
	compact = bytes.TrimRight(compact, " ")
	if len(compact) > 200 {
		return string(compact[:200]) + "..."
	}
	return string(compact)
}
