package db

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"pmboard/pkg/config"
)

func TestTruncateSQL(t *testing.T) {
	assert.Equal(t, "SELECT id FROM tasks WHERE project_id = $1",
		truncateSQL("\n        SELECT id\n        FROM tasks\n        WHERE project_id = $1\n    "))

	assert.Equal(t, "SELECT 1", truncateSQL("SELECT 1\n    "))
	assert.Equal(t, "", truncateSQL(" \n\t "))

	long := strings.Repeat("x", 300)
	got := truncateSQL(long)
	assert.Len(t, got, 203)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestSlowQueryTracerLogsOnlySlowQueries(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tracer := NewSlowQueryTracer(zap.New(core), 10*time.Millisecond)

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})
	assert.Equal(t, 0, logs.Len())

	slow := context.WithValue(context.Background(), queryStartKey{}, queryStart{
		at:  time.Now().Add(-time.Second),
		sql: "SELECT pg_sleep(1)",
	})
	tracer.TraceQueryEnd(slow, nil, pgx.TraceQueryEndData{})
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "slow-query", logs.All()[0].Message)
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DBConfig{Host: "db", Port: 5432, User: "pm", Password: "pw", Name: "pmboard"})
	assert.Equal(t, "postgres://pm:pw@db:5432/pmboard?sslmode=disable", dsn)
}
