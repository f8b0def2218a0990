package otel

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// DBSpan 为数据库操作创建 span
func DBSpan(ctx context.Context, operation, table string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "db."+operation+" "+table,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemPostgreSQL,
			semconv.DBOperation(operation),
			semconv.DBSQLTable(table),
		),
	)
}

// WrapDBError 记录数据库错误到 span；no rows 不算错误
func WrapDBError(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetAttributes(attribute.Bool("db.no_rows", true))
		span.SetStatus(codes.Ok, "no rows")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Do 包装一次数据库操作，自动添加追踪
func Do(ctx context.Context, operation, table string, fn func(context.Context) error) error {
	ctx, span := DBSpan(ctx, operation, table)
	defer span.End()

	err := fn(ctx)
	WrapDBError(span, err)
	return err
}
