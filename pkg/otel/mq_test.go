package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestHeaderPropagation(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	headers := map[string]interface{}{}
	InjectHeaders(ctx, headers)
	assert.Contains(t, headers, "traceparent")

	restored := trace.SpanContextFromContext(ExtractHeaders(context.Background(), headers))
	assert.Equal(t, traceID, restored.TraceID())
	assert.Equal(t, spanID, restored.SpanID())
}

func TestExtractHeadersNil(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, ExtractHeaders(ctx, nil))
}

func TestTracerDefaultsToNoop(t *testing.T) {
	_, span := StartSpan(context.Background(), "test")
	defer span.End()
	assert.False(t, span.SpanContext().IsValid())
}
