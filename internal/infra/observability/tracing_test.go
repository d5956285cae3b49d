//go:build unit

package observability_test

import (
	"context"
	"testing"

	"inventory-ledger/internal/infra/observability"
	"inventory-ledger/internal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestNewTracerProvider_RecordsSpans(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	tp, err := observability.NewTracerProvider(ctx, config.NewTestConfig().Tracing, sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(ctx) })

	_, span := tp.Tracer("test").Start(ctx, "reserve")
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "reserve", ended[0].Name())
	assert.True(t, ended[0].SpanContext().IsValid())
	assert.Contains(t, ended[0].Resource().Attributes(), semconv.ServiceName("inventory-ledger-test"))
}

func TestNewTracerProvider_SampleRatioZeroDropsRootSpans(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewTestConfig().Tracing
	cfg.SampleRatio = 0
	recorder := tracetest.NewSpanRecorder()
	tp, err := observability.NewTracerProvider(ctx, cfg, sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(ctx) })

	_, span := tp.Tracer("test").Start(ctx, "reserve")
	span.End()

	assert.Empty(t, recorder.Ended())
}

func TestNewTracerProvider_WithExporter(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewTestConfig().Tracing
	cfg.Endpoint = "localhost:4318"
	cfg.Insecure = true
	cfg.Headers = map[string]string{"Authorization": "Bearer token"}

	tp, err := observability.NewTracerProvider(ctx, cfg)
	require.NoError(t, err)
	// nothing was recorded, so shutdown does not reach the collector
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestPropagator_InjectsTraceparent(t *testing.T) {
	ctx := context.Background()
	tp, err := observability.NewTracerProvider(ctx, config.NewTestConfig().Tracing)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(ctx) })

	ctx, span := tp.Tracer("test").Start(ctx, "publish")
	defer span.End()

	carrier := propagation.MapCarrier{}
	observability.NewPropagator().Inject(ctx, carrier)
	assert.Contains(t, carrier.Get("traceparent"), span.SpanContext().TraceID().String())
}
