package bootstrap

import (
	"context"
	"log/slog"

	"inventory-ledger/internal/infra/observability"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
)

var ObservabilityModule = fx.Module("observability",
	fx.Provide(
		NewRegistry,
		func(reg *prometheus.Registry) prometheus.Gatherer { return reg },
		func(reg *prometheus.Registry) *metrics.Metrics { return metrics.MustNewMetrics(reg) },
	),
	fx.Invoke(SetupTracing),
)

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// SetupTracing installs the global tracer provider and propagator, flushing spans on stop.
func SetupTracing(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) error {
	tp, err := observability.NewTracerProvider(context.Background(), cfg.Tracing)
	if err != nil {
		return err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(observability.NewPropagator())

	if cfg.Tracing.Endpoint == "" {
		logger.Info("otlp endpoint not configured; spans are not exported")
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
	return nil
}
