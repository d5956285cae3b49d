package bootstrap

import (
	"log/slog"

	"inventory-ledger/internal/handler/middleware"
	"inventory-ledger/internal/pkg/config"

	"go.uber.org/fx"
)

var LoggerModule = fx.Module("logger",
	fx.Provide(
		middleware.NewLogger,
		func(cfg config.Config) config.LogConfig { return cfg.Log },
		NewSlogLogger,
	),
)

func NewSlogLogger(l *middleware.Logger) *slog.Logger {
	return l.GetSlogLogger()
}
