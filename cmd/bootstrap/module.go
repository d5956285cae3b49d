package bootstrap

import (
	"inventory-ledger/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	ObservabilityModule,
	DBModule,
	MessagingModule,
	components.UseCaseModule,
	components.HandlerModule,
	WorkerModule,
)
