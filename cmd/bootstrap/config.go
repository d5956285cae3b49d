package bootstrap

import (
	"inventory-ledger/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(config.LoadConfig),
	ConfigPartsModule,
)

// ConfigPartsModule splits an already provided config.Config into the sections workers depend on.
var ConfigPartsModule = fx.Provide(
	func(cfg config.Config) config.EventStoreConfig { return cfg.EventStore },
	func(cfg config.Config) config.OutboxConfig { return cfg.Outbox },
	func(cfg config.Config) config.ExpiryConfig { return cfg.Expiry },
	func(cfg config.Config) config.ProjectorConfig { return cfg.Projector },
)
