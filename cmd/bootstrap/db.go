package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"inventory-ledger/internal/infra/db"
	"inventory-ledger/internal/infra/memory"
	"inventory-ledger/internal/infra/repository"
	"inventory-ledger/internal/infra/uow"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/pkg/metrics"
	"inventory-ledger/internal/usecase/shared"

	"go.uber.org/fx"
)

var DBModule = fx.Module("db",
	fx.Provide(
		NewStores,
	),
)

// Stores are the persistence ports of one store driver.
type Stores struct {
	fx.Out

	UoW          shared.UnitOfWork
	Snapshots    shared.SnapshotStore
	Health       shared.HealthStore
	Outbox       shared.OutboxStore
	Feed         shared.EventFeed
	Checkpoints  shared.CheckpointStore
	History      shared.HistoryStore
	StockItems   shared.StockItemReader
	Reservations shared.ReservationReader
}

func NewStores(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger, m *metrics.Metrics) (Stores, error) {
	if cfg.Store.Driver == "memory" {
		logger.Warn("using the in-memory store; state is lost on restart")
		store := memory.NewStore()
		return Stores{
			UoW:          uow.NewMemoryUoW(store, cfg.Ledger, logger, m),
			Snapshots:    store.Snapshots(),
			Health:       store.Health(),
			Outbox:       store.Outbox(),
			Feed:         store.Feed(),
			Checkpoints:  store.Checkpoints(),
			History:      store.History(),
			StockItems:   store.StockItems(),
			Reservations: store.Reservations(),
		}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool, cleanup, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return Stores{}, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})

	return Stores{
		UoW:          uow.NewPostgresUoW(pool, cfg.Ledger, logger, m),
		Snapshots:    repository.NewSnapshotRepository(pool, logger),
		Health:       repository.NewHealthRepository(pool, logger),
		Outbox:       repository.NewOutboxRepository(pool, logger),
		Feed:         repository.NewEventFeedRepository(pool, logger),
		Checkpoints:  repository.NewCheckpointRepository(pool, logger),
		History:      repository.NewHistoryRepository(pool, logger),
		StockItems:   repository.NewStockItemRepository(pool, logger),
		Reservations: repository.NewReservationRepository(pool, logger),
	}, nil
}
