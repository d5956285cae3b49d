package uow

import (
	"context"
	"log/slog"

	"inventory-ledger/internal/infra/memory"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/pkg/metrics"
	"inventory-ledger/internal/usecase/shared"
)

type MemoryUoW struct {
	store *memory.Store
	retry retrier
}

func NewMemoryUoW(store *memory.Store, cfg config.LedgerConfig, logger *slog.Logger, m *metrics.Metrics) *MemoryUoW {
	return &MemoryUoW{store: store, retry: newRetrier(cfg, logger, m)}
}

func (u *MemoryUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.retry.run(ctx, func() error {
		tx := u.store.Begin()
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return u.store.Commit(ctx, tx)
	})
}

func (u *MemoryUoW) Events() shared.EventReader {
	return u.store.Events()
}
