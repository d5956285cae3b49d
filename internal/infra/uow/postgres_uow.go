package uow

import (
	"context"
	"errors"
	"log/slog"

	"inventory-ledger/internal/infra/db"
	"inventory-ledger/internal/infra/repository"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/pkg/errs"
	"inventory-ledger/internal/pkg/metrics"
	"inventory-ledger/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresUoW struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	retry  retrier
}

func NewPostgresUoW(pool *pgxpool.Pool, cfg config.LedgerConfig, logger *slog.Logger, m *metrics.Metrics) *PostgresUoW {
	return &PostgresUoW{
		pool:   pool,
		logger: logger,
		retry:  newRetrier(cfg, logger, m),
	}
}

// ReadCommitted prevents dirty reads; conflicting writers are caught by version-conditioned writes
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.retry.run(ctx, func() error {
		return u.runInTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
	})
}

func (u *PostgresUoW) Events() shared.EventReader {
	return repository.NewEventRepository(u.pool, u.logger)
}

// One transaction per call; retries begin a fresh one so no rollback is deferred across attempts
func (u *PostgresUoW) runInTx(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, tx shared.Tx) error) error {
	pgxTx, err := u.pool.BeginTx(ctx, options)
	if err != nil {
		return errs.Mark(err, errTransactionBegin)
	}

	tx := &pgTx{dbtx: pgxTx, logger: u.logger}

	err = fn(ctx, tx)
	if err == nil {
		if err = pgxTx.Commit(ctx); err == nil {
			return nil
		}
		err = errs.Mark(err, errTransactionCommit)
	}

	if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
		if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			u.logger.Warn("rollback failed", "error", rollbackErr.Error())
		}
	}
	return err
}

type pgTx struct {
	dbtx   db.DBTX
	logger *slog.Logger

	// Lazy-initialized repositories
	eventRepo       *repository.EventRepository
	outboxRepo      *repository.OutboxRepository
	stockItemRepo   *repository.StockItemRepository
	reservationRepo *repository.ReservationRepository
}

func (t *pgTx) Events() shared.EventRepository {
	if t.eventRepo == nil {
		t.eventRepo = repository.NewEventRepository(t.dbtx, t.logger)
	}
	return t.eventRepo
}

func (t *pgTx) Outbox() shared.OutboxWriter {
	if t.outboxRepo == nil {
		t.outboxRepo = repository.NewOutboxRepository(t.dbtx, t.logger)
	}
	return t.outboxRepo
}

func (t *pgTx) StockItems() shared.StockItemRepository {
	if t.stockItemRepo == nil {
		t.stockItemRepo = repository.NewStockItemRepository(t.dbtx, t.logger)
	}
	return t.stockItemRepo
}

func (t *pgTx) Reservations() shared.ReservationRepository {
	if t.reservationRepo == nil {
		t.reservationRepo = repository.NewReservationRepository(t.dbtx, t.logger)
	}
	return t.reservationRepo
}
