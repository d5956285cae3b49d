package commands

import (
	"context"
	"log/slog"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/pkg/clock"
	"inventory-ledger/internal/pkg/correlation"
	"inventory-ledger/internal/pkg/errs"
	"inventory-ledger/internal/pkg/metrics"
	"inventory-ledger/internal/usecase/eventstore"
	"inventory-ledger/internal/usecase/shared"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StockLedger runs stock commands as decide, append, apply inside one unit of work.
type StockLedger struct {
	uow     shared.UnitOfWork
	events  *eventstore.Store
	cache   shared.AvailabilityCache
	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewStockLedger(
	uow shared.UnitOfWork,
	events *eventstore.Store,
	cache shared.AvailabilityCache,
	clk clock.Clock,
	logger *slog.Logger,
	m *metrics.Metrics,
) *StockLedger {
	return &StockLedger{
		uow:     uow,
		events:  events,
		cache:   cache,
		clock:   clk,
		logger:  logger,
		metrics: m,
	}
}

func (l *StockLedger) Execute(ctx context.Context, key stock.Key, cmd stock.Command) (*stock.State, error) {
	state, _, err := l.execute(ctx, key, cmd)
	return state, err
}

// execute also reports whether cmd appended any event.
func (l *StockLedger) execute(ctx context.Context, key stock.Key, cmd stock.Command) (*stock.State, bool, error) {
	ctx, span := tracer().Start(ctx, "StockLedger."+cmd.Name(), trace.WithAttributes(attribute.String("aggregate_id", key.AggregateID().String())))
	defer span.End()

	meta := l.metadata(ctx)
	var (
		item    *stock.Item
		changed bool
	)
	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		item, changed, err = l.executeInTx(ctx, tx, key, cmd, meta)
		return err
	})
	l.metrics.LedgerOperation(cmd.Name(), outcome(err))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if changed {
		l.committed(ctx, item)
	}
	state := item.State()
	return &state, changed, nil
}

// ExecuteInTx loads the item, decides cmd and appends the result within tx. The returned
// item reflects the appended events; it is only durable once tx commits.
func (l *StockLedger) ExecuteInTx(ctx context.Context, tx shared.Tx, key stock.Key, cmd stock.Command, meta event.Metadata) (*stock.Item, error) {
	item, _, err := l.executeInTx(ctx, tx, key, cmd, meta)
	return item, err
}

func (l *StockLedger) executeInTx(ctx context.Context, tx shared.Tx, key stock.Key, cmd stock.Command, meta event.Metadata) (*stock.Item, bool, error) {
	item := stock.NewItem(key)
	if err := l.events.Load(ctx, tx.Events(), item); err != nil {
		return nil, false, err
	}
	payloads, err := item.Decide(cmd)
	if err != nil {
		return nil, false, err
	}
	if len(payloads) == 0 {
		return item, false, nil
	}

	expected := item.Version()
	if _, err := l.events.Append(ctx, tx, item, meta, payloads...); err != nil {
		return nil, false, err
	}
	if err := tx.StockItems().Save(ctx, item.State(), expected); err != nil {
		return nil, false, err
	}
	return item, true, nil
}

// Create adds a stock item unless it already exists; created reports which case applied.
func (l *StockLedger) Create(ctx context.Context, key stock.Key, sku string, initialStock, lowStockThreshold int64) (*stock.State, bool, error) {
	meta := l.metadata(ctx)
	var (
		item    *stock.Item
		created bool
	)
	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		item, created = stock.NewItem(key), false
		if err := l.events.Load(ctx, tx.Events(), item); err != nil {
			return err
		}
		if item.Exists() {
			return nil
		}
		payloads, err := stock.DecideCreate(key, sku, initialStock, lowStockThreshold)
		if err != nil {
			return err
		}
		if _, err := l.events.Append(ctx, tx, item, meta, payloads...); err != nil {
			return err
		}
		created = true
		return tx.StockItems().Save(ctx, item.State(), 0)
	})
	l.metrics.LedgerOperation("create", outcome(err))
	if err != nil {
		return nil, false, err
	}
	l.committed(ctx, item)
	state := item.State()
	return &state, created, nil
}

func (l *StockLedger) Reserve(ctx context.Context, key stock.Key, reservationID uuid.UUID, qty int64) (*stock.State, error) {
	return l.Execute(ctx, key, stock.Reserve{ReservationID: reservationID, Quantity: qty})
}

func (l *StockLedger) Release(ctx context.Context, key stock.Key, reservationID uuid.UUID, qty int64, reason string) (*stock.State, error) {
	return l.Execute(ctx, key, stock.Release{ReservationID: reservationID, Quantity: qty, Reason: reason})
}

func (l *StockLedger) Confirm(ctx context.Context, key stock.Key, reservationID uuid.UUID, qty int64) (*stock.State, error) {
	return l.Execute(ctx, key, stock.Confirm{ReservationID: reservationID, Quantity: qty})
}

func (l *StockLedger) Adjust(ctx context.Context, key stock.Key, delta int64, reason stock.AdjustmentReason, note string) (*stock.State, error) {
	return l.Execute(ctx, key, stock.Adjust{Delta: delta, Reason: reason, Note: note})
}

func (l *StockLedger) Discontinue(ctx context.Context, key stock.Key) (*stock.State, error) {
	return l.Execute(ctx, key, stock.Discontinue{})
}

// Reconcile replays the full stream of a stock item. When every event applies cleanly the
// degraded mark is cleared and a fresh snapshot is stored.
func (l *StockLedger) Reconcile(ctx context.Context, key stock.Key) (*stock.State, error) {
	item := stock.NewItem(key)
	if err := l.events.Rebuild(ctx, l.uow.Events(), item); err != nil {
		l.metrics.LedgerOperation("reconcile", outcome(err))
		return nil, err
	}
	if !item.Exists() {
		return nil, stock.ErrItemNotFound
	}
	if err := l.events.Heal(ctx, item.AggregateID()); err != nil {
		return nil, err
	}
	if err := l.events.Snapshot(ctx, item); err != nil {
		l.logger.Warn("failed to snapshot reconciled stock item", "aggregate_id", item.AggregateID(), "error", err.Error())
	}
	l.committed(ctx, item)
	l.metrics.LedgerOperation("reconcile", outcome(nil))
	l.logger.Info("stock item reconciled", "aggregate_id", item.AggregateID(), "version", item.Version())

	state := item.State()
	return &state, nil
}

func (l *StockLedger) committed(ctx context.Context, items ...*stock.Item) {
	keys := make([]stock.Key, 0, len(items))
	for _, it := range items {
		l.events.Remember(it)
		keys = append(keys, it.Key())
	}
	if l.cache != nil {
		l.cache.Invalidate(ctx, keys...)
	}
}

func (l *StockLedger) metadata(ctx context.Context) event.Metadata {
	_, id := correlation.Ensure(ctx)
	return event.Metadata{CorrelationID: id, OccurredAt: l.clock.Now()}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errs.Is(err, errs.ErrInsufficientStock), errs.Is(err, errs.ErrNegativeStock), errs.Is(err, errs.ErrValidation), errs.Is(err, errs.ErrNotFound):
		return "rejected"
	case errs.Is(err, errs.ErrConcurrencyConflict):
		return "conflict"
	case errs.Is(err, errs.ErrCorruption), errs.Is(err, errs.ErrAggregateDegraded):
		return "corrupted"
	default:
		return "error"
	}
}
