package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/reservation"
	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/pkg/clock"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/pkg/correlation"
	"inventory-ledger/internal/pkg/errs"
	"inventory-ledger/internal/pkg/metrics"
	"inventory-ledger/internal/usecase/eventstore"
	"inventory-ledger/internal/usecase/shared"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	FailureInsufficientStock = "INSUFFICIENT_STOCK"
	FailureItemDiscontinued  = "ITEM_DISCONTINUED"
	FailureItemNotFound      = "ITEM_NOT_FOUND"
)

const tracerName = "inventory-ledger/usecase/commands"

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// LineError names the reservation line whose stock item is missing or discontinued.
type LineError struct {
	Key      stock.Key
	Quantity int64
	Err      error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %s: %v", e.Key, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ReservationManager coordinates multi-line reservations over the stock ledger.
// All lines of one request are reserved, released or confirmed in a single unit of work.
type ReservationManager struct {
	uow         shared.UnitOfWork
	events      *eventstore.Store
	ledger      *StockLedger
	reader      shared.ReservationReader
	clock       clock.Clock
	logger      *slog.Logger
	metrics     *metrics.Metrics
	ttl         time.Duration
	maxLines    int
	expiryBatch int
}

func NewReservationManager(
	uow shared.UnitOfWork,
	events *eventstore.Store,
	ledger *StockLedger,
	reader shared.ReservationReader,
	clk clock.Clock,
	logger *slog.Logger,
	m *metrics.Metrics,
	cfg config.Config,
) *ReservationManager {
	batch := cfg.Expiry.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return &ReservationManager{
		uow:         uow,
		events:      events,
		ledger:      ledger,
		reader:      reader,
		clock:       clk,
		logger:      logger,
		metrics:     m,
		ttl:         cfg.Ledger.ReservationTTL,
		maxLines:    cfg.Ledger.MaxLines,
		expiryBatch: batch,
	}
}

func (m *ReservationManager) ReserveStock(ctx context.Context, p ReserveParams) (*ReserveResult, error) {
	ctx, span := tracer().Start(ctx, "ReservationManager.ReserveStock", trace.WithAttributes(
		attribute.String("order_id", p.OrderID),
		attribute.Int("lines", len(p.Lines)),
	))
	defer span.End()

	result, err := m.reserve(ctx, p)
	m.metrics.LedgerOperation("reserve", outcome(err))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("reservation_id", result.Reservation.ID.String()), attribute.Bool("replayed", result.Replayed))
	return result, nil
}

func (m *ReservationManager) reserve(ctx context.Context, p ReserveParams) (*ReserveResult, error) {
	orderID, err := reservation.ValidateOrderID(p.OrderID)
	if err != nil {
		return nil, err
	}
	lines, err := reservation.NormalizeLines(p.Lines, m.maxLines)
	if err != nil {
		return nil, err
	}
	ttl := p.TTL
	if ttl <= 0 {
		ttl = m.ttl
	}

	ctx, _ = correlation.Ensure(ctx)
	meta := m.ledger.metadata(ctx)
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errs.Wrap(err, "generate reservation id")
	}

	var (
		res      *reservation.Reservation
		items    []*stock.Item
		replayed bool
	)
	err = m.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		res, items, replayed = nil, nil, false

		openID, found, err := tx.Reservations().FindOpenByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if found {
			res = reservation.NewReservation(openID)
			if err := m.events.Load(ctx, tx.Events(), res); err != nil {
				return err
			}
			items, err = m.loadItems(ctx, tx, res.Lines())
			replayed = true
			return err
		}

		res = reservation.NewReservation(id)
		payloads, err := reservation.DecideCreate(orderID, lines, meta.OccurredAt.Add(ttl))
		if err != nil {
			return err
		}
		for _, l := range lines {
			item, err := m.ledger.ExecuteInTx(ctx, tx, l.Key, stock.Reserve{ReservationID: id, Quantity: l.Quantity}, meta)
			if errs.Is(err, stock.ErrItemNotFound) || errs.Is(err, stock.ErrItemDiscontinued) {
				return &LineError{Key: l.Key, Quantity: l.Quantity, Err: err}
			}
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		if _, err := m.events.Append(ctx, tx, res, meta, payloads...); err != nil {
			return err
		}
		return tx.Reservations().Save(ctx, res.State(), 0)
	})
	if err != nil {
		if failure, ok := failureOf(err); ok {
			m.recordFailure(ctx, id, orderID, lines, failure, meta)
		}
		return nil, err
	}

	if !replayed {
		m.events.Remember(res)
		m.ledger.committed(ctx, items...)
		m.logger.Info("stock reserved", "reservation_id", id, "order_id", orderID, "lines", len(lines))
	}
	return &ReserveResult{Reservation: res.State(), Items: states(items), Replayed: replayed}, nil
}

// recordFailure commits a ReservationFailed stream after the reserving unit of work rolled back.
func (m *ReservationManager) recordFailure(ctx context.Context, id uuid.UUID, orderID string, lines []reservation.Line, f reservation.Failure, meta event.Metadata) {
	err := m.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		res := reservation.NewReservation(id)
		if _, err := m.events.Append(ctx, tx, res, meta, reservation.DecideFailed(orderID, lines, f)...); err != nil {
			return err
		}
		return tx.Reservations().Save(ctx, res.State(), 0)
	})
	if err != nil {
		m.logger.Error("failed to record reservation failure",
			"reservation_id", id,
			"order_id", orderID,
			"error", err.Error(),
		)
		return
	}
	m.logger.Info("reservation rejected",
		"reservation_id", id,
		"order_id", orderID,
		"warehouse_id", f.Key.WarehouseID,
		"item_id", f.Key.ItemID,
		"reason", f.Reason,
	)
}

func (m *ReservationManager) ReleaseStock(ctx context.Context, id uuid.UUID) (*TransitionResult, error) {
	return m.transition(ctx, "release", id, reservation.Release{Reason: reservation.ReleaseReasonManual})
}

func (m *ReservationManager) ConfirmStockReservation(ctx context.Context, id uuid.UUID) (*TransitionResult, error) {
	return m.transition(ctx, "confirm", id, reservation.Confirm{})
}

func (m *ReservationManager) ReleaseByOrder(ctx context.Context, orderID string) (*TransitionResult, error) {
	id, err := m.openReservation(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return m.ReleaseStock(ctx, id)
}

func (m *ReservationManager) ConfirmByOrder(ctx context.Context, orderID string) (*TransitionResult, error) {
	id, err := m.openReservation(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return m.ConfirmStockReservation(ctx, id)
}

// openReservation resolves the PENDING or CONFIRMED reservation of an order.
func (m *ReservationManager) openReservation(ctx context.Context, orderID string) (uuid.UUID, error) {
	orderID, err := reservation.ValidateOrderID(orderID)
	if err != nil {
		return uuid.Nil, err
	}

	var (
		id    uuid.UUID
		found bool
	)
	err = m.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		id, found, err = tx.Reservations().FindOpenByOrder(ctx, orderID)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}
	if !found {
		return uuid.Nil, errs.Mark(errs.Newf("no open reservation for order %s", orderID), errs.ErrNotFound)
	}
	return id, nil
}

// ExpireReservations expires one batch of PENDING reservations past cutoff, each in its own
// unit of work, and returns how many were expired. Failures are logged and skipped.
func (m *ReservationManager) ExpireReservations(ctx context.Context, cutoff time.Time) (int, error) {
	ids, err := m.reader.ListExpired(ctx, cutoff, m.expiryBatch)
	if err != nil {
		return 0, errs.Wrap(err, "list expired reservations")
	}

	expired := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		result, err := m.transition(ctx, "expire", id, reservation.Expire{Cutoff: cutoff})
		if err != nil {
			m.logger.Warn("failed to expire reservation", "reservation_id", id, "error", err.Error())
			continue
		}
		if result.Changed {
			expired++
		}
	}
	return expired, nil
}

func (m *ReservationManager) transition(ctx context.Context, op string, id uuid.UUID, cmd reservation.Command) (*TransitionResult, error) {
	ctx, span := tracer().Start(ctx, "ReservationManager."+op, trace.WithAttributes(attribute.String("reservation_id", id.String())))
	defer span.End()

	ctx, _ = correlation.Ensure(ctx)
	meta := m.ledger.metadata(ctx)

	var (
		res     *reservation.Reservation
		items   []*stock.Item
		changed bool
	)
	err := m.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		items, changed = nil, false

		res = reservation.NewReservation(id)
		if err := m.events.Load(ctx, tx.Events(), res); err != nil {
			return err
		}
		payloads, err := res.Decide(cmd)
		if err != nil {
			return err
		}
		if len(payloads) == 0 {
			return nil
		}

		for _, l := range res.Lines() {
			item, err := m.ledger.ExecuteInTx(ctx, tx, l.Key, lineCommand(cmd, id, l), meta)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		expected := res.Version()
		if _, err := m.events.Append(ctx, tx, res, meta, payloads...); err != nil {
			return err
		}
		changed = true
		return tx.Reservations().Save(ctx, res.State(), expected)
	})
	m.metrics.LedgerOperation(op, outcome(err))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if changed {
		m.events.Remember(res)
		m.ledger.committed(ctx, items...)
		m.logger.Info("reservation "+op+"d", "reservation_id", id, "status", res.Status())
	}
	return &TransitionResult{Reservation: res.State(), Items: states(items), Changed: changed}, nil
}

func (m *ReservationManager) loadItems(ctx context.Context, tx shared.Tx, lines []reservation.Line) ([]*stock.Item, error) {
	items := make([]*stock.Item, 0, len(lines))
	for _, l := range lines {
		item := stock.NewItem(l.Key)
		if err := m.events.Load(ctx, tx.Events(), item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func lineCommand(cmd reservation.Command, id uuid.UUID, l reservation.Line) stock.Command {
	switch c := cmd.(type) {
	case reservation.Confirm:
		return stock.Confirm{ReservationID: id, Quantity: l.Quantity}
	case reservation.Release:
		return stock.Release{ReservationID: id, Quantity: l.Quantity, Reason: c.Reason}
	default:
		return stock.Release{ReservationID: id, Quantity: l.Quantity, Reason: reservation.ReleaseReasonExpired}
	}
}

func failureOf(err error) (reservation.Failure, bool) {
	var insufficient *stock.InsufficientStockError
	if errs.As(err, &insufficient) {
		return reservation.Failure{
			Key:       insufficient.Key,
			Requested: insufficient.Requested,
			Available: insufficient.Available,
			Reason:    FailureInsufficientStock,
		}, true
	}
	var lineErr *LineError
	if errs.As(err, &lineErr) {
		reason := FailureItemNotFound
		if errs.Is(err, stock.ErrItemDiscontinued) {
			reason = FailureItemDiscontinued
		}
		return reservation.Failure{Key: lineErr.Key, Requested: lineErr.Quantity, Reason: reason}, true
	}
	return reservation.Failure{}, false
}

func states(items []*stock.Item) []stock.State {
	out := make([]stock.State, 0, len(items))
	for _, it := range items {
		out = append(out, it.State())
	}
	return out
}
