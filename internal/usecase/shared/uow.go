package shared

import (
	"context"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/outbox"
	"inventory-ledger/internal/domain/reservation"
	"inventory-ledger/internal/domain/stock"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: one atomic transaction; version conflicts and serialization failures rerun fn
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Events: event reads outside any transaction
	Events() EventReader
}

type Tx interface {
	Events() EventRepository
	Outbox() OutboxWriter
	StockItems() StockItemRepository
	Reservations() ReservationRepository
}

type EventReader interface {
	// Load returns the records of one stream with sequence > after, in sequence order
	Load(ctx context.Context, aggregateID event.AggregateID, after int64) ([]event.Record, error)
}

type EventRepository interface {
	EventReader
	// Append fails with errs.ErrVersionConflict when the stream head is not expectedVersion
	Append(ctx context.Context, aggregateID event.AggregateID, expectedVersion int64, records []event.Record) error
}

type OutboxWriter interface {
	Enqueue(ctx context.Context, entries []outbox.Entry) error
}

// StockItemRepository keeps the queryable state row of each stock item in step with its stream.
type StockItemRepository interface {
	Save(ctx context.Context, state stock.State, expectedVersion int64) error
}

type ReservationRepository interface {
	Save(ctx context.Context, state reservation.State, expectedVersion int64) error
	// FindOpenByOrder returns the PENDING or CONFIRMED reservation of an order, if any
	FindOpenByOrder(ctx context.Context, orderID string) (uuid.UUID, bool, error)
}
