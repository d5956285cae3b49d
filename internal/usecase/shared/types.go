package shared

import (
	"context"
	"time"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/outbox"
	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/usecase/readmodel"

	"github.com/google/uuid"
)

type Snapshot struct {
	AggregateID event.AggregateID
	Sequence    int64
	State       []byte
	TakenAt     time.Time
}

// SnapshotStore is never authoritative; a missing or unreadable snapshot means a longer replay.
type SnapshotStore interface {
	// Get returns nil when no snapshot exists
	Get(ctx context.Context, aggregateID event.AggregateID) (*Snapshot, error)
	// Save keeps the snapshot with the highest sequence
	Save(ctx context.Context, s Snapshot) error
}

type AggregateHealth struct {
	AggregateID event.AggregateID
	Reason      string
	DegradedAt  time.Time
}

// HealthStore writes outside any transaction so a degraded mark survives the rollback that follows it.
type HealthStore interface {
	MarkDegraded(ctx context.Context, h AggregateHealth) error
	// Get returns nil for a healthy aggregate
	Get(ctx context.Context, aggregateID event.AggregateID) (*AggregateHealth, error)
	Clear(ctx context.Context, aggregateID event.AggregateID) error
}

type OutboxStore interface {
	// FetchDue returns due PENDING entries of the given shards ordered by (aggregate, sequence),
	// leaving out every aggregate that still has an earlier PENDING entry which is not due.
	FetchDue(ctx context.Context, shards []int, now time.Time, limit int) ([]outbox.Entry, error)
	Get(ctx context.Context, id uuid.UUID) (*outbox.Entry, error)
	// Update persists status, attempts, retry time and last error of an entry
	Update(ctx context.Context, e outbox.Entry) error
	ListDead(ctx context.Context, limit int) ([]outbox.Entry, error)
}

// EventFeed reads committed records of all streams in commit order.
type EventFeed interface {
	ReadAfter(ctx context.Context, after event.Position, limit int) ([]event.Record, error)
}

type CheckpointStore interface {
	Load(ctx context.Context, name string) (event.Position, error)
	Save(ctx context.Context, name string, pos event.Position) error
}

// HistoryFilter selects by AggregateID, or by ReservationID when set: the reservation's own
// stream plus the stock movements made on its behalf.
type HistoryFilter struct {
	AggregateID   event.AggregateID
	ReservationID *uuid.UUID
	From          *time.Time
	To            *time.Time
	EventTypes    []string
	AfterTime     *time.Time
	AfterID       *uuid.UUID
	Limit         int
}

type HistoryStore interface {
	// Upsert is idempotent on event id
	Upsert(ctx context.Context, entries []readmodel.HistoryEntryRM) error
	List(ctx context.Context, f HistoryFilter) ([]readmodel.HistoryEntryRM, error)
}

type StockItemReader interface {
	Get(ctx context.Context, key stock.Key) (*readmodel.StockItemRM, error)
}

type ReservationReader interface {
	Get(ctx context.Context, id uuid.UUID) (*readmodel.ReservationRM, error)
	// ListExpired returns PENDING reservations with expiresAt < cutoff, oldest first
	ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

// AvailabilityCache fronts StockItemReader; entries are dropped when the item changes.
type AvailabilityCache interface {
	Get(ctx context.Context, key stock.Key) (*readmodel.StockItemRM, bool)
	Set(ctx context.Context, item readmodel.StockItemRM)
	Invalidate(ctx context.Context, keys ...stock.Key)
}

// Lease grants exclusive ownership of a named job across instances for a bounded time.
type Lease interface {
	// Acquire takes or renews the lease; false means another holder owns it
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Sink delivers one outbox entry to the message channel. A nil error is an acknowledgment.
type Sink interface {
	Publish(ctx context.Context, e outbox.Entry) error
	Close() error
}
