//go:build unit

package projector_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/reservation"
	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/infra/memory"
	"inventory-ledger/internal/infra/uow"
	"inventory-ledger/internal/pkg/clock"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/usecase/commands"
	"inventory-ledger/internal/usecase/eventstore"
	"inventory-ledger/internal/usecase/projector"
	"inventory-ledger/internal/usecase/readmodel"
	"inventory-ledger/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCache struct {
	mu          sync.Mutex
	invalidated map[stock.Key]int
}

func (c *recordingCache) Get(context.Context, stock.Key) (*readmodel.StockItemRM, bool) {
	return nil, false
}

func (c *recordingCache) Set(context.Context, readmodel.StockItemRM) {}

func (c *recordingCache) Invalidate(_ context.Context, keys ...stock.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.invalidated[k]++
	}
}

type fixture struct {
	store     *memory.Store
	manager   *commands.ReservationManager
	ledger    *commands.StockLedger
	cache     *recordingCache
	projector *projector.HistoryProjector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.NewTestConfig()
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()

	events, err := eventstore.NewStore(store.Snapshots(), store.Health(), clk, logger, nil, cfg.EventStore)
	require.NoError(t, err)
	t.Cleanup(func() { _ = events.Close(context.Background()) })

	unit := uow.NewMemoryUoW(store, cfg.Ledger, logger, nil)
	ledger := commands.NewStockLedger(unit, events, nil, clk, logger, nil)
	cache := &recordingCache{invalidated: make(map[stock.Key]int)}
	return &fixture{
		store:     store,
		ledger:    ledger,
		manager:   commands.NewReservationManager(unit, events, ledger, store.Reservations(), clk, logger, nil, cfg),
		cache:     cache,
		projector: projector.NewHistoryProjector(store.Feed(), store.Checkpoints(), store.History(), cache, logger, nil, cfg.Projector),
	}
}

func (f *fixture) createItem(t *testing.T, item string, onHand int64) stock.Key {
	t.Helper()
	key, err := stock.NewKey("wh-1", item)
	require.NoError(t, err)
	_, _, err = f.ledger.Create(context.Background(), key, "", onHand, 1)
	require.NoError(t, err)
	return key
}

func TestHistoryProjector_ProcessBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.createItem(t, "a", 10)
	b := f.createItem(t, "b", 10)

	la, err := reservation.NewLine(a.WarehouseID, a.ItemID, 2)
	require.NoError(t, err)
	lb, err := reservation.NewLine(b.WarehouseID, b.ItemID, 3)
	require.NoError(t, err)
	res, err := f.manager.ReserveStock(ctx, commands.ReserveParams{OrderID: "order-1", Lines: []reservation.Line{la, lb}})
	require.NoError(t, err)

	n, err := f.projector.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = f.projector.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	id := res.Reservation.ID
	entries, err := f.store.History().List(ctx, shared.HistoryFilter{ReservationID: &id})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	var types []string
	for _, e := range entries {
		types = append(types, e.EventType)
	}
	assert.ElementsMatch(t, []string{"StockReserved", "StockReserved", "ReservationCreated"}, types)

	itemHistory, err := f.store.History().List(ctx, shared.HistoryFilter{AggregateID: a.AggregateID()})
	require.NoError(t, err)
	require.Len(t, itemHistory, 2)
	assert.Equal(t, "StockItemCreated", itemHistory[0].EventType)
	assert.Equal(t, int64(10), itemHistory[0].QuantityDelta)
	assert.Equal(t, int64(2), itemHistory[1].ReservedDelta)
	assert.Equal(t, "wh-1", itemHistory[1].WarehouseID)

	assert.Positive(t, f.cache.invalidated[a])
	assert.Positive(t, f.cache.invalidated[b])
}

func TestHistoryProjector_ResumesFromCheckpoint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	key := f.createItem(t, "a", 10)

	_, err := f.projector.ProcessBatch(ctx)
	require.NoError(t, err)

	_, err = f.ledger.Adjust(ctx, key, 5, stock.ReasonReceipt, "")
	require.NoError(t, err)
	n, err := f.projector.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := f.store.History().List(ctx, shared.HistoryFilter{AggregateID: key.AggregateID()})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(5), entries[1].QuantityDelta)
}

func TestHistoryProjector_Run(t *testing.T) {
	f := newFixture(t)
	key := f.createItem(t, "a", 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.projector.Run(ctx) }()

	require.Eventually(t, func() bool {
		entries, err := f.store.History().List(context.Background(), shared.HistoryFilter{AggregateID: key.AggregateID()})
		return err == nil && len(entries) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestProject(t *testing.T) {
	reservationID := uuid.New()
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		aggregate    event.AggregateID
		payload      event.Payload
		wantQuantity int64
		wantReserved int64
		wantOrder    string
		noReserve    bool
	}{
		{name: "confirmed", aggregate: event.StockItemID("wh", "it"), payload: event.StockConfirmed{ReservationID: reservationID, Quantity: 3}, wantQuantity: -3, wantReserved: -3},
		{name: "released", aggregate: event.StockItemID("wh", "it"), payload: event.StockReleased{ReservationID: reservationID, Quantity: 2}, wantReserved: -2},
		{name: "adjusted", aggregate: event.StockItemID("wh", "it"), payload: event.StockAdjusted{Delta: -4, Reason: "DAMAGE"}, wantQuantity: -4, noReserve: true},
		{name: "reservation created", aggregate: event.ReservationID(reservationID), payload: event.ReservationCreated{OrderID: "o-1"}, wantOrder: "o-1"},
		{name: "reservation expired", aggregate: event.ReservationID(reservationID), payload: event.ReservationExpired{Cutoff: at}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := event.New(tt.aggregate, 0, event.Metadata{OccurredAt: at, CorrelationID: "c"}, tt.payload)[0]
			entry := projector.Project(e, []byte(`{}`))

			assert.Equal(t, tt.wantQuantity, entry.QuantityDelta)
			assert.Equal(t, tt.wantReserved, entry.ReservedDelta)
			assert.Equal(t, tt.wantOrder, entry.OrderID)
			assert.Equal(t, tt.aggregate.Kind(), entry.AggregateType)
			assert.Equal(t, "c", entry.CorrelationID)
			if tt.noReserve {
				assert.Nil(t, entry.ReservationID)
				return
			}
			require.NotNil(t, entry.ReservationID)
			assert.Equal(t, reservationID, *entry.ReservationID)
		})
	}
}
