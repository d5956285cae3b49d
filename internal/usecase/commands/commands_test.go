//go:build unit

package commands_test

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
	"inventory-ledger/internal/pkg/errs"
	"inventory-ledger/internal/usecase/commands"
	"inventory-ledger/internal/usecase/eventstore"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

type CommandsTestSuite struct {
	suite.Suite
	ctx     context.Context
	cfg     config.Config
	clock   *clock.MockClock
	store   *memory.Store
	events  *eventstore.Store
	ledger  *commands.StockLedger
	manager *commands.ReservationManager
	catalog *commands.CatalogSync
}

func TestCommandsTestSuite(t *testing.T) {
	suite.Run(t, new(CommandsTestSuite))
}

func (s *CommandsTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.cfg = config.NewTestConfig()
	s.clock = clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.store = memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	events, err := eventstore.NewStore(s.store.Snapshots(), s.store.Health(), s.clock, logger, nil, s.cfg.EventStore)
	s.Require().NoError(err)
	s.events = events

	unit := uow.NewMemoryUoW(s.store, s.cfg.Ledger, logger, nil)
	s.ledger = commands.NewStockLedger(unit, events, nil, s.clock, logger, nil)
	s.manager = commands.NewReservationManager(unit, events, s.ledger, s.store.Reservations(), s.clock, logger, nil, s.cfg)
	s.catalog = commands.NewCatalogSync(s.ledger, logger, s.cfg)
}

func (s *CommandsTestSuite) TearDownTest() {
	s.Require().NoError(s.events.Close(s.ctx))
}

func (s *CommandsTestSuite) key(item string) stock.Key {
	key, err := stock.NewKey("wh-1", item)
	s.Require().NoError(err)
	return key
}

func (s *CommandsTestSuite) createItem(item string, onHand int64) stock.Key {
	key := s.key(item)
	_, created, err := s.ledger.Create(s.ctx, key, "SKU-"+item, onHand, s.cfg.Ledger.LowStockThreshold)
	s.Require().NoError(err)
	s.Require().True(created)
	return key
}

func (s *CommandsTestSuite) line(key stock.Key, qty int64) reservation.Line {
	l, err := reservation.NewLine(key.WarehouseID, key.ItemID, qty)
	s.Require().NoError(err)
	return l
}

func (s *CommandsTestSuite) stockRow(key stock.Key) (onHand, reserved, available int64) {
	rm, err := s.store.StockItems().Get(s.ctx, key)
	s.Require().NoError(err)
	return rm.OnHand, rm.Reserved, rm.Available
}

func (s *CommandsTestSuite) reserve(orderID string, lines ...reservation.Line) (*commands.ReserveResult, error) {
	return s.manager.ReserveStock(s.ctx, commands.ReserveParams{OrderID: orderID, Lines: lines})
}

func (s *CommandsTestSuite) TestCreate_IsIdempotent() {
	key := s.createItem("a", 10)

	state, created, err := s.ledger.Create(s.ctx, key, "other", 99, 1)
	s.Require().NoError(err)
	s.False(created)
	s.Equal(int64(10), state.OnHand)
	s.Equal("SKU-a", state.SKU)
}

func (s *CommandsTestSuite) TestAdjust() {
	key := s.createItem("a", 2)

	state, err := s.ledger.Adjust(s.ctx, key, 8, stock.ReasonReceipt, "delivery")
	s.Require().NoError(err)
	s.Equal(int64(10), state.OnHand)
	s.Equal(stock.StatusInStock, state.Status)

	_, err = s.ledger.Adjust(s.ctx, key, -11, stock.ReasonDamage, "")
	s.True(errs.Is(err, errs.ErrNegativeStock))

	onHand, _, _ := s.stockRow(key)
	s.Equal(int64(10), onHand)
}

func (s *CommandsTestSuite) TestExecute_UnknownItem() {
	_, err := s.ledger.Adjust(s.ctx, s.key("missing"), 1, stock.ReasonReceipt, "")
	s.True(errs.Is(err, errs.ErrNotFound))
}

// Reserve 6 for A, reserve 5 for B fails, confirm A.
func (s *CommandsTestSuite) TestScenarioA() {
	key := s.createItem("a", 10)

	a, err := s.reserve("order-a", s.line(key, 6))
	s.Require().NoError(err)
	s.Equal(reservation.StatusPending, a.Reservation.Status)
	_, _, available := s.stockRow(key)
	s.Equal(int64(4), available)

	_, err = s.reserve("order-b", s.line(key, 5))
	s.Require().Error(err)
	s.True(errs.Is(err, errs.ErrInsufficientStock))
	var insufficient *stock.InsufficientStockError
	s.Require().True(errs.As(err, &insufficient))
	s.Equal(key, insufficient.Key)
	s.Equal(int64(5), insufficient.Requested)
	s.Equal(int64(4), insufficient.Available)

	_, reserved, available := s.stockRow(key)
	s.Equal(int64(6), reserved)
	s.Equal(int64(4), available)

	confirmed, err := s.manager.ConfirmStockReservation(s.ctx, a.Reservation.ID)
	s.Require().NoError(err)
	s.True(confirmed.Changed)
	s.Equal(reservation.StatusConfirmed, confirmed.Reservation.Status)

	onHand, reserved, available := s.stockRow(key)
	s.Equal(int64(4), onHand)
	s.Equal(int64(0), reserved)
	s.Equal(int64(4), available)
}

// Two concurrent reservations of 6 against 10 on hand.
func (s *CommandsTestSuite) TestScenarioB() {
	key := s.createItem("a", 10)

	var (
		wg   sync.WaitGroup
		errc = make(chan error, 2)
	)
	for _, order := range []string{"order-1", "order-2"} {
		wg.Add(1)
		go func(order string) {
			defer wg.Done()
			_, err := s.reserve(order, s.line(key, 6))
			errc <- err
		}(order)
	}
	wg.Wait()
	close(errc)

	var ok, insufficient int
	for err := range errc {
		switch {
		case err == nil:
			ok++
		case errs.Is(err, errs.ErrInsufficientStock):
			insufficient++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, ok)
	s.Equal(1, insufficient)

	_, reserved, _ := s.stockRow(key)
	s.Equal(int64(6), reserved)
}

func (s *CommandsTestSuite) TestScenarioC_ExpireThenRelease() {
	key := s.createItem("a", 10)
	res, err := s.reserve("order-1", s.line(key, 4))
	s.Require().NoError(err)

	s.clock.Add(s.cfg.Ledger.ReservationTTL + time.Minute)
	expired, err := s.manager.ExpireReservations(s.ctx, s.clock.Now())
	s.Require().NoError(err)
	s.Equal(1, expired)

	released, err := s.manager.ReleaseStock(s.ctx, res.Reservation.ID)
	s.Require().NoError(err)
	s.False(released.Changed)
	s.Equal(reservation.StatusExpired, released.Reservation.Status)

	_, reserved, available := s.stockRow(key)
	s.Equal(int64(0), reserved)
	s.Equal(int64(10), available)
}

func (s *CommandsTestSuite) TestScenarioC_ReleaseThenExpire() {
	key := s.createItem("a", 10)
	res, err := s.reserve("order-1", s.line(key, 4))
	s.Require().NoError(err)

	released, err := s.manager.ReleaseStock(s.ctx, res.Reservation.ID)
	s.Require().NoError(err)
	s.True(released.Changed)

	s.clock.Add(s.cfg.Ledger.ReservationTTL + time.Minute)
	expired, err := s.manager.ExpireReservations(s.ctx, s.clock.Now())
	s.Require().NoError(err)
	s.Equal(0, expired)

	rm, err := s.store.Reservations().Get(s.ctx, res.Reservation.ID)
	s.Require().NoError(err)
	s.Equal(reservation.StatusReleased.String(), rm.Status)
	_, reserved, _ := s.stockRow(key)
	s.Equal(int64(0), reserved)
}

func (s *CommandsTestSuite) TestReleaseRacesExpiry() {
	key := s.createItem("a", 1000)
	const orders = 40

	ids := make([]uuid.UUID, orders)
	for i := range ids {
		res, err := s.reserve(uuid.NewString(), s.line(key, 1))
		s.Require().NoError(err)
		ids[i] = res.Reservation.ID
	}
	s.clock.Add(s.cfg.Ledger.ReservationTTL + time.Minute)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		released int
		expired  int
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		n, err := s.manager.ExpireReservations(s.ctx, s.clock.Now())
		s.NoError(err)
		mu.Lock()
		expired += n
		mu.Unlock()
	}()
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			result, err := s.manager.ReleaseStock(s.ctx, id)
			if err != nil {
				s.True(errs.Is(err, errs.ErrConcurrencyConflict), "unexpected error: %v", err)
				return
			}
			if result.Changed {
				mu.Lock()
				released++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	// a release that lost every retry is left for the next sweep
	n, err := s.manager.ExpireReservations(s.ctx, s.clock.Now())
	s.Require().NoError(err)
	expired += n

	s.Equal(orders, released+expired)
	for _, id := range ids {
		rm, err := s.store.Reservations().Get(s.ctx, id)
		s.Require().NoError(err)
		s.Contains([]string{reservation.StatusReleased.String(), reservation.StatusExpired.String()}, rm.Status)
	}

	_, reserved, available := s.stockRow(key)
	s.Equal(int64(0), reserved)
	s.Equal(int64(1000), available)

	records, err := s.store.Feed().ReadAfter(s.ctx, event.Position{}, 10_000)
	s.Require().NoError(err)
	var stockEvents int
	for _, r := range records {
		if r.AggregateID == key.AggregateID() {
			stockEvents++
		}
	}
	// created, then one reserve and exactly one release per order
	s.Equal(1+2*orders, stockEvents)
}

func (s *CommandsTestSuite) TestReserveStock_RecordsSpan() {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(noop.NewTracerProvider())

	key := s.createItem("a", 2)
	_, err := s.reserve("order-1", s.line(key, 5))
	s.Require().Error(err)

	var reserveSpan sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		if span.Name() == "ReservationManager.ReserveStock" {
			reserveSpan = span
		}
	}
	s.Require().NotNil(reserveSpan)
	s.Equal(codes.Error, reserveSpan.Status().Code)
	s.Contains(reserveSpan.Attributes(), attribute.String("order_id", "order-1"))
}

func (s *CommandsTestSuite) TestByOrderTransitions() {
	key := s.createItem("a", 10)
	_, err := s.reserve("order-1", s.line(key, 4))
	s.Require().NoError(err)
	_, err = s.reserve("order-2", s.line(key, 3))
	s.Require().NoError(err)

	confirmed, err := s.manager.ConfirmByOrder(s.ctx, "order-1")
	s.Require().NoError(err)
	s.True(confirmed.Changed)
	s.Equal(reservation.StatusConfirmed, confirmed.Reservation.Status)

	released, err := s.manager.ReleaseByOrder(s.ctx, " order-2 ")
	s.Require().NoError(err)
	s.True(released.Changed)

	// a paid order that is later cancelled keeps its confirmed stock
	again, err := s.manager.ReleaseByOrder(s.ctx, "order-1")
	s.Require().NoError(err)
	s.False(again.Changed)

	_, err = s.manager.ReleaseByOrder(s.ctx, "order-2")
	s.True(errs.Is(err, errs.ErrNotFound))
	_, err = s.manager.ConfirmByOrder(s.ctx, "unknown")
	s.True(errs.Is(err, errs.ErrNotFound))
	_, err = s.manager.ConfirmByOrder(s.ctx, "  ")
	s.True(errs.Is(err, errs.ErrValidation))

	onHand, reserved, _ := s.stockRow(key)
	s.Equal(int64(6), onHand)
	s.Equal(int64(0), reserved)
}

func (s *CommandsTestSuite) TestExpireReservations_SkipsUnexpired() {
	key := s.createItem("a", 10)
	_, err := s.reserve("order-1", s.line(key, 4))
	s.Require().NoError(err)

	expired, err := s.manager.ExpireReservations(s.ctx, s.clock.Now())
	s.Require().NoError(err)
	s.Equal(0, expired)
	_, reserved, _ := s.stockRow(key)
	s.Equal(int64(4), reserved)
}

func (s *CommandsTestSuite) TestReserveStock_MultiLineIsAtomic() {
	a := s.createItem("a", 10)
	b := s.createItem("b", 1)

	_, err := s.reserve("order-1", s.line(a, 3), s.line(b, 2))
	s.Require().Error(err)
	s.True(errs.Is(err, errs.ErrInsufficientStock))

	_, reservedA, _ := s.stockRow(a)
	_, reservedB, _ := s.stockRow(b)
	s.Equal(int64(0), reservedA)
	s.Equal(int64(0), reservedB)

	var failed int
	for _, e := range s.store.Entries() {
		if e.EventType == event.PublishedInventoryReservationFailed {
			failed++
		}
		s.NotEqual(event.PublishedInventoryReserved, e.EventType)
	}
	s.Equal(1, failed)
}

func (s *CommandsTestSuite) TestReserveStock_MergesDuplicateLines() {
	key := s.createItem("a", 10)

	res, err := s.reserve("order-1", s.line(key, 2), s.line(key, 3))
	s.Require().NoError(err)
	s.Require().Len(res.Reservation.Lines, 1)
	s.Equal(int64(5), res.Reservation.Lines[0].Quantity)
	s.Require().Len(res.Items, 1)
	s.Equal(int64(5), res.Items[0].Reserved)
}

func (s *CommandsTestSuite) TestReserveStock_ReplaysOpenOrder() {
	key := s.createItem("a", 10)

	first, err := s.reserve("order-1", s.line(key, 2))
	s.Require().NoError(err)
	second, err := s.reserve("order-1", s.line(key, 2))
	s.Require().NoError(err)

	s.True(second.Replayed)
	s.Equal(first.Reservation.ID, second.Reservation.ID)
	_, reserved, _ := s.stockRow(key)
	s.Equal(int64(2), reserved)

	_, err = s.manager.ReleaseStock(s.ctx, first.Reservation.ID)
	s.Require().NoError(err)
	third, err := s.reserve("order-1", s.line(key, 2))
	s.Require().NoError(err)
	s.False(third.Replayed)
	s.NotEqual(first.Reservation.ID, third.Reservation.ID)
}

func (s *CommandsTestSuite) TestReserveStock_Validation() {
	key := s.createItem("a", 10)

	_, err := s.reserve("", s.line(key, 1))
	s.True(errs.Is(err, errs.ErrValidation))

	_, err = s.reserve("order-1")
	s.True(errs.Is(err, errs.ErrValidation))
}

func (s *CommandsTestSuite) TestReserveStock_UnknownItem() {
	_, err := s.reserve("order-1", s.line(s.key("missing"), 1))
	s.Require().Error(err)
	s.True(errs.Is(err, errs.ErrNotFound))
	var lineErr *commands.LineError
	s.Require().True(errs.As(err, &lineErr))
	s.Equal("missing", lineErr.Key.ItemID)
}

func (s *CommandsTestSuite) TestTerminalTransitionsAreIdempotent() {
	key := s.createItem("a", 10)
	res, err := s.reserve("order-1", s.line(key, 4))
	s.Require().NoError(err)

	_, err = s.manager.ConfirmStockReservation(s.ctx, res.Reservation.ID)
	s.Require().NoError(err)
	before := len(s.store.Entries())

	again, err := s.manager.ConfirmStockReservation(s.ctx, res.Reservation.ID)
	s.Require().NoError(err)
	s.False(again.Changed)
	release, err := s.manager.ReleaseStock(s.ctx, res.Reservation.ID)
	s.Require().NoError(err)
	s.False(release.Changed)
	s.Equal(reservation.StatusConfirmed, release.Reservation.Status)

	s.Len(s.store.Entries(), before)
	onHand, reserved, _ := s.stockRow(key)
	s.Equal(int64(6), onHand)
	s.Equal(int64(0), reserved)
}

func (s *CommandsTestSuite) TestTransition_UnknownReservation() {
	_, err := s.manager.ReleaseStock(s.ctx, uuid.New())
	s.True(errs.Is(err, errs.ErrNotFound))
}

func (s *CommandsTestSuite) TestNoOverselling_Concurrent() {
	key := s.createItem("a", 5)

	const callers = 10
	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.reserve(uuid.NewString(), s.line(key, 1))
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		s.True(errs.Is(err, errs.ErrInsufficientStock) || errs.Is(err, errs.ErrConcurrencyConflict), "unexpected error: %v", err)
	}
	s.LessOrEqual(ok, 5)

	onHand, reserved, available := s.stockRow(key)
	s.Equal(int64(5), onHand)
	s.Equal(int64(ok), reserved)
	s.GreaterOrEqual(available, int64(0))
}

func (s *CommandsTestSuite) TestOutboxHasOneEntryPerEvent() {
	a := s.createItem("a", 10)
	b := s.createItem("b", 10)
	res, err := s.reserve("order-1", s.line(a, 1), s.line(b, 2))
	s.Require().NoError(err)
	_, err = s.manager.ConfirmStockReservation(s.ctx, res.Reservation.ID)
	s.Require().NoError(err)

	records, err := s.store.Feed().ReadAfter(s.ctx, event.Position{}, 1000)
	s.Require().NoError(err)
	entries := s.store.Entries()
	s.Require().Len(entries, len(records))

	byEvent := make(map[uuid.UUID]bool, len(entries))
	for _, e := range entries {
		byEvent[e.EventID] = true
	}
	for _, r := range records {
		s.True(byEvent[r.ID], "no outbox entry for %s #%d", r.AggregateID, r.Sequence)
	}
}

func (s *CommandsTestSuite) TestReplayIsDeterministic() {
	key := s.createItem("a", 10)
	for i := 0; i < 4; i++ {
		res, err := s.reserve(uuid.NewString(), s.line(key, 2))
		s.Require().NoError(err)
		if i%2 == 0 {
			_, err = s.manager.ConfirmStockReservation(s.ctx, res.Reservation.ID)
		} else {
			_, err = s.manager.ReleaseStock(s.ctx, res.Reservation.ID)
		}
		s.Require().NoError(err)
	}
	_, err := s.ledger.Adjust(s.ctx, key, 3, stock.ReasonReturn, "")
	s.Require().NoError(err)

	first := stock.NewItem(key)
	s.Require().NoError(s.events.Rebuild(s.ctx, s.store.Events(), first))
	second := stock.NewItem(key)
	s.Require().NoError(s.events.Rebuild(s.ctx, s.store.Events(), second))

	if diff := cmp.Diff(first.State(), second.State()); diff != "" {
		s.Failf("replay mismatch", "(-first +second):\n%s", diff)
	}
	rm, err := s.store.StockItems().Get(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(rm.OnHand, first.OnHand())
	s.Equal(rm.Reserved, first.Reserved())
	s.Equal(rm.Version, first.Version())
	s.Equal(int64(9), first.OnHand())
}

func (s *CommandsTestSuite) TestCorruptionDegradesUntilReconciled() {
	key := s.createItem("a", 10)
	_, err := s.ledger.Adjust(s.ctx, key, 1, stock.ReasonReceipt, "")
	s.Require().NoError(err)

	id := key.AggregateID()
	s.events.Forget(id)
	var original string
	s.store.Corrupt(id, 2, func(r *event.Record) {
		original = r.Checksum
		r.Checksum = "tampered"
	})

	_, err = s.ledger.Adjust(s.ctx, key, 1, stock.ReasonReceipt, "")
	s.True(errs.Is(err, errs.ErrCorruption))
	health, err := s.store.Health().Get(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(health)

	_, err = s.ledger.Reconcile(s.ctx, key)
	s.True(errs.Is(err, errs.ErrCorruption))

	s.store.Corrupt(id, 2, func(r *event.Record) { r.Checksum = original })
	_, err = s.ledger.Adjust(s.ctx, key, 1, stock.ReasonReceipt, "")
	s.True(errs.Is(err, errs.ErrAggregateDegraded))

	state, err := s.ledger.Reconcile(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(int64(11), state.OnHand)

	state, err = s.ledger.Adjust(s.ctx, key, 1, stock.ReasonReceipt, "")
	s.Require().NoError(err)
	s.Equal(int64(12), state.OnHand)
}

func (s *CommandsTestSuite) TestCatalogSync() {
	initial := int64(7)

	res, err := s.catalog.Handle(s.ctx, commands.VariantNotification{
		Kind:             commands.VariantCreated,
		ProductVariantID: "variant-1",
		SKU:              "SKU-V1",
		InitialStock:     &initial,
	})
	s.Require().NoError(err)
	s.Equal(commands.CatalogCreated, res.Action)
	s.Equal(s.cfg.Catalog.DefaultWarehouseID, res.Item.WarehouseID)
	s.Equal(int64(7), res.Item.OnHand)

	res, err = s.catalog.Handle(s.ctx, commands.VariantNotification{Kind: commands.VariantUpdated, ProductVariantID: "variant-1"})
	s.Require().NoError(err)
	s.Equal(commands.CatalogUnchanged, res.Action)

	res, err = s.catalog.Handle(s.ctx, commands.VariantNotification{Kind: commands.VariantDeleted, ProductVariantID: "variant-1"})
	s.Require().NoError(err)
	s.Equal(commands.CatalogDiscontinued, res.Action)
	s.Equal(stock.StatusDiscontinued, res.Item.Status)

	res, err = s.catalog.Handle(s.ctx, commands.VariantNotification{Kind: commands.VariantDeleted, ProductVariantID: "variant-1"})
	s.Require().NoError(err)
	s.Equal(commands.CatalogUnchanged, res.Action)

	res, err = s.catalog.Handle(s.ctx, commands.VariantNotification{Kind: commands.VariantDeleted, ProductVariantID: "never-seen"})
	s.Require().NoError(err)
	s.Equal(commands.CatalogUnchanged, res.Action)
	s.Nil(res.Item)

	_, err = s.catalog.Handle(s.ctx, commands.VariantNotification{Kind: "RENAMED", ProductVariantID: "variant-1"})
	s.True(errs.Is(err, errs.ErrValidation))
}

func TestLineError_Unwraps(t *testing.T) {
	err := &commands.LineError{Key: stock.Key{WarehouseID: "wh", ItemID: "it"}, Quantity: 1, Err: stock.ErrItemDiscontinued}
	assert.True(t, errs.Is(err, stock.ErrItemDiscontinued))
	require.Contains(t, err.Error(), "wh/it")
}
