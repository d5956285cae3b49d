//go:build unit

package publisher_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/outbox"
	"inventory-ledger/internal/infra/memory"
	"inventory-ledger/internal/pkg/clock"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/pkg/errs"
	"inventory-ledger/internal/usecase/publisher"
	"inventory-ledger/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu        sync.Mutex
	published []outbox.Entry
	failing   map[event.AggregateID]bool
}

func newFakeSink() *fakeSink {
	return &fakeSink{failing: make(map[event.AggregateID]bool)}
}

func (s *fakeSink) Publish(_ context.Context, e outbox.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[e.AggregateID] {
		return errors.New("broker unavailable")
	}
	s.published = append(s.published, e)
	return nil
}

func (s *fakeSink) Close() error { return nil }

func (s *fakeSink) setFailing(id event.AggregateID, failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[id] = failing
}

func (s *fakeSink) sequences(id event.AggregateID) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int64
	for _, e := range s.published {
		if e.AggregateID == id {
			out = append(out, e.Sequence)
		}
	}
	return out
}

var allShards = func() []int {
	out := make([]int, outbox.ShardCount)
	for i := range out {
		out[i] = i
	}
	return out
}()

type fixture struct {
	store *memory.Store
	sink  *fakeSink
	clock *clock.MockClock
	pub   *publisher.Publisher
	cfg   config.OutboxConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.NewTestConfig().Outbox
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := memory.NewStore()
	sink := newFakeSink()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		store: store,
		sink:  sink,
		clock: clk,
		cfg:   cfg,
		pub:   publisher.NewPublisher(store.Outbox(), sink, clk, logger, nil, cfg),
	}
}

// enqueue commits the first n events of a new stream together with their outbox entries.
func (f *fixture) enqueue(t *testing.T, id event.AggregateID, n int) {
	t.Helper()
	ctx := context.Background()
	payloads := make([]event.Payload, n)
	for i := range payloads {
		payloads[i] = event.StockAdjusted{Delta: 1, Reason: "RECEIPT"}
	}
	const head = 0
	records, err := event.EncodeAll(event.New(id, head, event.Metadata{OccurredAt: f.clock.Now()}, payloads...))
	require.NoError(t, err)

	entries := make([]outbox.Entry, 0, len(records))
	for _, r := range records {
		e, err := outbox.NewEntry(r, f.clock.Now())
		require.NoError(t, err)
		entries = append(entries, e)
	}
	tx := f.store.Begin()
	require.NoError(t, tx.Events().Append(ctx, id, head, records))
	require.NoError(t, tx.Outbox().Enqueue(ctx, entries))
	require.NoError(t, f.store.Commit(ctx, tx))
}

func (f *fixture) entries(id event.AggregateID) []outbox.Entry {
	var out []outbox.Entry
	for _, e := range f.store.Entries() {
		if e.AggregateID == id {
			out = append(out, e)
		}
	}
	return out
}

func TestPublisher_PublishesInAggregateOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := event.StockItemID("wh", "a")
	b := event.StockItemID("wh", "b")
	f.enqueue(t, a, 3)
	f.enqueue(t, b, 2)

	n, err := f.pub.PublishDue(ctx, allShards)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	assert.Equal(t, []int64{1, 2, 3}, f.sink.sequences(a))
	assert.Equal(t, []int64{1, 2}, f.sink.sequences(b))
	for _, e := range f.store.Entries() {
		assert.Equal(t, outbox.StatusPublished, e.Status)
		assert.Equal(t, 1, e.Attempts)
		require.NotNil(t, e.PublishedAt)
	}

	n, err = f.pub.PublishDue(ctx, allShards)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPublisher_FailureHoldsBackAggregate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := event.StockItemID("wh", "a")
	b := event.StockItemID("wh", "b")
	f.enqueue(t, a, 2)
	f.enqueue(t, b, 1)
	f.sink.setFailing(a, true)

	_, err := f.pub.PublishDue(ctx, allShards)
	require.NoError(t, err)

	assert.Empty(t, f.sink.sequences(a))
	assert.Equal(t, []int64{1}, f.sink.sequences(b))
	held := f.entries(a)
	require.Len(t, held, 2)
	assert.Equal(t, 1, held[0].Attempts)
	assert.True(t, held[0].NextRetryAt.After(f.clock.Now()))
	assert.NotEmpty(t, held[0].LastError)
	assert.Zero(t, held[1].Attempts)

	// not due yet: the later entry stays behind the failed one
	f.sink.setFailing(a, false)
	n, err := f.pub.PublishDue(ctx, allShards)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock.Add(f.cfg.MaxBackoff + time.Second)
	_, err = f.pub.PublishDue(ctx, allShards)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, f.sink.sequences(a))
}

func TestPublisher_DeadLetterAndRequeue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := event.StockItemID("wh", "a")
	f.enqueue(t, a, 1)
	f.sink.setFailing(a, true)

	for i := 0; i < f.cfg.MaxAttempts; i++ {
		_, err := f.pub.PublishDue(ctx, allShards)
		require.NoError(t, err)
		f.clock.Add(f.cfg.MaxBackoff + time.Second)
	}

	entry := f.entries(a)[0]
	assert.Equal(t, outbox.StatusDead, entry.Status)
	assert.Equal(t, f.cfg.MaxAttempts, entry.Attempts)

	dead, err := f.pub.ListDead(ctx, 10)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, entry.ID, dead[0].ID)
	assert.Equal(t, a.String(), dead[0].AggregateID)

	n, err := f.pub.PublishDue(ctx, allShards)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.sink.setFailing(a, false)
	require.NoError(t, f.pub.Requeue(ctx, entry.ID))
	_, err = f.pub.PublishDue(ctx, allShards)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, f.sink.sequences(a))

	err = f.pub.Requeue(ctx, entry.ID)
	assert.True(t, errs.Is(err, errs.ErrValidation))
}

func TestPublisher_RequeueUnknown(t *testing.T) {
	f := newFixture(t)
	err := f.pub.Requeue(context.Background(), uuid.New())
	assert.True(t, errs.Is(err, errs.ErrNotFound))
}

func TestPublisher_Run(t *testing.T) {
	f := newFixture(t)
	ids := []event.AggregateID{
		event.StockItemID("wh", "a"),
		event.StockItemID("wh", "b"),
		event.StockItemID("wh", "c"),
		event.StockItemID("wh", "d"),
	}
	for _, id := range ids {
		f.enqueue(t, id, 2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.pub.Run(ctx) }()

	require.Eventually(t, func() bool {
		for _, e := range f.store.Entries() {
			if e.Status != outbox.StatusPublished {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	for _, id := range ids {
		assert.Equal(t, []int64{1, 2}, f.sink.sequences(id))
	}
}

// unreliableOutbox fails Update for the listed entries; a negative budget fails forever.
type unreliableOutbox struct {
	shared.OutboxStore
	mu      sync.Mutex
	failFor map[uuid.UUID]int
	fetches int
}

func (o *unreliableOutbox) FetchDue(ctx context.Context, shards []int, now time.Time, limit int) ([]outbox.Entry, error) {
	o.mu.Lock()
	o.fetches++
	o.mu.Unlock()
	return o.OutboxStore.FetchDue(ctx, shards, now, limit)
}

func (o *unreliableOutbox) Update(ctx context.Context, e outbox.Entry) error {
	o.mu.Lock()
	budget, ok := o.failFor[e.ID]
	if ok && budget != 0 {
		o.failFor[e.ID] = budget - 1
		o.mu.Unlock()
		return errors.New("connection lost")
	}
	o.mu.Unlock()
	return o.OutboxStore.Update(ctx, e)
}

func (o *unreliableOutbox) fetchCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fetches
}

func TestPublisher_UnrecordedPublishHoldsBackAggregate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := event.StockItemID("wh", "a")
	b := event.StockItemID("wh", "b")
	f.enqueue(t, a, 3)
	f.enqueue(t, b, 1)

	store := &unreliableOutbox{OutboxStore: f.store.Outbox(), failFor: map[uuid.UUID]int{f.entries(a)[0].ID: 1}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := publisher.NewPublisher(store, f.sink, f.clock, logger, nil, f.cfg)

	_, err := pub.PublishDue(ctx, allShards)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, f.sink.sequences(a))
	assert.Equal(t, []int64{1}, f.sink.sequences(b))
	for _, e := range f.entries(a) {
		assert.Equal(t, outbox.StatusPending, e.Status)
	}

	_, err = pub.PublishDue(ctx, allShards)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 2, 3}, f.sink.sequences(a))
	for _, e := range f.store.Entries() {
		assert.Equal(t, outbox.StatusPublished, e.Status)
	}
}

func TestPublisher_RunBacksOffWhileUpdatesFail(t *testing.T) {
	f := newFixture(t)
	ids := []event.AggregateID{event.StockItemID("wh", "a"), event.StockItemID("wh", "b")}
	failFor := make(map[uuid.UUID]int)
	for _, id := range ids {
		f.enqueue(t, id, 1)
		failFor[f.entries(id)[0].ID] = -1
	}

	cfg := f.cfg
	cfg.Workers = 1
	cfg.BatchSize = 2
	cfg.PollInterval = 20 * time.Millisecond
	store := &unreliableOutbox{OutboxStore: f.store.Outbox(), failFor: failFor}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := publisher.NewPublisher(store, f.sink, f.clock, logger, nil, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, pub.Run(ctx))

	// one full batch per tick, never a tight loop
	assert.LessOrEqual(t, store.fetchCount(), 15)
	assert.GreaterOrEqual(t, store.fetchCount(), 2)
}
