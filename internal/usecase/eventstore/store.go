package eventstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/outbox"
	"inventory-ledger/internal/pkg/clock"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/pkg/errs"
	"inventory-ledger/internal/pkg/metrics"
	"inventory-ledger/internal/usecase/shared"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Aggregate is anything rebuilt from its own stream.
type Aggregate interface {
	AggregateID() event.AggregateID
	Version() int64
	Apply(e event.Event) error
	MarshalSnapshot() ([]byte, error)
	UnmarshalSnapshot(data []byte) error
}

type cachedState struct {
	version int64
	state   []byte
}

type Store struct {
	snapshots shared.SnapshotStore
	health    shared.HealthStore
	cache     *lru.Cache[event.AggregateID, cachedState]
	clock     clock.Clock
	logger    *slog.Logger
	metrics   *metrics.Metrics

	snapshotThreshold int
	snapshotTimeout   time.Duration

	pending sync.WaitGroup
}

func NewStore(
	snapshots shared.SnapshotStore,
	health shared.HealthStore,
	clk clock.Clock,
	logger *slog.Logger,
	m *metrics.Metrics,
	cfg config.EventStoreConfig,
) (*Store, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = 1
	}
	cache, err := lru.New[event.AggregateID, cachedState](size)
	if err != nil {
		return nil, errs.Wrap(err, "create aggregate cache")
	}
	return &Store{
		snapshots:         snapshots,
		health:            health,
		cache:             cache,
		clock:             clk,
		logger:            logger,
		metrics:           m,
		snapshotThreshold: cfg.SnapshotThreshold,
		snapshotTimeout:   cfg.SnapshotTimeout,
	}, nil
}

// Load brings agg to the head of its stream: the newest of the cached state and the
// stored snapshot first, then every later record. agg must be freshly constructed.
func (s *Store) Load(ctx context.Context, r shared.EventReader, agg Aggregate) error {
	id := agg.AggregateID()
	s.restore(ctx, agg)

	from := agg.Version()
	records, err := r.Load(ctx, id, from)
	if err != nil {
		return errs.Wrapf(err, "load events of %s", id)
	}
	if err := s.replay(ctx, agg, records); err != nil {
		return err
	}

	if s.snapshotThreshold > 0 && len(records) > s.snapshotThreshold {
		s.snapshotAsync(agg)
	}
	return nil
}

// Rebuild replays the whole stream, ignoring cached state and snapshots.
func (s *Store) Rebuild(ctx context.Context, r shared.EventReader, agg Aggregate) error {
	id := agg.AggregateID()
	records, err := r.Load(ctx, id, 0)
	if err != nil {
		return errs.Wrapf(err, "load events of %s", id)
	}
	return s.replay(ctx, agg, records)
}

// Append writes the events decided from payloads, one outbox entry per event, and applies
// them to agg. It must run inside the unit of work that loaded agg.
func (s *Store) Append(ctx context.Context, tx shared.Tx, agg Aggregate, meta event.Metadata, payloads ...event.Payload) ([]event.Event, error) {
	if len(payloads) == 0 {
		return nil, nil
	}
	id := agg.AggregateID()

	h, err := s.health.Get(ctx, id)
	if err != nil {
		return nil, errs.Wrapf(err, "check health of %s", id)
	}
	if h != nil {
		return nil, errs.Mark(errs.Newf("%s is degraded since %s: %s", id, h.DegradedAt.Format(time.RFC3339), h.Reason), errs.ErrAggregateDegraded)
	}

	if meta.OccurredAt.IsZero() {
		meta.OccurredAt = s.clock.Now()
	}
	events := event.New(id, agg.Version(), meta, payloads...)
	records, err := event.EncodeAll(events)
	if err != nil {
		return nil, err
	}

	if err := tx.Events().Append(ctx, id, agg.Version(), records); err != nil {
		return nil, err
	}

	entries := make([]outbox.Entry, 0, len(records))
	for _, r := range records {
		entry, err := outbox.NewEntry(r, meta.OccurredAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := tx.Outbox().Enqueue(ctx, entries); err != nil {
		return nil, err
	}

	for _, e := range events {
		if err := agg.Apply(e); err != nil {
			return nil, s.degrade(ctx, id, err)
		}
	}
	return events, nil
}

// Remember caches agg's state. Call it only after the unit of work committed.
func (s *Store) Remember(agg Aggregate) {
	state, err := agg.MarshalSnapshot()
	if err != nil {
		s.logger.Warn("failed to cache aggregate state", "aggregate_id", agg.AggregateID(), "error", err.Error())
		return
	}
	s.cache.Add(agg.AggregateID(), cachedState{version: agg.Version(), state: state})
}

// Forget drops cached state, e.g. after a rollback left the aggregate unknown.
func (s *Store) Forget(id event.AggregateID) {
	s.cache.Remove(id)
}

// Snapshot stores agg's state synchronously.
func (s *Store) Snapshot(ctx context.Context, agg Aggregate) error {
	state, err := agg.MarshalSnapshot()
	if err != nil {
		return errs.Wrapf(err, "encode snapshot of %s", agg.AggregateID())
	}
	return s.snapshots.Save(ctx, shared.Snapshot{
		AggregateID: agg.AggregateID(),
		Sequence:    agg.Version(),
		State:       state,
		TakenAt:     s.clock.Now(),
	})
}

// Degrade marks an aggregate as degraded; further appends fail until it is reconciled.
func (s *Store) Degrade(ctx context.Context, id event.AggregateID, cause error) error {
	return s.degrade(ctx, id, cause)
}

// Heal clears the degraded mark of a reconciled aggregate.
func (s *Store) Heal(ctx context.Context, id event.AggregateID) error {
	s.cache.Remove(id)
	return s.health.Clear(ctx, id)
}

// Close waits for snapshots still being written.
func (s *Store) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) restore(ctx context.Context, agg Aggregate) {
	id := agg.AggregateID()

	var best *cachedState
	if c, ok := s.cache.Get(id); ok {
		best = &c
	}

	snap, err := s.snapshots.Get(ctx, id)
	if err != nil {
		s.logger.Warn("failed to read snapshot", "aggregate_id", id, "error", err.Error())
	} else if snap != nil && (best == nil || snap.Sequence > best.version) {
		best = &cachedState{version: snap.Sequence, state: snap.State}
	}

	if best == nil {
		return
	}
	if err := agg.UnmarshalSnapshot(best.state); err != nil {
		s.logger.Warn("discarding unreadable snapshot", "aggregate_id", id, "sequence", best.version, "error", err.Error())
		s.cache.Remove(id)
		return
	}
	if agg.Version() != best.version {
		s.logger.Warn("discarding snapshot with mismatched version", "aggregate_id", id,
			"expected", best.version, "actual", agg.Version())
		s.cache.Remove(id)
	}
}

func (s *Store) replay(ctx context.Context, agg Aggregate, records []event.Record) error {
	id := agg.AggregateID()
	for _, r := range records {
		e, err := event.Decode(r)
		if err != nil {
			return s.degrade(ctx, id, err)
		}
		if err := agg.Apply(e); err != nil {
			return s.degrade(ctx, id, err)
		}
	}
	return nil
}

func (s *Store) degrade(ctx context.Context, id event.AggregateID, cause error) error {
	if !errs.Is(cause, errs.ErrCorruption) {
		cause = errs.Mark(cause, errs.ErrCorruption)
	}
	s.cache.Remove(id)
	s.metrics.Degraded()
	s.logger.Error("aggregate corrupted, marking degraded",
		"aggregate_id", id,
		"error", cause.Error(),
		"stack", errs.ExtractStackLines(cause, 5))

	// the caller's context may already be cancelled; the mark must still land
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.snapshotTimeout)
	defer cancel()
	if err := s.health.MarkDegraded(markCtx, shared.AggregateHealth{
		AggregateID: id,
		Reason:      truncate(cause.Error(), 512),
		DegradedAt:  s.clock.Now(),
	}); err != nil {
		s.logger.Error("failed to mark aggregate degraded", "aggregate_id", id, "error", err.Error())
	}
	return cause
}

func (s *Store) snapshotAsync(agg Aggregate) {
	state, err := agg.MarshalSnapshot()
	if err != nil {
		s.logger.Warn("failed to encode snapshot", "aggregate_id", agg.AggregateID(), "error", err.Error())
		return
	}
	snap := shared.Snapshot{
		AggregateID: agg.AggregateID(),
		Sequence:    agg.Version(),
		State:       state,
		TakenAt:     s.clock.Now(),
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.snapshotTimeout)
		defer cancel()
		if err := s.snapshots.Save(ctx, snap); err != nil {
			s.logger.Warn("failed to save snapshot", "aggregate_id", snap.AggregateID, "sequence", snap.Sequence, "error", err.Error())
		}
	}()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
