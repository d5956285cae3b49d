package memory

import (
	"context"
	"sort"
	"time"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/outbox"
	"inventory-ledger/internal/domain/reservation"
	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/infra/converter"
	"inventory-ledger/internal/usecase/readmodel"
	"inventory-ledger/internal/usecase/shared"

	"github.com/google/uuid"
)

func (s *Store) Events() shared.EventReader             { return eventReader{s} }
func (s *Store) Feed() shared.EventFeed                 { return feed{s} }
func (s *Store) Snapshots() shared.SnapshotStore        { return snapshots{s} }
func (s *Store) Health() shared.HealthStore             { return health{s} }
func (s *Store) Outbox() shared.OutboxStore             { return outboxStore{s} }
func (s *Store) Checkpoints() shared.CheckpointStore    { return checkpoints{s} }
func (s *Store) History() shared.HistoryStore           { return history{s} }
func (s *Store) StockItems() shared.StockItemReader     { return stockItems{s} }
func (s *Store) Reservations() shared.ReservationReader { return reservations{s} }

type eventReader struct{ s *Store }

func (r eventReader) Load(_ context.Context, id event.AggregateID, after int64) ([]event.Record, error) {
	return r.s.records(id, after), nil
}

type feed struct{ s *Store }

func (f feed) ReadAfter(_ context.Context, after event.Position, limit int) ([]event.Record, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	i := sort.Search(len(f.s.feed), func(i int) bool { return f.s.feed[i].Position.After(after) })
	end := len(f.s.feed)
	if limit > 0 && i+limit < end {
		end = i + limit
	}
	out := make([]event.Record, end-i)
	copy(out, f.s.feed[i:end])
	return out, nil
}

type snapshots struct{ s *Store }

func (r snapshots) Get(_ context.Context, id event.AggregateID) (*shared.Snapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	snap, ok := r.s.snapshots[id]
	if !ok {
		return nil, nil
	}
	snap.State = append([]byte(nil), snap.State...)
	return &snap, nil
}

func (r snapshots) Save(_ context.Context, snap shared.Snapshot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if prev, ok := r.s.snapshots[snap.AggregateID]; ok && prev.Sequence >= snap.Sequence {
		return nil
	}
	snap.State = append([]byte(nil), snap.State...)
	r.s.snapshots[snap.AggregateID] = snap
	return nil
}

// PutSnapshot overwrites a snapshot unconditionally.
func (s *Store) PutSnapshot(snap shared.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.AggregateID] = snap
}

type health struct{ s *Store }

func (h health) MarkDegraded(_ context.Context, ah shared.AggregateHealth) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if _, ok := h.s.health[ah.AggregateID]; ok {
		return nil
	}
	h.s.health[ah.AggregateID] = ah
	return nil
}

func (h health) Get(_ context.Context, id event.AggregateID) (*shared.AggregateHealth, error) {
	h.s.mu.RLock()
	defer h.s.mu.RUnlock()
	ah, ok := h.s.health[id]
	if !ok {
		return nil, nil
	}
	return &ah, nil
}

func (h health) Clear(_ context.Context, id event.AggregateID) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	delete(h.s.health, id)
	return nil
}

type outboxStore struct{ s *Store }

func (o outboxStore) FetchDue(_ context.Context, shards []int, now time.Time, limit int) ([]outbox.Entry, error) {
	owned := make(map[int]bool, len(shards))
	for _, sh := range shards {
		owned[sh] = true
	}

	o.s.mu.RLock()
	var pending []outbox.Entry
	for _, e := range o.s.outbox {
		if e.Status == outbox.StatusPending && owned[e.Shard] {
			pending = append(pending, e)
		}
	}
	o.s.mu.RUnlock()
	sortEntries(pending)

	var out []outbox.Entry
	var blocked event.AggregateID
	for _, e := range pending {
		if e.AggregateID == blocked {
			continue
		}
		if !e.IsDue(now) {
			blocked = e.AggregateID
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (o outboxStore) Get(_ context.Context, id uuid.UUID) (*outbox.Entry, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	e, ok := o.s.outbox[id]
	if !ok {
		return nil, outbox.ErrEntryNotFound
	}
	return &e, nil
}

func (o outboxStore) Update(_ context.Context, e outbox.Entry) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	prev, ok := o.s.outbox[e.ID]
	if !ok {
		return outbox.ErrEntryNotFound
	}
	prev.Status = e.Status
	prev.Attempts = e.Attempts
	prev.NextRetryAt = e.NextRetryAt
	prev.LastError = e.LastError
	prev.PublishedAt = e.PublishedAt
	o.s.outbox[e.ID] = prev
	return nil
}

func (o outboxStore) ListDead(_ context.Context, limit int) ([]outbox.Entry, error) {
	o.s.mu.RLock()
	var dead []outbox.Entry
	for _, e := range o.s.outbox {
		if e.Status == outbox.StatusDead {
			dead = append(dead, e)
		}
	}
	o.s.mu.RUnlock()
	sortEntries(dead)
	if limit > 0 && len(dead) > limit {
		dead = dead[:limit]
	}
	return dead, nil
}

// Entries returns every outbox entry ordered by (aggregate, sequence).
func (s *Store) Entries() []outbox.Entry {
	s.mu.RLock()
	out := make([]outbox.Entry, 0, len(s.outbox))
	for _, e := range s.outbox {
		out = append(out, e)
	}
	s.mu.RUnlock()
	sortEntries(out)
	return out
}

type checkpoints struct{ s *Store }

func (c checkpoints) Load(_ context.Context, name string) (event.Position, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	return c.s.checkpoints[name], nil
}

func (c checkpoints) Save(_ context.Context, name string, pos event.Position) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.checkpoints[name] = pos
	return nil
}

type history struct{ s *Store }

func (h history) Upsert(_ context.Context, entries []readmodel.HistoryEntryRM) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	for _, e := range entries {
		h.s.history[e.EventID] = e
	}
	return nil
}

func (h history) List(_ context.Context, f shared.HistoryFilter) ([]readmodel.HistoryEntryRM, error) {
	types := make(map[string]bool, len(f.EventTypes))
	for _, t := range f.EventTypes {
		types[t] = true
	}

	h.s.mu.RLock()
	var out []readmodel.HistoryEntryRM
	for _, e := range h.s.history {
		if f.ReservationID != nil {
			if e.ReservationID == nil || *e.ReservationID != *f.ReservationID {
				continue
			}
		} else if e.AggregateID != f.AggregateID.String() {
			continue
		}
		if f.From != nil && e.OccurredAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !e.OccurredAt.Before(*f.To) {
			continue
		}
		if len(types) > 0 && !types[e.EventType] {
			continue
		}
		out = append(out, e)
	}
	h.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return historyLess(out[i], out[j]) })
	if f.AfterTime != nil && f.AfterID != nil {
		cursor := readmodel.HistoryEntryRM{OccurredAt: *f.AfterTime, EventID: *f.AfterID}
		i := sort.Search(len(out), func(i int) bool { return historyLess(cursor, out[i]) })
		out = out[i:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func historyLess(a, b readmodel.HistoryEntryRM) bool {
	if !a.OccurredAt.Equal(b.OccurredAt) {
		return a.OccurredAt.Before(b.OccurredAt)
	}
	return a.EventID.String() < b.EventID.String()
}

type stockItems struct{ s *Store }

func (r stockItems) Get(_ context.Context, key stock.Key) (*readmodel.StockItemRM, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.stockItems[key]
	if !ok {
		return nil, stock.ErrItemNotFound
	}
	rm := converter.StockItemToRM(st)
	return &rm, nil
}

type reservations struct{ s *Store }

func (r reservations) Get(_ context.Context, id uuid.UUID) (*readmodel.ReservationRM, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.reservations[id]
	if !ok {
		return nil, reservation.ErrReservationNotFound
	}
	rm := converter.ReservationToRM(st)
	return &rm, nil
}

func (r reservations) ListExpired(_ context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	r.s.mu.RLock()
	var expired []reservation.State
	for _, st := range r.s.reservations {
		if st.Status == reservation.StatusPending && st.ExpiresAt.Before(cutoff) {
			expired = append(expired, st)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(expired, func(i, j int) bool { return expired[i].ExpiresAt.Before(expired[j].ExpiresAt) })
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	out := make([]uuid.UUID, len(expired))
	for i, st := range expired {
		out[i] = st.ID
	}
	return out, nil
}
