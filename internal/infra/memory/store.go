package memory

import (
	"context"
	"sort"
	"sync"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/outbox"
	"inventory-ledger/internal/domain/reservation"
	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/pkg/errs"
	"inventory-ledger/internal/usecase/readmodel"
	"inventory-ledger/internal/usecase/shared"

	"github.com/google/uuid"
)

// Store keeps every table of the ledger in process memory. Writes are staged per
// transaction and checked against the committed versions on Commit.
type Store struct {
	mu sync.RWMutex

	streams      map[event.AggregateID][]event.Record
	feed         []event.Record
	lastTxID     uint64
	stockItems   map[stock.Key]stock.State
	reservations map[uuid.UUID]reservation.State
	outbox       map[uuid.UUID]outbox.Entry
	snapshots    map[event.AggregateID]shared.Snapshot
	health       map[event.AggregateID]shared.AggregateHealth
	history      map[uuid.UUID]readmodel.HistoryEntryRM
	checkpoints  map[string]event.Position
}

func NewStore() *Store {
	return &Store{
		streams:      make(map[event.AggregateID][]event.Record),
		stockItems:   make(map[stock.Key]stock.State),
		reservations: make(map[uuid.UUID]reservation.State),
		outbox:       make(map[uuid.UUID]outbox.Entry),
		snapshots:    make(map[event.AggregateID]shared.Snapshot),
		health:       make(map[event.AggregateID]shared.AggregateHealth),
		history:      make(map[uuid.UUID]readmodel.HistoryEntryRM),
		checkpoints:  make(map[string]event.Position),
	}
}

func (s *Store) Begin() *Tx {
	return &Tx{
		store:        s,
		appends:      make(map[event.AggregateID]*stagedAppend),
		stockItems:   make(map[stock.Key]stagedStock),
		reservations: make(map[uuid.UUID]stagedReservation),
	}
}

// Commit publishes the staged writes of tx atomically, or fails with errs.ErrVersionConflict
// when another transaction committed a conflicting write first.
func (s *Store) Commit(_ context.Context, tx *Tx) error {
	if tx.done {
		return errs.New("transaction already finished")
	}
	tx.done = true

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.verify(tx); err != nil {
		return err
	}

	s.lastTxID++
	txID := s.lastTxID
	var offset int64
	for _, id := range tx.order {
		a := tx.appends[id]
		for _, r := range a.records {
			r.Position = event.Position{TxID: txID, Offset: offset}
			offset++
			s.streams[id] = append(s.streams[id], r)
			s.feed = append(s.feed, r)
		}
	}
	for key, st := range tx.stockItems {
		s.stockItems[key] = st.state
	}
	for id, st := range tx.reservations {
		s.reservations[id] = st.state
	}
	for _, e := range tx.outbox {
		s.outbox[e.ID] = e
	}
	return nil
}

func (s *Store) verify(tx *Tx) error {
	for id, a := range tx.appends {
		if head := int64(len(s.streams[id])); head != a.expected {
			return errs.Mark(errs.Newf("stream %s moved from %d to %d", id, a.expected, head), errs.ErrVersionConflict)
		}
	}
	for key, st := range tx.stockItems {
		if current := s.stockItems[key].Version; current != st.expected {
			return errs.Mark(errs.Newf("stock item %s moved from %d to %d", key, st.expected, current), errs.ErrVersionConflict)
		}
	}
	for id, st := range tx.reservations {
		if current := s.reservations[id].Version; current != st.expected {
			return errs.Mark(errs.Newf("reservation %s moved from %d to %d", id, st.expected, current), errs.ErrVersionConflict)
		}
		if !st.state.Status.IsOpen() {
			continue
		}
		for otherID, other := range s.reservations {
			if otherID != id && other.OrderID == st.state.OrderID && other.Status.IsOpen() {
				return errs.Mark(errs.Newf("order %s already has open reservation %s", st.state.OrderID, otherID), errs.ErrVersionConflict)
			}
		}
	}
	return nil
}

// records returns the committed records of id with sequence > after.
func (s *Store) records(id event.AggregateID, after int64) []event.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stream := s.streams[id]
	if after < 0 {
		after = 0
	}
	if after >= int64(len(stream)) {
		return nil
	}
	out := make([]event.Record, len(stream)-int(after))
	copy(out, stream[after:])
	return out
}

// Corrupt replaces a committed record in place. Only meant for exercising corruption handling.
func (s *Store) Corrupt(id event.AggregateID, sequence int64, mutate func(*event.Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stream := s.streams[id]
	if sequence < 1 || sequence > int64(len(stream)) {
		return
	}
	mutate(&stream[sequence-1])
}

func sortEntries(entries []outbox.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AggregateID != entries[j].AggregateID {
			return entries[i].AggregateID < entries[j].AggregateID
		}
		return entries[i].Sequence < entries[j].Sequence
	})
}
