package memory

import (
	"context"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/outbox"
	"inventory-ledger/internal/domain/reservation"
	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/pkg/errs"
	"inventory-ledger/internal/usecase/shared"

	"github.com/google/uuid"
)

type stagedAppend struct {
	expected int64
	records  []event.Record
}

type stagedStock struct {
	expected int64
	state    stock.State
}

type stagedReservation struct {
	expected int64
	state    reservation.State
}

// Tx stages writes until Store.Commit. Reads see committed data plus the tx's own writes.
type Tx struct {
	store *Store
	done  bool

	appends      map[event.AggregateID]*stagedAppend
	order        []event.AggregateID
	stockItems   map[stock.Key]stagedStock
	reservations map[uuid.UUID]stagedReservation
	outbox       []outbox.Entry
}

func (t *Tx) Events() shared.EventRepository             { return txEvents{t} }
func (t *Tx) Outbox() shared.OutboxWriter                { return txOutbox{t} }
func (t *Tx) StockItems() shared.StockItemRepository     { return txStockItems{t} }
func (t *Tx) Reservations() shared.ReservationRepository { return txReservations{t} }

type txEvents struct{ t *Tx }

func (r txEvents) Load(_ context.Context, id event.AggregateID, after int64) ([]event.Record, error) {
	out := r.t.store.records(id, after)
	if a, ok := r.t.appends[id]; ok {
		for _, rec := range a.records {
			if rec.Sequence > after {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func (r txEvents) Append(_ context.Context, id event.AggregateID, expected int64, records []event.Record) error {
	head := int64(len(r.t.store.records(id, 0)))
	a, staged := r.t.appends[id]
	if staged {
		head = a.expected + int64(len(a.records))
	}
	if head != expected {
		return errs.Mark(errs.Newf("stream %s is at %d, expected %d", id, head, expected), errs.ErrVersionConflict)
	}
	for i, rec := range records {
		if rec.AggregateID != id || rec.Sequence != expected+int64(i)+1 {
			return errs.Mark(errs.Newf("record %s does not continue stream %s at %d", rec.ID, id, expected), errs.ErrVersionConflict)
		}
	}
	if !staged {
		a = &stagedAppend{expected: expected}
		r.t.appends[id] = a
		r.t.order = append(r.t.order, id)
	}
	a.records = append(a.records, records...)
	return nil
}

type txOutbox struct{ t *Tx }

func (w txOutbox) Enqueue(_ context.Context, entries []outbox.Entry) error {
	w.t.outbox = append(w.t.outbox, entries...)
	return nil
}

type txStockItems struct{ t *Tx }

func (r txStockItems) Save(_ context.Context, state stock.State, expected int64) error {
	key := stock.Key{WarehouseID: state.WarehouseID, ItemID: state.ItemID}
	if prev, ok := r.t.stockItems[key]; ok {
		if prev.state.Version != expected {
			return errs.Mark(errs.Newf("stock item %s staged at %d, expected %d", key, prev.state.Version, expected), errs.ErrVersionConflict)
		}
		r.t.stockItems[key] = stagedStock{expected: prev.expected, state: state}
		return nil
	}
	r.t.stockItems[key] = stagedStock{expected: expected, state: state}
	return nil
}

type txReservations struct{ t *Tx }

func (r txReservations) Save(_ context.Context, state reservation.State, expected int64) error {
	if prev, ok := r.t.reservations[state.ID]; ok {
		if prev.state.Version != expected {
			return errs.Mark(errs.Newf("reservation %s staged at %d, expected %d", state.ID, prev.state.Version, expected), errs.ErrVersionConflict)
		}
		r.t.reservations[state.ID] = stagedReservation{expected: prev.expected, state: state}
		return nil
	}
	r.t.reservations[state.ID] = stagedReservation{expected: expected, state: state}
	return nil
}

func (r txReservations) FindOpenByOrder(_ context.Context, orderID string) (uuid.UUID, bool, error) {
	for id, st := range r.t.reservations {
		if st.state.OrderID == orderID && st.state.Status.IsOpen() {
			return id, true, nil
		}
	}
	r.t.store.mu.RLock()
	defer r.t.store.mu.RUnlock()
	for id, st := range r.t.store.reservations {
		if _, staged := r.t.reservations[id]; staged {
			continue
		}
		if st.OrderID == orderID && st.Status.IsOpen() {
			return id, true, nil
		}
	}
	return uuid.Nil, false, nil
}
