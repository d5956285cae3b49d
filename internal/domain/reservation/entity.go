package reservation

import (
	"encoding/json"
	"time"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrReservationNotFound = errs.Mark(errs.New("reservation not found"), errs.ErrNotFound)

// Failure describes the line that made a reservation request fail.
type Failure struct {
	Key       stock.Key
	Requested int64
	Available int64
	Reason    string
}

// Reservation refers to stock items by key only; it never holds a stock item.
type Reservation struct {
	id        uuid.UUID
	orderID   string
	lines     []Line
	status    Status
	expiresAt time.Time
	failure   *Failure
	createdAt time.Time
	updatedAt time.Time
	version   int64
}

type State struct {
	ID        uuid.UUID               `json:"id"`
	OrderID   string                  `json:"orderId"`
	Lines     []event.ReservationLine `json:"lines"`
	Status    Status                  `json:"status"`
	ExpiresAt time.Time               `json:"expiresAt"`
	Failure   *FailureState           `json:"failure,omitempty"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
	Version   int64                   `json:"version"`
}

type FailureState struct {
	ItemID      string `json:"itemId"`
	WarehouseID string `json:"warehouseId"`
	Requested   int64  `json:"requested"`
	Available   int64  `json:"available"`
	Reason      string `json:"reason"`
}

// NewReservation returns an empty aggregate at version 0, ready to be replayed.
func NewReservation(id uuid.UUID) *Reservation {
	return &Reservation{id: id}
}

func ReconstructReservation(s State) (*Reservation, error) {
	lines, err := fromEventLines(s.Lines)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrCorruption)
	}
	if !s.Status.IsValid() {
		return nil, errs.Corruption("reservation %s has unknown status %q", s.ID, s.Status)
	}
	r := &Reservation{
		id:        s.ID,
		orderID:   s.OrderID,
		lines:     lines,
		status:    s.Status,
		expiresAt: s.ExpiresAt,
		createdAt: s.CreatedAt,
		updatedAt: s.UpdatedAt,
		version:   s.Version,
	}
	if s.Failure != nil {
		r.failure = &Failure{
			Key:       stock.Key{WarehouseID: s.Failure.WarehouseID, ItemID: s.Failure.ItemID},
			Requested: s.Failure.Requested,
			Available: s.Failure.Available,
			Reason:    s.Failure.Reason,
		}
	}
	return r, nil
}

// DecideCreate expects lines already passed through NormalizeLines.
func DecideCreate(orderID string, lines []Line, expiresAt time.Time) ([]event.Payload, error) {
	orderID, err := ValidateOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errs.Validation("at least one line is required")
	}
	return []event.Payload{event.ReservationCreated{
		OrderID:   orderID,
		Lines:     toEventLines(lines),
		ExpiresAt: expiresAt.UTC(),
	}}, nil
}

// DecideFailed records a rejected request on its own stream so the rejection stays auditable.
func DecideFailed(orderID string, lines []Line, f Failure) []event.Payload {
	return []event.Payload{event.ReservationFailed{
		OrderID:           orderID,
		Lines:             toEventLines(lines),
		FailedItemID:      f.Key.ItemID,
		FailedWarehouseID: f.Key.WarehouseID,
		Requested:         f.Requested,
		Available:         f.Available,
		Reason:            f.Reason,
	}}
}

// Decide returns no events for a reservation that is already terminal.
func (r *Reservation) Decide(cmd Command) ([]event.Payload, error) {
	if !r.Exists() {
		return nil, ErrReservationNotFound
	}
	if r.status.IsTerminal() {
		return nil, nil
	}

	switch c := cmd.(type) {
	case Confirm:
		return []event.Payload{event.ReservationConfirmed{}}, nil
	case Release:
		reason := c.Reason
		if reason == "" {
			reason = ReleaseReasonManual
		}
		return []event.Payload{event.ReservationReleased{Reason: reason}}, nil
	case Expire:
		if !r.expiresAt.Before(c.Cutoff) {
			return nil, nil
		}
		return []event.Payload{event.ReservationExpired{Cutoff: c.Cutoff.UTC()}}, nil
	}
	return nil, errs.Validation("unsupported reservation command %T", cmd)
}

func (r *Reservation) Apply(e event.Event) error {
	next := *r
	if err := next.apply(e); err != nil {
		return err
	}
	*r = next
	return nil
}

func (r *Reservation) apply(e event.Event) error {
	if e.AggregateID != event.ReservationID(r.id) {
		return errs.Corruption("event %s belongs to %s, not %s", e.ID, e.AggregateID, event.ReservationID(r.id))
	}
	if e.Sequence != r.version+1 {
		return errs.Corruption("sequence gap on %s: expected %d, got %d", e.AggregateID, r.version+1, e.Sequence)
	}

	switch p := e.Payload.(type) {
	case event.ReservationCreated, event.ReservationFailed:
		if r.version != 0 {
			return errs.Corruption("%s created twice", e.AggregateID)
		}
		if err := r.applyCreation(p); err != nil {
			return err
		}
		r.createdAt = e.OccurredAt
	case event.ReservationConfirmed:
		if err := r.transition(StatusConfirmed); err != nil {
			return err
		}
	case event.ReservationReleased:
		if err := r.transition(StatusReleased); err != nil {
			return err
		}
	case event.ReservationExpired:
		if err := r.transition(StatusExpired); err != nil {
			return err
		}
	default:
		return errs.Corruption("event type %s cannot be applied to a reservation", e.Type())
	}

	r.version = e.Sequence
	r.updatedAt = e.OccurredAt
	return nil
}

func (r *Reservation) applyCreation(p event.Payload) error {
	switch c := p.(type) {
	case event.ReservationCreated:
		lines, err := fromEventLines(c.Lines)
		if err != nil {
			return errs.Mark(err, errs.ErrCorruption)
		}
		r.orderID = c.OrderID
		r.lines = lines
		r.expiresAt = c.ExpiresAt
		r.status = StatusPending
	case event.ReservationFailed:
		lines, err := fromEventLines(c.Lines)
		if err != nil {
			return errs.Mark(err, errs.ErrCorruption)
		}
		r.orderID = c.OrderID
		r.lines = lines
		r.status = StatusFailed
		r.failure = &Failure{
			Key:       stock.Key{WarehouseID: c.FailedWarehouseID, ItemID: c.FailedItemID},
			Requested: c.Requested,
			Available: c.Available,
			Reason:    c.Reason,
		}
	}
	return nil
}

func (r *Reservation) transition(to Status) error {
	if r.version == 0 {
		return errs.Corruption("reservation %s transitions to %s before creation", r.id, to)
	}
	if r.status != StatusPending {
		return errs.Corruption("reservation %s cannot move from %s to %s", r.id, r.status, to)
	}
	r.status = to
	return nil
}

func (r *Reservation) MarshalSnapshot() ([]byte, error) {
	return json.Marshal(r.State())
}

func (r *Reservation) UnmarshalSnapshot(data []byte) error {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return errs.Mark(errs.Wrap(err, "decode reservation snapshot"), errs.ErrCorruption)
	}
	restored, err := ReconstructReservation(s)
	if err != nil {
		return err
	}
	if restored.id != r.id {
		return errs.Corruption("snapshot of reservation %s loaded into %s", restored.id, r.id)
	}
	*r = *restored
	return nil
}

func (r *Reservation) State() State {
	s := State{
		ID:        r.id,
		OrderID:   r.orderID,
		Lines:     toEventLines(r.lines),
		Status:    r.status,
		ExpiresAt: r.expiresAt,
		CreatedAt: r.createdAt,
		UpdatedAt: r.updatedAt,
		Version:   r.version,
	}
	if r.failure != nil {
		s.Failure = &FailureState{
			ItemID:      r.failure.Key.ItemID,
			WarehouseID: r.failure.Key.WarehouseID,
			Requested:   r.failure.Requested,
			Available:   r.failure.Available,
			Reason:      r.failure.Reason,
		}
	}
	return s
}

func (r *Reservation) IsExpired(now time.Time) bool {
	return r.status == StatusPending && r.expiresAt.Before(now)
}

func (r *Reservation) Lines() []Line {
	out := make([]Line, len(r.lines))
	copy(out, r.lines)
	return out
}

func (r *Reservation) Exists() bool         { return r.version > 0 }
func (r *Reservation) ID() uuid.UUID        { return r.id }
func (r *Reservation) OrderID() string      { return r.orderID }
func (r *Reservation) Status() Status       { return r.status }
func (r *Reservation) ExpiresAt() time.Time { return r.expiresAt }
func (r *Reservation) Failure() *Failure    { return r.failure }
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time { return r.updatedAt }
func (r *Reservation) Version() int64       { return r.version }

func (r *Reservation) AggregateID() event.AggregateID {
	return event.ReservationID(r.id)
}
