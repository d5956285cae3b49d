package stock

import (
	"encoding/json"
	"time"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/pkg/errs"
)

// Item is the stock item aggregate. State changes only through Apply.
type Item struct {
	key               Key
	sku               string
	onHand            int64
	reserved          int64
	lowStockThreshold int64
	status            Status
	version           int64
	updatedAt         time.Time
}

// State is the snapshot form of an Item.
type State struct {
	WarehouseID       string    `json:"warehouseId"`
	ItemID            string    `json:"itemId"`
	SKU               string    `json:"sku,omitempty"`
	OnHand            int64     `json:"onHand"`
	Reserved          int64     `json:"reserved"`
	LowStockThreshold int64     `json:"lowStockThreshold"`
	Status            Status    `json:"status"`
	Version           int64     `json:"version"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// NewItem returns an empty aggregate at version 0, ready to be replayed.
func NewItem(key Key) *Item {
	return &Item{key: key}
}

func ReconstructItem(s State) (*Item, error) {
	key, err := NewKey(s.WarehouseID, s.ItemID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrCorruption)
	}
	it := &Item{
		key:               key,
		sku:               s.SKU,
		onHand:            s.OnHand,
		reserved:          s.Reserved,
		lowStockThreshold: s.LowStockThreshold,
		status:            s.Status,
		version:           s.Version,
		updatedAt:         s.UpdatedAt,
	}
	if err := it.checkInvariants(); err != nil {
		return nil, err
	}
	return it, nil
}

// DecideCreate produces the creation event of a new stock item.
func DecideCreate(key Key, sku string, initialStock, lowStockThreshold int64) ([]event.Payload, error) {
	if initialStock < 0 {
		return nil, errs.Validation("initial stock must not be negative, got %d", initialStock)
	}
	if lowStockThreshold < 0 {
		return nil, errs.Validation("low stock threshold must not be negative, got %d", lowStockThreshold)
	}
	return []event.Payload{event.StockItemCreated{
		ItemID:            key.ItemID,
		WarehouseID:       key.WarehouseID,
		SKU:               sku,
		InitialStock:      initialStock,
		LowStockThreshold: lowStockThreshold,
		Status:            DeriveStatus(initialStock, lowStockThreshold, "").String(),
	}}, nil
}

// Decide validates cmd against the current state and returns the events it produces.
// The aggregate is not modified.
func (i *Item) Decide(cmd Command) ([]event.Payload, error) {
	if !i.Exists() {
		return nil, ErrItemNotFound
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	switch c := cmd.(type) {
	case Reserve:
		if i.status == StatusDiscontinued {
			return nil, ErrItemDiscontinued
		}
		if i.Available() < c.Quantity {
			return nil, NewInsufficientStockError(i.key, c.Quantity, i.Available())
		}
		return []event.Payload{event.StockReserved{
			ReservationID: c.ReservationID,
			Quantity:      c.Quantity,
			After:         levels(i.onHand, i.reserved+c.Quantity),
		}}, nil

	case Release:
		if c.Quantity > i.reserved {
			return nil, errs.Corruption("release of %d exceeds reserved %d on %s", c.Quantity, i.reserved, i.key)
		}
		return []event.Payload{event.StockReleased{
			ReservationID: c.ReservationID,
			Quantity:      c.Quantity,
			Reason:        c.Reason,
			After:         levels(i.onHand, i.reserved-c.Quantity),
		}}, nil

	case Confirm:
		if c.Quantity > i.reserved {
			return nil, errs.Corruption("confirm of %d exceeds reserved %d on %s", c.Quantity, i.reserved, i.key)
		}
		onHand := i.onHand - c.Quantity
		out := []event.Payload{event.StockConfirmed{
			ReservationID: c.ReservationID,
			Quantity:      c.Quantity,
			After:         levels(onHand, i.reserved-c.Quantity),
		}}
		return i.withStatusChange(out, onHand), nil

	case Adjust:
		onHand := i.onHand + c.Delta
		if onHand < 0 {
			return nil, errs.Mark(errs.Newf("adjustment of %d would leave %s with %d on hand", c.Delta, i.key, onHand), errs.ErrNegativeStock)
		}
		if onHand < i.reserved {
			return nil, errs.Mark(errs.Newf("adjustment of %d would leave %s below its %d reserved units", c.Delta, i.key, i.reserved), errs.ErrNegativeStock)
		}
		out := []event.Payload{event.StockAdjusted{
			Delta:  c.Delta,
			Reason: c.Reason.String(),
			Note:   c.Note,
			After:  levels(onHand, i.reserved),
		}}
		return i.withStatusChange(out, onHand), nil

	case Discontinue:
		if i.status == StatusDiscontinued {
			return nil, nil
		}
		return []event.Payload{event.StockStatusChanged{
			From:   i.status.String(),
			To:     StatusDiscontinued.String(),
			Manual: true,
		}}, nil
	}

	return nil, errs.Validation("unsupported stock command %T", cmd)
}

func (i *Item) withStatusChange(out []event.Payload, onHand int64) []event.Payload {
	next := DeriveStatus(onHand, i.lowStockThreshold, i.status)
	if next == i.status {
		return out
	}
	return append(out, event.StockStatusChanged{From: i.status.String(), To: next.String()})
}

// Apply folds one event into the aggregate. Sequence gaps and diverging levels
// are reported as corruption and leave the aggregate untouched.
func (i *Item) Apply(e event.Event) error {
	next := *i
	if err := next.apply(e); err != nil {
		return err
	}
	*i = next
	return nil
}

func (i *Item) apply(e event.Event) error {
	if e.AggregateID != i.key.AggregateID() {
		return errs.Corruption("event %s belongs to %s, not %s", e.ID, e.AggregateID, i.key.AggregateID())
	}
	if e.Sequence != i.version+1 {
		return errs.Corruption("sequence gap on %s: expected %d, got %d", e.AggregateID, i.version+1, e.Sequence)
	}

	if i.version == 0 && e.Type() != event.TypeStockItemCreated {
		return errs.Corruption("%s does not start with %s", e.AggregateID, event.TypeStockItemCreated)
	}

	var after *event.Levels
	switch p := e.Payload.(type) {
	case event.StockItemCreated:
		if i.version != 0 {
			return errs.Corruption("%s created twice", e.AggregateID)
		}
		status := Status(p.Status)
		if !status.IsValid() {
			return errs.Corruption("unknown stock status %q on %s", p.Status, e.AggregateID)
		}
		i.sku = p.SKU
		i.onHand = p.InitialStock
		i.reserved = 0
		i.lowStockThreshold = p.LowStockThreshold
		i.status = status
	case event.StockReserved:
		i.reserved += p.Quantity
		after = &p.After
	case event.StockReleased:
		i.reserved = floorZero(i.reserved - p.Quantity)
		after = &p.After
	case event.StockConfirmed:
		i.onHand -= p.Quantity
		i.reserved = floorZero(i.reserved - p.Quantity)
		after = &p.After
	case event.StockAdjusted:
		i.onHand += p.Delta
		after = &p.After
	case event.StockStatusChanged:
		status := Status(p.To)
		if !status.IsValid() {
			return errs.Corruption("unknown stock status %q on %s", p.To, e.AggregateID)
		}
		i.status = status
	default:
		return errs.Corruption("event type %s cannot be applied to a stock item", e.Type())
	}

	if after != nil && *after != levels(i.onHand, i.reserved) {
		return errs.Corruption("levels on %s diverge at sequence %d: recorded %+v, replayed %+v",
			e.AggregateID, e.Sequence, *after, levels(i.onHand, i.reserved))
	}
	if err := i.checkInvariants(); err != nil {
		return err
	}

	i.version = e.Sequence
	i.updatedAt = e.OccurredAt
	return nil
}

func (i *Item) checkInvariants() error {
	switch {
	case i.onHand < 0:
		return errs.Corruption("%s has negative on-hand %d", i.key, i.onHand)
	case i.reserved < 0:
		return errs.Corruption("%s has negative reserved %d", i.key, i.reserved)
	case i.reserved > i.onHand:
		return errs.Corruption("%s has reserved %d above on-hand %d", i.key, i.reserved, i.onHand)
	case i.status != "" && !i.status.IsValid():
		return errs.Corruption("%s has unknown status %q", i.key, i.status)
	}
	return nil
}

func (i *Item) MarshalSnapshot() ([]byte, error) {
	return json.Marshal(i.State())
}

func (i *Item) UnmarshalSnapshot(data []byte) error {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return errs.Mark(errs.Wrap(err, "decode stock item snapshot"), errs.ErrCorruption)
	}
	restored, err := ReconstructItem(s)
	if err != nil {
		return err
	}
	if restored.key != i.key {
		return errs.Corruption("snapshot of %s loaded into %s", restored.key, i.key)
	}
	*i = *restored
	return nil
}

func (i *Item) State() State {
	return State{
		WarehouseID:       i.key.WarehouseID,
		ItemID:            i.key.ItemID,
		SKU:               i.sku,
		OnHand:            i.onHand,
		Reserved:          i.reserved,
		LowStockThreshold: i.lowStockThreshold,
		Status:            i.status,
		Version:           i.version,
		UpdatedAt:         i.updatedAt,
	}
}

// Clone returns an independent copy, safe to apply events to speculatively.
func (i *Item) Clone() *Item {
	c := *i
	return &c
}

func (i *Item) Exists() bool             { return i.version > 0 }
func (i *Item) Key() Key                 { return i.key }
func (i *Item) SKU() string              { return i.sku }
func (i *Item) OnHand() int64            { return i.onHand }
func (i *Item) Reserved() int64          { return i.reserved }
func (i *Item) Available() int64         { return i.onHand - i.reserved }
func (i *Item) LowStockThreshold() int64 { return i.lowStockThreshold }
func (i *Item) Status() Status           { return i.status }
func (i *Item) Version() int64           { return i.version }
func (i *Item) UpdatedAt() time.Time     { return i.updatedAt }
func (i *Item) Levels() event.Levels     { return levels(i.onHand, i.reserved) }

func (i *Item) AggregateID() event.AggregateID {
	return i.key.AggregateID()
}

func levels(onHand, reserved int64) event.Levels {
	return event.Levels{OnHand: onHand, Reserved: reserved, Available: onHand - reserved}
}

func floorZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
