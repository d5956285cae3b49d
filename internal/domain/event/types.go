package event

import (
	"strings"

	"github.com/google/uuid"
)

type Type string

const (
	TypeStockItemCreated     Type = "StockItemCreated"
	TypeStockReserved        Type = "StockReserved"
	TypeStockReleased        Type = "StockReleased"
	TypeStockConfirmed       Type = "StockConfirmed"
	TypeStockAdjusted        Type = "StockAdjusted"
	TypeStockStatusChanged   Type = "StockStatusChanged"
	TypeReservationCreated   Type = "ReservationCreated"
	TypeReservationConfirmed Type = "ReservationConfirmed"
	TypeReservationReleased  Type = "ReservationReleased"
	TypeReservationExpired   Type = "ReservationExpired"
	TypeReservationFailed    Type = "ReservationFailed"
)

// AllTypes lists every payload variant known to the codec.
var AllTypes = []Type{
	TypeStockItemCreated,
	TypeStockReserved,
	TypeStockReleased,
	TypeStockConfirmed,
	TypeStockAdjusted,
	TypeStockStatusChanged,
	TypeReservationCreated,
	TypeReservationConfirmed,
	TypeReservationReleased,
	TypeReservationExpired,
	TypeReservationFailed,
}

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

const (
	KindStockItem   = "stock-item"
	KindReservation = "reservation"
)

// AggregateID addresses one event stream: "stock-item/<warehouse>/<item>" or "reservation/<uuid>".
type AggregateID string

func StockItemID(warehouseID, itemID string) AggregateID {
	return AggregateID(KindStockItem + "/" + warehouseID + "/" + itemID)
}

func ReservationID(id uuid.UUID) AggregateID {
	return AggregateID(KindReservation + "/" + id.String())
}

func (a AggregateID) String() string {
	return string(a)
}

func (a AggregateID) Kind() string {
	kind, _, _ := strings.Cut(string(a), "/")
	return kind
}

func (a AggregateID) StockItemKey() (warehouseID, itemID string, ok bool) {
	parts := strings.Split(string(a), "/")
	if len(parts) != 3 || parts[0] != KindStockItem {
		return "", "", false
	}
	return parts[1], parts[2], true
}

func (a AggregateID) ReservationUUID() (uuid.UUID, bool) {
	kind, rest, found := strings.Cut(string(a), "/")
	if !found || kind != KindReservation {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Position orders records in the global feed: commit transaction first, insert order second.
type Position struct {
	TxID   uint64 `json:"txId"`
	Offset int64  `json:"offset"`
}

func (p Position) After(other Position) bool {
	if p.TxID != other.TxID {
		return p.TxID > other.TxID
	}
	return p.Offset > other.Offset
}
