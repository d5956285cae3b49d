package event

import (
	"time"

	"github.com/google/uuid"
)

// Payload is the closed set of event variants; only this package can add one.
type Payload interface {
	EventType() Type
	sealed()
}

// Levels are the stock quantities after the event was applied.
type Levels struct {
	OnHand    int64 `json:"onHand"`
	Reserved  int64 `json:"reserved"`
	Available int64 `json:"available"`
}

type ReservationLine struct {
	ItemID      string `json:"itemId"`
	WarehouseID string `json:"warehouseId"`
	Quantity    int64  `json:"quantity"`
}

type StockItemCreated struct {
	ItemID            string `json:"itemId"`
	WarehouseID       string `json:"warehouseId"`
	SKU               string `json:"sku,omitempty"`
	InitialStock      int64  `json:"initialStock"`
	LowStockThreshold int64  `json:"lowStockThreshold"`
	Status            string `json:"status"`
}

type StockReserved struct {
	ReservationID uuid.UUID `json:"reservationId"`
	Quantity      int64     `json:"quantity"`
	After         Levels    `json:"after"`
}

type StockReleased struct {
	ReservationID uuid.UUID `json:"reservationId"`
	Quantity      int64     `json:"quantity"`
	Reason        string    `json:"reason"`
	After         Levels    `json:"after"`
}

type StockConfirmed struct {
	ReservationID uuid.UUID `json:"reservationId"`
	Quantity      int64     `json:"quantity"`
	After         Levels    `json:"after"`
}

type StockAdjusted struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
	Note   string `json:"note,omitempty"`
	After  Levels `json:"after"`
}

type StockStatusChanged struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Manual bool   `json:"manual"`
}

type ReservationCreated struct {
	OrderID   string            `json:"orderId"`
	Lines     []ReservationLine `json:"lines"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

type ReservationConfirmed struct{}

type ReservationReleased struct {
	Reason string `json:"reason"`
}

type ReservationExpired struct {
	Cutoff time.Time `json:"cutoff"`
}

type ReservationFailed struct {
	OrderID           string            `json:"orderId"`
	Lines             []ReservationLine `json:"lines"`
	FailedItemID      string            `json:"failedItemId"`
	FailedWarehouseID string            `json:"failedWarehouseId"`
	Requested         int64             `json:"requested"`
	Available         int64             `json:"available"`
	Reason            string            `json:"reason"`
}

func (StockItemCreated) EventType() Type     { return TypeStockItemCreated }
func (StockReserved) EventType() Type        { return TypeStockReserved }
func (StockReleased) EventType() Type        { return TypeStockReleased }
func (StockConfirmed) EventType() Type       { return TypeStockConfirmed }
func (StockAdjusted) EventType() Type        { return TypeStockAdjusted }
func (StockStatusChanged) EventType() Type   { return TypeStockStatusChanged }
func (ReservationCreated) EventType() Type   { return TypeReservationCreated }
func (ReservationConfirmed) EventType() Type { return TypeReservationConfirmed }
func (ReservationReleased) EventType() Type  { return TypeReservationReleased }
func (ReservationExpired) EventType() Type   { return TypeReservationExpired }
func (ReservationFailed) EventType() Type    { return TypeReservationFailed }

func (StockItemCreated) sealed()     {}
func (StockReserved) sealed()        {}
func (StockReleased) sealed()        {}
func (StockConfirmed) sealed()       {}
func (StockAdjusted) sealed()        {}
func (StockStatusChanged) sealed()   {}
func (ReservationCreated) sealed()   {}
func (ReservationConfirmed) sealed() {}
func (ReservationReleased) sealed()  {}
func (ReservationExpired) sealed()   {}
func (ReservationFailed) sealed()    {}
