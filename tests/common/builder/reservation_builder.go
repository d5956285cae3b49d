//go:build unit || e2e

package builder

import (
	"time"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/reservation"
	"inventory-ledger/internal/domain/stock"
	reqdto "inventory-ledger/internal/handler/dto/request"
	"inventory-ledger/internal/usecase/commands"
	"inventory-ledger/internal/usecase/readmodel"

	"github.com/google/uuid"
)

type ReservationLine struct {
	WarehouseID string
	ItemID      string
	Quantity    int64
}

type ReservationBuilder struct {
	ID        uuid.UUID
	OrderID   string
	Lines     []ReservationLine
	Status    reservation.Status
	CreatedAt time.Time
	TTL       time.Duration
}

func NewReservationBuilder() *ReservationBuilder {
	return &ReservationBuilder{
		ID:        uuid.New(),
		OrderID:   "order-1001",
		Lines:     []ReservationLine{{WarehouseID: "main", ItemID: "sku-1", Quantity: 2}},
		Status:    reservation.StatusPending,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TTL:       15 * time.Minute,
	}
}

func (b *ReservationBuilder) With(mutate func(*ReservationBuilder)) *ReservationBuilder {
	mutate(b)
	return b
}

func (b *ReservationBuilder) WithOrderID(orderID string) *ReservationBuilder {
	b.OrderID = orderID
	return b
}

func (b *ReservationBuilder) WithLine(warehouseID, itemID string, qty int64) *ReservationBuilder {
	b.Lines = append(b.Lines, ReservationLine{WarehouseID: warehouseID, ItemID: itemID, Quantity: qty})
	return b
}

func (b *ReservationBuilder) WithLines(lines ...ReservationLine) *ReservationBuilder {
	b.Lines = lines
	return b
}

func (b *ReservationBuilder) WithStatus(status reservation.Status) *ReservationBuilder {
	b.Status = status
	return b
}

// Build methods

func (b *ReservationBuilder) BuildReserveRequestDTO() reqdto.ReserveRequest {
	req := reqdto.ReserveRequest{OrderID: b.OrderID}
	for _, l := range b.Lines {
		req.Lines = append(req.Lines, reqdto.ReserveLineRequest{WarehouseID: l.WarehouseID, ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return req
}

func (b *ReservationBuilder) BuildState() reservation.State {
	s := reservation.State{
		ID:        b.ID,
		OrderID:   b.OrderID,
		Status:    b.Status,
		ExpiresAt: b.CreatedAt.Add(b.TTL),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.CreatedAt,
		Version:   1,
	}
	for _, l := range b.Lines {
		s.Lines = append(s.Lines, event.ReservationLine{WarehouseID: l.WarehouseID, ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return s
}

func (b *ReservationBuilder) BuildReadModel() *readmodel.ReservationRM {
	rm := &readmodel.ReservationRM{
		ID:        b.ID,
		OrderID:   b.OrderID,
		Status:    string(b.Status),
		ExpiresAt: b.CreatedAt.Add(b.TTL),
		Version:   1,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.CreatedAt,
	}
	for _, l := range b.Lines {
		rm.Lines = append(rm.Lines, readmodel.ReservationLineRM{WarehouseID: l.WarehouseID, ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return rm
}

// BuildItems returns the stock items after the lines were reserved out of onHand each.
func (b *ReservationBuilder) BuildItems(onHand int64) []stock.State {
	items := make([]stock.State, len(b.Lines))
	for i, l := range b.Lines {
		items[i] = stock.State{
			WarehouseID:       l.WarehouseID,
			ItemID:            l.ItemID,
			OnHand:            onHand,
			Reserved:          l.Quantity,
			LowStockThreshold: 3,
			Status:            stock.StatusInStock,
			Version:           2,
			UpdatedAt:         b.CreatedAt,
		}
	}
	return items
}

func (b *ReservationBuilder) BuildReserveResult(onHand int64) *commands.ReserveResult {
	return &commands.ReserveResult{Reservation: b.BuildState(), Items: b.BuildItems(onHand)}
}

func (b *ReservationBuilder) BuildTransitionResult(changed bool) *commands.TransitionResult {
	return &commands.TransitionResult{Reservation: b.BuildState(), Items: b.BuildItems(10), Changed: changed}
}
