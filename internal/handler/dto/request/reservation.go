package request

import (
	"time"

	"inventory-ledger/internal/domain/reservation"
	"inventory-ledger/internal/usecase/commands"
)

type ReserveLineRequest struct {
	WarehouseID string `json:"warehouseId" binding:"required"`
	ItemID      string `json:"itemId" binding:"required"`
	Quantity    int64  `json:"quantity" binding:"required"`
}

type ReserveRequest struct {
	OrderID    string               `json:"orderId" binding:"required"`
	Lines      []ReserveLineRequest `json:"lines" binding:"required,min=1,dive"`
	TTLSeconds *int64               `json:"ttlSeconds,omitempty" binding:"omitempty,min=1"`
}

// ToParams validates each line; duplicate lines are merged later by the reservation manager.
func (r ReserveRequest) ToParams() (commands.ReserveParams, error) {
	lines := make([]reservation.Line, len(r.Lines))
	for i, l := range r.Lines {
		line, err := reservation.NewLine(l.WarehouseID, l.ItemID, l.Quantity)
		if err != nil {
			return commands.ReserveParams{}, err
		}
		lines[i] = line
	}

	params := commands.ReserveParams{OrderID: r.OrderID, Lines: lines}
	if r.TTLSeconds != nil {
		params.TTL = time.Duration(*r.TTLSeconds) * time.Second
	}
	return params, nil
}
