package readmodel

import (
	"time"

	"github.com/google/uuid"
)

type ReservationRM struct {
	ID        uuid.UUID             `json:"id"`
	OrderID   string                `json:"order_id"`
	Status    string                `json:"status"`
	Lines     []ReservationLineRM   `json:"lines"`
	ExpiresAt time.Time             `json:"expires_at"`
	Failure   *ReservationFailureRM `json:"failure,omitempty"`
	Version   int64                 `json:"version"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

type ReservationLineRM struct {
	WarehouseID string `json:"warehouse_id"`
	ItemID      string `json:"item_id"`
	Quantity    int64  `json:"quantity"`
}

type ReservationFailureRM struct {
	WarehouseID string `json:"warehouse_id"`
	ItemID      string `json:"item_id"`
	Requested   int64  `json:"requested"`
	Available   int64  `json:"available"`
	Reason      string `json:"reason"`
}
