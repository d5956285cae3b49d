package readmodel

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// HistoryEntryRM is one projected event in the audit trail of an item or a reservation.
type HistoryEntryRM struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Sequence      int64           `json:"sequence"`
	WarehouseID   string          `json:"warehouse_id,omitempty"`
	ItemID        string          `json:"item_id,omitempty"`
	ReservationID *uuid.UUID      `json:"reservation_id,omitempty"`
	OrderID       string          `json:"order_id,omitempty"`
	EventType     string          `json:"event_type"`
	QuantityDelta int64           `json:"quantity_delta"`
	ReservedDelta int64           `json:"reserved_delta"`
	Details       json.RawMessage `json:"details,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}
