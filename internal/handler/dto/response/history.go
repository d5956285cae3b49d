package response

import (
	"encoding/json"
	"time"

	"inventory-ledger/internal/usecase/queries"
	"inventory-ledger/internal/usecase/readmodel"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type HistoryEntryResponse struct {
	EventID       uuid.UUID       `json:"eventId"`
	AggregateID   string          `json:"aggregateId"`
	AggregateType string          `json:"aggregateType"`
	Sequence      int64           `json:"sequence"`
	WarehouseID   string          `json:"warehouseId,omitempty"`
	ItemID        string          `json:"itemId,omitempty"`
	ReservationID *uuid.UUID      `json:"reservationId,omitempty"`
	OrderID       string          `json:"orderId,omitempty"`
	EventType     string          `json:"eventType"`
	QuantityDelta int64           `json:"quantityDelta"`
	ReservedDelta int64           `json:"reservedDelta"`
	Details       json.RawMessage `json:"details,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
	CorrelationID string          `json:"correlationId,omitempty"`
}

type HistoryPageResponse struct {
	Entries    []HistoryEntryResponse `json:"entries"`
	NextCursor string                 `json:"nextCursor,omitempty"`
}

func FromHistoryPage(entries []readmodel.HistoryEntryRM, next *queries.Cursor) (*HistoryPageResponse, error) {
	res := &HistoryPageResponse{Entries: make([]HistoryEntryResponse, 0, len(entries))}
	if err := copier.Copy(&res.Entries, &entries); err != nil {
		return nil, err
	}
	if next != nil {
		res.NextCursor = next.After
	}
	return res, nil
}
