package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Published event names consumed by the rest of the platform
const (
	PublishedStockLevelChanged          = "StockLevelChanged"
	PublishedStockStatusChanged         = "StockStatusChanged"
	PublishedInventoryReserved          = "InventoryReserved"
	PublishedInventoryReservationFailed = "InventoryReservationFailed"
	PublishedInventoryReleased          = "InventoryReleased"
	PublishedReservationCreated         = "ReservationCreated"
	PublishedReservationConfirmed       = "ReservationConfirmed"
	PublishedReservationReleased        = "ReservationReleased"
	PublishedReservationExpired         = "ReservationExpired"
)

func PublishedName(t Type) string {
	switch t {
	case TypeStockItemCreated, TypeStockConfirmed, TypeStockAdjusted:
		return PublishedStockLevelChanged
	case TypeStockStatusChanged:
		return PublishedStockStatusChanged
	case TypeStockReserved:
		return PublishedInventoryReserved
	case TypeStockReleased:
		return PublishedInventoryReleased
	case TypeReservationFailed:
		return PublishedInventoryReservationFailed
	case TypeReservationCreated:
		return PublishedReservationCreated
	case TypeReservationConfirmed:
		return PublishedReservationConfirmed
	case TypeReservationReleased:
		return PublishedReservationReleased
	case TypeReservationExpired:
		return PublishedReservationExpired
	default:
		return string(t)
	}
}

// Envelope is the wire format on the message channel. Consumers dedupe on EventID.
type Envelope struct {
	EventID       uuid.UUID       `json:"eventId"`
	EventType     string          `json:"eventType"`
	EventVersion  int             `json:"eventVersion"`
	Timestamp     time.Time       `json:"timestamp"`
	AggregateID   string          `json:"aggregateId"`
	CorrelationID string          `json:"correlationId"`
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(r Record) Envelope {
	return Envelope{
		EventID:       r.ID,
		EventType:     PublishedName(r.Type),
		EventVersion:  r.SchemaVersion,
		Timestamp:     r.OccurredAt,
		AggregateID:   r.AggregateID.String(),
		CorrelationID: r.CorrelationID,
		Payload:       json.RawMessage(r.Data),
	}
}
