package event

import (
	"time"

	"github.com/google/uuid"
)

const CurrentSchemaVersion = 1

// Event is a decoded domain event.
type Event struct {
	ID            uuid.UUID
	AggregateID   AggregateID
	Sequence      int64
	SchemaVersion int
	OccurredAt    time.Time
	CorrelationID string
	Payload       Payload
}

func (e Event) Type() Type {
	return e.Payload.EventType()
}

// Record is the persisted form of an Event. Immutable once appended.
type Record struct {
	ID            uuid.UUID
	AggregateID   AggregateID
	Sequence      int64
	Type          Type
	SchemaVersion int
	Data          []byte
	Checksum      string
	OccurredAt    time.Time
	CorrelationID string
	// assigned by the store on commit
	Position Position
}

// Metadata travels with every event appended in one operation.
type Metadata struct {
	CorrelationID string
	OccurredAt    time.Time
}

// New builds the next events of a stream starting after version.
func New(aggregateID AggregateID, version int64, meta Metadata, payloads ...Payload) []Event {
	events := make([]Event, 0, len(payloads))
	for i, p := range payloads {
		events = append(events, Event{
			ID:            newEventID(),
			AggregateID:   aggregateID,
			Sequence:      version + int64(i) + 1,
			SchemaVersion: CurrentSchemaVersion,
			OccurredAt:    meta.OccurredAt,
			CorrelationID: meta.CorrelationID,
			Payload:       p,
		})
	}
	return events
}

// Time-ordered ids keep (aggregateId, eventId) ordering aligned with sequence numbers.
func newEventID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
