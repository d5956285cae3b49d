package readmodel

import (
	"time"

	"github.com/google/uuid"
)

type DeadLetterRM struct {
	ID          uuid.UUID `json:"id"`
	EventID     uuid.UUID `json:"event_id"`
	AggregateID string    `json:"aggregate_id"`
	Sequence    int64     `json:"sequence"`
	EventType   string    `json:"event_type"`
	Attempts    int       `json:"attempts"`
	LastError   string    `json:"last_error"`
	CreatedAt   time.Time `json:"created_at"`
}
