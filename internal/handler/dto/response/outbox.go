package response

import (
	"time"

	"inventory-ledger/internal/usecase/readmodel"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type DeadLetterResponse struct {
	ID          uuid.UUID `json:"id"`
	EventID     uuid.UUID `json:"eventId"`
	AggregateID string    `json:"aggregateId"`
	Sequence    int64     `json:"sequence"`
	EventType   string    `json:"eventType"`
	Attempts    int       `json:"attempts"`
	LastError   string    `json:"lastError"`
	CreatedAt   time.Time `json:"createdAt"`
}

func FromDeadLetters(rms []readmodel.DeadLetterRM) ([]DeadLetterResponse, error) {
	res := make([]DeadLetterResponse, 0, len(rms))
	if err := copier.Copy(&res, &rms); err != nil {
		return nil, err
	}
	return res, nil
}
