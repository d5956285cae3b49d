package outbox

import (
	"encoding/json"
	"time"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/pkg/backoff"
	"inventory-ledger/internal/pkg/errs"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// ShardCount is the number of buckets aggregate ids are hashed into.
const ShardCount = 256

const maxErrorLength = 1024

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPublished Status = "PUBLISHED"
	StatusDead      Status = "DEAD"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPublished, StatusDead:
		return true
	default:
		return false
	}
}

var ErrEntryNotFound = errs.Mark(errs.New("outbox entry not found"), errs.ErrNotFound)

// Entry wraps one committed event until it is published or dead-lettered.
type Entry struct {
	ID            uuid.UUID
	EventID       uuid.UUID
	AggregateID   event.AggregateID
	Sequence      int64
	Shard         int
	EventType     string
	Payload       []byte
	CorrelationID string
	Status        Status
	Attempts      int
	NextRetryAt   time.Time
	LastError     string
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// NewEntry builds the pending entry of a record; the payload is the published envelope.
func NewEntry(r event.Record, now time.Time) (Entry, error) {
	env := event.NewEnvelope(r)
	payload, err := json.Marshal(env)
	if err != nil {
		return Entry{}, errs.Wrapf(err, "encode envelope of event %s", r.ID)
	}
	return Entry{
		ID:            uuid.New(),
		EventID:       r.ID,
		AggregateID:   r.AggregateID,
		Sequence:      r.Sequence,
		Shard:         ShardOf(r.AggregateID),
		EventType:     env.EventType,
		Payload:       payload,
		CorrelationID: r.CorrelationID,
		Status:        StatusPending,
		NextRetryAt:   now,
		CreatedAt:     now,
	}, nil
}

func ShardOf(id event.AggregateID) int {
	return int(xxhash.Sum64String(id.String()) % ShardCount)
}

func (e Entry) IsDue(now time.Time) bool {
	return e.Status == StatusPending && !e.NextRetryAt.After(now)
}

func (e *Entry) MarkPublished(now time.Time) {
	e.Status = StatusPublished
	e.Attempts++
	e.LastError = ""
	e.PublishedAt = &now
}

// MarkFailed counts the attempt and either schedules a retry or dead-letters the entry.
// It reports whether the entry is now DEAD.
func (e *Entry) MarkFailed(now time.Time, cause error, policy backoff.Policy, maxAttempts int) bool {
	e.Attempts++
	e.LastError = truncate(cause.Error(), maxErrorLength)
	if maxAttempts > 0 && e.Attempts >= maxAttempts {
		e.Status = StatusDead
		return true
	}
	e.NextRetryAt = now.Add(policy.Delay(e.Attempts - 1))
	return false
}

// Requeue moves a dead entry back to PENDING with a fresh attempt budget.
func (e *Entry) Requeue(now time.Time) error {
	if e.Status != StatusDead {
		return errs.Validation("outbox entry %s is %s, only DEAD entries can be requeued", e.ID, e.Status)
	}
	e.Status = StatusPending
	e.Attempts = 0
	e.NextRetryAt = now
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
