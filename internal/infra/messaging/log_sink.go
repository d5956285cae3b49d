package messaging

import (
	"context"
	"log/slog"

	"inventory-ledger/internal/domain/outbox"
)

// LogSink writes envelopes to the log instead of a broker, for local runs.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, e outbox.Entry) error {
	s.logger.InfoContext(ctx, "event published",
		"event_id", e.EventID,
		"event_type", e.EventType,
		"aggregate_id", e.AggregateID,
		"sequence", e.Sequence,
		"correlation_id", e.CorrelationID,
		"envelope", string(e.Payload),
	)
	return nil
}

func (s *LogSink) Close() error {
	return nil
}
