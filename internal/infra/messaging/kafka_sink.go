package messaging

import (
	"context"

	"inventory-ledger/internal/domain/outbox"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/pkg/correlation"
	"inventory-ledger/internal/pkg/errs"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderCorrelationID = "correlation-id"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes outbox entries keyed by aggregate id, so one aggregate always lands
// on one partition in sequence order.
type KafkaSink struct {
	writer MessageWriter
}

func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.EventsTopic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaSink(writer MessageWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

func (s *KafkaSink) Publish(ctx context.Context, e outbox.Entry) error {
	ctx = correlation.WithID(ctx, e.CorrelationID)
	msg := kafka.Message{
		Key:   []byte(e.AggregateID.String()),
		Value: e.Payload,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(e.EventID.String())},
			{Key: HeaderEventType, Value: []byte(e.EventType)},
			{Key: HeaderCorrelationID, Value: []byte(e.CorrelationID)},
		},
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return errs.Mark(errs.Wrapf(err, "write event %s to kafka", e.EventID), errs.ErrPublish)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
