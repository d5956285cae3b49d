package messaging

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/pkg/correlation"
	"inventory-ledger/internal/pkg/errs"

	retry "github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const HeaderMessageID = "message-id"

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Errors that no amount of retrying will clear. A message failing with one of them is
// logged and committed so the partition keeps moving.
var permanentErrors = []error{
	errs.ErrValidation,
	errs.ErrNotFound,
	errs.ErrInsufficientStock,
	errs.ErrNegativeStock,
	errs.ErrCorruption,
	errs.ErrAggregateDegraded,
}

func isPermanent(err error) bool {
	for _, target := range permanentErrors {
		if errs.Is(err, target) {
			return true
		}
	}
	return false
}

func NewKafkaReader(cfg config.KafkaConfig, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   topic,
		GroupID: cfg.ConsumerGroup,
	})
}

// groupConsumer handles messages one at a time and commits each offset only after the
// message was applied or discarded.
type groupConsumer struct {
	name     string
	reader   MessageReader
	seen     *lru.Cache[string, struct{}]
	logger   *slog.Logger
	maxDelay time.Duration
}

type messageHandler func(ctx context.Context, msg kafka.Message, id string) error

func newGroupConsumer(name string, reader MessageReader, logger *slog.Logger, dedupSize int) (groupConsumer, error) {
	seen, err := lru.New[string, struct{}](max(dedupSize, 1))
	if err != nil {
		return groupConsumer{}, errs.Wrapf(err, "create %s dedup cache", name)
	}
	return groupConsumer{
		name:     name,
		reader:   reader,
		seen:     seen,
		logger:   logger,
		maxDelay: 30 * time.Second,
	}, nil
}

func (c *groupConsumer) run(ctx context.Context, handle messageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errs.Wrapf(err, "fetch %s message", c.name)
		}

		msgCtx, id := messageContext(ctx, msg)
		if c.seen.Contains(id) {
			c.logger.Debug("skipping duplicate message", "consumer", c.name, "message_id", id)
		} else {
			if err := handle(msgCtx, msg, id); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			c.seen.Add(id, struct{}{})
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errs.Wrapf(err, "commit %s message", c.name)
		}
	}
}

// apply retries fn with exponential backoff until it succeeds, fails permanently or ctx is done.
// A permanent failure is logged and reported as applied=false with a nil error.
func (c *groupConsumer) apply(ctx context.Context, id string, fn func() error) (bool, error) {
	policy := retry.NewExponentialBackOff()
	policy.MaxInterval = c.maxDelay
	policy.MaxElapsedTime = 0

	err := retry.RetryNotify(func() error {
		err := fn()
		if isPermanent(err) {
			return retry.Permanent(err)
		}
		return err
	}, retry.WithContext(policy, ctx), func(err error, wait time.Duration) {
		c.logger.Warn("message handling failed, retrying", "consumer", c.name, "message_id", id, "wait", wait, "error", err.Error())
	})
	switch {
	case err == nil:
		return true, nil
	case isPermanent(err):
		level := slog.LevelError
		if errs.Is(err, errs.ErrValidation) || errs.Is(err, errs.ErrInsufficientStock) {
			level = slog.LevelWarn
		}
		c.logger.Log(ctx, level, "discarding message", "consumer", c.name, "message_id", id, "error", err.Error())
		return false, nil
	default:
		return false, errs.Wrapf(err, "handle %s message %s", c.name, id)
	}
}

func (c *groupConsumer) Close() error {
	return c.reader.Close()
}

// messageContext restores trace context and correlation id from the message headers.
func messageContext(ctx context.Context, msg kafka.Message) (context.Context, string) {
	carrier := propagation.MapCarrier{}
	for _, h := range msg.Headers {
		carrier[h.Key] = string(h.Value)
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)
	ctx = correlation.WithID(ctx, carrier[HeaderCorrelationID])
	ctx, _ = correlation.Ensure(ctx)

	if id := carrier[HeaderMessageID]; id != "" {
		return ctx, id
	}
	return ctx, msg.Topic + "/" + strconv.Itoa(msg.Partition) + "/" + strconv.FormatInt(msg.Offset, 10)
}
