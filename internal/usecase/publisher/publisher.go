package publisher

//go:generate mockgen -source=publisher.go -destination=../../../tests/mock/publisher/mock_publisher.go -package=publishermock

import (
	"context"
	"log/slog"
	"time"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/outbox"
	"inventory-ledger/internal/pkg/backoff"
	"inventory-ledger/internal/pkg/clock"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/pkg/errs"
	"inventory-ledger/internal/pkg/metrics"
	"inventory-ledger/internal/usecase/readmodel"
	"inventory-ledger/internal/usecase/shared"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type DeadLetterCommands interface {
	ListDead(ctx context.Context, limit int) ([]readmodel.DeadLetterRM, error)
	Requeue(ctx context.Context, id uuid.UUID) error
}

// Publisher relays committed outbox entries to the sink. Delivery is at least once and
// ordered per aggregate; a failing entry holds back the later entries of its aggregate.
type Publisher struct {
	store   shared.OutboxStore
	sink    shared.Sink
	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics

	ring           *outbox.Ring
	nodes          []int
	policy         backoff.Policy
	maxAttempts    int
	batch          int
	interval       time.Duration
	publishTimeout time.Duration
}

func NewPublisher(
	store shared.OutboxStore,
	sink shared.Sink,
	clk clock.Clock,
	logger *slog.Logger,
	m *metrics.Metrics,
	cfg config.OutboxConfig,
) *Publisher {
	workers := max(cfg.Workers, 1)
	instances := max(cfg.InstanceCount, 1)

	nodes := make([]int, 0, workers)
	for w := 0; w < workers; w++ {
		nodes = append(nodes, cfg.InstanceIndex*workers+w)
	}
	return &Publisher{
		store:          store,
		sink:           sink,
		clock:          clk,
		logger:         logger,
		metrics:        m,
		ring:           outbox.NewRing(instances*workers, 0),
		nodes:          nodes,
		policy:         backoff.New(cfg.BaseBackoff, cfg.MaxBackoff),
		maxAttempts:    cfg.MaxAttempts,
		batch:          max(cfg.BatchSize, 1),
		interval:       cfg.PollInterval,
		publishTimeout: cfg.PublishTimeout,
	}
}

// Run starts one worker per ring node of this instance and blocks until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, node := range p.nodes {
		shards := p.ring.Shards(node)
		if len(shards) == 0 {
			continue
		}
		p.logger.Info("outbox worker started", "node", node, "shards", len(shards))
		g.Go(func() error {
			return p.work(ctx, node, shards)
		})
	}
	return g.Wait()
}

func (p *Publisher) work(ctx context.Context, node int, shards []int) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		for {
			fetched, settled, err := p.publishBatch(ctx, shards)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				p.logger.Error("outbox poll failed", "node", node, "error", err.Error())
				break
			}
			// wait for the next tick when the store stops recording outcomes
			if fetched < p.batch || settled == 0 {
				break
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// PublishDue publishes one batch of due entries from shards and returns how many were fetched.
func (p *Publisher) PublishDue(ctx context.Context, shards []int) (int, error) {
	fetched, _, err := p.publishBatch(ctx, shards)
	return fetched, err
}

// publishBatch also reports how many entries had their outcome recorded in the store.
func (p *Publisher) publishBatch(ctx context.Context, shards []int) (fetched, settled int, err error) {
	entries, err := p.store.FetchDue(ctx, shards, p.clock.Now(), p.batch)
	if err != nil {
		return 0, 0, errs.Wrap(err, "fetch due outbox entries")
	}

	blocked := make(map[event.AggregateID]struct{})
	for _, e := range entries {
		if _, ok := blocked[e.AggregateID]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return len(entries), settled, err
		}
		recorded, err := p.publish(ctx, e)
		if recorded {
			settled++
		}
		if err != nil {
			blocked[e.AggregateID] = struct{}{}
		}
	}
	return len(entries), settled, nil
}

// publish reports whether the outcome was recorded. Any error holds back the rest of the
// aggregate, including a successful publish that could not be recorded and will go out again.
func (p *Publisher) publish(ctx context.Context, e outbox.Entry) (bool, error) {
	pubCtx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	start := time.Now()
	err := p.sink.Publish(pubCtx, e)
	cancel()
	p.metrics.ObservePublish(time.Since(start))

	now := p.clock.Now()
	if err == nil {
		e.MarkPublished(now)
		p.metrics.OutboxResult("published")
		if uerr := p.store.Update(ctx, e); uerr != nil {
			p.logger.Warn("failed to record published outbox entry", "entry_id", e.ID, "error", uerr.Error())
			return false, errs.Wrap(uerr, "record published outbox entry")
		}
		return true, nil
	}

	dead := e.MarkFailed(now, err, p.policy, p.maxAttempts)
	recorded := true
	if uerr := p.store.Update(ctx, e); uerr != nil {
		recorded = false
		p.logger.Error("failed to record outbox failure", "entry_id", e.ID, "error", uerr.Error())
	}
	if dead {
		p.metrics.OutboxResult("dead")
		p.logger.Error("outbox entry dead-lettered",
			"entry_id", e.ID,
			"event_id", e.EventID,
			"aggregate_id", e.AggregateID,
			"sequence", e.Sequence,
			"attempts", e.Attempts,
			"error", e.LastError,
		)
	} else {
		p.metrics.OutboxResult("retry")
		p.logger.Warn("outbox publish failed",
			"entry_id", e.ID,
			"aggregate_id", e.AggregateID,
			"attempts", e.Attempts,
			"next_retry_at", e.NextRetryAt,
			"error", e.LastError,
		)
	}
	return recorded, errs.Mark(err, errs.ErrPublish)
}

func (p *Publisher) ListDead(ctx context.Context, limit int) ([]readmodel.DeadLetterRM, error) {
	entries, err := p.store.ListDead(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]readmodel.DeadLetterRM, 0, len(entries))
	for _, e := range entries {
		out = append(out, readmodel.DeadLetterRM{
			ID:          e.ID,
			EventID:     e.EventID,
			AggregateID: e.AggregateID.String(),
			Sequence:    e.Sequence,
			EventType:   e.EventType,
			Attempts:    e.Attempts,
			LastError:   e.LastError,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out, nil
}

// Requeue returns a DEAD entry to PENDING with a fresh attempt budget.
func (p *Publisher) Requeue(ctx context.Context, id uuid.UUID) error {
	e, err := p.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := e.Requeue(p.clock.Now()); err != nil {
		return err
	}
	if err := p.store.Update(ctx, *e); err != nil {
		return err
	}
	p.logger.Info("outbox entry requeued", "entry_id", id, "aggregate_id", e.AggregateID, "sequence", e.Sequence)
	return nil
}
