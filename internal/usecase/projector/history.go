package projector

import (
	"context"
	"log/slog"
	"time"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/pkg/errs"
	"inventory-ledger/internal/pkg/metrics"
	"inventory-ledger/internal/usecase/readmodel"
	"inventory-ledger/internal/usecase/shared"
)

// HistoryProjector folds the global event feed into the history view. It is restartable:
// entries are upserted by event id and the checkpoint only moves after they are stored.
type HistoryProjector struct {
	feed        shared.EventFeed
	checkpoints shared.CheckpointStore
	history     shared.HistoryStore
	cache       shared.AvailabilityCache
	logger      *slog.Logger
	metrics     *metrics.Metrics

	name     string
	batch    int
	interval time.Duration
}

func NewHistoryProjector(
	feed shared.EventFeed,
	checkpoints shared.CheckpointStore,
	history shared.HistoryStore,
	cache shared.AvailabilityCache,
	logger *slog.Logger,
	m *metrics.Metrics,
	cfg config.ProjectorConfig,
) *HistoryProjector {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 500
	}
	return &HistoryProjector{
		feed:        feed,
		checkpoints: checkpoints,
		history:     history,
		cache:       cache,
		logger:      logger,
		metrics:     m,
		name:        cfg.Name,
		batch:       batch,
		interval:    cfg.PollInterval,
	}
}

// Run polls until ctx is done. Full batches are drained without waiting for the next tick.
func (p *HistoryProjector) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		for {
			n, err := p.ProcessBatch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				p.logger.Error("history projection failed", "projector", p.name, "error", err.Error())
				break
			}
			if n < p.batch {
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

// ProcessBatch projects the next batch after the checkpoint and returns the number of
// records consumed.
func (p *HistoryProjector) ProcessBatch(ctx context.Context) (int, error) {
	pos, err := p.checkpoints.Load(ctx, p.name)
	if err != nil {
		return 0, errs.Wrap(err, "load checkpoint")
	}
	records, err := p.feed.ReadAfter(ctx, pos, p.batch)
	if err != nil {
		return 0, errs.Wrap(err, "read event feed")
	}
	if len(records) == 0 {
		return 0, nil
	}

	entries := make([]readmodel.HistoryEntryRM, 0, len(records))
	touched := make(map[stock.Key]struct{})
	for _, r := range records {
		e, err := event.Decode(r)
		if err != nil {
			// the owning aggregate is degraded on its next load; the feed must keep moving
			p.logger.Error("skipping undecodable event", "projector", p.name,
				"event_id", r.ID, "aggregate_id", r.AggregateID, "sequence", r.Sequence, "error", err.Error())
			continue
		}
		entry := Project(e, r.Data)
		entries = append(entries, entry)
		if entry.AggregateType == event.KindStockItem {
			touched[stock.Key{WarehouseID: entry.WarehouseID, ItemID: entry.ItemID}] = struct{}{}
		}
	}

	if err := p.history.Upsert(ctx, entries); err != nil {
		return 0, errs.Wrap(err, "store history entries")
	}
	last := records[len(records)-1].Position
	if err := p.checkpoints.Save(ctx, p.name, last); err != nil {
		return 0, errs.Wrap(err, "save checkpoint")
	}

	if p.cache != nil && len(touched) > 0 {
		keys := make([]stock.Key, 0, len(touched))
		for k := range touched {
			keys = append(keys, k)
		}
		p.cache.Invalidate(ctx, keys...)
	}
	p.metrics.Projected(len(entries))
	p.logger.Debug("history projected", "projector", p.name, "events", len(entries), "tx_id", last.TxID, "offset", last.Offset)
	return len(records), nil
}

// Project derives the history entry of one event; details carries the raw payload.
func Project(e event.Event, details []byte) readmodel.HistoryEntryRM {
	entry := readmodel.HistoryEntryRM{
		EventID:       e.ID,
		AggregateID:   e.AggregateID.String(),
		AggregateType: e.AggregateID.Kind(),
		Sequence:      e.Sequence,
		EventType:     e.Type().String(),
		Details:       details,
		OccurredAt:    e.OccurredAt.UTC(),
		CorrelationID: e.CorrelationID,
	}
	if wh, item, ok := e.AggregateID.StockItemKey(); ok {
		entry.WarehouseID, entry.ItemID = wh, item
	}
	if id, ok := e.AggregateID.ReservationUUID(); ok {
		entry.ReservationID = &id
	}

	switch p := e.Payload.(type) {
	case event.StockItemCreated:
		entry.QuantityDelta = p.InitialStock
	case event.StockReserved:
		entry.ReservationID = &p.ReservationID
		entry.ReservedDelta = p.Quantity
	case event.StockReleased:
		entry.ReservationID = &p.ReservationID
		entry.ReservedDelta = -p.Quantity
	case event.StockConfirmed:
		entry.ReservationID = &p.ReservationID
		entry.QuantityDelta = -p.Quantity
		entry.ReservedDelta = -p.Quantity
	case event.StockAdjusted:
		entry.QuantityDelta = p.Delta
	case event.StockStatusChanged:
	case event.ReservationCreated:
		entry.OrderID = p.OrderID
	case event.ReservationFailed:
		entry.OrderID = p.OrderID
	case event.ReservationConfirmed, event.ReservationReleased, event.ReservationExpired:
	}
	return entry
}
