package queries

import (
	"context"
	"time"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/pkg/errs"
	"inventory-ledger/internal/usecase/readmodel"
	"inventory-ledger/internal/usecase/shared"

	"github.com/google/uuid"
)

// HistoryParams narrows a history listing; From is inclusive and To exclusive.
type HistoryParams struct {
	From       *time.Time
	To         *time.Time
	EventTypes []string
	Cursor     *Cursor
	Limit      int
}

type HistoryQueries interface {
	ListByStockItem(ctx context.Context, warehouseID, itemID string, p HistoryParams) ([]readmodel.HistoryEntryRM, *Cursor, error)
	ListByReservation(ctx context.Context, id uuid.UUID, p HistoryParams) ([]readmodel.HistoryEntryRM, *Cursor, error)
}

type historyQueriesImpl struct {
	repo shared.HistoryStore
}

func NewHistoryQueries(repo shared.HistoryStore) HistoryQueries {
	return &historyQueriesImpl{repo: repo}
}

func (q *historyQueriesImpl) ListByStockItem(ctx context.Context, warehouseID, itemID string, p HistoryParams) ([]readmodel.HistoryEntryRM, *Cursor, error) {
	key, err := stock.NewKey(warehouseID, itemID)
	if err != nil {
		return nil, nil, err
	}
	return q.list(ctx, shared.HistoryFilter{AggregateID: key.AggregateID()}, p)
}

func (q *historyQueriesImpl) ListByReservation(ctx context.Context, id uuid.UUID, p HistoryParams) ([]readmodel.HistoryEntryRM, *Cursor, error) {
	return q.list(ctx, shared.HistoryFilter{ReservationID: &id}, p)
}

func (q *historyQueriesImpl) list(ctx context.Context, f shared.HistoryFilter, p HistoryParams) ([]readmodel.HistoryEntryRM, *Cursor, error) {
	if p.From != nil && p.To != nil && !p.From.Before(*p.To) {
		return nil, nil, errs.Validation("from must be before to")
	}
	for _, t := range p.EventTypes {
		if !event.Type(t).IsValid() {
			return nil, nil, errs.Validation("unknown event type %q", t)
		}
	}
	afterTime, afterID, err := p.Cursor.position()
	if err != nil {
		return nil, nil, err
	}

	limit := ValidateLimit(p.Limit)
	f.From, f.To, f.EventTypes = p.From, p.To, p.EventTypes
	f.AfterTime, f.AfterID = afterTime, afterID
	f.Limit = limit + 1
	rows, err := q.repo.List(ctx, f)
	if err != nil {
		return nil, nil, err
	}

	var next *Cursor
	if len(rows) > limit {
		last := rows[limit-1]
		next = &Cursor{After: EncodeAfterCursor(last.OccurredAt, last.EventID)}
		rows = rows[:limit]
	}
	return rows, next, nil
}
