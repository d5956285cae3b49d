package queries

//go:generate mockgen -destination=../../../tests/mock/queries/mock_queries.go -package=queriesmock inventory-ledger/internal/usecase/queries StockQueries,ReservationQueries,HistoryQueries

import (
	"context"

	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/usecase/readmodel"
	"inventory-ledger/internal/usecase/shared"
)

type StockQueries interface {
	Get(ctx context.Context, warehouseID, itemID string) (*readmodel.StockItemRM, error)
}

type stockQueriesImpl struct {
	repo  shared.StockItemReader
	cache shared.AvailabilityCache
}

// NewStockQueries reads through cache when it is not nil.
func NewStockQueries(repo shared.StockItemReader, cache shared.AvailabilityCache) StockQueries {
	return &stockQueriesImpl{repo: repo, cache: cache}
}

func (q *stockQueriesImpl) Get(ctx context.Context, warehouseID, itemID string) (*readmodel.StockItemRM, error) {
	key, err := stock.NewKey(warehouseID, itemID)
	if err != nil {
		return nil, err
	}
	if q.cache != nil {
		if rm, ok := q.cache.Get(ctx, key); ok {
			return rm, nil
		}
	}

	rm, err := q.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if q.cache != nil {
		q.cache.Set(ctx, *rm)
	}
	return rm, nil
}
