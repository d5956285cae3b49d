package cache

import (
	"context"
	"time"

	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/usecase/readmodel"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type LocalCache struct {
	lru *expirable.LRU[stock.Key, readmodel.StockItemRM]
}

func NewLocalCache(size int, ttl time.Duration) *LocalCache {
	return &LocalCache{lru: expirable.NewLRU[stock.Key, readmodel.StockItemRM](max(size, 1), nil, ttl)}
}

func (c *LocalCache) Get(_ context.Context, key stock.Key) (*readmodel.StockItemRM, bool) {
	item, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return &item, true
}

func (c *LocalCache) Set(_ context.Context, item readmodel.StockItemRM) {
	c.lru.Add(stock.Key{WarehouseID: item.WarehouseID, ItemID: item.ItemID}, item)
}

func (c *LocalCache) Invalidate(_ context.Context, keys ...stock.Key) {
	for _, k := range keys {
		c.lru.Remove(k)
	}
}
