//go:build unit

package cache_test

import (
	"context"
	"testing"
	"time"

	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/infra/cache"
	"inventory-ledger/internal/usecase/readmodel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCache(t *testing.T) {
	ctx := context.Background()
	c := cache.NewLocalCache(8, time.Minute)
	key := stock.Key{WarehouseID: "main", ItemID: "sku-1"}

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	c.Set(ctx, readmodel.StockItemRM{WarehouseID: "main", ItemID: "sku-1", OnHand: 7, Available: 7})
	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, int64(7), got.Available)

	c.Invalidate(ctx, key, stock.Key{WarehouseID: "main", ItemID: "other"})
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
}
