package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/usecase/readmodel"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "inventory:stock:"

// RedisCache shares availability reads across instances. Redis failures degrade to cache misses.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key stock.Key) (*readmodel.StockItemRM, bool) {
	raw, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("availability cache read failed", "key", key.String(), "error", err.Error())
		}
		return nil, false
	}

	var item readmodel.StockItemRM
	if err := json.Unmarshal(raw, &item); err != nil {
		c.logger.Warn("dropping unreadable availability cache entry", "key", key.String(), "error", err.Error())
		c.Invalidate(ctx, key)
		return nil, false
	}
	return &item, true
}

func (c *RedisCache) Set(ctx context.Context, item readmodel.StockItemRM) {
	key := stock.Key{WarehouseID: item.WarehouseID, ItemID: item.ItemID}
	raw, err := json.Marshal(item)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKey(key), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("availability cache write failed", "key", key.String(), "error", err.Error())
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, keys ...stock.Key) {
	if len(keys) == 0 {
		return
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = redisKey(k)
	}
	if err := c.client.Del(ctx, names...).Err(); err != nil {
		c.logger.Warn("availability cache invalidation failed", "keys", names, "error", err.Error())
	}
}

func redisKey(k stock.Key) string {
	return keyPrefix + k.String()
}
