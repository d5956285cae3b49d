package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"inventory-ledger/internal/infra/cache"
	"inventory-ledger/internal/infra/lease"
	"inventory-ledger/internal/infra/messaging"
	"inventory-ledger/internal/pkg/clock"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/usecase/commands"
	"inventory-ledger/internal/usecase/shared"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const localCacheSize = 10_000

var MessagingModule = fx.Module("messaging",
	fx.Provide(
		NewCoordination,
		NewSink,
		NewCatalogConsumer,
		NewOrderConsumer,
	),
)

// Coordination holds the cross-instance helpers, backed by Redis when configured.
type Coordination struct {
	fx.Out

	Lease shared.Lease
	Cache shared.AvailabilityCache
}

func NewCoordination(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, logger *slog.Logger) (Coordination, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("redis not configured; expiry lease and availability cache are process-local")
		return Coordination{
			Lease: lease.NewLocalLease(clk),
			Cache: cache.NewLocalCache(localCacheSize, cfg.Redis.CacheTTL),
		}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return Coordination{}, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return Coordination{
		Lease: lease.NewRedisLease(client),
		Cache: cache.NewRedisCache(client, cfg.Redis.CacheTTL, logger),
	}, nil
}

func NewSink(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) shared.Sink {
	var sink shared.Sink
	if cfg.Outbox.Sink == "kafka" {
		sink = messaging.NewKafkaSink(messaging.NewKafkaWriter(cfg.Kafka))
	} else {
		sink = messaging.NewLogSink(logger)
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return sink.Close()
		},
	})
	return sink
}

// NewCatalogConsumer returns nil when no brokers are configured.
func NewCatalogConsumer(lc fx.Lifecycle, cfg config.Config, handler commands.CatalogCommands, logger *slog.Logger) (*messaging.CatalogConsumer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	consumer, err := messaging.NewCatalogConsumer(messaging.NewKafkaReader(cfg.Kafka, cfg.Kafka.CatalogTopic), handler, logger, cfg.Catalog)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return consumer.Close()
		},
	})
	return consumer, nil
}

// NewOrderConsumer returns nil when no brokers are configured.
func NewOrderConsumer(lc fx.Lifecycle, cfg config.Config, orders commands.OrderCommands, logger *slog.Logger) (*messaging.OrderConsumer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	consumer, err := messaging.NewOrderConsumer(messaging.NewKafkaReader(cfg.Kafka, cfg.Kafka.OrderTopic), orders, logger, cfg.Catalog)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return consumer.Close()
		},
	})
	return consumer, nil
}
