package bootstrap

import (
	"context"
	"log/slog"

	"inventory-ledger/internal/infra/messaging"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/usecase/eventstore"
	"inventory-ledger/internal/usecase/projector"
	"inventory-ledger/internal/usecase/publisher"
	"inventory-ledger/internal/usecase/scheduler"

	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

var WorkerModule = fx.Module("workers",
	fx.Invoke(StartWorkers),
)

type Workers struct {
	fx.In

	Config    config.Config
	Logger    *slog.Logger
	Events    *eventstore.Store
	Publisher *publisher.Publisher
	Projector *projector.HistoryProjector
	Sweeper   *scheduler.ExpirySweeper
	Catalog   *messaging.CatalogConsumer
	Orders    *messaging.OrderConsumer
}

// StartWorkers runs the background loops for the lifetime of the application.
func StartWorkers(lc fx.Lifecycle, shutdowner fx.Shutdowner, w Workers) {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			run := func(name string, fn func(context.Context) error) {
				g.Go(func() error {
					w.Logger.Info("worker started", "worker", name)
					err := fn(gctx)
					if err != nil && gctx.Err() == nil {
						w.Logger.Error("worker stopped", "worker", name, "error", err.Error())
						_ = shutdowner.Shutdown(fx.ExitCode(1))
					}
					return err
				})
			}

			run("outbox-publisher", w.Publisher.Run)
			if w.Config.Projector.Enabled {
				run("history-projector", w.Projector.Run)
			}
			if w.Config.Expiry.Enabled {
				run("expiry-sweeper", w.Sweeper.Run)
			}
			if w.Catalog != nil {
				run("catalog-consumer", w.Catalog.Run)
			}
			if w.Orders != nil {
				run("order-consumer", w.Orders.Run)
			}
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			if err := g.Wait(); err != nil && ctx.Err() == nil {
				return err
			}
			return w.Events.Close(stopCtx)
		},
	})
}
