package components

import (
	"inventory-ledger/internal/pkg/clock"
	"inventory-ledger/internal/usecase/commands"
	"inventory-ledger/internal/usecase/eventstore"
	"inventory-ledger/internal/usecase/projector"
	"inventory-ledger/internal/usecase/publisher"
	"inventory-ledger/internal/usecase/queries"
	"inventory-ledger/internal/usecase/scheduler"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
	usecaseWorkersModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	eventstore.NewStore,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewStockLedger,
		func(l *commands.StockLedger) commands.StockLedgerCommands { return l },
		commands.NewReservationManager,
		func(m *commands.ReservationManager) commands.ReservationCommands { return m },
		func(m *commands.ReservationManager) commands.OrderCommands { return m },
		func(m *commands.ReservationManager) scheduler.Expirer { return m },
		fx.Annotate(
			commands.NewCatalogSync,
			fx.As(new(commands.CatalogCommands)),
		),
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewStockQueries,
		queries.NewReservationQueries,
		queries.NewHistoryQueries,
	),
)

var usecaseWorkersModule = fx.Module("usecase/workers",
	fx.Provide(
		publisher.NewPublisher,
		func(p *publisher.Publisher) publisher.DeadLetterCommands { return p },
		projector.NewHistoryProjector,
		scheduler.NewExpirySweeper,
	),
)
