package repository

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"inventory-ledger/internal/infra"
	"inventory-ledger/internal/infra/db"
	"inventory-ledger/internal/pkg/pgconv"
	"inventory-ledger/internal/usecase/readmodel"
	"inventory-ledger/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type HistoryRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewHistoryRepository(dbtx db.DBTX, logger *slog.Logger) *HistoryRepository {
	return &HistoryRepository{db: dbtx, logger: logger}
}

func (r *HistoryRepository) Upsert(ctx context.Context, entries []readmodel.HistoryEntryRM) error {
	for _, e := range entries {
		_, err := r.db.Exec(ctx, `INSERT INTO history_entries (
				event_id, aggregate_id, aggregate_type, sequence_number, warehouse_id, item_id, reservation_id,
				order_id, event_type, quantity_delta, reserved_delta, details, occurred_at, correlation_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (event_id) DO NOTHING`,
			e.EventID, e.AggregateID, e.AggregateType, e.Sequence, e.WarehouseID, e.ItemID, pgconv.UUIDPtrToPgtype(e.ReservationID),
			e.OrderID, e.EventType, e.QuantityDelta, e.ReservedDelta, nullableJSON(e.Details), e.OccurredAt, e.CorrelationID)
		if err != nil {
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to upsert history entry", err)
		}
	}
	return nil
}

func (r *HistoryRepository) List(ctx context.Context, f shared.HistoryFilter) ([]readmodel.HistoryEntryRM, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.ReservationID != nil {
		conds = append(conds, "reservation_id = "+arg(*f.ReservationID))
	} else {
		conds = append(conds, "aggregate_id = "+arg(f.AggregateID.String()))
	}
	if f.From != nil {
		conds = append(conds, "occurred_at >= "+arg(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "occurred_at < "+arg(*f.To))
	}
	if len(f.EventTypes) > 0 {
		conds = append(conds, "event_type = ANY("+arg(f.EventTypes)+")")
	}
	if f.AfterTime != nil && f.AfterID != nil {
		conds = append(conds, "(occurred_at, event_id) > ("+arg(*f.AfterTime)+", "+arg(*f.AfterID)+")")
	}
	query := `SELECT event_id, aggregate_id, aggregate_type, sequence_number, warehouse_id, item_id, reservation_id,
			order_id, event_type, quantity_delta, reserved_delta, details, occurred_at, correlation_id
		FROM history_entries
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY occurred_at, event_id
		LIMIT ` + arg(f.Limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to list history", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (readmodel.HistoryEntryRM, error) {
		var (
			e             readmodel.HistoryEntryRM
			reservationID pgtype.UUID
			details       []byte
		)
		err := row.Scan(&e.EventID, &e.AggregateID, &e.AggregateType, &e.Sequence, &e.WarehouseID, &e.ItemID, &reservationID,
			&e.OrderID, &e.EventType, &e.QuantityDelta, &e.ReservedDelta, &details, &e.OccurredAt, &e.CorrelationID)
		e.ReservationID = pgconv.UUIDPtrFromPgtype(reservationID)
		e.Details = details
		e.OccurredAt = e.OccurredAt.UTC()
		return e, err
	})
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan history", err)
	}
	return entries, nil
}
