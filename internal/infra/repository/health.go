package repository

import (
	"context"
	"log/slog"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/infra"
	"inventory-ledger/internal/infra/db"
	"inventory-ledger/internal/usecase/shared"
)

// HealthRepository must be built on the pool, never on a transaction.
type HealthRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewHealthRepository(dbtx db.DBTX, logger *slog.Logger) *HealthRepository {
	return &HealthRepository{db: dbtx, logger: logger}
}

func (r *HealthRepository) MarkDegraded(ctx context.Context, h shared.AggregateHealth) error {
	_, err := r.db.Exec(ctx, `INSERT INTO aggregate_health (aggregate_id, reason, degraded_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (aggregate_id) DO NOTHING`,
		h.AggregateID.String(), h.Reason, h.DegradedAt)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to mark aggregate degraded", err)
	}
	return nil
}

func (r *HealthRepository) Get(ctx context.Context, id event.AggregateID) (*shared.AggregateHealth, error) {
	h := shared.AggregateHealth{AggregateID: id}
	err := r.db.QueryRow(ctx, `SELECT reason, degraded_at FROM aggregate_health WHERE aggregate_id = $1`, id.String()).
		Scan(&h.Reason, &h.DegradedAt)
	if err != nil {
		if infra.ClassifyPgErr(err) == infra.KindNotFound {
			return nil, nil
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to get aggregate health", err)
	}
	return &h, nil
}

func (r *HealthRepository) Clear(ctx context.Context, id event.AggregateID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM aggregate_health WHERE aggregate_id = $1`, id.String()); err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to clear aggregate health", err)
	}
	return nil
}
