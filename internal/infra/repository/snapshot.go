package repository

import (
	"context"
	"log/slog"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/infra"
	"inventory-ledger/internal/infra/db"
	"inventory-ledger/internal/usecase/shared"
)

type SnapshotRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewSnapshotRepository(dbtx db.DBTX, logger *slog.Logger) *SnapshotRepository {
	return &SnapshotRepository{db: dbtx, logger: logger}
}

func (r *SnapshotRepository) Get(ctx context.Context, id event.AggregateID) (*shared.Snapshot, error) {
	var (
		s     shared.Snapshot
		state string
	)
	err := r.db.QueryRow(ctx, `SELECT sequence_number, state, taken_at FROM snapshots WHERE aggregate_id = $1`, id.String()).
		Scan(&s.Sequence, &state, &s.TakenAt)
	if err != nil {
		if infra.ClassifyPgErr(err) == infra.KindNotFound {
			return nil, nil
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to get snapshot", err)
	}
	s.AggregateID = id
	s.State = []byte(state)
	return &s, nil
}

func (r *SnapshotRepository) Save(ctx context.Context, s shared.Snapshot) error {
	_, err := r.db.Exec(ctx, `INSERT INTO snapshots (aggregate_id, sequence_number, state, taken_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (aggregate_id) DO UPDATE
		SET sequence_number = EXCLUDED.sequence_number, state = EXCLUDED.state, taken_at = EXCLUDED.taken_at
		WHERE snapshots.sequence_number < EXCLUDED.sequence_number`,
		s.AggregateID.String(), s.Sequence, string(s.State), s.TakenAt)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to save snapshot", err)
	}
	return nil
}
