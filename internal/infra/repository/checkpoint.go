package repository

import (
	"context"
	"log/slog"
	"strconv"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/infra"
	"inventory-ledger/internal/infra/db"
)

type CheckpointRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewCheckpointRepository(dbtx db.DBTX, logger *slog.Logger) *CheckpointRepository {
	return &CheckpointRepository{db: dbtx, logger: logger}
}

func (r *CheckpointRepository) Load(ctx context.Context, name string) (event.Position, error) {
	var (
		txID string
		pos  event.Position
	)
	err := r.db.QueryRow(ctx, `SELECT transaction_id::text, position FROM projector_checkpoints WHERE name = $1`, name).
		Scan(&txID, &pos.Offset)
	if err != nil {
		if infra.ClassifyPgErr(err) == infra.KindNotFound {
			return event.Position{}, nil
		}
		return event.Position{}, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to load checkpoint", err)
	}
	if pos.TxID, err = strconv.ParseUint(txID, 10, 64); err != nil {
		return event.Position{}, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to parse checkpoint", err)
	}
	return pos, nil
}

func (r *CheckpointRepository) Save(ctx context.Context, name string, pos event.Position) error {
	_, err := r.db.Exec(ctx, `INSERT INTO projector_checkpoints (name, transaction_id, position, updated_at)
		VALUES ($1, $2::text::xid8, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET transaction_id = EXCLUDED.transaction_id, position = EXCLUDED.position, updated_at = now()`,
		name, strconv.FormatUint(pos.TxID, 10), pos.Offset)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to save checkpoint", err)
	}
	return nil
}
