package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"inventory-ledger/internal/domain/reservation"
	"inventory-ledger/internal/infra"
	"inventory-ledger/internal/infra/converter"
	"inventory-ledger/internal/infra/db"
	"inventory-ledger/internal/usecase/readmodel"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ReservationRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewReservationRepository(dbtx db.DBTX, logger *slog.Logger) *ReservationRepository {
	return &ReservationRepository{db: dbtx, logger: logger}
}

// Save is version-conditioned like StockItemRepository.Save. A second open reservation for
// the same order violates uq_reservations_open_order and is reported as a version conflict.
func (r *ReservationRepository) Save(ctx context.Context, s reservation.State, expectedVersion int64) error {
	lines, err := json.Marshal(s.Lines)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to encode reservation lines", err)
	}
	var failure []byte
	if s.Failure != nil {
		if failure, err = json.Marshal(s.Failure); err != nil {
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to encode reservation failure", err)
		}
	}

	if expectedVersion == 0 {
		_, err = r.db.Exec(ctx, `INSERT INTO reservations (
				id, order_id, status, lines, expires_at, failure, version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			s.ID, s.OrderID, s.Status.String(), string(lines), s.ExpiresAt, nullableJSON(failure), s.Version, s.CreatedAt, s.UpdatedAt)
		if err != nil {
			if infra.ClassifyPgErr(err) == infra.KindDuplicateKey {
				return infra.WrapRepoErr(r.logger, infra.KindVersionConflict, "reservation conflicts with an open reservation", err)
			}
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to insert reservation", err)
		}
		return nil
	}

	tag, err := r.db.Exec(ctx, `UPDATE reservations
		SET status = $2, version = $3, updated_at = $4
		WHERE id = $1 AND version = $5`,
		s.ID, s.Status.String(), s.Version, s.UpdatedAt, expectedVersion)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to update reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindVersionConflict, "reservation moved past expected version", nil)
	}
	return nil
}

func (r *ReservationRepository) FindOpenByOrder(ctx context.Context, orderID string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT id FROM reservations
		WHERE order_id = $1 AND status IN ('PENDING', 'CONFIRMED')`, orderID).Scan(&id)
	if err != nil {
		if infra.ClassifyPgErr(err) == infra.KindNotFound {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find reservation by order", err)
	}
	return id, true, nil
}

func (r *ReservationRepository) Get(ctx context.Context, id uuid.UUID) (*readmodel.ReservationRM, error) {
	var (
		s       reservation.State
		status  string
		lines   []byte
		failure []byte
	)
	err := r.db.QueryRow(ctx, `SELECT id, order_id, status, lines, expires_at, failure, version, created_at, updated_at
		FROM reservations WHERE id = $1`, id).
		Scan(&s.ID, &s.OrderID, &status, &lines, &s.ExpiresAt, &failure, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if infra.ClassifyPgErr(err) == infra.KindNotFound {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to get reservation", err)
	}
	s.Status = reservation.Status(status)
	if err := json.Unmarshal(lines, &s.Lines); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to decode reservation lines", err)
	}
	if len(failure) > 0 {
		s.Failure = &reservation.FailureState{}
		if err := json.Unmarshal(failure, s.Failure); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to decode reservation failure", err)
		}
	}
	s.ExpiresAt, s.CreatedAt, s.UpdatedAt = s.ExpiresAt.UTC(), s.CreatedAt.UTC(), s.UpdatedAt.UTC()
	rm := converter.ReservationToRM(s)
	return &rm, nil
}

func (r *ReservationRepository) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM reservations
		WHERE status = 'PENDING' AND expires_at < $1
		ORDER BY expires_at
		LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to list expired reservations", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan expired reservations", err)
	}
	return ids, nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

