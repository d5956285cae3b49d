package repository

import (
	"context"
	"log/slog"
	"time"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/outbox"
	"inventory-ledger/internal/infra"
	"inventory-ledger/internal/infra/db"
	"inventory-ledger/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const outboxColumns = `id, event_id, aggregate_id, sequence_number, shard, event_type, payload, correlation_id,
	status, attempts, next_retry_at, last_error, created_at, published_at`

type OutboxRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewOutboxRepository(dbtx db.DBTX, logger *slog.Logger) *OutboxRepository {
	return &OutboxRepository{db: dbtx, logger: logger}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, entries []outbox.Entry) error {
	for _, e := range entries {
		_, err := r.db.Exec(ctx, `INSERT INTO outbox (
				id, event_id, aggregate_id, sequence_number, shard, event_type, payload, correlation_id,
				status, attempts, next_retry_at, last_error, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			e.ID, e.EventID, e.AggregateID.String(), e.Sequence, e.Shard, e.EventType, string(e.Payload), e.CorrelationID,
			e.Status.String(), e.Attempts, e.NextRetryAt, e.LastError, e.CreatedAt)
		if err != nil {
			return infra.WrapRepoErr(r.logger, infra.ClassifyPgErr(err), "failed to enqueue outbox entry", err)
		}
	}
	return nil
}

func (r *OutboxRepository) FetchDue(ctx context.Context, shards []int, now time.Time, limit int) ([]outbox.Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+outboxColumns+`
		FROM outbox o
		WHERE o.status = 'PENDING'
		  AND o.shard = ANY($1)
		  AND o.next_retry_at <= $2
		  AND NOT EXISTS (
			SELECT 1 FROM outbox p
			WHERE p.aggregate_id = o.aggregate_id
			  AND p.status = 'PENDING'
			  AND p.sequence_number < o.sequence_number
			  AND p.next_retry_at > $2
		  )
		ORDER BY o.aggregate_id, o.sequence_number
		LIMIT $3`, shards, now, limit)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to fetch due outbox entries", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan outbox entries", err)
	}
	return entries, nil
}

func (r *OutboxRepository) Get(ctx context.Context, id uuid.UUID) (*outbox.Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+outboxColumns+` FROM outbox WHERE id = $1`, id)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to get outbox entry", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan outbox entry", err)
	}
	if len(entries) == 0 {
		return nil, outbox.ErrEntryNotFound
	}
	return &entries[0], nil
}

func (r *OutboxRepository) Update(ctx context.Context, e outbox.Entry) error {
	tag, err := r.db.Exec(ctx, `UPDATE outbox
		SET status = $2, attempts = $3, next_retry_at = $4, last_error = $5, published_at = $6
		WHERE id = $1`,
		e.ID, e.Status.String(), e.Attempts, e.NextRetryAt, e.LastError, pgconv.TimePtrToPgtype(e.PublishedAt))
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to update outbox entry", err)
	}
	if tag.RowsAffected() == 0 {
		return outbox.ErrEntryNotFound
	}
	return nil
}

func (r *OutboxRepository) ListDead(ctx context.Context, limit int) ([]outbox.Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+outboxColumns+`
		FROM outbox WHERE status = 'DEAD'
		ORDER BY aggregate_id, sequence_number
		LIMIT $1`, limit)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to list dead outbox entries", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan outbox entries", err)
	}
	return entries, nil
}

func collectEntries(rows pgx.Rows) ([]outbox.Entry, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (outbox.Entry, error) {
		var (
			e           outbox.Entry
			aggID       string
			payload     string
			status      string
			publishedAt pgtype.Timestamptz
		)
		err := row.Scan(&e.ID, &e.EventID, &aggID, &e.Sequence, &e.Shard, &e.EventType, &payload, &e.CorrelationID,
			&status, &e.Attempts, &e.NextRetryAt, &e.LastError, &e.CreatedAt, &publishedAt)
		if err != nil {
			return outbox.Entry{}, err
		}
		e.AggregateID = event.AggregateID(aggID)
		e.Payload = []byte(payload)
		e.Status = outbox.Status(status)
		e.PublishedAt = pgconv.TimePtrFromPgtype(publishedAt)
		return e, nil
	})
}
