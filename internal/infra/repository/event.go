package repository

import (
	"context"
	"log/slog"
	"strconv"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/infra"
	"inventory-ledger/internal/infra/db"

	"github.com/jackc/pgx/v5"
)

const eventColumns = `aggregate_id, sequence_number, event_id, event_type, schema_version,
	data, checksum, occurred_at, correlation_id, transaction_id::text, position`

type EventRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewEventRepository(dbtx db.DBTX, logger *slog.Logger) *EventRepository {
	return &EventRepository{db: dbtx, logger: logger}
}

func (r *EventRepository) Load(ctx context.Context, id event.AggregateID, after int64) ([]event.Record, error) {
	rows, err := r.db.Query(ctx, `SELECT `+eventColumns+`
		FROM events
		WHERE aggregate_id = $1 AND sequence_number > $2
		ORDER BY sequence_number`, id.String(), after)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to load events", err)
	}
	records, err := collectRecords(rows)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan events", err)
	}
	return records, nil
}

func (r *EventRepository) Append(ctx context.Context, id event.AggregateID, expected int64, records []event.Record) error {
	var head int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) FROM events WHERE aggregate_id = $1`,
		id.String()).Scan(&head)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to read stream head", err)
	}
	if head != expected {
		return infra.WrapRepoErr(r.logger, infra.KindVersionConflict,
			"stream "+id.String()+" is at "+strconv.FormatInt(head, 10)+", expected "+strconv.FormatInt(expected, 10), nil)
	}

	for _, rec := range records {
		_, err := r.db.Exec(ctx, `INSERT INTO events (
				aggregate_id, sequence_number, event_id, event_type, schema_version,
				data, checksum, occurred_at, correlation_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			rec.AggregateID.String(), rec.Sequence, rec.ID, rec.Type.String(), rec.SchemaVersion,
			string(rec.Data), rec.Checksum, rec.OccurredAt, rec.CorrelationID)
		if err != nil {
			// a concurrent writer took the sequence number first
			if kind := infra.ClassifyPgErr(err); kind == infra.KindDuplicateKey {
				return infra.WrapRepoErr(r.logger, infra.KindVersionConflict, "failed to append event", err)
			}
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to append event", err)
		}
	}
	return nil
}

// EventFeedRepository reads the global feed. Only records of transactions older than every
// transaction still in flight are returned, so a checkpoint never skips a late commit.
type EventFeedRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewEventFeedRepository(dbtx db.DBTX, logger *slog.Logger) *EventFeedRepository {
	return &EventFeedRepository{db: dbtx, logger: logger}
}

func (r *EventFeedRepository) ReadAfter(ctx context.Context, after event.Position, limit int) ([]event.Record, error) {
	rows, err := r.db.Query(ctx, `SELECT `+eventColumns+`
		FROM events
		WHERE (transaction_id, position) > ($1::text::xid8, $2)
		  AND transaction_id < pg_snapshot_xmin(pg_current_snapshot())
		ORDER BY transaction_id, position
		LIMIT $3`, strconv.FormatUint(after.TxID, 10), after.Offset, limit)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to read event feed", err)
	}
	records, err := collectRecords(rows)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan event feed", err)
	}
	return records, nil
}

func collectRecords(rows pgx.Rows) ([]event.Record, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (event.Record, error) {
		var (
			rec       event.Record
			aggID     string
			eventType string
			data      string
			txID      string
		)
		err := row.Scan(&aggID, &rec.Sequence, &rec.ID, &eventType, &rec.SchemaVersion,
			&data, &rec.Checksum, &rec.OccurredAt, &rec.CorrelationID, &txID, &rec.Position.Offset)
		if err != nil {
			return event.Record{}, err
		}
		rec.AggregateID = event.AggregateID(aggID)
		rec.Type = event.Type(eventType)
		rec.Data = []byte(data)
		rec.OccurredAt = rec.OccurredAt.UTC()
		rec.Position.TxID, err = strconv.ParseUint(txID, 10, 64)
		if err != nil {
			return event.Record{}, err
		}
		return rec, nil
	})
}
