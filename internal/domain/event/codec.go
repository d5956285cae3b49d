package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"inventory-ledger/internal/pkg/errs"
)

func Encode(e Event) (Record, error) {
	if e.Payload == nil {
		return Record{}, errs.Validation("event %s has no payload", e.ID)
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return Record{}, errs.Wrapf(err, "encode %s payload", e.Payload.EventType())
	}
	return Record{
		ID:            e.ID,
		AggregateID:   e.AggregateID,
		Sequence:      e.Sequence,
		Type:          e.Payload.EventType(),
		SchemaVersion: e.SchemaVersion,
		Data:          data,
		Checksum:      Checksum(data),
		OccurredAt:    e.OccurredAt,
		CorrelationID: e.CorrelationID,
	}, nil
}

func EncodeAll(events []Event) ([]Record, error) {
	records := make([]Record, 0, len(events))
	for _, e := range events {
		r, err := Encode(e)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// Decode verifies the checksum and schema version before unmarshalling the payload.
func Decode(r Record) (Event, error) {
	if r.Checksum != Checksum(r.Data) {
		return Event{}, errs.Corruption("checksum mismatch for event %s (%s #%d)", r.ID, r.AggregateID, r.Sequence)
	}
	if r.SchemaVersion < 1 || r.SchemaVersion > CurrentSchemaVersion {
		return Event{}, errs.Corruption("unsupported schema version %d for event %s", r.SchemaVersion, r.ID)
	}

	payload, err := decodePayload(r.Type, r.Data)
	if err != nil {
		return Event{}, errs.Mark(errs.Wrapf(err, "decode event %s (%s #%d)", r.ID, r.AggregateID, r.Sequence), errs.ErrCorruption)
	}

	return Event{
		ID:            r.ID,
		AggregateID:   r.AggregateID,
		Sequence:      r.Sequence,
		SchemaVersion: r.SchemaVersion,
		OccurredAt:    r.OccurredAt,
		CorrelationID: r.CorrelationID,
		Payload:       payload,
	}, nil
}

func decodePayload(t Type, data []byte) (Payload, error) {
	switch t {
	case TypeStockItemCreated:
		return unmarshal[StockItemCreated](data)
	case TypeStockReserved:
		return unmarshal[StockReserved](data)
	case TypeStockReleased:
		return unmarshal[StockReleased](data)
	case TypeStockConfirmed:
		return unmarshal[StockConfirmed](data)
	case TypeStockAdjusted:
		return unmarshal[StockAdjusted](data)
	case TypeStockStatusChanged:
		return unmarshal[StockStatusChanged](data)
	case TypeReservationCreated:
		return unmarshal[ReservationCreated](data)
	case TypeReservationConfirmed:
		return unmarshal[ReservationConfirmed](data)
	case TypeReservationReleased:
		return unmarshal[ReservationReleased](data)
	case TypeReservationExpired:
		return unmarshal[ReservationExpired](data)
	case TypeReservationFailed:
		return unmarshal[ReservationFailed](data)
	default:
		return nil, errs.Newf("unknown event type %q", t)
	}
}

func unmarshal[P Payload](data []byte) (Payload, error) {
	var p P
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
