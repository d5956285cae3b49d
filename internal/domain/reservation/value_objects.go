package reservation

import (
	"sort"
	"strings"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/pkg/errs"
)

const maxOrderIDLength = 128

// Line is one (item, warehouse, quantity) request of a reservation.
type Line struct {
	Key      stock.Key
	Quantity int64
}

func NewLine(warehouseID, itemID string, quantity int64) (Line, error) {
	key, err := stock.NewKey(warehouseID, itemID)
	if err != nil {
		return Line{}, err
	}
	if quantity <= 0 {
		return Line{}, errs.Validation("quantity for %s must be positive, got %d", key, quantity)
	}
	return Line{Key: key, Quantity: quantity}, nil
}

func LineFromEvent(l event.ReservationLine) (Line, error) {
	return NewLine(l.WarehouseID, l.ItemID, l.Quantity)
}

func (l Line) ToEvent() event.ReservationLine {
	return event.ReservationLine{ItemID: l.Key.ItemID, WarehouseID: l.Key.WarehouseID, Quantity: l.Quantity}
}

// NormalizeLines merges lines for the same stock item and sorts the result by
// (warehouseId, itemId), the order in which stock items are touched.
func NormalizeLines(lines []Line, maxLines int) ([]Line, error) {
	if len(lines) == 0 {
		return nil, errs.Validation("at least one line is required")
	}
	if maxLines > 0 && len(lines) > maxLines {
		return nil, errs.Validation("at most %d lines are allowed, got %d", maxLines, len(lines))
	}

	merged := make(map[stock.Key]int64, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, errs.Validation("quantity for %s must be positive, got %d", l.Key, l.Quantity)
		}
		merged[l.Key] += l.Quantity
	}

	out := make([]Line, 0, len(merged))
	for key, qty := range merged {
		out = append(out, Line{Key: key, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out, nil
}

func ValidateOrderID(orderID string) (string, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return "", errs.Validation("orderId is required")
	}
	if len(orderID) > maxOrderIDLength {
		return "", errs.Validation("orderId exceeds %d characters", maxOrderIDLength)
	}
	return orderID, nil
}

func toEventLines(lines []Line) []event.ReservationLine {
	out := make([]event.ReservationLine, len(lines))
	for i, l := range lines {
		out[i] = l.ToEvent()
	}
	return out
}

func fromEventLines(lines []event.ReservationLine) ([]Line, error) {
	out := make([]Line, len(lines))
	for i, l := range lines {
		line, err := LineFromEvent(l)
		if err != nil {
			return nil, err
		}
		out[i] = line
	}
	return out, nil
}
