package stock

import (
	"strings"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/pkg/errs"
)

const maxIDLength = 128

// Key identifies a stock item: one item in one warehouse.
type Key struct {
	WarehouseID string
	ItemID      string
}

func NewKey(warehouseID, itemID string) (Key, error) {
	warehouseID = strings.TrimSpace(warehouseID)
	itemID = strings.TrimSpace(itemID)
	if err := validateID("warehouseId", warehouseID); err != nil {
		return Key{}, err
	}
	if err := validateID("itemId", itemID); err != nil {
		return Key{}, err
	}
	return Key{WarehouseID: warehouseID, ItemID: itemID}, nil
}

func validateID(field, v string) error {
	switch {
	case v == "":
		return errs.Validation("%s is required", field)
	case len(v) > maxIDLength:
		return errs.Validation("%s exceeds %d characters", field, maxIDLength)
	case strings.Contains(v, "/"):
		return errs.Validation("%s must not contain '/'", field)
	}
	return nil
}

func (k Key) AggregateID() event.AggregateID {
	return event.StockItemID(k.WarehouseID, k.ItemID)
}

// Less orders keys by (warehouseId, itemId), the lock order for multi-item operations.
func (k Key) Less(other Key) bool {
	if k.WarehouseID != other.WarehouseID {
		return k.WarehouseID < other.WarehouseID
	}
	return k.ItemID < other.ItemID
}

func (k Key) String() string {
	return k.WarehouseID + "/" + k.ItemID
}
