package converter

import (
	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/usecase/readmodel"
)

func StockItemToRM(s stock.State) readmodel.StockItemRM {
	return readmodel.StockItemRM{
		WarehouseID:       s.WarehouseID,
		ItemID:            s.ItemID,
		SKU:               s.SKU,
		OnHand:            s.OnHand,
		Reserved:          s.Reserved,
		Available:         s.OnHand - s.Reserved,
		LowStockThreshold: s.LowStockThreshold,
		Status:            s.Status.String(),
		Version:           s.Version,
		UpdatedAt:         s.UpdatedAt,
	}
}
