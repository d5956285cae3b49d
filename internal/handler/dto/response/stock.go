package response

import (
	"time"

	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/usecase/readmodel"

	"github.com/jinzhu/copier"
)

type StockItemResponse struct {
	WarehouseID       string    `json:"warehouseId"`
	ItemID            string    `json:"itemId"`
	SKU               string    `json:"sku,omitempty"`
	OnHand            int64     `json:"onHand"`
	Reserved          int64     `json:"reserved"`
	Available         int64     `json:"available"`
	LowStockThreshold int64     `json:"lowStockThreshold"`
	Status            string    `json:"status"`
	Version           int64     `json:"version"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func FromStockItemRM(rm *readmodel.StockItemRM) (*StockItemResponse, error) {
	var res StockItemResponse
	if err := copier.Copy(&res, rm); err != nil {
		return nil, err
	}
	return &res, nil
}

func FromStockState(s stock.State) *StockItemResponse {
	return &StockItemResponse{
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

func FromStockStates(states []stock.State) []*StockItemResponse {
	res := make([]*StockItemResponse, len(states))
	for i, s := range states {
		res[i] = FromStockState(s)
	}
	return res
}
