package readmodel

import "time"

type StockItemRM struct {
	WarehouseID       string    `json:"warehouse_id"`
	ItemID            string    `json:"item_id"`
	SKU               string    `json:"sku,omitempty"`
	OnHand            int64     `json:"on_hand"`
	Reserved          int64     `json:"reserved"`
	Available         int64     `json:"available"`
	LowStockThreshold int64     `json:"low_stock_threshold"`
	Status            string    `json:"status"`
	Version           int64     `json:"version"`
	UpdatedAt         time.Time `json:"updated_at"`
}
