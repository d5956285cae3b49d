package request

import (
	"inventory-ledger/internal/usecase/commands"
)

type CatalogNotificationRequest struct {
	Kind             string `json:"kind" binding:"required,oneof=CREATED UPDATED DELETED"`
	ProductVariantID string `json:"productVariantId" binding:"required"`
	WarehouseID      string `json:"warehouseId,omitempty"`
	SKU              string `json:"sku,omitempty"`
	InitialStock     *int64 `json:"initialStock,omitempty" binding:"omitempty,min=0"`
}

func (r CatalogNotificationRequest) ToNotification() commands.VariantNotification {
	return commands.VariantNotification{
		Kind:             commands.NotificationKind(r.Kind),
		ProductVariantID: r.ProductVariantID,
		WarehouseID:      r.WarehouseID,
		SKU:              r.SKU,
		InitialStock:     r.InitialStock,
	}
}
