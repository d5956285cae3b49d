package request

import (
	"inventory-ledger/internal/domain/stock"
)

type AdjustRequest struct {
	Delta  int64  `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required,oneof=RECEIPT RETURN DAMAGE CYCLE_COUNT CORRECTION"`
	Note   string `json:"note" binding:"max=500"`
}

func (r AdjustRequest) AdjustmentReason() stock.AdjustmentReason {
	return stock.AdjustmentReason(r.Reason)
}
