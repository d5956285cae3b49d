package response

import (
	"inventory-ledger/internal/usecase/commands"
)

type CatalogResultResponse struct {
	Action string             `json:"action"`
	Item   *StockItemResponse `json:"item,omitempty"`
}

func FromCatalogResult(r *commands.CatalogResult) *CatalogResultResponse {
	res := &CatalogResultResponse{Action: string(r.Action)}
	if r.Item != nil {
		res.Item = FromStockState(*r.Item)
	}
	return res
}
