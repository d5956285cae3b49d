package api

import (
	"net/http"

	"inventory-ledger/internal/domain/stock"
	resdto "inventory-ledger/internal/handler/dto/response"
	"inventory-ledger/internal/handler/httperr"
	"inventory-ledger/internal/pkg/errs"
	"inventory-ledger/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

// abortWithUseCaseError maps the error taxonomy to a status; msg is used only for unexpected failures.
func abortWithUseCaseError(c *gin.Context, err error, msg string) {
	var insufficient *stock.InsufficientStockError
	var line *commands.LineError
	switch {
	case errs.As(err, &insufficient):
		httperr.AbortWithError(c, http.StatusConflict, err, "Insufficient stock", resdto.InsufficientStockResponse{
			WarehouseID: insufficient.Key.WarehouseID,
			ItemID:      insufficient.Key.ItemID,
			Requested:   insufficient.Requested,
			Available:   insufficient.Available,
		})
	case errs.Is(err, errs.ErrNegativeStock):
		httperr.AbortWithError(c, http.StatusConflict, err, "Adjustment would make stock negative", nil)
	case errs.As(err, &line) && errs.Is(err, errs.ErrNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Stock item not found", gin.H{
			"warehouseId": line.Key.WarehouseID,
			"itemId":      line.Key.ItemID,
		})
	case errs.Is(err, errs.ErrNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Not found", nil)
	case errs.Is(err, errs.ErrValidation):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, validationMessage(err), nil)
	case errs.Is(err, errs.ErrConcurrencyConflict):
		httperr.AbortWithError(c, http.StatusServiceUnavailable, err, "Too much contention, retry later", nil)
	case errs.Is(err, errs.ErrCorruption), errs.Is(err, errs.ErrAggregateDegraded):
		httperr.AbortWithError(c, http.StatusLocked, err, "Aggregate is degraded and needs reconciliation", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, msg, nil)
	}
}

func validationMessage(err error) string {
	var line *commands.LineError
	if errs.As(err, &line) {
		return line.Error()
	}
	return err.Error()
}
