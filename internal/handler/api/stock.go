package api

import (
	"net/http"

	"inventory-ledger/internal/domain/stock"
	reqdto "inventory-ledger/internal/handler/dto/request"
	resdto "inventory-ledger/internal/handler/dto/response"
	"inventory-ledger/internal/handler/httperr"
	"inventory-ledger/internal/usecase/commands"
	"inventory-ledger/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	cmds    commands.StockLedgerCommands
	q       queries.StockQueries
	history queries.HistoryQueries
}

func NewStockHandler(cmds commands.StockLedgerCommands, q queries.StockQueries, history queries.HistoryQueries) *StockHandler {
	return &StockHandler{cmds: cmds, q: q, history: history}
}

// @Summary Get stock item
// @Description Current on-hand, reserved and available quantity of an item in a warehouse
// @Tags stock
// @Produce json
// @Param warehouseId path string true "Warehouse ID"
// @Param itemId path string true "Item ID"
// @Success 200 {object} resdto.StockItemResponse
// @Failure 404 {object} httperr.Response
// @Router /stock/{warehouseId}/{itemId} [get]
func (h *StockHandler) Get(c *gin.Context) {
	rm, err := h.q.Get(c.Request.Context(), c.Param("warehouseId"), c.Param("itemId"))
	if err != nil {
		abortWithUseCaseError(c, err, "Failed to load stock item")
		return
	}
	res, err := resdto.FromStockItemRM(rm)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Adjust stock
// @Description Apply a signed on-hand adjustment (receipt, return, damage, cycle count, correction)
// @Tags stock
// @Accept json
// @Produce json
// @Param warehouseId path string true "Warehouse ID"
// @Param itemId path string true "Item ID"
// @Param request body reqdto.AdjustRequest true "Adjustment"
// @Success 200 {object} resdto.StockItemResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 423 {object} httperr.Response
// @Router /stock/{warehouseId}/{itemId}/adjustments [post]
func (h *StockHandler) Adjust(c *gin.Context) {
	key, ok := stockKey(c)
	if !ok {
		return
	}
	var req reqdto.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	state, err := h.cmds.Adjust(c.Request.Context(), key, req.Delta, req.AdjustmentReason(), req.Note)
	if err != nil {
		abortWithUseCaseError(c, err, "Adjustment failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromStockState(*state))
}

// @Summary Reconcile stock item
// @Description Rebuild a degraded item from its event stream and clear the degraded mark
// @Tags stock
// @Produce json
// @Param warehouseId path string true "Warehouse ID"
// @Param itemId path string true "Item ID"
// @Success 200 {object} resdto.StockItemResponse
// @Failure 404 {object} httperr.Response
// @Failure 423 {object} httperr.Response
// @Router /stock/{warehouseId}/{itemId}/reconcile [post]
func (h *StockHandler) Reconcile(c *gin.Context) {
	key, ok := stockKey(c)
	if !ok {
		return
	}
	state, err := h.cmds.Reconcile(c.Request.Context(), key)
	if err != nil {
		abortWithUseCaseError(c, err, "Reconciliation failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromStockState(*state))
}

// @Summary Stock item history
// @Description Audit trail of an item, newest first, with keyset pagination
// @Tags stock
// @Produce json
// @Param warehouseId path string true "Warehouse ID"
// @Param itemId path string true "Item ID"
// @Param from query string false "RFC 3339 lower bound (inclusive)"
// @Param to query string false "RFC 3339 upper bound (exclusive)"
// @Param eventType query []string false "Event types to include"
// @Param limit query int false "Max entries (default 20)"
// @Param after query string false "Cursor for keyset pagination"
// @Success 200 {object} resdto.HistoryPageResponse
// @Failure 400 {object} httperr.Response
// @Router /stock/{warehouseId}/{itemId}/history [get]
func (h *StockHandler) History(c *gin.Context) {
	params, ok := historyParams(c)
	if !ok {
		return
	}
	entries, next, err := h.history.ListByStockItem(c.Request.Context(), c.Param("warehouseId"), c.Param("itemId"), params)
	if err != nil {
		abortWithUseCaseError(c, err, "Failed to load history")
		return
	}
	writeHistoryPage(c, entries, next)
}

func stockKey(c *gin.Context) (stock.Key, bool) {
	key, err := stock.NewKey(c.Param("warehouseId"), c.Param("itemId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, err.Error(), nil)
		return stock.Key{}, false
	}
	return key, true
}
