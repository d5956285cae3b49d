package api

import (
	"net/http"

	reqdto "inventory-ledger/internal/handler/dto/request"
	resdto "inventory-ledger/internal/handler/dto/response"
	"inventory-ledger/internal/handler/httperr"
	"inventory-ledger/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	cmds commands.CatalogCommands
}

func NewCatalogHandler(cmds commands.CatalogCommands) *CatalogHandler {
	return &CatalogHandler{cmds: cmds}
}

// @Summary Catalog notification
// @Description Apply a product variant lifecycle notification (CREATED, UPDATED, DELETED)
// @Tags catalog
// @Accept json
// @Produce json
// @Param request body reqdto.CatalogNotificationRequest true "Variant notification"
// @Success 200 {object} resdto.CatalogResultResponse
// @Failure 400 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /catalog/notifications [post]
func (h *CatalogHandler) Notify(c *gin.Context) {
	var req reqdto.CatalogNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	result, err := h.cmds.Handle(c.Request.Context(), req.ToNotification())
	if err != nil {
		abortWithUseCaseError(c, err, "Catalog notification failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromCatalogResult(result))
}
