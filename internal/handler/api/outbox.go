package api

import (
	"net/http"
	"strconv"

	resdto "inventory-ledger/internal/handler/dto/response"
	"inventory-ledger/internal/handler/httperr"
	"inventory-ledger/internal/usecase/publisher"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultDeadLetterLimit = 100

type OutboxHandler struct {
	cmds publisher.DeadLetterCommands
}

func NewOutboxHandler(cmds publisher.DeadLetterCommands) *OutboxHandler {
	return &OutboxHandler{cmds: cmds}
}

// @Summary List dead letters
// @Description Outbox entries that exhausted their publish attempts
// @Tags outbox
// @Produce json
// @Param limit query int false "Max entries (default 100)"
// @Success 200 {array} resdto.DeadLetterResponse
// @Router /outbox/dead [get]
func (h *OutboxHandler) ListDead(c *gin.Context) {
	limit := defaultDeadLetterLimit
	if v := c.Query("limit"); v != "" {
		if iv, e := strconv.Atoi(v); e == nil && iv > 0 {
			limit = min(iv, 1000)
		}
	}
	rms, err := h.cmds.ListDead(c.Request.Context(), limit)
	if err != nil {
		abortWithUseCaseError(c, err, "Failed to list dead letters")
		return
	}
	res, err := resdto.FromDeadLetters(rms)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Requeue dead letter
// @Description Move a dead outbox entry back to pending with a fresh attempt budget
// @Tags outbox
// @Param id path string true "Outbox entry ID"
// @Success 204 "No Content"
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /outbox/{id}/requeue [post]
func (h *OutboxHandler) Requeue(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid outbox entry ID format", nil)
		return
	}
	if err := h.cmds.Requeue(c.Request.Context(), id); err != nil {
		abortWithUseCaseError(c, err, "Requeue failed")
		return
	}
	c.Status(http.StatusNoContent)
}
