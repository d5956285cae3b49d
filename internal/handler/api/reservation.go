package api

import (
	"context"
	"net/http"

	reqdto "inventory-ledger/internal/handler/dto/request"
	resdto "inventory-ledger/internal/handler/dto/response"
	"inventory-ledger/internal/handler/httperr"
	"inventory-ledger/internal/usecase/commands"
	"inventory-ledger/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReservationHandler struct {
	cmds    commands.ReservationCommands
	q       queries.ReservationQueries
	history queries.HistoryQueries
}

func NewReservationHandler(cmds commands.ReservationCommands, q queries.ReservationQueries, history queries.HistoryQueries) *ReservationHandler {
	return &ReservationHandler{cmds: cmds, q: q, history: history}
}

// @Summary Reserve stock
// @Description Reserve every line of an order atomically. A repeated orderId with an open reservation returns it unchanged.
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body reqdto.ReserveRequest true "Reservation request"
// @Success 201 {object} resdto.ReservationResultResponse
// @Success 200 {object} resdto.ReservationResultResponse "Replayed open reservation"
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /reservations [post]
func (h *ReservationHandler) Reserve(c *gin.Context) {
	var req reqdto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	params, err := req.ToParams()
	if err != nil {
		abortWithUseCaseError(c, err, "Invalid request")
		return
	}

	result, err := h.cmds.ReserveStock(c.Request.Context(), params)
	if err != nil {
		abortWithUseCaseError(c, err, "Reservation failed")
		return
	}
	res, err := resdto.FromReserveResult(result)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.Header("Location", "/api/reservations/"+result.Reservation.ID.String())
	c.JSON(status, res)
}

// @Summary Get reservation
// @Description Get reservation by ID
// @Tags reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} resdto.ReservationResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /reservations/{id} [get]
func (h *ReservationHandler) Get(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	rm, err := h.q.Get(c.Request.Context(), id)
	if err != nil {
		abortWithUseCaseError(c, err, "Failed to load reservation")
		return
	}
	res, err := resdto.FromReservationRM(rm)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Release reservation
// @Description Return the reserved quantities to available stock. Releasing a terminal reservation is a no-op.
// @Tags reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} resdto.ReservationResultResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 423 {object} httperr.Response
// @Router /reservations/{id}/release [post]
func (h *ReservationHandler) Release(c *gin.Context) {
	h.transition(c, h.cmds.ReleaseStock, "Release failed")
}

// @Summary Confirm reservation
// @Description Deduct the reserved quantities from on-hand stock. Confirming a terminal reservation is a no-op.
// @Tags reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} resdto.ReservationResultResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 423 {object} httperr.Response
// @Router /reservations/{id}/confirm [post]
func (h *ReservationHandler) Confirm(c *gin.Context) {
	h.transition(c, h.cmds.ConfirmStockReservation, "Confirmation failed")
}

// @Summary Reservation history
// @Description Audit trail of a reservation and of the stock movements made for it
// @Tags reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Param from query string false "RFC 3339 lower bound (inclusive)"
// @Param to query string false "RFC 3339 upper bound (exclusive)"
// @Param eventType query []string false "Event types to include"
// @Param limit query int false "Max entries (default 20)"
// @Param after query string false "Cursor for keyset pagination"
// @Success 200 {object} resdto.HistoryPageResponse
// @Failure 400 {object} httperr.Response
// @Router /reservations/{id}/history [get]
func (h *ReservationHandler) History(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	params, ok := historyParams(c)
	if !ok {
		return
	}
	entries, next, err := h.history.ListByReservation(c.Request.Context(), id, params)
	if err != nil {
		abortWithUseCaseError(c, err, "Failed to load history")
		return
	}
	writeHistoryPage(c, entries, next)
}

func (h *ReservationHandler) transition(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*commands.TransitionResult, error), failMsg string) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	result, err := op(c.Request.Context(), id)
	if err != nil {
		abortWithUseCaseError(c, err, failMsg)
		return
	}
	res, err := resdto.FromTransitionResult(result)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

func reservationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid reservation ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}
