package response

import (
	"time"

	"inventory-ledger/internal/domain/reservation"
	"inventory-ledger/internal/pkg/ptr"
	"inventory-ledger/internal/usecase/commands"
	"inventory-ledger/internal/usecase/readmodel"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ReservationLineResponse struct {
	WarehouseID string `json:"warehouseId"`
	ItemID      string `json:"itemId"`
	Quantity    int64  `json:"quantity"`
}

type ReservationFailureResponse struct {
	WarehouseID string `json:"warehouseId"`
	ItemID      string `json:"itemId"`
	Requested   int64  `json:"requested"`
	Available   int64  `json:"available"`
	Reason      string `json:"reason"`
}

type ReservationResponse struct {
	ID        uuid.UUID                   `json:"id"`
	OrderID   string                      `json:"orderId"`
	Status    string                      `json:"status"`
	Lines     []ReservationLineResponse   `json:"lines"`
	ExpiresAt time.Time                   `json:"expiresAt"`
	Failure   *ReservationFailureResponse `json:"failure,omitempty"`
	Version   int64                       `json:"version"`
	CreatedAt time.Time                   `json:"createdAt"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}

// ReservationResultResponse is returned by reserve and by the transitions: the reservation
// and the stock items it touched.
type ReservationResultResponse struct {
	Reservation *ReservationResponse `json:"reservation"`
	Items       []*StockItemResponse `json:"items"`
	Replayed    bool                 `json:"replayed,omitempty"`
	Changed     *bool                `json:"changed,omitempty"`
}

func FromReservationRM(rm *readmodel.ReservationRM) (*ReservationResponse, error) {
	var res ReservationResponse
	if err := copier.Copy(&res, rm); err != nil {
		return nil, err
	}
	return &res, nil
}

func FromReservationState(s reservation.State) (*ReservationResponse, error) {
	var res ReservationResponse
	if err := copier.Copy(&res, &s); err != nil {
		return nil, err
	}
	res.Status = s.Status.String()
	return &res, nil
}

func FromReserveResult(r *commands.ReserveResult) (*ReservationResultResponse, error) {
	view, err := FromReservationState(r.Reservation)
	if err != nil {
		return nil, err
	}
	return &ReservationResultResponse{
		Reservation: view,
		Items:       FromStockStates(r.Items),
		Replayed:    r.Replayed,
	}, nil
}

func FromTransitionResult(r *commands.TransitionResult) (*ReservationResultResponse, error) {
	view, err := FromReservationState(r.Reservation)
	if err != nil {
		return nil, err
	}
	return &ReservationResultResponse{
		Reservation: view,
		Items:       FromStockStates(r.Items),
		Changed:     ptr.To(r.Changed),
	}, nil
}

type InsufficientStockResponse struct {
	WarehouseID string `json:"warehouseId"`
	ItemID      string `json:"itemId"`
	Requested   int64  `json:"requested"`
	Available   int64  `json:"available"`
}
