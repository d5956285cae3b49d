package converter

import (
	"inventory-ledger/internal/domain/reservation"
	"inventory-ledger/internal/usecase/readmodel"
)

func ReservationToRM(s reservation.State) readmodel.ReservationRM {
	rm := readmodel.ReservationRM{
		ID:        s.ID,
		OrderID:   s.OrderID,
		Status:    s.Status.String(),
		Lines:     make([]readmodel.ReservationLineRM, len(s.Lines)),
		ExpiresAt: s.ExpiresAt,
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	for i, l := range s.Lines {
		rm.Lines[i] = readmodel.ReservationLineRM{
			WarehouseID: l.WarehouseID,
			ItemID:      l.ItemID,
			Quantity:    l.Quantity,
		}
	}
	if f := s.Failure; f != nil {
		rm.Failure = &readmodel.ReservationFailureRM{
			WarehouseID: f.WarehouseID,
			ItemID:      f.ItemID,
			Requested:   f.Requested,
			Available:   f.Available,
			Reason:      f.Reason,
		}
	}
	return rm
}
