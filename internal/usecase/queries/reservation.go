package queries

import (
	"context"

	"inventory-ledger/internal/usecase/readmodel"
	"inventory-ledger/internal/usecase/shared"

	"github.com/google/uuid"
)

type ReservationQueries interface {
	Get(ctx context.Context, id uuid.UUID) (*readmodel.ReservationRM, error)
}

type reservationQueriesImpl struct {
	repo shared.ReservationReader
}

func NewReservationQueries(repo shared.ReservationReader) ReservationQueries {
	return &reservationQueriesImpl{repo: repo}
}

func (q *reservationQueriesImpl) Get(ctx context.Context, id uuid.UUID) (*readmodel.ReservationRM, error) {
	return q.repo.Get(ctx, id)
}
