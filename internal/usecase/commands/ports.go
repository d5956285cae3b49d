package commands

//go:generate mockgen -source=ports.go -destination=../../../tests/mock/commands/mock_ports.go -package=commandsmock

import (
	"context"
	"time"

	"inventory-ledger/internal/domain/reservation"
	"inventory-ledger/internal/domain/stock"

	"github.com/google/uuid"
)

type StockLedgerCommands interface {
	Adjust(ctx context.Context, key stock.Key, delta int64, reason stock.AdjustmentReason, note string) (*stock.State, error)
	Reconcile(ctx context.Context, key stock.Key) (*stock.State, error)
}

type ReservationCommands interface {
	ReserveStock(ctx context.Context, p ReserveParams) (*ReserveResult, error)
	ReleaseStock(ctx context.Context, id uuid.UUID) (*TransitionResult, error)
	ConfirmStockReservation(ctx context.Context, id uuid.UUID) (*TransitionResult, error)
	ExpireReservations(ctx context.Context, cutoff time.Time) (int, error)
}

// OrderCommands drives reservations from order lifecycle events, which only carry the order id.
type OrderCommands interface {
	ReserveStock(ctx context.Context, p ReserveParams) (*ReserveResult, error)
	ReleaseByOrder(ctx context.Context, orderID string) (*TransitionResult, error)
	ConfirmByOrder(ctx context.Context, orderID string) (*TransitionResult, error)
}

type CatalogCommands interface {
	Handle(ctx context.Context, n VariantNotification) (*CatalogResult, error)
}

type ReserveParams struct {
	OrderID string
	Lines   []reservation.Line
	// TTL overrides the configured reservation lifetime when positive
	TTL time.Duration
}

type ReserveResult struct {
	Reservation reservation.State
	Items       []stock.State
	Replayed    bool
}

type TransitionResult struct {
	Reservation reservation.State
	Items       []stock.State
	// Changed is false when the reservation was already terminal
	Changed bool
}

type NotificationKind string

const (
	VariantCreated NotificationKind = "CREATED"
	VariantUpdated NotificationKind = "UPDATED"
	VariantDeleted NotificationKind = "DELETED"
)

func (k NotificationKind) IsValid() bool {
	switch k {
	case VariantCreated, VariantUpdated, VariantDeleted:
		return true
	default:
		return false
	}
}

type VariantNotification struct {
	Kind             NotificationKind
	ProductVariantID string
	WarehouseID      string
	SKU              string
	InitialStock     *int64
}

type CatalogAction string

const (
	CatalogCreated      CatalogAction = "created"
	CatalogDiscontinued CatalogAction = "discontinued"
	CatalogUnchanged    CatalogAction = "unchanged"
)

type CatalogResult struct {
	Action CatalogAction
	Item   *stock.State
}
