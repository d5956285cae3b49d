package stock

import (
	"inventory-ledger/internal/pkg/errs"

	"github.com/google/uuid"
)

// Command is the closed set of ledger operations accepted by Item.Decide.
type Command interface {
	Name() string
	Validate() error
	command()
}

type Reserve struct {
	ReservationID uuid.UUID
	Quantity      int64
}

type Release struct {
	ReservationID uuid.UUID
	Quantity      int64
	Reason        string
}

type Confirm struct {
	ReservationID uuid.UUID
	Quantity      int64
}

type Adjust struct {
	Delta  int64
	Reason AdjustmentReason
	Note   string
}

type Discontinue struct{}

func (Reserve) Name() string     { return "reserve" }
func (Release) Name() string     { return "release" }
func (Confirm) Name() string     { return "confirm" }
func (Adjust) Name() string      { return "adjust" }
func (Discontinue) Name() string { return "discontinue" }

func (Reserve) command()     {}
func (Release) command()     {}
func (Confirm) command()     {}
func (Adjust) command()      {}
func (Discontinue) command() {}

func (c Reserve) Validate() error {
	return validatePositive(c.Quantity)
}

func (c Release) Validate() error {
	return validatePositive(c.Quantity)
}

func (c Confirm) Validate() error {
	return validatePositive(c.Quantity)
}

func (c Adjust) Validate() error {
	if c.Delta == 0 {
		return errs.Validation("adjustment delta must not be zero")
	}
	if !c.Reason.IsValid() {
		return errs.Validation("invalid adjustment reason %q", c.Reason)
	}
	return nil
}

func (Discontinue) Validate() error {
	return nil
}

func validatePositive(qty int64) error {
	if qty <= 0 {
		return errs.Validation("quantity must be positive, got %d", qty)
	}
	return nil
}
