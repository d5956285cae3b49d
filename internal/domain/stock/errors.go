package stock

import (
	"fmt"

	"inventory-ledger/internal/pkg/errs"
)

var (
	ErrItemNotFound     = errs.Mark(errs.New("stock item not found"), errs.ErrNotFound)
	ErrItemDiscontinued = errs.Mark(errs.New("stock item is discontinued"), errs.ErrValidation)
	ErrItemExists       = errs.Mark(errs.New("stock item already exists"), errs.ErrValidation)
)

// InsufficientStockError names the line that could not be reserved.
type InsufficientStockError struct {
	Key       Key
	Requested int64
	Available int64
}

func NewInsufficientStockError(key Key, requested, available int64) error {
	return errs.Mark(&InsufficientStockError{Key: key, Requested: requested, Available: available}, errs.ErrInsufficientStock)
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Key, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == errs.ErrInsufficientStock
}
