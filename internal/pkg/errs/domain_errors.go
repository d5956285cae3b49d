package errs

import "errors"

// Error taxonomy shared by the ledger, reservation and outbox layers
var (
	// Input errors, never retried
	ErrValidation = errors.New("validation error")

	// Business rule violations, surfaced verbatim to the caller
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNegativeStock     = errors.New("negative stock")

	// Lookup errors
	ErrNotFound = errors.New("not found")

	// Optimistic concurrency
	ErrVersionConflict     = errors.New("version conflict")
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// Outbox delivery, internal to the publisher
	ErrPublish = errors.New("publish failed")

	// Integrity errors, fatal for the affected aggregate
	ErrCorruption        = errors.New("event stream corruption")
	ErrAggregateDegraded = errors.New("aggregate degraded")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
