package uow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"inventory-ledger/internal/pkg/backoff"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/pkg/errs"
	"inventory-ledger/internal/pkg/metrics"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"
)

var (
	errTransactionBegin  = errs.New("failed to begin transaction")
	errTransactionCommit = errs.New("failed to commit transaction")
)

type retrier struct {
	maxRetries int
	policy     backoff.Policy
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func newRetrier(cfg config.LedgerConfig, logger *slog.Logger, m *metrics.Metrics) retrier {
	return retrier{
		maxRetries: cfg.MaxRetries,
		policy:     backoff.New(cfg.RetryBaseDelay, cfg.RetryMaxDelay),
		logger:     logger,
		metrics:    m,
	}
}

// run calls attempt until it succeeds, fails with a non-retryable error, or the retry budget
// is spent; the last case surfaces errs.ErrConcurrencyConflict.
func (r retrier) run(ctx context.Context, attempt func() error) error {
	for n := 0; ; n++ {
		err := attempt()
		if err == nil {
			return nil
		}
		if !isRetryableError(err) {
			return err
		}
		if n >= r.maxRetries {
			r.logger.Warn("transaction failed after max retries",
				"attempts", n+1,
				"error", err.Error())
			return errs.Mark(errs.Wrapf(err, "gave up after %d attempts", n+1), errs.ErrConcurrencyConflict)
		}

		r.metrics.TransactionRetry()
		waitTime := r.policy.Delay(n)
		r.logger.Debug("retrying transaction due to retryable error",
			"attempt", n+1,
			"wait_ms", waitTime.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

func isRetryableError(err error) bool {
	if errs.Is(err, errs.ErrVersionConflict) {
		return true
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	default:
		return false
	}
}
