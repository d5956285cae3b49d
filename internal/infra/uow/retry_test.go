//go:build unit

package uow

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"inventory-ledger/internal/pkg/backoff"
	"inventory-ledger/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func testRetrier(maxRetries int) retrier {
	return retrier{
		maxRetries: maxRetries,
		policy:     backoff.New(time.Microsecond, time.Millisecond),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRetrier_Run(t *testing.T) {
	businessErr := errs.Mark(errs.New("not enough"), errs.ErrInsufficientStock)
	serialization := &pgconn.PgError{Code: pgErrCodeSerializationFailure}
	deadlock := &pgconn.PgError{Code: pgErrCodeDeadlockDetected}
	uniqueViolation := &pgconn.PgError{Code: "23505"}

	testCases := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   error
	}{
		{name: "success on first attempt", wantCalls: 1},
		{
			name:      "version conflict is retried",
			failures:  []error{errs.Mark(errs.New("stale"), errs.ErrVersionConflict)},
			wantCalls: 2,
		},
		{name: "serialization failure is retried", failures: []error{serialization, deadlock}, wantCalls: 3},
		{name: "business error is returned as is", failures: []error{businessErr}, wantCalls: 1, wantErr: errs.ErrInsufficientStock},
		{name: "other pg errors are not retried", failures: []error{uniqueViolation}, wantCalls: 1},
		{
			name:      "budget exhausted surfaces concurrency conflict",
			failures:  []error{serialization, serialization, serialization, serialization},
			wantCalls: 3,
			wantErr:   errs.ErrConcurrencyConflict,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			err := testRetrier(2).run(context.Background(), func() error {
				calls++
				if calls <= len(tc.failures) {
					return tc.failures[calls-1]
				}
				return nil
			})

			assert.Equal(t, tc.wantCalls, calls)
			switch {
			case tc.wantErr != nil:
				assert.True(t, errs.Is(err, tc.wantErr), "got %v", err)
			case tc.wantCalls == len(tc.failures):
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetrier_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := testRetrier(5)
	r.policy = backoff.New(time.Hour, time.Hour)
	calls := 0
	err := r.run(ctx, func() error {
		calls++
		return errs.Mark(errs.New("stale"), errs.ErrVersionConflict)
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
