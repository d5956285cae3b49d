//go:build unit

package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"inventory-ledger/internal/pkg/clock"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/usecase/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sharedLease struct {
	mu     sync.Mutex
	holder string
}

type leaseHandle struct {
	owner string
	l     *sharedLease
}

func (h leaseHandle) Acquire(_ context.Context, _ string, _ time.Duration) (bool, error) {
	h.l.mu.Lock()
	defer h.l.mu.Unlock()
	if h.l.holder == "" || h.l.holder == h.owner {
		h.l.holder = h.owner
		return true, nil
	}
	return false, nil
}

func (h leaseHandle) Release(_ context.Context, _ string) error {
	h.l.mu.Lock()
	defer h.l.mu.Unlock()
	if h.l.holder == h.owner {
		h.l.holder = ""
	}
	return nil
}

type brokenLease struct{}

func (brokenLease) Acquire(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func (brokenLease) Release(context.Context, string) error { return nil }

type countingExpirer struct {
	mu      sync.Mutex
	calls   int
	cutoffs []time.Time
}

func (e *countingExpirer) ExpireReservations(_ context.Context, cutoff time.Time) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.cutoffs = append(e.cutoffs, cutoff)
	return 2, nil
}

func (e *countingExpirer) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

var (
	testNow    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func TestExpirySweeper_OnlyLeaseHolderSweeps(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewTestConfig().Expiry
	lease := &sharedLease{}
	expirer := &countingExpirer{}
	clk := clock.NewMockClock(testNow)

	first := scheduler.NewExpirySweeper(expirer, leaseHandle{owner: "a", l: lease}, clk, testLogger, nil, cfg)
	second := scheduler.NewExpirySweeper(expirer, leaseHandle{owner: "b", l: lease}, clk, testLogger, nil, cfg)

	n, err := first.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = second.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = first.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, expirer.count())
	assert.Equal(t, []time.Time{testNow, testNow}, expirer.cutoffs)
}

func TestExpirySweeper_LeaseError(t *testing.T) {
	expirer := &countingExpirer{}
	s := scheduler.NewExpirySweeper(expirer, brokenLease{}, clock.NewMockClock(testNow), testLogger, nil, config.NewTestConfig().Expiry)

	_, err := s.Tick(context.Background())
	require.Error(t, err)
	assert.Zero(t, expirer.count())
}

func TestExpirySweeper_RunReleasesLeaseOnStop(t *testing.T) {
	lease := &sharedLease{}
	expirer := &countingExpirer{}
	s := scheduler.NewExpirySweeper(expirer, leaseHandle{owner: "a", l: lease}, clock.NewMockClock(testNow), testLogger, nil, config.NewTestConfig().Expiry)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return expirer.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	lease.mu.Lock()
	defer lease.mu.Unlock()
	assert.Empty(t, lease.holder)
}
