//go:build unit

package lease_test

import (
	"context"
	"testing"
	"time"

	"inventory-ledger/internal/infra/lease"
	"inventory-ledger/internal/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLease(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	a := lease.NewLocalLease(clk).ForOwner("a")
	b := a.ForOwner("b")

	t.Run("holder excludes others until expiry", func(t *testing.T) {
		ok, err := a.Acquire(ctx, "sweep", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = b.Acquire(ctx, "sweep", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = a.Acquire(ctx, "sweep", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "holder renews")

		clk.Add(2 * time.Minute)
		ok, err = b.Acquire(ctx, "sweep", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "expired lease is taken over")
	})

	t.Run("only the holder releases", func(t *testing.T) {
		require.NoError(t, a.Release(ctx, "sweep"))
		ok, _ := a.Acquire(ctx, "sweep", time.Minute)
		assert.False(t, ok)

		require.NoError(t, b.Release(ctx, "sweep"))
		ok, _ = a.Acquire(ctx, "sweep", time.Minute)
		assert.True(t, ok)
	})
}
