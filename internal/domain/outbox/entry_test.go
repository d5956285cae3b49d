//go:build unit

package outbox_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/outbox"
	"inventory-ledger/internal/pkg/backoff"
	"inventory-ledger/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newRecord(t *testing.T) event.Record {
	t.Helper()
	e := event.New(event.StockItemID("wh-1", "sku-1"), 3, event.Metadata{CorrelationID: "corr-7", OccurredAt: now},
		event.StockAdjusted{Delta: 5, Reason: "RECEIPT", After: event.Levels{OnHand: 5, Available: 5}})[0]
	r, err := event.Encode(e)
	require.NoError(t, err)
	return r
}

func TestNewEntry(t *testing.T) {
	r := newRecord(t)
	entry, err := outbox.NewEntry(r, now)
	require.NoError(t, err)

	assert.Equal(t, r.ID, entry.EventID)
	assert.Equal(t, int64(4), entry.Sequence)
	assert.Equal(t, outbox.StatusPending, entry.Status)
	assert.Equal(t, event.PublishedStockLevelChanged, entry.EventType)
	assert.Equal(t, outbox.ShardOf(r.AggregateID), entry.Shard)
	assert.True(t, entry.IsDue(now))

	var env event.Envelope
	require.NoError(t, json.Unmarshal(entry.Payload, &env))
	assert.Equal(t, r.ID, env.EventID)
	assert.Equal(t, "corr-7", env.CorrelationID)
	assert.JSONEq(t, string(r.Data), string(env.Payload))
}

func TestShardOf_Stable(t *testing.T) {
	id := event.StockItemID("wh-1", "sku-1")
	shard := outbox.ShardOf(id)
	assert.Equal(t, shard, outbox.ShardOf(id))
	assert.GreaterOrEqual(t, shard, 0)
	assert.Less(t, shard, outbox.ShardCount)
}

func TestEntry_MarkFailed(t *testing.T) {
	entry, err := outbox.NewEntry(newRecord(t), now)
	require.NoError(t, err)
	policy := backoff.New(time.Second, time.Minute)
	cause := errors.New("broker unavailable")

	dead := entry.MarkFailed(now, cause, policy, 3)
	assert.False(t, dead)
	assert.Equal(t, 1, entry.Attempts)
	assert.Equal(t, outbox.StatusPending, entry.Status)
	assert.Equal(t, "broker unavailable", entry.LastError)
	assert.False(t, entry.IsDue(now))
	assert.True(t, entry.IsDue(now.Add(2*time.Second)))

	assert.False(t, entry.MarkFailed(now, cause, policy, 3))
	assert.True(t, entry.MarkFailed(now, cause, policy, 3))
	assert.Equal(t, outbox.StatusDead, entry.Status)
	assert.False(t, entry.IsDue(now.Add(time.Hour)))

	require.NoError(t, entry.Requeue(now))
	assert.Equal(t, outbox.StatusPending, entry.Status)
	assert.Equal(t, 0, entry.Attempts)
	assert.True(t, entry.IsDue(now))
}

func TestEntry_RequeueRequiresDead(t *testing.T) {
	entry, err := outbox.NewEntry(newRecord(t), now)
	require.NoError(t, err)
	assert.True(t, errs.Is(entry.Requeue(now), errs.ErrValidation))

	entry.MarkPublished(now)
	assert.Equal(t, outbox.StatusPublished, entry.Status)
	require.NotNil(t, entry.PublishedAt)
	assert.True(t, errs.Is(entry.Requeue(now), errs.ErrValidation))
}

func TestRing(t *testing.T) {
	t.Run("every shard has exactly one owner", func(t *testing.T) {
		ring := outbox.NewRing(4, 32)
		seen := make(map[int]int)
		for node := 0; node < 4; node++ {
			for _, s := range ring.Shards(node) {
				seen[s]++
			}
		}
		assert.Len(t, seen, outbox.ShardCount)
		for s, n := range seen {
			assert.Equal(t, 1, n, "shard %d", s)
		}
	})

	t.Run("deterministic across instances", func(t *testing.T) {
		a, b := outbox.NewRing(6, 16), outbox.NewRing(6, 16)
		for s := 0; s < outbox.ShardCount; s++ {
			assert.Equal(t, a.Owner(s), b.Owner(s))
		}
	})

	t.Run("single node owns everything", func(t *testing.T) {
		assert.Len(t, outbox.NewRing(1, 0).Shards(0), outbox.ShardCount)
	})
}
