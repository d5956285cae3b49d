package lease

import (
	"context"
	"sync"
	"time"

	"inventory-ledger/internal/pkg/clock"
)

// LocalLease coordinates holders inside one process only.
type LocalLease struct {
	table *table
	owner string
}

type table struct {
	mu      sync.Mutex
	clock   clock.Clock
	holders map[string]holder
}

type holder struct {
	owner     string
	expiresAt time.Time
}

func NewLocalLease(clk clock.Clock) *LocalLease {
	return &LocalLease{
		table: &table{clock: clk, holders: make(map[string]holder)},
		owner: "local",
	}
}

// ForOwner returns a lease sharing l's holders under another owner name.
func (l *LocalLease) ForOwner(owner string) *LocalLease {
	return &LocalLease{table: l.table, owner: owner}
}

func (l *LocalLease) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	t := l.table
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	if h, ok := t.holders[key]; ok && h.owner != l.owner && now.Before(h.expiresAt) {
		return false, nil
	}
	t.holders[key] = holder{owner: l.owner, expiresAt: now.Add(ttl)}
	return true, nil
}

func (l *LocalLease) Release(_ context.Context, key string) error {
	t := l.table
	t.mu.Lock()
	defer t.mu.Unlock()

	if h, ok := t.holders[key]; ok && h.owner == l.owner {
		delete(t.holders, key)
	}
	return nil
}
