package scheduler

import (
	"context"
	"log/slog"
	"time"

	"inventory-ledger/internal/pkg/clock"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/internal/pkg/metrics"
	"inventory-ledger/internal/usecase/shared"
)

type Expirer interface {
	ExpireReservations(ctx context.Context, cutoff time.Time) (int, error)
}

// ExpirySweeper expires overdue reservations on a fixed interval. Only the holder of the
// lease sweeps, so concurrent instances never run the same sweep twice.
type ExpirySweeper struct {
	expirer Expirer
	lease   shared.Lease
	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics

	key      string
	ttl      time.Duration
	interval time.Duration
}

func NewExpirySweeper(expirer Expirer, lease shared.Lease, clk clock.Clock, logger *slog.Logger, m *metrics.Metrics, cfg config.ExpiryConfig) *ExpirySweeper {
	return &ExpirySweeper{
		expirer:  expirer,
		lease:    lease,
		clock:    clk,
		logger:   logger,
		metrics:  m,
		key:      cfg.LeaseKey,
		ttl:      cfg.LeaseTTL,
		interval: cfg.Interval,
	}
}

func (s *ExpirySweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.release(ctx)

	for {
		if _, err := s.Tick(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("expiry sweep failed", "error", err.Error())
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick acquires or renews the lease and, when held, runs one sweep. It returns the number
// of reservations expired.
func (s *ExpirySweeper) Tick(ctx context.Context) (int, error) {
	held, err := s.lease.Acquire(ctx, s.key, s.ttl)
	if err != nil {
		s.metrics.Sweep("failed", 0)
		return 0, err
	}
	if !held {
		s.metrics.Sweep("skipped", 0)
		return 0, nil
	}

	cutoff := s.clock.Now()
	expired, err := s.expirer.ExpireReservations(ctx, cutoff)
	if err != nil {
		s.metrics.Sweep("failed", expired)
		return expired, err
	}
	s.metrics.Sweep("swept", expired)
	if expired > 0 {
		s.logger.Info("reservations expired", "count", expired, "cutoff", cutoff)
	}
	return expired, nil
}

func (s *ExpirySweeper) release(ctx context.Context) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.lease.Release(releaseCtx, s.key); err != nil {
		s.logger.Warn("failed to release expiry lease", "key", s.key, "error", err.Error())
	}
}
