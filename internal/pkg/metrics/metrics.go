package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "inventory"

// Metrics groups the collectors reported by the ledger and its background workers.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ledgerOps        *prometheus.CounterVec
	txRetries        prometheus.Counter
	outboxResults    *prometheus.CounterVec
	outboxDuration   prometheus.Histogram
	projectedEvents  prometheus.Counter
	expiredSweeps    *prometheus.CounterVec
	expiredReserves  prometheus.Counter
	degradedMarkings prometheus.Counter
}

// MustNewMetrics registers the collectors on reg, reusing collectors that are already registered.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	return &Metrics{
		ledgerOps: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Ledger and reservation operations by outcome.",
		}, []string{"operation", "result"})),
		txRetries: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "transaction_retries_total",
			Help:      "Units of work retried after a version conflict or serialization failure.",
		})),
		outboxResults: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "entries_total",
			Help:      "Outbox publish attempts by result (published, retry, dead).",
		}, []string{"result"})),
		outboxDuration: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "publish_duration_seconds",
			Help:      "Latency of a single publish call to the message channel.",
			Buckets:   prometheus.DefBuckets,
		})),
		projectedEvents: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "projector",
			Name:      "events_total",
			Help:      "Events folded into the history view.",
		})),
		expiredSweeps: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "expiry",
			Name:      "sweeps_total",
			Help:      "Expiry sweep ticks by outcome (swept, skipped, failed).",
		}, []string{"result"})),
		expiredReserves: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "expiry",
			Name:      "reservations_total",
			Help:      "Reservations moved to EXPIRED by the sweeper.",
		})),
		degradedMarkings: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "eventstore",
			Name:      "degraded_aggregates_total",
			Help:      "Aggregates marked degraded after a corruption was detected.",
		})),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) LedgerOperation(operation, result string) {
	if m == nil {
		return
	}
	m.ledgerOps.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) TransactionRetry() {
	if m == nil {
		return
	}
	m.txRetries.Inc()
}

func (m *Metrics) OutboxResult(result string) {
	if m == nil {
		return
	}
	m.outboxResults.WithLabelValues(result).Inc()
}

func (m *Metrics) ObservePublish(d time.Duration) {
	if m == nil {
		return
	}
	m.outboxDuration.Observe(d.Seconds())
}

func (m *Metrics) Projected(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.projectedEvents.Add(float64(n))
}

func (m *Metrics) Sweep(result string, expired int) {
	if m == nil {
		return
	}
	m.expiredSweeps.WithLabelValues(result).Inc()
	if expired > 0 {
		m.expiredReserves.Add(float64(expired))
	}
}

func (m *Metrics) Degraded() {
	if m == nil {
		return
	}
	m.degradedMarkings.Inc()
}
