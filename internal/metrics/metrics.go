// Package metrics exposes crossdrop's Prometheus collectors. RPC calls,
// transactions, gas fee estimates, cache lookups and status polls are
// counted here and served on /metrics by the status panel.
package metrics

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crossdrop"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the collectors plus a few atomic totals for the CLI summary.
type Metrics struct {
	rpcCalls     *prometheus.CounterVec
	rpcLatency   *prometheus.HistogramVec
	txs          *prometheus.CounterVec
	feeEstimates *prometheus.CounterVec
	feeLatency   prometheus.Histogram
	cacheLookups *prometheus.CounterVec
	statusPolls  *prometheus.CounterVec

	rpcCallsTotal   atomic.Int64
	rpcErrorsTotal  atomic.Int64
	rpcLatencyNanos atomic.Int64
	cacheHits       atomic.Int64
	cacheMisses     atomic.Int64
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is what one-shot CLI commands use.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		rpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "JSON-RPC calls by network, method and outcome.",
		}, []string{"network", "method", "outcome"}),
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "JSON-RPC call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"network", "method"}),
		txs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Transactions by kind (approve, send, deploy) and outcome.",
		}, []string{"kind", "outcome"}),
		feeEstimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "axelar",
			Name:      "fee_estimates_total",
			Help:      "Gas fee estimates requested from the Axelar API by outcome.",
		}, []string{"outcome"}),
		feeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "axelar",
			Name:      "fee_estimate_duration_seconds",
			Help:      "Axelar gas fee estimate latency including retries.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache name and result.",
		}, []string{"cache", "result"}),
		statusPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_polls_total",
			Help:      "Destination status reads by outcome.",
		}, []string{"outcome"}),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	if m.rpcCalls, err = register(reg, m.rpcCalls); err != nil {
		return nil, err
	}
	if m.rpcLatency, err = register(reg, m.rpcLatency); err != nil {
		return nil, err
	}
	if m.txs, err = register(reg, m.txs); err != nil {
		return nil, err
	}
	if m.feeEstimates, err = register(reg, m.feeEstimates); err != nil {
		return nil, err
	}
	if m.feeLatency, err = register(reg, m.feeLatency); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = register(reg, m.cacheLookups); err != nil {
		return nil, err
	}
	if m.statusPolls, err = register(reg, m.statusPolls); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing the collector already registered under
// the same descriptor.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}

// ObserveRPC records one JSON-RPC call.
func (m *Metrics) ObserveRPC(network, method string, elapsed time.Duration, err error) {
	m.rpcCalls.WithLabelValues(network, method, outcome(err)).Inc()
	m.rpcLatency.WithLabelValues(network, method).Observe(elapsed.Seconds())

	m.rpcCallsTotal.Add(1)
	m.rpcLatencyNanos.Add(elapsed.Nanoseconds())
	if err != nil {
		m.rpcErrorsTotal.Add(1)
	}
}

// ObserveFeeEstimate records one Axelar fee estimate.
func (m *Metrics) ObserveFeeEstimate(result string, elapsed time.Duration) {
	m.feeEstimates.WithLabelValues(result).Inc()
	m.feeLatency.Observe(elapsed.Seconds())
}

// ObserveCache records a lookup in the named cache.
func (m *Metrics) ObserveCache(name string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
		m.cacheHits.Add(1)
	} else {
		m.cacheMisses.Add(1)
	}
	m.cacheLookups.WithLabelValues(name, result).Inc()
}

// RecordTx records a transaction of the given kind.
func (m *Metrics) RecordTx(kind string, err error) {
	m.txs.WithLabelValues(kind, outcome(err)).Inc()
}

// RecordStatusPoll records one read of the destination contract state.
func (m *Metrics) RecordStatusPoll(err error) {
	m.statusPolls.WithLabelValues(outcome(err)).Inc()
}

// Snapshot is a point-in-time copy of the running totals.
type Snapshot struct {
	RPCCallsTotal   int64
	RPCErrorsTotal  int64
	RPCLatencyNanos int64
	CacheHits       int64
	CacheMisses     int64
}

// Snapshot returns a point-in-time copy of the running totals.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RPCCallsTotal:   m.rpcCallsTotal.Load(),
		RPCErrorsTotal:  m.rpcErrorsTotal.Load(),
		RPCLatencyNanos: m.rpcLatencyNanos.Load(),
		CacheHits:       m.cacheHits.Load(),
		CacheMisses:     m.cacheMisses.Load(),
	}
}

// RPCLatencyAvgMs returns the average RPC latency in milliseconds.
// Returns 0 if no calls have been made.
func (s Snapshot) RPCLatencyAvgMs() float64 {
	if s.RPCCallsTotal == 0 {
		return 0
	}
	return float64(s.RPCLatencyNanos) / float64(s.RPCCallsTotal) / 1e6
}

// CacheHitRate returns the cache hit rate as a percentage (0-100).
// Returns 0 if no cache operations have occurred.
func (s Snapshot) CacheHitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total) * 100
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
