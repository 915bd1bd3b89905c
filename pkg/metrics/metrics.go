// Package metrics exposes the matching engine's Prometheus instrumentation:
// a tick-duration histogram, matched/refused/out-of-sync counters that are
// incremented alongside the totals the engine's Statistics() call reports
// (spec.md §4.3), a per-outcome candidate-probe counter, and an oracle
// failure counter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TickDuration observes the wall-clock duration of one matcher tick.
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "match_tick_duration_seconds",
		Help:    "Duration of a single matching engine tick",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
	})

	// CustomersMatchedTotal counts customers successfully committed to a vehicle.
	CustomersMatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "match_customers_matched_total",
		Help: "Total number of customers committed to a vehicle",
	})

	// CustomersRefusedTotal counts customers that exhausted their retry bound.
	CustomersRefusedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "match_customers_refused_total",
		Help: "Total number of customers refused after exhausting retries",
	})

	// OutOfSyncRejectionsTotal counts commits rejected by the assignment sink
	// because the vehicle's authoritative state had already advanced.
	OutOfSyncRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "match_out_of_sync_rejections_total",
		Help: "Total number of commits rejected as out of sync with vehicle state",
	})

	// CandidatesProbedTotal counts KT tentative-insert probes attempted, by outcome.
	CandidatesProbedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_candidates_probed_total",
		Help: "Total number of candidate vehicle probes, partitioned by outcome",
	}, []string{"outcome"})

	// OracleFailuresTotal counts shortest-path oracle calls that returned an error.
	OracleFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "match_oracle_failures_total",
		Help: "Total number of shortest-path oracle failures observed by the matcher",
	})
)

// RecordProbeOutcome increments the candidate-probe counter for one outcome
// (e.g. "feasible", "infeasible", "capacity_violation", "oracle_error").
func RecordProbeOutcome(outcome string) {
	CandidatesProbedTotal.WithLabelValues(outcome).Inc()
}
