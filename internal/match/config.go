// Package match implements the batch scheduler (spec.md §4.3): one tick
// refreshes the grid and every vehicle's kinetic tree, drains the arriving
// customer FIFO, and greedily commits each customer to the cheapest
// feasible vehicle it can find via tentative_insert.
package match

import (
	"time"

	"github.com/richxcame/matchengine/internal/domain"
)

// Config holds the matcher's own tunables, decoupled from pkg/config so
// internal/match has no dependency on the service's env-var loading (mirrors
// the teacher's matching.MatchingConfig, constructed by cmd/matchengine from
// config.EngineConfig).
type Config struct {
	// BatchPeriod is the tick interval (spec.md §4.3).
	BatchPeriod time.Duration
	// PickupRangeKm bounds the grid radius query per customer (spec.md §4.2).
	PickupRangeKm float64
	// MaxCandidatesPerCustomer caps how many candidates are probed via the
	// KT per customer; 0 means unbounded (spec.md §4.3 step 2.4).
	MaxCandidatesPerCustomer int
	// PerCustomerTimeout bounds wall-clock spent enumerating one customer's
	// candidates (spec.md §5).
	PerCustomerTimeout time.Duration
	// MaxRetries is the retry bound after which an unmatched customer is
	// refused (spec.md §4.3 step 3).
	MaxRetries int
	// BackoffDelay is how far into sim-time a rejected/unmatched customer is
	// pushed before it becomes eligible again (original_source/DA.cpp).
	BackoffDelay domain.SimTime
	// VehicleSpeedMetersPerSimTime converts oracle distances into sim-time
	// (spec.md §6), shared with every vehicle's kinetic tree.
	VehicleSpeedMetersPerSimTime float64
}

// DefaultConfig returns conservative defaults for tests and local runs.
func DefaultConfig() Config {
	return Config{
		BatchPeriod:                  30 * time.Second,
		PickupRangeKm:                3.0,
		MaxCandidatesPerCustomer:     50,
		PerCustomerTimeout:           200 * time.Millisecond,
		MaxRetries:                   3,
		BackoffDelay:                 5,
		VehicleSpeedMetersPerSimTime: 8.3,
	}
}
