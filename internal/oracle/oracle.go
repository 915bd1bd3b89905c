// Package oracle adapts the external shortest-path provider (spec.md §6)
// into the kt.Oracle contract, wrapping every call in a circuit breaker so
// an oracle outage degrades to skipped candidates rather than stalling a
// tick (spec.md §7: "shortest-path oracle failure: propagated; matcher
// skips the affected candidate").
package oracle

import (
	"context"
	"fmt"

	"github.com/richxcame/matchengine/internal/domain"
	"github.com/richxcame/matchengine/pkg/metrics"
	"github.com/richxcame/matchengine/pkg/resilience"
	"github.com/richxcame/matchengine/pkg/tracing"
)

// ShortestPath is the external road-network oracle (spec.md §6): pure,
// thread-safe, idempotent.
type ShortestPath interface {
	// Distance returns the shortest-path distance in meters between two nodes.
	Distance(ctx context.Context, a, b domain.NodeID) (int, error)
	// Path returns the sequence of nodes realizing the shortest path.
	Path(ctx context.Context, a, b domain.NodeID) ([]domain.NodeID, error)
}

// BreakerOracle wraps a ShortestPath provider with a circuit breaker and
// tracing, and is what internal/kt.Tree and internal/domain.MaterializeRoute
// consume as their Oracle/ShortestPath dependency.
type BreakerOracle struct {
	upstream ShortestPath
	breaker  *resilience.CircuitBreaker
	tracerName string
}

// New constructs a BreakerOracle. enabled may be false to run the upstream
// oracle unprotected (tests, or when a breaker is undesirable).
func New(upstream ShortestPath, settings resilience.Settings, enabled bool, tracerName string) *BreakerOracle {
	var breaker *resilience.CircuitBreaker
	if enabled {
		breaker = resilience.NewCircuitBreaker(settings, resilience.NoopFallback)
	}
	return &BreakerOracle{upstream: upstream, breaker: breaker, tracerName: tracerName}
}

// Breaker exposes the underlying circuit breaker for health reporting
// (pkg/health.DeepChecker); nil if the breaker was disabled at construction.
func (o *BreakerOracle) Breaker() *resilience.CircuitBreaker {
	return o.breaker
}

// Distance satisfies internal/kt.Oracle, wrapping the upstream call in the
// breaker and recording a span plus a failure counter on error.
func (o *BreakerOracle) Distance(ctx context.Context, a, b domain.NodeID) (int, error) {
	var meters int
	err := tracing.TraceExternalAPI(ctx, o.tracerName, "oracle", "distance", func(ctx context.Context) error {
		result, err := o.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
			return o.upstream.Distance(ctx, a, b)
		})
		if err != nil {
			return err
		}
		meters = result.(int)
		return nil
	})
	if err != nil {
		metrics.OracleFailuresTotal.Inc()
		return 0, fmt.Errorf("oracle: distance(%d, %d): %w", a, b, err)
	}
	return meters, nil
}

// Path satisfies domain.ShortestPath for route materialization, wrapped the
// same way as Distance.
func (o *BreakerOracle) Path(ctx context.Context, a, b domain.NodeID) ([]domain.NodeID, error) {
	var path []domain.NodeID
	err := tracing.TraceExternalAPI(ctx, o.tracerName, "oracle", "path", func(ctx context.Context) error {
		result, err := o.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
			return o.upstream.Path(ctx, a, b)
		})
		if err != nil {
			return err
		}
		path = result.([]domain.NodeID)
		return nil
	})
	if err != nil {
		metrics.OracleFailuresTotal.Inc()
		return nil, fmt.Errorf("oracle: path(%d, %d): %w", a, b, err)
	}
	return path, nil
}

// Allow reports whether the breaker would currently permit a call, used by
// the matcher to skip probing a candidate early rather than pay the
// tracing/breaker overhead on a call it expects to fail.
func (o *BreakerOracle) Allow() bool {
	return o.breaker.Allow()
}
