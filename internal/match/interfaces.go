package match

import (
	"context"

	"github.com/richxcame/matchengine/internal/domain"
	"github.com/richxcame/matchengine/internal/kt"
)

// ShortestPath is the external road-network oracle (spec.md §6), shared by
// every vehicle's kinetic tree and by route materialization. Satisfied by
// internal/oracle.BreakerOracle in production and a fake in tests.
type ShortestPath interface {
	Distance(ctx context.Context, a, b domain.NodeID) (int, error)
	Path(ctx context.Context, a, b domain.NodeID) ([]domain.NodeID, error)
}

// breakerAllower is the optional capability internal/oracle.BreakerOracle
// exposes so the matcher can skip a candidate before paying tracing
// overhead on a call it expects the breaker to refuse anyway.
type breakerAllower interface {
	Allow() bool
}

// Clock is the matcher's monotone non-decreasing time source (spec.md §6).
// Satisfied by internal/oracle.SystemClock/ManualClock without importing
// that package (kept structurally typed, as internal/domain.ShortestPath
// already is).
type Clock interface {
	Now() domain.SimTime
}

// AssignmentSink is the external collaborator that accepts or rejects a
// commit (spec.md §6): "may fail if the vehicle's state has advanced beyond
// the route prefix assumed by the caller" — an out-of-sync rejection.
type AssignmentSink interface {
	Assign(ctx context.Context, req AssignmentRequest) (accepted bool, err error)
}

// AssignmentRequest is what the matcher hands the AssignmentSink on a
// candidate commit.
type AssignmentRequest struct {
	Vehicle          domain.VehicleID
	CustomersAdded   []domain.CustomerID
	CustomersRemoved []domain.CustomerID
	NewRoute         domain.Route
	NewSchedule      domain.Schedule
}

// Synchronizer reconciles a vehicle's kinetic tree with its authoritative
// schedule (spec.md §4.4). Satisfied by internal/reconcile.Synchronizer;
// kept as a local interface so internal/match has no hard dependency on
// internal/reconcile and tests can supply a fake.
type Synchronizer interface {
	Synchronize(ctx context.Context, tree *kt.Tree, authoritative domain.Schedule) error
}
