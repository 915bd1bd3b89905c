package match

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/matchengine/internal/domain"
	"github.com/richxcame/matchengine/internal/grid"
	"github.com/richxcame/matchengine/internal/state"
)

// fakeOracle is a table-driven ShortestPath double keyed by (a, b) pairs.
type fakeOracle struct {
	distances map[[2]domain.NodeID]int
	paths     map[[2]domain.NodeID][]domain.NodeID
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		distances: make(map[[2]domain.NodeID]int),
		paths:     make(map[[2]domain.NodeID][]domain.NodeID),
	}
}

func (f *fakeOracle) set(a, b domain.NodeID, meters int) {
	f.distances[[2]domain.NodeID{a, b}] = meters
	f.distances[[2]domain.NodeID{b, a}] = meters
}

func (f *fakeOracle) Distance(_ context.Context, a, b domain.NodeID) (int, error) {
	if a == b {
		return 0, nil
	}
	return f.distances[[2]domain.NodeID{a, b}], nil
}

func (f *fakeOracle) Path(_ context.Context, a, b domain.NodeID) ([]domain.NodeID, error) {
	if p, ok := f.paths[[2]domain.NodeID{a, b}]; ok {
		return p, nil
	}
	return []domain.NodeID{a, b}, nil
}

// fakeGeocoder resolves every node to the same coordinate so grid.Within
// always returns every inserted vehicle regardless of radius.
type fakeGeocoder struct{}

func (fakeGeocoder) LatLng(_ context.Context, _ domain.NodeID) (float64, float64, error) {
	return 1.0, 1.0, nil
}

// fakeSink is a configurable AssignmentSink double.
type fakeSink struct {
	accept  bool
	calls   []AssignmentRequest
	failErr error
}

func (f *fakeSink) Assign(_ context.Context, req AssignmentRequest) (bool, error) {
	f.calls = append(f.calls, req)
	if f.failErr != nil {
		return false, f.failErr
	}
	return f.accept, nil
}

type fakeClock struct{ now domain.SimTime }

func (c *fakeClock) Now() domain.SimTime { return c.now }

func newTestEngine(t *testing.T, cfg Config, oracle *fakeOracle, sink AssignmentSink, clock *fakeClock) *Engine {
	t.Helper()
	g := grid.New(9, fakeGeocoder{})
	store := state.New()
	return New(cfg, clock, oracle, g, store, sink, nil, nil, nil)
}

func baseConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxRetries = 3
	cfg.BackoffDelay = 1
	cfg.VehicleSpeedMetersPerSimTime = 1.0 // 1 meter == 1 sim-time unit, matching spec's scenario numbers directly.
	cfg.PerCustomerTimeout = time.Second
	return cfg
}

// Scenario 1 (spec §8): single customer, single idle vehicle, direct trip.
func TestTick_SingleCustomerSingleVehicle_DirectTrip(t *testing.T) {
	oracle := newFakeOracle()
	oracle.set(10, 20, 300)
	oracle.set(20, 100, 800)

	clock := &fakeClock{now: 0}
	sink := &fakeSink{accept: true}
	e := newTestEngine(t, baseConfig(), oracle, sink, clock)

	dest := domain.NodeID(100)
	e.OnVehicle(domain.Vehicle{ID: "V1", Origin: 10, FinalDestination: &dest, Earliest: 0, Latest: 10000, Capacity: 4})
	e.OnCustomer(domain.Customer{ID: "C1", Origin: 10, Destination: 20, EarliestPickup: 0, LatestDropoff: 5000, Load: 1})

	require.NoError(t, e.Tick(context.Background()))

	stats := e.Statistics()
	assert.Equal(t, 1, stats.Matched)
	assert.Equal(t, 0, stats.Refused)

	require.Len(t, sink.calls, 1)
	sched := sink.calls[0].NewSchedule
	require.Len(t, sched, 4)
	assert.Equal(t, domain.NodeID(10), sched[0].Location)
	assert.Equal(t, domain.NodeID(10), sched[1].Location)
	assert.Equal(t, domain.CustOrig, sched[1].Kind)
	assert.Equal(t, domain.NodeID(20), sched[2].Location)
	assert.Equal(t, domain.CustDest, sched[2].Kind)
	assert.Equal(t, domain.NodeID(100), sched[3].Location)
	assert.Equal(t, domain.VehlDest, sched[3].Kind)
}

// Scenario 2 (spec §8): infeasible due to late window; refused after retry bound.
func TestTick_InfeasibleLateWindow_RefusedAfterRetries(t *testing.T) {
	oracle := newFakeOracle()
	oracle.set(10, 20, 300)

	clock := &fakeClock{now: 0}
	sink := &fakeSink{accept: true}
	cfg := baseConfig()
	cfg.MaxRetries = 2
	e := newTestEngine(t, cfg, oracle, sink, clock)

	dest := domain.NodeID(100)
	e.OnVehicle(domain.Vehicle{ID: "V1", Origin: 10, FinalDestination: &dest, Earliest: 0, Latest: 10000, Capacity: 4})
	e.OnCustomer(domain.Customer{ID: "C1", Origin: 10, Destination: 20, EarliestPickup: 0, LatestDropoff: 100, Load: 1})

	require.NoError(t, e.Tick(context.Background()))
	stats := e.Statistics()
	assert.Equal(t, 0, stats.Matched)
	assert.Equal(t, 0, stats.Refused)

	clock.now = 1
	require.NoError(t, e.Tick(context.Background()))
	stats = e.Statistics()
	assert.Equal(t, 0, stats.Matched)
	assert.Equal(t, 1, stats.Refused)
}

// Scenario 3 (spec §8): two customers competing, capacity blocks the loser.
func TestTick_TwoCustomersCompeting_CapacityBlocksSecond(t *testing.T) {
	oracle := newFakeOracle()
	oracle.set(10, 11, 10)
	oracle.set(11, 12, 10)
	oracle.set(12, 100, 10)
	oracle.set(10, 50, 500)
	oracle.set(50, 60, 500)
	oracle.set(60, 100, 500)
	oracle.set(11, 50, 500)
	oracle.set(12, 50, 500)

	clock := &fakeClock{now: 0}
	sink := &fakeSink{accept: true}
	cfg := baseConfig()
	cfg.MaxRetries = 1
	e := newTestEngine(t, cfg, oracle, sink, clock)

	dest := domain.NodeID(100)
	e.OnVehicle(domain.Vehicle{ID: "V1", Origin: 10, FinalDestination: &dest, Earliest: 0, Latest: 100000, Capacity: 1})
	e.OnCustomer(domain.Customer{ID: "C1", Origin: 11, Destination: 12, EarliestPickup: 0, LatestDropoff: 100000, Load: 1})
	e.OnCustomer(domain.Customer{ID: "C2", Origin: 50, Destination: 60, EarliestPickup: 0, LatestDropoff: 100000, Load: 1})

	require.NoError(t, e.Tick(context.Background()))

	stats := e.Statistics()
	assert.Equal(t, 1, stats.Matched)
	assert.Equal(t, 1, stats.Refused)
	assert.True(t, e.isAssigned("C1"))
	assert.False(t, e.isAssigned("C2"))
}

// Scenario 6 (spec §8): out-of-sync rejection.
func TestTick_OutOfSyncRejection(t *testing.T) {
	oracle := newFakeOracle()
	oracle.set(10, 20, 300)
	oracle.set(20, 100, 800)

	clock := &fakeClock{now: 0}
	sink := &fakeSink{accept: false}
	e := newTestEngine(t, baseConfig(), oracle, sink, clock)

	dest := domain.NodeID(100)
	e.OnVehicle(domain.Vehicle{ID: "V1", Origin: 10, FinalDestination: &dest, Earliest: 0, Latest: 10000, Capacity: 4})
	e.OnCustomer(domain.Customer{ID: "C1", Origin: 10, Destination: 20, EarliestPickup: 0, LatestDropoff: 5000, Load: 1})

	require.NoError(t, e.Tick(context.Background()))

	stats := e.Statistics()
	assert.Equal(t, 0, stats.Matched)
	assert.Equal(t, 1, stats.OutOfSyncRejections)
	assert.False(t, e.isAssigned("C1"))
	assert.Equal(t, 1, e.backoff.len())
}

func TestStatistics_MeanMatchLatencyZeroWithNoSamples(t *testing.T) {
	e := newTestEngine(t, baseConfig(), newFakeOracle(), &fakeSink{accept: true}, &fakeClock{})
	stats := e.Statistics()
	assert.Zero(t, stats.MeanMatchLatency)
}
