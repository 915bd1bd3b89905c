package kt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/richxcame/matchengine/internal/domain"
)

// gridOracle is a fixed lookup table standing in for the shortest-path
// oracle in tests; distances are symmetric and in meters.
type gridOracle struct {
	dist map[[2]domain.NodeID]int
}

func newGridOracle() *gridOracle {
	return &gridOracle{dist: make(map[[2]domain.NodeID]int)}
}

func (g *gridOracle) set(a, b domain.NodeID, meters int) {
	g.dist[[2]domain.NodeID{a, b}] = meters
	g.dist[[2]domain.NodeID{b, a}] = meters
}

func (g *gridOracle) Distance(_ context.Context, a, b domain.NodeID) (int, error) {
	if a == b {
		return 0, nil
	}
	return g.dist[[2]domain.NodeID{a, b}], nil
}

// Scenario 1: single customer, single idle vehicle, direct trip.
func TestTentativeInsert_SingleCustomerDirectTrip(t *testing.T) {
	oracle := newGridOracle()
	oracle.set(10, 20, 300)
	oracle.set(20, 100, 800)

	dest := domain.NodeID(100)
	tree := New(10, &dest, "V", oracle, 1.0) // speed=1 m/s so meters == sim-time units

	ctx := context.Background()
	cost, err := tree.TentativeInsert(ctx, domain.Owner{CustomerID: "C"}, 10, 20, 5000, 5000)
	require.NoError(t, err)
	require.Equal(t, domain.SimTime(1100), cost)

	require.NoError(t, tree.CommitTentative())

	// OrderedStopSequence walks KT nodes only; the final destination is not
	// a KT node (it's the implicit leaf-cost term) and is appended when a
	// Schedule is materialized from this sequence at the matcher layer.
	seq := tree.OrderedStopSequence()
	require.Len(t, seq, 3)
	require.Equal(t, domain.NodeID(10), seq[0].Location)
	require.Equal(t, domain.NodeID(10), seq[1].Location)
	require.True(t, seq[1].IsPickup)
	require.Equal(t, domain.NodeID(20), seq[2].Location)
	require.False(t, seq[2].IsPickup)
}

// Scenario 2: infeasible due to late window.
func TestTentativeInsert_InfeasibleLateWindow(t *testing.T) {
	oracle := newGridOracle()
	oracle.set(10, 20, 300)
	oracle.set(20, 100, 800)

	dest := domain.NodeID(100)
	tree := New(10, &dest, "V", oracle, 1.0)

	ctx := context.Background()
	_, err := tree.TentativeInsert(ctx, domain.Owner{CustomerID: "C"}, 10, 20, 100, 100)
	require.ErrorIs(t, err, ErrInfeasible)
}

// Invariant 5: commit/cancel symmetry — discard leaves the committed tree
// untouched.
func TestDiscardTentative_LeavesTreeUnchanged(t *testing.T) {
	oracle := newGridOracle()
	oracle.set(10, 20, 300)
	oracle.set(20, 100, 800)

	dest := domain.NodeID(100)
	tree := New(10, &dest, "V", oracle, 1.0)
	before := tree.NodeCount()

	ctx := context.Background()
	_, err := tree.TentativeInsert(ctx, domain.Owner{CustomerID: "C"}, 10, 20, 5000, 5000)
	require.NoError(t, err)
	require.NoError(t, tree.DiscardTentative())

	require.Equal(t, before, tree.NodeCount())
	_, ok := tree.Next()
	require.False(t, ok)
}

// Invariant 4: advance(d) then advance(d') equals advance(d+d').
func TestAdvance_IsAdditive(t *testing.T) {
	oracle := newGridOracle()
	oracle.set(10, 20, 300)
	oracle.set(20, 100, 800)

	dest := domain.NodeID(100)
	a := New(10, &dest, "V", oracle, 1.0)
	b := New(10, &dest, "V", oracle, 1.0)

	ctx := context.Background()
	_, err := a.TentativeInsert(ctx, domain.Owner{CustomerID: "C"}, 10, 20, 5000, 5000)
	require.NoError(t, err)
	require.NoError(t, a.CommitTentative())
	_, err = b.TentativeInsert(ctx, domain.Owner{CustomerID: "C"}, 10, 20, 5000, 5000)
	require.NoError(t, err)
	require.NoError(t, b.CommitTentative())

	a.Advance(40)
	a.Advance(60)
	b.Advance(100)

	require.Equal(t, b.nodes[b.root].TimeFromRoot, a.nodes[a.root].TimeFromRoot)
	seqA := a.OrderedStopSequence()
	seqB := b.OrderedStopSequence()
	require.Equal(t, seqB, seqA)
}

// Scenario 3: capacity-blocked second customer is refused by the matcher's
// capacity re-check, but the KT layer tracks only time — confirm the KT
// itself happily accepts a second overlapping pair (the matcher is the
// layer responsible for rejecting it on capacity, per spec §4.3/§9).
func TestTentativeInsert_SecondPairStillTimeFeasible(t *testing.T) {
	oracle := newGridOracle()
	oracle.set(10, 11, 50)
	oracle.set(11, 12, 50)
	oracle.set(10, 50, 500)
	oracle.set(50, 60, 500)
	oracle.set(12, 50, 500)
	oracle.set(60, 12, 10)

	tree := New(10, nil, "V", oracle, 1.0)
	ctx := context.Background()

	cost1, err := tree.TentativeInsert(ctx, domain.Owner{CustomerID: "C1"}, 11, 12, 5000, 5000)
	require.NoError(t, err)
	require.NoError(t, tree.CommitTentative())
	require.Greater(t, cost1, domain.SimTime(0))

	_, err = tree.TentativeInsert(ctx, domain.Owner{CustomerID: "C2"}, 50, 60, 5000, 5000)
	require.NoError(t, err)
	require.NoError(t, tree.DiscardTentative())
}

func TestStep_PromotesBestChildAndReportsDropoff(t *testing.T) {
	oracle := newGridOracle()
	oracle.set(10, 20, 300)
	oracle.set(20, 100, 800)

	dest := domain.NodeID(100)
	tree := New(10, &dest, "V", oracle, 1.0)
	ctx := context.Background()

	_, err := tree.TentativeInsert(ctx, domain.Owner{CustomerID: "C"}, 10, 20, 5000, 5000)
	require.NoError(t, err)
	require.NoError(t, tree.CommitTentative())

	dropped, ok := tree.Step()
	require.True(t, ok)
	require.False(t, dropped) // first stop is the pickup
	require.Equal(t, domain.NodeID(10), tree.RootLocation())

	dropped, ok = tree.Step()
	require.True(t, ok)
	require.True(t, dropped) // second stop is the dropoff
	require.Equal(t, domain.NodeID(20), tree.RootLocation())
}
