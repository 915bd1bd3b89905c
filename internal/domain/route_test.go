package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeShortestPathRoute struct {
	paths     map[[2]NodeID][]NodeID
	distances map[[2]NodeID]int
}

func (f *fakeShortestPathRoute) Path(ctx context.Context, a, b NodeID) ([]NodeID, error) {
	return f.paths[[2]NodeID{a, b}], nil
}

func (f *fakeShortestPathRoute) Distance(ctx context.Context, a, b NodeID) (int, error) {
	return f.distances[[2]NodeID{a, b}], nil
}

func TestMaterializeRoute_Empty(t *testing.T) {
	route, err := MaterializeRoute(context.Background(), &fakeShortestPathRoute{}, nil, 0)
	require.NoError(t, err)
	assert.Nil(t, route)
}

func TestMaterializeRoute_DirectLegsWithIntermediateWaypoints(t *testing.T) {
	sched := Schedule{
		{Location: 10, Kind: VehlOrig},
		{Location: 20, Kind: CustOrig},
		{Location: 100, Kind: VehlDest},
	}

	sp := &fakeShortestPathRoute{
		paths: map[[2]NodeID][]NodeID{
			{10, 20}:  {10, 15, 20},
			{20, 100}: {20, 100},
		},
		distances: map[[2]NodeID]int{
			{10, 15}: 300,
			{15, 20}: 200,
			{20, 100}: 800,
		},
	}

	route, err := MaterializeRoute(context.Background(), sp, sched, 0)
	require.NoError(t, err)
	require.Len(t, route, 4)
	assert.Equal(t, RouteWaypoint{DistanceFromStart: 0, Location: 10}, route[0])
	assert.Equal(t, RouteWaypoint{DistanceFromStart: 300, Location: 15}, route[1])
	assert.Equal(t, RouteWaypoint{DistanceFromStart: 500, Location: 20}, route[2])
	assert.Equal(t, RouteWaypoint{DistanceFromStart: 1300, Location: 100}, route[3])
}

func TestMaterializeRoute_SameLocationStopsCollapse(t *testing.T) {
	sched := Schedule{
		{Location: 20, Kind: CustOrig},
		{Location: 20, Kind: CustDest},
	}
	sp := &fakeShortestPathRoute{}

	route, err := MaterializeRoute(context.Background(), sp, sched, 500)
	require.NoError(t, err)
	require.Len(t, route, 2)
	assert.Equal(t, 500, route[0].DistanceFromStart)
	assert.Equal(t, 500, route[1].DistanceFromStart)
}

func TestMaterializeRoute_FallsBackToDistanceWhenPathThin(t *testing.T) {
	sched := Schedule{
		{Location: 10, Kind: VehlOrig},
		{Location: 20, Kind: CustOrig},
	}
	sp := &fakeShortestPathRoute{
		paths: map[[2]NodeID][]NodeID{},
		distances: map[[2]NodeID]int{
			{10, 20}: 750,
		},
	}

	route, err := MaterializeRoute(context.Background(), sp, sched, 0)
	require.NoError(t, err)
	require.Len(t, route, 2)
	assert.Equal(t, 750, route[1].DistanceFromStart)
}
