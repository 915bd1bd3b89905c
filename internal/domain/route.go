package domain

import "context"

// ShortestPath is the subset of the external road-network oracle needed to
// materialize a Route: walking the oracle's Path between consecutive stops
// (spec's original_source/ScheduleRouter.cpp, supplemented per SPEC_FULL §10).
type ShortestPath interface {
	Path(ctx context.Context, a, b NodeID) ([]NodeID, error)
	Distance(ctx context.Context, a, b NodeID) (int, error)
}

// MaterializeRoute converts a committed Schedule into a Route of
// (distance-from-start, NodeId) waypoints by walking the oracle's Path
// between every consecutive pair of stops (spec §3: "Route... derived;
// never stored as ground truth"). startDistance lets a caller continue a
// route whose start leg has already been traveled (e.g. mid-leg on commit).
func MaterializeRoute(ctx context.Context, sp ShortestPath, sched Schedule, startDistance int) (Route, error) {
	if len(sched) == 0 {
		return nil, nil
	}

	route := make(Route, 0, len(sched))
	route = append(route, RouteWaypoint{DistanceFromStart: startDistance, Location: sched[0].Location})

	cumulative := startDistance
	for i := 1; i < len(sched); i++ {
		from, to := sched[i-1].Location, sched[i].Location
		if from == to {
			route = append(route, RouteWaypoint{DistanceFromStart: cumulative, Location: to})
			continue
		}

		waypoints, err := sp.Path(ctx, from, to)
		if err != nil {
			return nil, err
		}

		if len(waypoints) < 2 {
			// Oracle returned no intermediate detail; fall back to a direct
			// distance lookup so the route still has a waypoint for this leg.
			meters, err := sp.Distance(ctx, from, to)
			if err != nil {
				return nil, err
			}
			cumulative += meters
			route = append(route, RouteWaypoint{DistanceFromStart: cumulative, Location: to})
			continue
		}

		// waypoints[0] == from; accumulate distance leg-by-leg through the
		// intermediate path nodes so DistanceFromStart reflects the actual
		// road-network route, not a straight-line estimate.
		for j := 1; j < len(waypoints); j++ {
			meters, err := sp.Distance(ctx, waypoints[j-1], waypoints[j])
			if err != nil {
				return nil, err
			}
			cumulative += meters
			route = append(route, RouteWaypoint{DistanceFromStart: cumulative, Location: waypoints[j]})
		}
	}

	return route, nil
}
