package domain

import "fmt"

// Schedule is an ordered sequence of Stops (spec §3). Invariants enforced by
// CheckFeasible/CheckCapacity below, not by the type itself: a Schedule is a
// plain value and can transiently violate them while being built.
type Schedule []Stop

// Leg is one edge of a materialized Route: the travel time to reach a stop
// from the previous one, paired with the node reached.
type Leg struct {
	Location NodeID
	Duration SimTime
}

// Route is the ordered sequence of (distance-from-start, NodeId) waypoints
// realizing a Schedule against the road network (spec §3). Derived; never
// stored as ground truth.
type Route []RouteWaypoint

// RouteWaypoint is one entry of a materialized Route.
type RouteWaypoint struct {
	DistanceFromStart int // meters
	Location          NodeID
}

// CheckFeasible walks the schedule accumulating travel time from `now`,
// verifying that the partial sum never exceeds a stop's late window and
// noting (but not failing on) early arrivals, which cause a wait rather
// than an infeasibility (spec §3). legDurations[i] is the travel time from
// stop i-1 to stop i (legDurations[0] is unused / must be zero).
func CheckFeasible(sched Schedule, legDurations []SimTime, now SimTime) error {
	if len(sched) != len(legDurations) {
		return fmt.Errorf("domain: schedule has %d stops but %d leg durations", len(sched), len(legDurations))
	}
	elapsed := now
	for i, st := range sched {
		if i > 0 {
			elapsed = elapsed.Add(legDurations[i])
		}
		arrival := elapsed
		if arrival < st.TimeWindowEarly {
			arrival = st.TimeWindowEarly // early arrival waits, does not fail.
		}
		if st.TimeWindowLate != Infinite && arrival > st.TimeWindowLate {
			return fmt.Errorf("domain: stop %d (%s @ %d) arrives at %d after late window %d",
				i, st.Kind, st.Location, arrival, st.TimeWindowLate)
		}
		elapsed = arrival
	}
	return nil
}

// CheckCapacity verifies that the running load along the schedule never
// exceeds the vehicle's capacity (spec §3, §7: "capacity violation
// discovered after KT says feasible... matcher re-checks capacity on the
// derived schedule").
func CheckCapacity(sched Schedule, loadByCustomer map[CustomerID]int, capacity int) error {
	load := 0
	for i, st := range sched {
		if !st.Owner.IsCustomer() {
			continue
		}
		switch st.Kind {
		case CustOrig:
			load += loadByCustomer[st.Owner.CustomerID]
		case CustDest:
			load -= loadByCustomer[st.Owner.CustomerID]
		}
		if load > capacity {
			return fmt.Errorf("domain: schedule stop %d exceeds capacity (%d > %d)", i, load, capacity)
		}
		if load < 0 {
			return fmt.Errorf("domain: schedule stop %d has negative load (dropoff before pickup?)", i)
		}
	}
	return nil
}

// OrderedStopTriple is the (owner, location, is_pickup) triple produced by
// walking a best root-to-leaf KT path (spec §4.1's ordered_stop_sequence).
type OrderedStopTriple struct {
	Owner     Owner
	Location  NodeID
	IsPickup  bool
}
