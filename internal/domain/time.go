// Package domain holds the shared types consumed by the kinetic tree, grid,
// matcher, and synchronizer: node identifiers, customers, vehicles, stops,
// schedules, and routes (spec §3).
package domain

// SimTime is a sim-time value in seconds. Centralizing every KT, Schedule,
// and Stop time field behind this type keeps sim-time (seconds) and oracle
// distance (meters) from ever mixing in an arithmetic expression by accident.
type SimTime int64

// Infinite marks a vehicle or stop with no upper time bound (taxi mode).
const Infinite SimTime = 1<<63 - 1

// Add returns t shifted by delta, saturating at Infinite rather than
// overflowing past it.
func (t SimTime) Add(delta SimTime) SimTime {
	if t == Infinite || delta == Infinite {
		return Infinite
	}
	return t + delta
}

// Sub returns t - delta, floored at zero.
func (t SimTime) Sub(delta SimTime) SimTime {
	if t == Infinite {
		return Infinite
	}
	r := t - delta
	if r < 0 {
		return 0
	}
	return r
}

// NodeID is an opaque road-network vertex identifier.
type NodeID int64

// Dist is a distance or duration in sim-time units, produced by dividing an
// oracle distance (meters) by the fleet's speed constant.
type Dist = SimTime

// MetersToSimTime converts an oracle distance (meters) into sim-time using
// the fleet's speed constant (meters per unit sim-time), per spec §9's clock
// units note: this is the single conversion point so callers never do the
// division inline.
func MetersToSimTime(meters int, metersPerSimTime float64) SimTime {
	if metersPerSimTime <= 0 {
		return 0
	}
	return SimTime(float64(meters) / metersPerSimTime)
}
