// Package reconcile implements the synchronizer (spec.md §4.4): it keeps a
// vehicle's kinetic tree aligned with the authoritative schedule reported by
// the fleet-state source. Its only caller is the matcher's per-tick vehicle
// refresh; vehicle-state updates arriving between ticks are stored, not
// synchronized on arrival.
package reconcile

import (
	"context"

	"github.com/richxcame/matchengine/internal/domain"
	"github.com/richxcame/matchengine/internal/kt"
)

// Synchronizer reconciles kinetic trees with authoritative schedules.
type Synchronizer struct{}

// New constructs a Synchronizer. It holds no state: every call is a pure
// function of the tree and the schedule it is given.
func New() *Synchronizer {
	return &Synchronizer{}
}

// Synchronize implements spec.md §4.4's two-step algorithm:
//  1. compare the KT's best-path next() against the authoritative
//     schedule's second stop; if they differ, step the KT until they match
//     or it is exhausted.
//  2. move_root the KT to the authoritative schedule's first stop.
//
// Postcondition: the KT's root is the vehicle's current position and its
// best path's next stop matches the authoritative next stop (spec.md §8
// invariant 6: running this twice in a row with no intervening state
// change is a no-op on the second call — both steps are already idempotent
// once the KT agrees with authoritative).
func (s *Synchronizer) Synchronize(ctx context.Context, tree *kt.Tree, authoritative domain.Schedule) error {
	if tree == nil || len(authoritative) == 0 {
		return nil
	}

	if len(authoritative) >= 2 {
		target := authoritative[1].Location
		for {
			next, ok := tree.Next()
			if !ok {
				break
			}
			if next == target {
				break
			}
			if _, ok := tree.Step(); !ok {
				break
			}
		}
	}

	tree.MoveRoot(authoritative[0].Location)
	return nil
}
