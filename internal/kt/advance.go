package kt

import "github.com/richxcame/matchengine/internal/domain"

// Advance shifts every node's TimeFromRoot and AbsoluteTime down by elapsed,
// equivalent to moving the root's wall clock forward (spec §4.1). Limit is
// never touched here.
func (t *Tree) Advance(elapsed domain.SimTime) {
	t.advance(t.root, elapsed, -1)
}

// AdvanceWithPair is Advance plus marking the dropoff node paired with
// insertUID as PickupVisited=true (its matching pickup was just reached).
func (t *Tree) AdvanceWithPair(elapsed domain.SimTime, insertUID int64) {
	t.advance(t.root, elapsed, insertUID)
}

func (t *Tree) advance(h Handle, elapsed domain.SimTime, pairUID int64) {
	n := t.nodes[h]
	if pairUID >= 0 && !n.IsPickup && n.InsertUID == pairUID {
		n.PickupVisited = true
	}
	n.TimeFromRoot = n.TimeFromRoot.Sub(elapsed)
	n.AbsoluteTime = n.AbsoluteTime.Sub(elapsed)
	t.nodes[h] = n
	for _, c := range n.Children {
		t.advance(c, elapsed, pairUID)
	}
}

// MoveRoot replaces the root's location, used when the vehicle reaches the
// next scheduled stop (spec §4.1).
func (t *Tree) MoveRoot(node domain.NodeID) {
	r := t.nodes[t.root]
	r.Location = node
	t.nodes[t.root] = r
}
