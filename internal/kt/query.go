package kt

import (
	"context"

	"github.com/richxcame/matchengine/internal/domain"
)

// BestTime runs the best-path DFS (spec §4.1): at each internal node it
// takes the minimum of child.TimeFromParent + BestTime(child) over
// children, breaking ties by lowest child index, and records the winner
// as BestChildIndex. At a leaf it returns zero for a taxi or the oracle
// time from the leaf to the fixed destination.
func (t *Tree) BestTime(ctx context.Context) (domain.SimTime, error) {
	return t.bestTime(ctx, t.root)
}

func (t *Tree) bestTime(ctx context.Context, h Handle) (domain.SimTime, error) {
	n := t.nodes[h]
	if len(n.Children) == 0 {
		n.BestChildIndex = -1
		t.nodes[h] = n
		if t.destination == nil {
			return 0, nil
		}
		return t.timeTo(ctx, n.Location, *t.destination)
	}

	best := domain.Infinite
	bestIdx := -1
	for i, c := range n.Children {
		sub, err := t.bestTime(ctx, c)
		if err != nil {
			return 0, err
		}
		cn := t.nodes[c]
		total := cn.TimeFromParent.Add(sub)
		if total < best {
			best = total
			bestIdx = i
		}
	}
	n.BestChildIndex = bestIdx
	t.nodes[h] = n
	return best, nil
}

// Next returns the location of the root's current best child — the next
// intended stop on the best path — or ok=false if the root has no children.
func (t *Tree) Next() (loc domain.NodeID, ok bool) {
	r := t.nodes[t.root]
	if len(r.Children) == 0 || r.BestChildIndex < 0 || r.BestChildIndex >= len(r.Children) {
		return 0, false
	}
	return t.nodes[r.Children[r.BestChildIndex]].Location, true
}

// Step promotes the root's best child to be the new root, discarding the
// other children (they are now infeasible to skip to). Returns
// dropped=true iff the promoted node was a dropoff, and ok=false if the
// root had no children to promote.
func (t *Tree) Step() (dropped bool, ok bool) {
	r := t.nodes[t.root]
	if len(r.Children) == 0 {
		return false, false
	}
	bc := r.BestChildIndex
	if bc < 0 || bc >= len(r.Children) {
		bc = 0
	}
	promotedHandle := r.Children[bc]
	promoted := t.nodes[promotedHandle]

	newChildren := make([]Handle, len(promoted.Children))
	for i, c := range promoted.Children {
		cn := t.nodes[c]
		cn.Parent = t.root
		t.nodes[c] = cn
		newChildren[i] = c
	}

	newRoot := Node{
		Location:       promoted.Location,
		Owner:          r.Owner,
		Limit:          domain.Infinite,
		AbsoluteTime:   promoted.AbsoluteTime,
		BestChildIndex: promoted.BestChildIndex,
		Parent:         NilHandle,
		Children:       newChildren,
	}
	t.nodes[t.root] = newRoot

	dropped = !promoted.IsPickup
	// Mirror the teacher's root->step(0, removedChild->insert_uid): propagate
	// pickup_visited to the sibling dropoff of whatever pickup we just dropped.
	t.advance(t.root, 0, promoted.InsertUID)
	return dropped, true
}

// OrderedStopSequence walks the best root-to-leaf path (spec §4.1).
func (t *Tree) OrderedStopSequence() []domain.OrderedStopTriple {
	var out []domain.OrderedStopTriple
	h := t.root
	for {
		n := t.nodes[h]
		out = append(out, domain.OrderedStopTriple{
			Owner:    n.Owner,
			Location: n.Location,
			IsPickup: n.IsPickup,
		})
		if len(n.Children) == 0 || n.BestChildIndex < 0 || n.BestChildIndex >= len(n.Children) {
			return out
		}
		h = n.Children[n.BestChildIndex]
	}
}

// ShadowOrderedStopSequence walks the outstanding shadow's best root-to-leaf
// path, letting a caller derive the candidate schedule a tentative insertion
// would produce (spec §4.3 step 2.4.b: "derive the candidate schedule from
// the shadow's best path and check capacity along it") without committing
// first. Returns ok=false if no TentativeInsert is outstanding.
func (t *Tree) ShadowOrderedStopSequence() (seq []domain.OrderedStopTriple, ok bool) {
	if t.shadow == nil {
		return nil, false
	}
	return t.shadow.OrderedStopSequence(), true
}
