package kt

import (
	"context"
	"errors"

	"github.com/richxcame/matchengine/internal/domain"
)

// ErrInfeasible is the tentative-insertion sentinel: the pickup/dropoff
// pair cannot be placed anywhere on any still-feasible path. It is not an
// error in the Go sense (spec §7: "normal, signaled by sentinel"), but
// returning it as one keeps call sites honest about checking it.
var ErrInfeasible = errors.New("kt: insertion infeasible")

// ErrNoTentative is returned by CommitTentative/DiscardTentative when no
// TentativeInsert is outstanding.
var ErrNoTentative = errors.New("kt: no tentative insertion outstanding")

// TentativeInsert produces a shadow tree containing the committed
// structure augmented with the requested pickup-dropoff pair inserted at
// every feasible position, and returns the minimum root-to-leaf cost along
// the shadow (spec §4.1). The caller must follow with exactly one of
// CommitTentative or DiscardTentative.
func (t *Tree) TentativeInsert(ctx context.Context, owner domain.Owner, origin, destination domain.NodeID, pickupDeadline, dropoffDeadline domain.SimTime) (domain.SimTime, error) {
	shadow := t.Clone()
	uid := shadow.nextInsertUID

	inserted, err := shadow.augmentPickup(ctx, shadow.root, uid, owner, origin, destination, pickupDeadline, dropoffDeadline)
	if err != nil {
		return 0, err
	}
	if !inserted {
		return 0, ErrInfeasible
	}

	cost, err := shadow.bestTime(ctx, shadow.root)
	if err != nil {
		return 0, err
	}
	shadow.nextInsertUID = uid + 1
	t.shadow = shadow
	return cost, nil
}

// CommitTentative replaces the committed tree with the outstanding shadow.
func (t *Tree) CommitTentative() error {
	if t.shadow == nil {
		return ErrNoTentative
	}
	*t = *t.shadow
	t.shadow = nil
	return nil
}

// DiscardTentative drops the outstanding shadow, leaving the committed
// tree untouched.
func (t *Tree) DiscardTentative() error {
	if t.shadow == nil {
		return ErrNoTentative
	}
	t.shadow = nil
	return nil
}

// augmentPickup tries, at node h and recursively at every one of h's
// original children, to add the pickup as a new child. Where it fits, the
// new pickup node inherits copies of h's original children (reparented
// and re-timed under it) and is itself augmented with the dropoff via
// augmentDropoff. Reports whether the pair was placed anywhere in h's
// subtree.
func (t *Tree) augmentPickup(ctx context.Context, h Handle, uid int64, owner domain.Owner, pickup, dropoff domain.NodeID, pickupDeadline, dropoffDeadline domain.SimTime) (bool, error) {
	n := t.nodes[h]
	originalChildren := append([]Handle(nil), n.Children...)
	anyFeasible := false

	edge, err := t.timeTo(ctx, n.Location, pickup)
	if err != nil {
		return false, err
	}
	newTimeFromRoot := n.TimeFromRoot.Add(edge)

	if newTimeFromRoot <= pickupDeadline {
		pHandle := t.newNode(Node{
			Location:       pickup,
			Owner:          owner,
			IsPickup:       true,
			InsertUID:      uid,
			TimeFromParent: edge,
			TimeFromRoot:   newTimeFromRoot,
			AbsoluteTime:   n.AbsoluteTime.Add(edge),
			Limit:          pickupDeadline,
			Parent:         h,
			BestChildIndex: -1,
		})

		var kept []Handle
		for _, c := range originalChildren {
			ch, ok, rerr := t.reparentSubtree(ctx, c, pHandle)
			if rerr != nil {
				return false, rerr
			}
			if ok {
				kept = append(kept, ch)
			}
		}
		pn := t.nodes[pHandle]
		pn.Children = kept
		t.nodes[pHandle] = pn

		dropOK, derr := t.augmentDropoff(ctx, pHandle, uid, owner, dropoff, dropoffDeadline)
		if derr != nil {
			return false, derr
		}
		if dropOK {
			n2 := t.nodes[h]
			n2.Children = append(n2.Children, pHandle)
			t.nodes[h] = n2
			anyFeasible = true
		}
		// else: pHandle and its reparented subtree are left unreachable in
		// the arena. They are garbage but harmless: nothing ever walks from
		// h's (unchanged) Children back into them.
	}

	for _, c := range originalChildren {
		ok, cerr := t.augmentPickup(ctx, c, uid, owner, pickup, dropoff, pickupDeadline, dropoffDeadline)
		if cerr != nil {
			return false, cerr
		}
		if ok {
			anyFeasible = true
		}
	}
	return anyFeasible, nil
}

// augmentDropoff mirrors augmentPickup for the paired dropoff, once the
// pickup side has already been placed at h.
func (t *Tree) augmentDropoff(ctx context.Context, h Handle, uid int64, owner domain.Owner, dropoff domain.NodeID, dropoffDeadline domain.SimTime) (bool, error) {
	n := t.nodes[h]
	originalChildren := append([]Handle(nil), n.Children...)
	anyFeasible := false

	edge, err := t.timeTo(ctx, n.Location, dropoff)
	if err != nil {
		return false, err
	}
	newTimeFromRoot := n.TimeFromRoot.Add(edge)

	if newTimeFromRoot <= dropoffDeadline {
		dHandle := t.newNode(Node{
			Location:       dropoff,
			Owner:          owner,
			IsPickup:       false,
			InsertUID:      uid,
			TimeFromParent: edge,
			TimeFromRoot:   newTimeFromRoot,
			AbsoluteTime:   n.AbsoluteTime.Add(edge),
			Limit:          dropoffDeadline,
			Parent:         h,
			BestChildIndex: -1,
		})

		var kept []Handle
		for _, c := range originalChildren {
			ch, ok, rerr := t.reparentSubtree(ctx, c, dHandle)
			if rerr != nil {
				return false, rerr
			}
			if ok {
				kept = append(kept, ch)
			}
		}
		dn := t.nodes[dHandle]
		dn.Children = kept
		t.nodes[dHandle] = dn

		n2 := t.nodes[h]
		n2.Children = append(n2.Children, dHandle)
		t.nodes[h] = n2
		anyFeasible = true
	}

	for _, c := range originalChildren {
		ok, cerr := t.augmentDropoff(ctx, c, uid, owner, dropoff, dropoffDeadline)
		if cerr != nil {
			return false, cerr
		}
		if ok {
			anyFeasible = true
		}
	}
	return anyFeasible, nil
}

// reparentSubtree clones node h (and, recursively, its surviving
// descendants) as a child of newParent, recomputing TimeFromParent,
// TimeFromRoot, and AbsoluteTime against newParent's location. A clone
// that would violate its own (unchanged) Limit is pruned — its subtree is
// simply not created — without failing the rest of the reparent.
func (t *Tree) reparentSubtree(ctx context.Context, h Handle, newParent Handle) (Handle, bool, error) {
	orig := t.nodes[h]
	np := t.nodes[newParent]

	edge, err := t.timeTo(ctx, np.Location, orig.Location)
	if err != nil {
		return NilHandle, false, err
	}
	newTimeFromRoot := np.TimeFromRoot.Add(edge)
	if orig.Limit != domain.Infinite && newTimeFromRoot > orig.Limit {
		return NilHandle, false, nil
	}

	h2 := t.newNode(Node{
		Location:       orig.Location,
		Owner:          orig.Owner,
		IsPickup:       orig.IsPickup,
		InsertUID:      orig.InsertUID,
		PickupVisited:  orig.PickupVisited,
		TimeFromParent: edge,
		TimeFromRoot:   newTimeFromRoot,
		AbsoluteTime:   np.AbsoluteTime.Add(edge),
		Limit:          orig.Limit,
		Parent:         newParent,
		BestChildIndex: -1,
	})

	var kept []Handle
	for _, c := range orig.Children {
		ch, ok, rerr := t.reparentSubtree(ctx, c, h2)
		if rerr != nil {
			return NilHandle, false, rerr
		}
		if ok {
			kept = append(kept, ch)
		}
	}
	n2 := t.nodes[h2]
	n2.Children = kept
	t.nodes[h2] = n2
	return h2, true, nil
}
