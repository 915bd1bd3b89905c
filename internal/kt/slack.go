package kt

import "github.com/richxcame/matchengine/internal/domain"

// ComputeTotalSlack recomputes TotalSlack bottom-up (spec §4.1): a
// pickup or pickup-visited-dropoff node's own slack is Limit -
// TimeFromRoot; any other node's own slack is infinite. A node's
// TotalSlack is the minimum of its own slack and the largest TotalSlack
// among its children — the largest residual that any descendant path
// still retains. The matcher reads it as a fast pre-check before
// TentativeInsert and skips a tree whose total slack is zero or less; the
// augment recursion itself does not consult it.
func (t *Tree) ComputeTotalSlack() domain.SimTime {
	return t.computeSlack(t.root)
}

func (t *Tree) computeSlack(h Handle) domain.SimTime {
	n := t.nodes[h]

	own := domain.Infinite
	if n.IsPickup || n.PickupVisited {
		own = n.Limit.Sub(n.TimeFromRoot)
	}

	if len(n.Children) == 0 {
		n.TotalSlack = own
		t.nodes[h] = n
		return own
	}

	maxChild := domain.SimTime(-1)
	for _, c := range n.Children {
		cs := t.computeSlack(c)
		if cs > maxChild {
			maxChild = cs
		}
	}
	total := own
	if maxChild < total {
		total = maxChild
	}
	n.TotalSlack = total
	t.nodes[h] = n
	return total
}
