// Package kt implements the per-vehicle kinetic tree: the branching
// schedule tree whose root is a vehicle's current position and whose
// root-to-leaf paths enumerate every still-feasible ordering of that
// vehicle's committed pickup/dropoff stops.
//
// Nodes live in an arena (a single growable slice) addressed by integer
// Handle rather than by pointer, so the parent chain and child list are
// index walks, not raw back-pointers (spec's design note on pointer-heavy
// trees). A Tree owns exactly one arena; cloning for tentative insertion
// allocates a fresh arena rather than mutating the original in place.
package kt

import (
	"context"

	"github.com/richxcame/matchengine/internal/domain"
)

// Handle addresses a Node within a Tree's arena. The zero value is not a
// valid handle; use NilHandle for "no node".
type Handle int32

// NilHandle marks the absence of a node reference (e.g. a root's parent).
const NilHandle Handle = -1

// Node is one arena slot: a stop candidate somewhere along a vehicle's
// still-feasible schedule tree (spec §3's "KT node").
type Node struct {
	Location domain.NodeID
	Owner    domain.Owner

	IsPickup      bool
	InsertUID     int64
	PickupVisited bool

	TimeFromParent domain.SimTime
	TimeFromRoot   domain.SimTime
	AbsoluteTime   domain.SimTime

	// Limit is the absolute deadline: pickup deadline for a pickup node,
	// latest dropoff for a dropoff node. Never mutated by Advance — see
	// the package doc on the pair-time/limit open question.
	Limit domain.SimTime

	TotalSlack domain.SimTime

	BestChildIndex int // index into Children, or -1
	Parent         Handle
	Children       []Handle
}

// Oracle is the shortest-path distance source the tree consults to cost
// every candidate edge. Implementations must be safe for concurrent use;
// the tree itself performs no concurrent calls but the matcher may share
// one oracle across many vehicles' trees.
type Oracle interface {
	Distance(ctx context.Context, a, b domain.NodeID) (meters int, err error)
}

// Tree is one vehicle's kinetic tree plus, while a tentative insertion is
// outstanding, the shadow tree it produced.
type Tree struct {
	nodes []Node
	root  Handle

	owner       domain.VehicleID
	destination *domain.NodeID // nil: taxi mode, no fixed final destination.

	nextInsertUID int64

	oracle  Oracle
	speedMPS float64 // meters per unit sim-time; see domain.MetersToSimTime.

	shadow *Tree
}

// New constructs an empty KT with a single root at origin. A nil
// destination means the vehicle is a taxi: the leaf-to-destination term
// in BestTime is zero for every leaf.
func New(origin domain.NodeID, destination *domain.NodeID, owner domain.VehicleID, oracle Oracle, speedMPS float64) *Tree {
	t := &Tree{
		owner:       owner,
		destination: destination,
		oracle:      oracle,
		speedMPS:    speedMPS,
	}
	t.root = t.newNode(Node{
		Location:       origin,
		Owner:          domain.Owner{VehicleID: owner},
		Limit:          domain.Infinite,
		BestChildIndex: -1,
		Parent:         NilHandle,
	})
	return t
}

func (t *Tree) newNode(n Node) Handle {
	h := Handle(len(t.nodes))
	t.nodes = append(t.nodes, n)
	return h
}

func (t *Tree) timeTo(ctx context.Context, a, b domain.NodeID) (domain.SimTime, error) {
	if a == b {
		return 0, nil
	}
	meters, err := t.oracle.Distance(ctx, a, b)
	if err != nil {
		return 0, err
	}
	return domain.MetersToSimTime(meters, t.speedMPS), nil
}

// Clone deep-copies the tree into a fresh arena, preserving every node's
// TimeFromRoot, Limit, PickupVisited, Owner, and InsertUID (spec §4.1 step
// 1 of the insertion algorithm). Unreachable arena slots from past prunes
// are not carried over.
func (t *Tree) Clone() *Tree {
	clone := &Tree{
		owner:         t.owner,
		destination:   t.destination,
		oracle:        t.oracle,
		speedMPS:      t.speedMPS,
		nextInsertUID: t.nextInsertUID,
	}
	clone.nodes = make([]Node, 0, len(t.nodes))
	clone.root = t.cloneInto(t.root, clone, NilHandle)
	return clone
}

func (t *Tree) cloneInto(h Handle, dst *Tree, newParent Handle) Handle {
	orig := t.nodes[h]
	idx := dst.newNode(Node{
		Location:       orig.Location,
		Owner:          orig.Owner,
		IsPickup:       orig.IsPickup,
		InsertUID:      orig.InsertUID,
		PickupVisited:  orig.PickupVisited,
		TimeFromParent: orig.TimeFromParent,
		TimeFromRoot:   orig.TimeFromRoot,
		AbsoluteTime:   orig.AbsoluteTime,
		Limit:          orig.Limit,
		TotalSlack:     orig.TotalSlack,
		BestChildIndex: orig.BestChildIndex,
		Parent:         newParent,
	})
	children := make([]Handle, 0, len(orig.Children))
	for _, c := range orig.Children {
		children = append(children, t.cloneInto(c, dst, idx))
	}
	n := dst.nodes[idx]
	n.Children = children
	dst.nodes[idx] = n
	return idx
}

// Owner returns the vehicle this tree belongs to.
func (t *Tree) Owner() domain.VehicleID { return t.owner }

// RootLocation returns the current root's node.
func (t *Tree) RootLocation() domain.NodeID { return t.nodes[t.root].Location }

// NodeCount returns the number of reachable nodes, for diagnostics and tests.
func (t *Tree) NodeCount() int {
	return t.countFrom(t.root)
}

func (t *Tree) countFrom(h Handle) int {
	n := 1
	for _, c := range t.nodes[h].Children {
		n += t.countFrom(c)
	}
	return n
}
