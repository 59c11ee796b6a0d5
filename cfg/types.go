// SPDX-License-Identifier: GPL-3.0-or-later

package cfg

import "github.com/mpst-go/mpst/ast"

// NodeID and EdgeID index into a CFG's arenas; see doc.go.
type NodeID int
type EdgeID int

const noNode NodeID = -1

// NodeKind tags a Node's variant (spec §3.2's table).
type NodeKind int

const (
	KindInitial NodeKind = iota
	KindTerminal
	KindAction
	KindBranch
	KindMerge
	KindFork
	KindJoin
	KindRecursive
)

func (k NodeKind) String() string {
	switch k {
	case KindInitial:
		return "Initial"
	case KindTerminal:
		return "Terminal"
	case KindAction:
		return "Action"
	case KindBranch:
		return "Branch"
	case KindMerge:
		return "Merge"
	case KindFork:
		return "Fork"
	case KindJoin:
		return "Join"
	case KindRecursive:
		return "Recursive"
	default:
		return "Unknown"
	}
}

// ActionKind tags an Action node's payload.
type ActionKind int

const (
	ActionMessage ActionKind = iota
	ActionSubprotocol
	ActionDynamic
)

// Action is the observable or internal effect carried by an Action node.
type Action struct {
	Kind ActionKind

	// ActionMessage fields.
	From    ast.Role
	To      []ast.Role
	Message ast.Message

	// ActionSubprotocol fields.
	Protocol string
	RoleArgs []ast.Role

	// ActionDynamic: the opaque dynamic-MPST interaction this action
	// lowers (SPEC_FULL.md §4, Open Question 3). Never inspected by the
	// projector/verifier beyond "this role is/isn't mentioned".
	Dynamic ast.Interaction
}

// Node is a single CFG node. Exactly the fields relevant to Kind are set;
// callers switch on Kind (see verify.Verify, project.Projector, simulate.Simulator)
// to stay exhaustive as new kinds are added.
type Node struct {
	ID   NodeID
	Kind NodeKind

	Action Action // KindAction

	At ast.Role // KindBranch

	ParallelID int // KindFork, KindJoin

	RecLabel string // KindRecursive

	Loc *ast.SourceLocation

	Out []EdgeID // outgoing edges, insertion order is significant (ordering guarantees, spec §5)
	In  []EdgeID // incoming edges
}

// EdgeKind tags an Edge's variant.
type EdgeKind int

const (
	EdgeSequence EdgeKind = iota
	EdgeBranch
	EdgeFork
	EdgeContinue
	EdgeEpsilon
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeSequence:
		return "sequence"
	case EdgeBranch:
		return "branch"
	case EdgeFork:
		return "fork"
	case EdgeContinue:
		return "continue"
	case EdgeEpsilon:
		return "epsilon"
	default:
		return "unknown"
	}
}

// Edge connects two nodes. Label carries a choice-branch or fork-branch
// label when relevant; empty otherwise.
type Edge struct {
	ID    EdgeID
	Kind  EdgeKind
	From  NodeID
	To    NodeID
	Label string
}

// CFG is the control-flow graph for one global protocol, as an
// arena-of-nodes with index-based edges (spec §9).
type CFG struct {
	ProtocolName string
	Parameters   []ast.TypeParam
	Roles        []ast.Role

	nodes []Node
	edges []Edge

	Initial NodeID
	// Terminals lists every Terminal node id, in creation order.
	Terminals []NodeID

	// Metadata records implementation choices that change observable
	// behavior downstream (SPEC_FULL.md §4): "multicastLowering" and
	// (copied onto derived CFSMs) "shuffle".
	Metadata map[string]string
}

// Node returns the node with the given id. Panics if id is out of range,
// which indicates a builder bug (ids are never exposed to callers except
// as values already produced by this package).
func (g *CFG) Node(id NodeID) *Node {
	return &g.nodes[id]
}

// Edge returns the edge with the given id.
func (g *CFG) Edge(id EdgeID) *Edge {
	return &g.edges[id]
}

// NumNodes returns the number of nodes in the graph.
func (g *CFG) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of edges in the graph.
func (g *CFG) NumEdges() int { return len(g.edges) }

// NodeIDs returns every node id, in topological order of non-continue
// edges from Initial (spec §4.2 "Node ordering"), with any node
// unreachable from Initial appended afterwards in arena order.
//
// The builder assigns ids in construction order, which runs right-to-left
// over each body and so does not itself come out topological; this walks
// the graph to produce the order callers (pretty-printers, golden tests)
// actually want.
func (g *CFG) NodeIDs() []NodeID {
	visited := make([]bool, len(g.nodes))
	order := make([]NodeID, 0, len(g.nodes))

	var visit func(id NodeID)
	visit = func(id NodeID) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, e := range g.Successors(id) {
			if e.Kind == EdgeContinue {
				continue
			}
			visit(e.To)
		}
		order = append(order, id)
	}
	if len(g.nodes) > 0 {
		visit(g.Initial)
	}

	// order is currently a reverse (post-order) topological sort; reverse
	// it so predecessors precede successors.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}

	for id := range g.nodes {
		if !visited[id] {
			order = append(order, NodeID(id))
		}
	}
	return order
}

// Successors returns the edges leaving a node, in insertion order.
func (g *CFG) Successors(id NodeID) []*Edge {
	n := g.Node(id)
	out := make([]*Edge, len(n.Out))
	for i, eid := range n.Out {
		out[i] = g.Edge(eid)
	}
	return out
}

// Predecessors returns the edges entering a node, in insertion order.
func (g *CFG) Predecessors(id NodeID) []*Edge {
	n := g.Node(id)
	out := make([]*Edge, len(n.In))
	for i, eid := range n.In {
		out[i] = g.Edge(eid)
	}
	return out
}
