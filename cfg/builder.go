// SPDX-License-Identifier: GPL-3.0-or-later

package cfg

import (
	"fmt"

	"github.com/mpst-go/mpst/ast"
	"github.com/mpst-go/mpst/pipeline"
)

// Error codes produced by [Build].
const (
	ErrUndefinedRecursionLabel pipeline.Code = "undefined-recursion-label"
	ErrUnknownInteractionType  pipeline.Code = "unknown-interaction-type"
)

// builder holds the per-build mutable state (spec §4.2: "Id generation uses
// monotonically increasing counters reset at the start of each build").
type builder struct {
	g         *CFG
	recLabels map[string]NodeID
	parallels int
}

// Build translates a GlobalProtocolDeclaration into a CFG satisfying the
// structural invariants of spec §3.2. It is pure: the same declaration
// always yields an isomorphic graph, and Build never mutates protocol.
func Build(protocol *ast.GlobalProtocolDeclaration) (*CFG, error) {
	g := &CFG{
		ProtocolName: protocol.Name,
		Parameters:   protocol.Params,
		Roles:        protocol.RoleNames(),
		Metadata:     map[string]string{"shuffle": "eager"},
	}
	b := &builder{g: g, recLabels: map[string]NodeID{}}

	terminal := b.newNode(KindTerminal)
	g.Terminals = append(g.Terminals, terminal)

	bodyEntry, bodyIsCont, err := b.buildBody(protocol.Body, terminal, false)
	if err != nil {
		return nil, err
	}
	if bodyIsCont {
		// An entirely empty protocol, or one whose first interaction is a
		// dangling continue, has no sensible initial edge; treat the
		// dangling continue itself as the error site would be misleading
		// here since buildBody already validated the label — fall through
		// to wiring Initial straight at the recursive node, which is the
		// faithful graph (Initial -> Recursive), still structurally valid.
	}

	initial := b.newNode(KindInitial)
	b.addEdge(EdgeSequence, initial, bodyEntry, "")
	g.Initial = initial

	return g, nil
}

func (b *builder) newNode(kind NodeKind) NodeID {
	id := NodeID(len(b.g.nodes))
	b.g.nodes = append(b.g.nodes, Node{ID: id, Kind: kind})
	return id
}

func (b *builder) addEdge(kind EdgeKind, from, to NodeID, label string) EdgeID {
	id := EdgeID(len(b.g.edges))
	b.g.edges = append(b.g.edges, Edge{ID: id, Kind: kind, From: from, To: to, Label: label})
	b.g.nodes[from].Out = append(b.g.nodes[from].Out, id)
	b.g.nodes[to].In = append(b.g.nodes[to].In, id)
	return id
}

// wireKind picks EdgeContinue instead of normal when the node being wired
// into is itself a bare continue-target (see buildInteraction's Continue
// case and doc.go's note on back-edges).
func wireKind(isContinue bool, normal EdgeKind) EdgeKind {
	if isContinue {
		return EdgeContinue
	}
	return normal
}

// buildBody builds a sequence of interactions right-to-left (spec §4.2:
// "A sequence is built right-to-left so that each interaction's exit is the
// next interaction's entry, producing a single entry for the whole body").
// It returns the entry node for the whole sequence and whether that entry
// is itself a bare continue-target (i.e. the sequence is empty other than
// forwarding straight into an enclosing recursion via `continue`).
func (b *builder) buildBody(items []ast.Interaction, exit NodeID, exitIsCont bool) (NodeID, bool, error) {
	cur, curIsCont := exit, exitIsCont
	for i := len(items) - 1; i >= 0; i-- {
		entry, entryIsCont, err := b.buildInteraction(items[i], cur, curIsCont)
		if err != nil {
			return noNode, false, err
		}
		cur, curIsCont = entry, entryIsCont
	}
	return cur, curIsCont, nil
}

func (b *builder) buildInteraction(item ast.Interaction, exit NodeID, exitIsCont bool) (NodeID, bool, error) {
	switch it := item.(type) {
	case *ast.MessageTransfer:
		return b.buildMessageTransfer(it, exit, exitIsCont)

	case *ast.Choice:
		return b.buildChoice(it, exit, exitIsCont)

	case *ast.Parallel:
		return b.buildParallel(it, exit, exitIsCont)

	case *ast.Recursion:
		return b.buildRecursion(it, exit, exitIsCont)

	case *ast.Continue:
		target, ok := b.recLabels[it.Label]
		if !ok {
			return noNode, false, (&pipeline.Error{
				Code:    ErrUndefinedRecursionLabel,
				Message: fmt.Sprintf("continue %q has no enclosing recursion with that label", it.Label),
			}).WithLoc(it.Loc)
		}
		return target, true, nil

	case *ast.Do:
		node := b.newNode(KindAction)
		b.g.nodes[node].Action = Action{Kind: ActionSubprotocol, Protocol: it.Protocol, RoleArgs: it.RoleArgs}
		b.g.nodes[node].Loc = it.Loc
		b.addEdge(wireKind(exitIsCont, EdgeSequence), node, exit, "")
		return node, false, nil

	case *ast.DynamicRoleDecl, *ast.CreateParticipants, *ast.Invitation, *ast.UpdatableRecursion:
		return b.buildDynamic(it, exit, exitIsCont)

	default:
		return noNode, false, pipeline.NewError(ErrUnknownInteractionType, fmt.Sprintf("unknown interaction type %T", item))
	}
}

func (b *builder) buildMessageTransfer(mt *ast.MessageTransfer, exit NodeID, exitIsCont bool) (NodeID, bool, error) {
	if len(mt.To) <= 1 {
		node := b.newNode(KindAction)
		b.g.nodes[node].Action = Action{Kind: ActionMessage, From: mt.From, To: mt.To, Message: mt.Message}
		b.g.nodes[node].Loc = mt.Loc
		b.addEdge(wireKind(exitIsCont, EdgeSequence), node, exit, "")
		return node, false, nil
	}

	// Multicast: lower to a sequence of unicasts, receivers in declaration
	// order (SPEC_FULL.md §4 / spec §9 Open Question 1).
	b.g.Metadata["multicastLowering"] = "sequential"
	cur, curIsCont := exit, exitIsCont
	for i := len(mt.To) - 1; i >= 0; i-- {
		node := b.newNode(KindAction)
		b.g.nodes[node].Action = Action{Kind: ActionMessage, From: mt.From, To: []ast.Role{mt.To[i]}, Message: mt.Message}
		b.g.nodes[node].Loc = mt.Loc
		b.addEdge(wireKind(curIsCont, EdgeSequence), node, cur, "")
		cur, curIsCont = node, false
	}
	return cur, false, nil
}

func (b *builder) buildChoice(c *ast.Choice, exit NodeID, exitIsCont bool) (NodeID, bool, error) {
	merge := b.newNode(KindMerge)
	b.addEdge(wireKind(exitIsCont, EdgeSequence), merge, exit, "")

	branch := b.newNode(KindBranch)
	b.g.nodes[branch].At = c.At
	b.g.nodes[branch].Loc = c.Loc

	for i, br := range c.Branches {
		label := br.Label
		if label == "" {
			label = fmt.Sprintf("branch%d", i+1)
		}
		entry, entryIsCont, err := b.buildBody(br.Body, merge, false)
		if err != nil {
			return noNode, false, err
		}
		b.addEdge(wireKind(entryIsCont, EdgeBranch), branch, entry, label)
	}
	return branch, false, nil
}

func (b *builder) buildParallel(p *ast.Parallel, exit NodeID, exitIsCont bool) (NodeID, bool, error) {
	b.parallels++
	pid := b.parallels

	join := b.newNode(KindJoin)
	b.g.nodes[join].ParallelID = pid
	b.addEdge(wireKind(exitIsCont, EdgeSequence), join, exit, "")

	fork := b.newNode(KindFork)
	b.g.nodes[fork].ParallelID = pid
	b.g.nodes[fork].Loc = p.Loc

	for i, br := range p.Branches {
		entry, _, err := b.buildBody(br, join, false)
		if err != nil {
			return noNode, false, err
		}
		// Fork edges are never retagged to continue (spec §4.2's retag
		// rule names only sequence/branch); a branch that is nothing but
		// `continue` would cross the parallel scope and is rejected by
		// the verifier's structural check instead (spec §3.2 invariant 3).
		b.addEdge(EdgeFork, fork, entry, fmt.Sprintf("branch%d", i+1))
	}
	return fork, false, nil
}

func (b *builder) buildRecursion(r *ast.Recursion, exit NodeID, exitIsCont bool) (NodeID, bool, error) {
	rec := b.newNode(KindRecursive)
	b.g.nodes[rec].RecLabel = r.Label
	b.g.nodes[rec].Loc = r.Loc

	prev, hadPrev := b.recLabels[r.Label]
	b.recLabels[r.Label] = rec
	bodyEntry, bodyIsCont, err := b.buildBody(r.Body, exit, exitIsCont)
	if hadPrev {
		b.recLabels[r.Label] = prev
	} else {
		delete(b.recLabels, r.Label)
	}
	if err != nil {
		return noNode, false, err
	}

	b.addEdge(wireKind(bodyIsCont, EdgeSequence), rec, bodyEntry, "")
	b.addEdge(wireKind(exitIsCont, EdgeSequence), rec, exit, "")
	return rec, false, nil
}

// buildDynamic lowers every DMst construct to an opaque Action node
// (SPEC_FULL.md §4, Open Question 3: "conservative" treatment as τ).
// UpdatableRecursion additionally splices its With body before looping.
func (b *builder) buildDynamic(item ast.Interaction, exit NodeID, exitIsCont bool) (NodeID, bool, error) {
	if u, ok := item.(*ast.UpdatableRecursion); ok {
		target, ok := b.recLabels[u.Label]
		if !ok {
			return noNode, false, (&pipeline.Error{
				Code:    ErrUndefinedRecursionLabel,
				Message: fmt.Sprintf("continue %q with {...} has no enclosing recursion with that label", u.Label),
			}).WithLoc(u.Loc)
		}
		return b.buildBody(u.With, target, true)
	}

	node := b.newNode(KindAction)
	b.g.nodes[node].Action = Action{Kind: ActionDynamic, Dynamic: item}
	b.g.nodes[node].Loc = ast.Location(item)
	b.addEdge(wireKind(exitIsCont, EdgeSequence), node, exit, "")
	return node, false, nil
}
