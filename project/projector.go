// SPDX-License-Identifier: GPL-3.0-or-later

package project

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mpst-go/mpst/ast"
	"github.com/mpst-go/mpst/cfg"
	"github.com/mpst-go/mpst/cfsm"
	"github.com/mpst-go/mpst/pipeline"
	"github.com/mpst-go/mpst/registry"
	"golang.org/x/sync/errgroup"
)

// Error codes produced by this package.
const (
	ErrRoleNotFound         pipeline.Code = "role-not-found"
	ErrRecursiveSubprotocol pipeline.Code = "recursive-subprotocol"
	ErrMissingJoinNode      pipeline.Code = "missing-join-node"
	ErrForkShuffleOverflow  pipeline.Code = "fork-shuffle-overflow"
)

// forkShuffleGuard bounds the interleaving BFS [shuffleForkBranches] runs
// over a Parallel's active branches, the same defensive role the
// simulator's own step guard plays against a malformed or pathological
// protocol that never reaches its join.
const forkShuffleGuard = 1 << 16

// Projector builds per-role CFSMs from protocols resolved through reg.
type Projector struct {
	reg *registry.Registry
}

// New returns a Projector backed by reg.
func New(reg *registry.Registry) *Projector {
	return &Projector{reg: reg}
}

// Project builds role's CFSM for the protocol named name (spec §4.4).
func (p *Projector) Project(name string, role ast.Role) (*cfsm.CFSM, error) {
	proto, err := p.reg.Resolve(name)
	if err != nil {
		return nil, err
	}
	if !roleDeclared(proto, role) {
		return nil, pipeline.NewError(ErrRoleNotFound, fmt.Sprintf("protocol %q has no role %q", name, role)).
			WithDetail("protocol", name).WithDetail("role", string(role))
	}
	g, err := p.reg.GetCFG(name)
	if err != nil {
		return nil, err
	}

	m := cfsm.New(role, name, proto.Params)
	if v, ok := g.Metadata["shuffle"]; ok {
		m.Metadata["shuffle"] = v
	}
	if v, ok := g.Metadata["multicastLowering"]; ok {
		m.Metadata["multicastLowering"] = v
	}

	initial, _, err := projectBody(m, g, p.reg, role, true, map[string]bool{})
	if err != nil {
		return nil, err
	}
	m.Initial = initial
	return m, nil
}

// ProjectAll projects every role declared by name concurrently, returning
// every machine it managed to build alongside every error joined
// together (spec §4.4: "aggregate per-role projection failures rather
// than stopping at the first").
func (p *Projector) ProjectAll(name string) (map[ast.Role]*cfsm.CFSM, error) {
	proto, err := p.reg.Resolve(name)
	if err != nil {
		return nil, err
	}
	roles := proto.RoleNames()

	out := make(map[ast.Role]*cfsm.CFSM, len(roles))
	errs := make([]error, len(roles))
	machines := make([]*cfsm.CFSM, len(roles))

	var g errgroup.Group
	for i, role := range roles {
		i, role := i, role
		g.Go(func() error {
			m, err := p.Project(name, role)
			machines[i] = m
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	for i, role := range roles {
		if errs[i] == nil {
			out[role] = machines[i]
		}
	}
	return out, errors.Join(errs...)
}

func roleDeclared(proto *ast.GlobalProtocolDeclaration, role ast.Role) bool {
	for _, r := range proto.RoleNames() {
		if r == role {
			return true
		}
	}
	return false
}

func roleParticipates(roleArgs []ast.Role, role ast.Role) bool {
	for _, r := range roleArgs {
		if r == role {
			return true
		}
	}
	return false
}

// projectBody translates every node of g into one CFSM state appended to
// m. Most nodes also translate into one transition per outgoing edge
// whose action is the role's view of the source node (send/receive/tau),
// but a Branch or Fork node does not: spec §4.6 expects a stable state to
// carry zero or one τ, never N competing ones, so Branch and Fork are
// instead resolved into the branch-distinguishing send/receive each
// alternative (or interleaving) actually reaches — see
// [resolveBranchEdge] and [projectForkNode]. Every CFG node an edge of
// that kind bypasses is recorded in consumed so the generic loop below
// does not also emit its own, now-dead, copy of the same transition.
//
// projectBody returns g's initial node's state and the states
// corresponding to g's terminal nodes, without assuming g is the
// top-level protocol: a sub-protocol inlined by a Do call shares the
// same CFSM arena but is not itself marked terminal (the caller wires
// its returned terminal states onward instead). markTerminals is true
// only for the outermost call.
func projectBody(m *cfsm.CFSM, g *cfg.CFG, reg *registry.Registry, role ast.Role, markTerminals bool, visiting map[string]bool) (cfsm.StateID, []cfsm.StateID, error) {
	local := make(map[cfg.NodeID]cfsm.StateID, g.NumNodes())
	for _, id := range g.NodeIDs() {
		local[id] = m.AddState()
	}
	for _, id := range g.NodeIDs() {
		n := g.Node(id)
		if n.Kind == cfg.KindRecursive && n.RecLabel != "" {
			m.SetRecLabel(local[id], n.RecLabel)
		}
	}
	if markTerminals {
		for _, tid := range g.Terminals {
			m.MarkTerminal(local[tid])
		}
	}

	consumed := map[cfg.NodeID]bool{}

	for _, id := range g.NodeIDs() {
		n := g.Node(id)
		from := local[id]

		if n.Kind == cfg.KindAction && n.Action.Kind == cfg.ActionSubprotocol {
			if err := inlineSubprotocol(m, g, id, n, local, reg, role, visiting); err != nil {
				return 0, nil, err
			}
			continue
		}

		if n.Kind == cfg.KindBranch {
			for _, e := range g.Successors(id) {
				action, dest := resolveBranchEdge(g, e.To, role, consumed)
				m.AddTransition(from, local[dest], action)
			}
			continue
		}

		if n.Kind == cfg.KindFork {
			if err := projectForkNode(m, g, id, n, local, role, consumed); err != nil {
				return 0, nil, err
			}
			continue
		}

		if consumed[id] {
			continue
		}

		action := actionFor(n, role)
		for _, e := range g.Successors(id) {
			m.AddTransition(from, local[e.To], action)
		}
	}

	terminals := make([]cfsm.StateID, len(g.Terminals))
	for i, tid := range g.Terminals {
		terminals[i] = local[tid]
	}
	return local[g.Initial], terminals, nil
}

func inlineSubprotocol(m *cfsm.CFSM, g *cfg.CFG, id cfg.NodeID, n *cfg.Node, local map[cfg.NodeID]cfsm.StateID, reg *registry.Registry, role ast.Role, visiting map[string]bool) error {
	from := local[id]
	sub := n.Action

	if !roleParticipates(sub.RoleArgs, role) {
		for _, e := range g.Successors(id) {
			m.AddTransition(from, local[e.To], cfsm.Action{Kind: cfsm.ActionTau, Annotation: sub.Protocol})
		}
		return nil
	}

	_, actualToFormal, err := reg.CreateRoleMapping(sub.Protocol, sub.RoleArgs)
	if err != nil {
		return err
	}
	formalRole := actualToFormal[role]

	key := sub.Protocol + "/" + string(formalRole)
	if visiting[key] {
		return pipeline.NewError(ErrRecursiveSubprotocol, fmt.Sprintf("recursive sub-protocol inlining detected for %q", key))
	}
	visiting[key] = true
	defer delete(visiting, key)

	subCFG, err := reg.GetCFG(sub.Protocol)
	if err != nil {
		return err
	}
	subInitial, subTerminals, err := projectBody(m, subCFG, reg, formalRole, false, visiting)
	if err != nil {
		return err
	}

	m.AddTransition(from, subInitial, cfsm.Action{Kind: cfsm.ActionTau, Annotation: "enter:" + sub.Protocol})
	for _, e := range g.Successors(id) {
		for _, t := range subTerminals {
			m.AddTransition(t, local[e.To], cfsm.Action{Kind: cfsm.ActionTau, Annotation: "exit:" + sub.Protocol})
		}
	}
	return nil
}

// actionFor computes role's observable view of n: a send/receive when n
// is a message action involving role, tau otherwise (including every
// structural node kind, and a dynamic-MPST action — spec §4.4's
// "Action{dynamic}" rule, SPEC_FULL.md Open Question 3).
func actionFor(n *cfg.Node, role ast.Role) cfsm.Action {
	if n.Kind != cfg.KindAction || n.Action.Kind != cfg.ActionMessage {
		if n.Kind == cfg.KindAction && n.Action.Kind == cfg.ActionDynamic {
			return cfsm.Action{Kind: cfsm.ActionTau, Annotation: "dynamic"}
		}
		return cfsm.Action{Kind: cfsm.ActionTau}
	}
	a := n.Action
	if a.From == role {
		return cfsm.Action{Kind: cfsm.ActionSend, To: a.To, Message: a.Message}
	}
	for _, to := range a.To {
		if to == role {
			return cfsm.Action{Kind: cfsm.ActionReceive, From: a.From, Message: a.Message}
		}
	}
	return cfsm.Action{Kind: cfsm.ActionTau}
}

// resolveBranchEdge walks forward from start through every node that is
// transparent to role — Merge, Join, Recursive, a dynamic action, or a
// message action role is not party to — until it reaches role's first
// observable send/receive, a Terminal node, or another Branch/Fork/Do
// node that the caller's own per-node loop resolves in its own right. It
// collapses the transparent prefix into a single (action, destination)
// pair so a Branch state gets one transition per alternative instead of
// a bare τ per branch (spec §4.4's internal/external-choice fanout,
// §4.6's "zero or one τ per stable state"). Every node it walks past is
// recorded in consumed, since the caller's collapsed transition already
// stands in for that node's own would-be transition.
func resolveBranchEdge(g *cfg.CFG, start cfg.NodeID, role ast.Role, consumed map[cfg.NodeID]bool) (cfsm.Action, cfg.NodeID) {
	cur := start
	for steps := 0; steps < g.NumNodes()+16; steps++ {
		n := g.Node(cur)
		switch {
		case n.Kind == cfg.KindBranch, n.Kind == cfg.KindFork, n.Kind == cfg.KindTerminal,
			n.Kind == cfg.KindAction && n.Action.Kind == cfg.ActionSubprotocol:
			return cfsm.Action{Kind: cfsm.ActionTau}, cur

		case n.Kind == cfg.KindAction && n.Action.Kind == cfg.ActionMessage:
			a := n.Action
			succs := g.Successors(cur)
			if len(succs) == 0 {
				return cfsm.Action{Kind: cfsm.ActionTau}, cur
			}
			succ := succs[0].To
			if a.From == role {
				consumed[cur] = true
				return cfsm.Action{Kind: cfsm.ActionSend, To: a.To, Message: a.Message}, succ
			}
			for _, to := range a.To {
				if to == role {
					consumed[cur] = true
					return cfsm.Action{Kind: cfsm.ActionReceive, From: a.From, Message: a.Message}, succ
				}
			}
			consumed[cur] = true
			cur = succ

		default: // KindInitial, KindMerge, KindJoin, KindRecursive, Action{Dynamic}
			succs := g.Successors(cur)
			if len(succs) == 0 {
				return cfsm.Action{Kind: cfsm.ActionTau}, cur
			}
			consumed[cur] = true
			cur = succs[0].To
		}
	}
	return cfsm.Action{Kind: cfsm.ActionTau}, cur
}

// branchOption is one alternative [forkStepOptions] offers when advancing
// a single interleaving lane by one structural step.
type branchOption struct {
	action cfsm.Action
	dest   cfg.NodeID
}

// branchHasRoleAction reports whether role takes any action anywhere in
// the subgraph reachable from start without crossing join — i.e. whether
// this Fork branch is "active" for role and so needs a genuine
// interleaving lane rather than being silently skipped (spec §4.4).
func branchHasRoleAction(g *cfg.CFG, start, join cfg.NodeID, role ast.Role) bool {
	visited := map[cfg.NodeID]bool{}
	var visit func(id cfg.NodeID) bool
	visit = func(id cfg.NodeID) bool {
		if id == join || visited[id] {
			return false
		}
		visited[id] = true
		n := g.Node(id)
		if n.Kind == cfg.KindAction {
			switch n.Action.Kind {
			case cfg.ActionMessage:
				if n.Action.From == role {
					return true
				}
				for _, to := range n.Action.To {
					if to == role {
						return true
					}
				}
			case cfg.ActionSubprotocol:
				if roleParticipates(n.Action.RoleArgs, role) {
					return true
				}
			}
		}
		for _, e := range g.Successors(id) {
			if visit(e.To) {
				return true
			}
		}
		return false
	}
	return visit(start)
}

// forkStepOptions returns every way role's view can advance one
// structural step past p. A Branch node contributes one option per
// alternative (reusing [resolveBranchEdge] so a nested choice inside a
// parallel branch gets the same observable fanout as a top-level one); a
// nested Fork is not shuffled further and just enters its first branch,
// so inside this lane the nested Fork's other branches are not walked;
// anything else is a single ordinary step.
func forkStepOptions(g *cfg.CFG, p cfg.NodeID, role ast.Role, consumed map[cfg.NodeID]bool) []branchOption {
	n := g.Node(p)
	switch n.Kind {
	case cfg.KindBranch:
		opts := make([]branchOption, 0, len(g.Successors(p)))
		for _, e := range g.Successors(p) {
			action, dest := resolveBranchEdge(g, e.To, role, consumed)
			opts = append(opts, branchOption{action, dest})
		}
		return opts
	case cfg.KindFork:
		succs := g.Successors(p)
		if len(succs) == 0 {
			return nil
		}
		return []branchOption{{cfsm.Action{Kind: cfsm.ActionTau}, succs[0].To}}
	default:
		succs := g.Successors(p)
		if len(succs) == 0 {
			return nil
		}
		return []branchOption{{actionFor(n, role), succs[0].To}}
	}
}

// findJoinNode returns the Join node sharing parallelID with its Fork.
func findJoinNode(g *cfg.CFG, parallelID int) (cfg.NodeID, bool) {
	for _, id := range g.NodeIDs() {
		nd := g.Node(id)
		if nd.Kind == cfg.KindJoin && nd.ParallelID == parallelID {
			return id, true
		}
	}
	return 0, false
}

// projectForkNode resolves a Fork's N branches into role's view: branches
// role never acts in are dropped (there's nothing to observe), a single
// active branch is entered directly and deterministically, and two or
// more active branches are combined with [shuffleForkBranches] into a
// genuine interleaving (spec §4.4's parallel composition).
func projectForkNode(m *cfsm.CFSM, g *cfg.CFG, id cfg.NodeID, n *cfg.Node, local map[cfg.NodeID]cfsm.StateID, role ast.Role, consumed map[cfg.NodeID]bool) error {
	succs := g.Successors(id)
	join, ok := findJoinNode(g, n.ParallelID)
	if !ok {
		return pipeline.NewError(ErrMissingJoinNode, fmt.Sprintf("fork node %d has no matching join for parallel id %d", id, n.ParallelID))
	}
	joinSuccs := g.Successors(join)
	if len(joinSuccs) == 0 {
		return pipeline.NewError(ErrMissingJoinNode, fmt.Sprintf("join node %d has no outgoing edge", join))
	}
	joinDest := local[joinSuccs[0].To]

	var active []cfg.NodeID
	for _, e := range succs {
		if branchHasRoleAction(g, e.To, join, role) {
			active = append(active, e.To)
		}
	}
	if len(active) == 0 && len(succs) > 0 {
		// role is a bystander to every branch: any one of them reaches the
		// join with nothing observable in between, so walking just the
		// first is equivalent to walking them all.
		active = []cfg.NodeID{succs[0].To}
	}

	consumed[id] = true
	consumed[join] = true
	return shuffleForkBranches(m, g, local[id], active, join, joinDest, role, consumed)
}

// shuffleForkBranches builds the interleaving product of active's lanes:
// states are tuples of per-lane positions (a lane's position becomes
// join once that lane is exhausted), and a transition fires by advancing
// exactly one lane by one [forkStepOptions] step while the others hold
// still. Once every lane reads join, the tuple's state gets a single τ
// into joinDest. This is the standard shuffle/interleaving construction
// for concurrent automata (spec §4.4), built directly over cfg.NodeID
// tuples rather than first materializing a private automaton per branch.
func shuffleForkBranches(m *cfsm.CFSM, g *cfg.CFG, from cfsm.StateID, active []cfg.NodeID, join cfg.NodeID, joinDest cfsm.StateID, role ast.Role, consumed map[cfg.NodeID]bool) error {
	if len(active) == 0 {
		m.AddTransition(from, joinDest, cfsm.Action{Kind: cfsm.ActionTau})
		return nil
	}

	key := func(t []cfg.NodeID) string {
		parts := make([]string, len(t))
		for i, id := range t {
			parts[i] = strconv.Itoa(int(id))
		}
		return strings.Join(parts, ",")
	}

	type item struct {
		tuple []cfg.NodeID
		state cfsm.StateID
	}

	states := map[string]cfsm.StateID{key(active): from}
	queue := []item{{active, from}}
	seen := map[string]bool{key(active): true}

	for steps := 0; len(queue) > 0; steps++ {
		if steps > forkShuffleGuard {
			return pipeline.NewError(ErrForkShuffleOverflow, "parallel-branch interleaving exceeded its state-space guard")
		}
		cur := queue[0]
		queue = queue[1:]

		allDone := true
		for _, p := range cur.tuple {
			if p != join {
				allDone = false
				break
			}
		}
		if allDone {
			m.AddTransition(cur.state, joinDest, cfsm.Action{Kind: cfsm.ActionTau})
			continue
		}

		for i, p := range cur.tuple {
			if p == join {
				continue
			}
			consumed[p] = true
			for _, opt := range forkStepOptions(g, p, role, consumed) {
				nt := append([]cfg.NodeID(nil), cur.tuple...)
				nt[i] = opt.dest
				k := key(nt)
				to, ok := states[k]
				if !ok {
					to = m.AddState()
					states[k] = to
				}
				m.AddTransition(cur.state, to, opt.action)
				if !seen[k] {
					seen[k] = true
					queue = append(queue, item{nt, to})
				}
			}
		}
	}
	return nil
}
