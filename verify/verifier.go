// SPDX-License-Identifier: GPL-3.0-or-later

package verify

import (
	"fmt"

	"github.com/mpst-go/mpst/ast"
	"github.com/mpst-go/mpst/cfg"
)

// Verify runs every check of spec §4.3 against g and aggregates their
// findings into one [Report]. It is total and side-effect-free.
func Verify(g *cfg.CFG) Report {
	var violations []Violation
	violations = append(violations, checkStructural(g)...)
	violations = append(violations, checkConnectedness(g)...)
	violations = append(violations, checkChoiceDeterminism(g)...)
	violations = append(violations, checkChoiceMergeability(g)...)
	violations = append(violations, checkProgress(g)...)
	violations = append(violations, checkNoRaces(g)...)

	valid := true
	for _, v := range violations {
		if v.Severity == SeverityError {
			valid = false
			break
		}
	}
	return Report{Valid: valid, Violations: violations}
}

// reachableFromInitial returns every node reachable from g.Initial
// following every edge kind, including continue (spec §3.2 invariant 2's
// first half: "every node is reachable from Initial").
func reachableFromInitial(g *cfg.CFG) map[cfg.NodeID]bool {
	visited := map[cfg.NodeID]bool{}
	var visit func(id cfg.NodeID)
	visit = func(id cfg.NodeID) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, e := range g.Successors(id) {
			visit(e.To)
		}
	}
	if g.NumNodes() > 0 {
		visit(g.Initial)
	}
	return visited
}

// canReachTerminal reports whether a terminal is reachable from id along
// non-continue edges (spec §3.2 invariant 2's second half).
func canReachTerminal(g *cfg.CFG, from cfg.NodeID) bool {
	isTerminal := func(id cfg.NodeID) bool {
		for _, t := range g.Terminals {
			if t == id {
				return true
			}
		}
		return false
	}
	visited := map[cfg.NodeID]bool{}
	var visit func(id cfg.NodeID) bool
	visit = func(id cfg.NodeID) bool {
		if isTerminal(id) {
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		for _, e := range g.Successors(id) {
			if e.Kind == cfg.EdgeContinue {
				continue
			}
			if visit(e.To) {
				return true
			}
		}
		return false
	}
	return visit(from)
}

// checkStructural rechecks spec §3.2's seven structural invariants.
func checkStructural(g *cfg.CFG) []Violation {
	var out []Violation

	initialCount := 0
	for _, id := range g.NodeIDs() {
		if g.Node(id).Kind == cfg.KindInitial {
			initialCount++
		}
	}
	if initialCount != 1 {
		out = append(out, Violation{Check: "structural", Severity: SeverityError,
			Message: fmt.Sprintf("expected exactly one Initial node, found %d", initialCount)})
	}
	if len(g.Terminals) == 0 {
		out = append(out, Violation{Check: "structural", Severity: SeverityError, Message: "no Terminal node"})
	}

	reachable := reachableFromInitial(g)
	for _, id := range g.NodeIDs() {
		if !reachable[id] {
			out = append(out, Violation{Check: "structural", Severity: SeverityError,
				Message: fmt.Sprintf("node %d is unreachable from Initial", id), NodeID: nodePtr(id)})
		}
	}

	for i := 0; i < g.NumEdges(); i++ {
		e := g.Edge(cfg.EdgeID(i))
		if int(e.From) >= g.NumNodes() || int(e.To) >= g.NumNodes() {
			out = append(out, Violation{Check: "structural", Severity: SeverityError,
				Message: fmt.Sprintf("edge %d references a nonexistent node", e.ID)})
		}
	}

	out = append(out, checkForkJoinPairing(g)...)
	out = append(out, checkBranchMergeConvergence(g)...)
	out = append(out, checkContinueTargets(g)...)
	out = append(out, checkRecursiveOutEdges(g)...)
	return out
}

func checkContinueTargets(g *cfg.CFG) []Violation {
	var out []Violation
	for i := 0; i < g.NumEdges(); i++ {
		e := g.Edge(cfg.EdgeID(i))
		if e.Kind != cfg.EdgeContinue {
			continue
		}
		if g.Node(e.To).Kind != cfg.KindRecursive {
			out = append(out, Violation{Check: "structural", Severity: SeverityError,
				Message: fmt.Sprintf("continue edge %d does not terminate at a Recursive node", e.ID)})
		}
	}
	return out
}

func checkRecursiveOutEdges(g *cfg.CFG) []Violation {
	var out []Violation
	for _, id := range g.NodeIDs() {
		n := g.Node(id)
		if n.Kind != cfg.KindRecursive {
			continue
		}
		if len(n.Out) != 2 {
			out = append(out, Violation{Check: "structural", Severity: SeverityError,
				Message: fmt.Sprintf("Recursive node %d has %d outgoing edges, want exactly 2", id, len(n.Out)), NodeID: nodePtr(id)})
			continue
		}
		for _, eid := range n.Out {
			if g.Edge(eid).Kind != cfg.EdgeSequence {
				out = append(out, Violation{Check: "structural", Severity: SeverityError,
					Message: fmt.Sprintf("Recursive node %d's outgoing edges must both be sequence edges", id), NodeID: nodePtr(id)})
				break
			}
		}
	}
	return out
}

// exploreUntil walks forward from start along non-continue edges,
// stopping expansion at any node whose Kind is stop (but recording it).
func exploreUntil(g *cfg.CFG, start cfg.NodeID, stop cfg.NodeKind) (scope map[cfg.NodeID]bool, boundary map[cfg.NodeID]bool) {
	scope = map[cfg.NodeID]bool{}
	boundary = map[cfg.NodeID]bool{}
	visited := map[cfg.NodeID]bool{}
	var visit func(id cfg.NodeID)
	visit = func(id cfg.NodeID) {
		if visited[id] {
			return
		}
		visited[id] = true
		if g.Node(id).Kind == stop {
			boundary[id] = true
			return
		}
		scope[id] = true
		for _, e := range g.Successors(id) {
			if e.Kind == cfg.EdgeContinue {
				continue
			}
			visit(e.To)
		}
	}
	visit(start)
	return scope, boundary
}

func checkForkJoinPairing(g *cfg.CFG) []Violation {
	var out []Violation
	forks := map[int]cfg.NodeID{}
	joins := map[int]cfg.NodeID{}
	for _, id := range g.NodeIDs() {
		n := g.Node(id)
		switch n.Kind {
		case cfg.KindFork:
			if other, dup := forks[n.ParallelID]; dup {
				out = append(out, Violation{Check: "structural", Severity: SeverityError,
					Message: fmt.Sprintf("duplicate Fork for parallel_id %d (nodes %d and %d)", n.ParallelID, other, id)})
			}
			forks[n.ParallelID] = id
		case cfg.KindJoin:
			if other, dup := joins[n.ParallelID]; dup {
				out = append(out, Violation{Check: "structural", Severity: SeverityError,
					Message: fmt.Sprintf("duplicate Join for parallel_id %d (nodes %d and %d)", n.ParallelID, other, id)})
			}
			joins[n.ParallelID] = id
		}
	}
	for pid, fork := range forks {
		join, ok := joins[pid]
		if !ok {
			out = append(out, Violation{Check: "structural", Severity: SeverityError,
				Message: fmt.Sprintf("Fork %d (parallel_id %d) has no matching Join", fork, pid), NodeID: nodePtr(fork)})
			continue
		}
		scope, boundary := exploreUntil(g, fork, cfg.KindJoin)
		if !boundary[join] {
			out = append(out, Violation{Check: "structural", Severity: SeverityError,
				Message: fmt.Sprintf("Fork %d cannot reach its matching Join %d", fork, join), NodeID: nodePtr(fork)})
		}
		for n := range scope {
			for _, e := range g.Successors(n) {
				if e.Kind == cfg.EdgeContinue {
					continue
				}
				if !scope[e.To] && e.To != join {
					out = append(out, Violation{Check: "structural", Severity: SeverityError,
						Message: fmt.Sprintf("node %d in parallel scope %d escapes to %d without passing through its Join", n, pid, e.To)})
				}
			}
		}
	}
	for pid, join := range joins {
		if _, ok := forks[pid]; !ok {
			out = append(out, Violation{Check: "structural", Severity: SeverityError,
				Message: fmt.Sprintf("Join %d (parallel_id %d) has no matching Fork", join, pid), NodeID: nodePtr(join)})
		}
	}
	return out
}

func checkBranchMergeConvergence(g *cfg.CFG) []Violation {
	var out []Violation
	for _, id := range g.NodeIDs() {
		n := g.Node(id)
		if n.Kind != cfg.KindBranch {
			continue
		}
		allMerges := map[cfg.NodeID]bool{}
		var scopes []map[cfg.NodeID]bool
		for _, eid := range n.Out {
			e := g.Edge(eid)
			scope, merges := exploreUntil(g, e.To, cfg.KindMerge)
			scopes = append(scopes, scope)
			if len(merges) == 0 {
				out = append(out, Violation{Check: "structural", Severity: SeverityError,
					Message: fmt.Sprintf("branch %q of choice at node %d does not converge at a Merge", e.Label, id)})
			}
			for m := range merges {
				allMerges[m] = true
			}
		}
		if len(allMerges) > 1 {
			out = append(out, Violation{Check: "structural", Severity: SeverityError,
				Message: fmt.Sprintf("branches of choice at node %d converge at more than one Merge", id), NodeID: nodePtr(id)})
		}
		var merge cfg.NodeID
		for m := range allMerges {
			merge = m
		}
		for _, scope := range scopes {
			for n := range scope {
				for _, e := range g.Successors(n) {
					if e.Kind == cfg.EdgeContinue {
						continue
					}
					if !scope[e.To] && e.To != merge {
						out = append(out, Violation{Check: "structural", Severity: SeverityError,
							Message: fmt.Sprintf("node %d inside a choice branch escapes to %d other than its Merge", n, e.To)})
					}
				}
			}
		}
	}
	return out
}

// checkConnectedness reports every declared role that appears in no
// message action, as an informational finding (spec §4.3 check 2;
// SPEC_FULL.md's S6 scenario: this must not invalidate the protocol).
func checkConnectedness(g *cfg.CFG) []Violation {
	used := map[ast.Role]bool{}
	for _, id := range g.NodeIDs() {
		n := g.Node(id)
		if n.Kind != cfg.KindAction || n.Action.Kind != cfg.ActionMessage {
			continue
		}
		used[n.Action.From] = true
		for _, to := range n.Action.To {
			used[to] = true
		}
	}
	var out []Violation
	for _, r := range g.Roles {
		if !used[r] {
			out = append(out, Violation{Check: "connectedness", Severity: SeverityInfo,
				Message: fmt.Sprintf("role %s does not appear in any message action", r),
				Detail:  map[string]any{"role": string(r)}})
		}
	}
	return out
}

// checkProgress verifies every reachable node can reach a terminal along
// non-continue edges (spec §4.3 check 5).
func checkProgress(g *cfg.CFG) []Violation {
	var out []Violation
	reachable := reachableFromInitial(g)
	for _, id := range g.NodeIDs() {
		if !reachable[id] {
			continue
		}
		if !canReachTerminal(g, id) {
			out = append(out, Violation{Check: "progress", Severity: SeverityError,
				Message: fmt.Sprintf("node %d cannot reach a Terminal", id), NodeID: nodePtr(id)})
		}
	}
	return out
}

func messageSignature(a cfg.Action) (string, bool) {
	if a.Kind != cfg.ActionMessage {
		return "", false
	}
	to := make([]string, len(a.To))
	for i, r := range a.To {
		to[i] = string(r)
	}
	return fmt.Sprintf("%s>%s:%s", a.From, to, a.Message.Label), true
}

// firstMessageSignatures collects the signature of the first message
// action reachable from start along each path, passing transparently
// through every non-Action node (Merge, Fork, Join, Recursive, Initial,
// Terminal) and recursing into nested Branch nodes (a nested choice
// contributes every one of its own branches' first signatures, since the
// interleaving at runtime of either branch must still be distinguishable
// from a sibling of the outer choice). A subprotocol or dynamic action is
// opaque and contributes no signature (spec §4.3 check 3 only compares
// observable first messages).
func firstMessageSignatures(g *cfg.CFG, start cfg.NodeID, visited map[cfg.NodeID]bool) map[string]bool {
	out := map[string]bool{}
	if visited[start] {
		return out
	}
	visited[start] = true
	n := g.Node(start)
	if n.Kind == cfg.KindAction {
		if sig, ok := messageSignature(n.Action); ok {
			out[sig] = true
			return out
		}
	}
	for _, e := range g.Successors(start) {
		if e.Kind == cfg.EdgeContinue {
			continue
		}
		for sig := range firstMessageSignatures(g, e.To, visited) {
			out[sig] = true
		}
	}
	return out
}

// checkChoiceDeterminism verifies spec §4.3 check 3: at every choice, the
// set of possible first messages of any two branches must be disjoint, so
// a receiving role can always tell which branch was taken from the first
// message it observes.
func checkChoiceDeterminism(g *cfg.CFG) []Violation {
	var out []Violation
	for _, id := range g.NodeIDs() {
		n := g.Node(id)
		if n.Kind != cfg.KindBranch {
			continue
		}
		var sigSets []map[string]bool
		for _, eid := range n.Out {
			e := g.Edge(eid)
			sigSets = append(sigSets, firstMessageSignatures(g, e.To, map[cfg.NodeID]bool{}))
		}
		for i := 0; i < len(sigSets); i++ {
			for j := i + 1; j < len(sigSets); j++ {
				for sig := range sigSets[i] {
					if sigSets[j][sig] {
						out = append(out, Violation{Check: "choice-determinism", Severity: SeverityError,
							Message: fmt.Sprintf("choice at node %d has ambiguous first message %q shared by two branches", id, sig),
							NodeID:  nodePtr(id)})
					}
				}
			}
		}
	}
	return out
}

// firstActionSignaturesForRole walks forward from start treating every
// action not involving role as tau (transparent), and returns the
// signature of the first action that does involve role, or "$terminal"
// if a Terminal is reached without ever involving role.
func firstActionSignaturesForRole(g *cfg.CFG, start cfg.NodeID, role ast.Role, visited map[cfg.NodeID]bool) map[string]bool {
	out := map[string]bool{}
	if visited[start] {
		return out
	}
	visited[start] = true
	n := g.Node(start)

	if n.Kind == cfg.KindTerminal {
		out["$terminal"] = true
		return out
	}

	if n.Kind == cfg.KindAction {
		involves := n.Action.From == role
		for _, to := range n.Action.To {
			if to == role {
				involves = true
			}
		}
		if involves {
			sig, ok := messageSignature(n.Action)
			if !ok {
				sig = fmt.Sprintf("opaque@%d", start)
			}
			out[sig] = true
			return out
		}
	}

	for _, e := range g.Successors(start) {
		if e.Kind == cfg.EdgeContinue {
			continue
		}
		for sig := range firstActionSignaturesForRole(g, e.To, role, visited) {
			out[sig] = true
		}
	}
	return out
}

// mergeableSets reports whether a role's branch-local views can be
// collapsed into one projected state: either every branch looks
// identical to this role, or every pair of branches is fully disjoint
// (so the role's own next action unambiguously picks the branch).
func mergeableSets(sets []map[string]bool) bool {
	allSame := true
	for i := 1; i < len(sets); i++ {
		if !sameSet(sets[0], sets[i]) {
			allSame = false
			break
		}
	}
	if allSame {
		return true
	}
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			for sig := range sets[i] {
				if sets[j][sig] {
					return false
				}
			}
		}
	}
	return true
}

func sameSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// checkChoiceMergeability verifies spec §4.3 check 4: every role not
// making the choice must be able to merge its per-branch local views into
// a single projected state.
func checkChoiceMergeability(g *cfg.CFG) []Violation {
	var out []Violation
	for _, id := range g.NodeIDs() {
		n := g.Node(id)
		if n.Kind != cfg.KindBranch {
			continue
		}
		for _, role := range g.Roles {
			if role == n.At {
				continue
			}
			var sets []map[string]bool
			for _, eid := range n.Out {
				e := g.Edge(eid)
				sets = append(sets, firstActionSignaturesForRole(g, e.To, role, map[cfg.NodeID]bool{}))
			}
			if !mergeableSets(sets) {
				out = append(out, Violation{Check: "choice-mergeability", Severity: SeverityError,
					Message: fmt.Sprintf("role %s cannot merge its view of the branches of the choice at node %d", role, id),
					NodeID:  nodePtr(id), Detail: map[string]any{"role": string(role)}})
			}
		}
	}
	return out
}

// checkNoRaces verifies spec §4.3 check 7: within one fork/join scope, no
// two distinct sibling branches both use the same (sender, receiver,
// label) channel, which would make the eventual interleaving ambiguous
// about which branch's message a receiver is observing.
func checkNoRaces(g *cfg.CFG) []Violation {
	var out []Violation
	for _, id := range g.NodeIDs() {
		n := g.Node(id)
		if n.Kind != cfg.KindFork {
			continue
		}
		seen := map[string]int{}
		for bi, eid := range n.Out {
			e := g.Edge(eid)
			branchScope, _ := exploreUntil(g, e.To, cfg.KindJoin)
			for m := range branchScope {
				nd := g.Node(m)
				if nd.Kind != cfg.KindAction || nd.Action.Kind != cfg.ActionMessage {
					continue
				}
				sig, _ := messageSignature(nd.Action)
				if owner, dup := seen[sig]; dup && owner != bi {
					out = append(out, Violation{Check: "no-races", Severity: SeverityError,
						Message: fmt.Sprintf("parallel at node %d: channel %q is used by more than one branch", id, sig),
						NodeID:  nodePtr(id)})
				} else if !dup {
					seen[sig] = bi
				}
			}
		}
	}
	return out
}
