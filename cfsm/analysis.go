// SPDX-License-Identifier: GPL-3.0-or-later

package cfsm

import (
	"fmt"

	"github.com/mpst-go/mpst/ast"
)

// CountActions counts the transitions of the given kind (spec §4.5).
func CountActions(m *CFSM, kind ActionKind) int {
	n := 0
	for i := range m.transitions {
		if m.transitions[i].Action.Kind == kind {
			n++
		}
	}
	return n
}

// FindBranchingStates returns every state with more than one non-τ
// outgoing transition (spec §4.5).
func FindBranchingStates(m *CFSM) []StateID {
	var out []StateID
	for i := range m.states {
		nonTau := 0
		for _, tid := range m.states[i].Out {
			if m.transitions[tid].Action.Kind != ActionTau {
				nonTau++
			}
		}
		if nonTau > 1 {
			out = append(out, m.states[i].ID)
		}
	}
	return out
}

// CanReachTerminal reports whether a terminal state is reachable from
// from, following outgoing transitions (spec §4.5).
func CanReachTerminal(m *CFSM, from StateID) bool {
	visited := make(map[StateID]bool)
	var visit func(id StateID) bool
	visit = func(id StateID) bool {
		if m.IsTerminal(id) {
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		for _, tid := range m.states[id].Out {
			if visit(m.transitions[tid].To) {
				return true
			}
		}
		return false
	}
	return visit(from)
}

// DetectCycles runs a DFS with a recursion stack and returns one cycle
// (the path from the repeated state to itself) per back-edge found (spec
// §4.5: "returns one cycle per strongly connected component").
func DetectCycles(m *CFSM) [][]StateID {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(m.states))
	var stack []StateID
	var cycles [][]StateID

	var dfs func(id StateID)
	dfs = func(id StateID) {
		color[id] = gray
		stack = append(stack, id)
		for _, tid := range m.states[id].Out {
			to := m.transitions[tid].To
			switch color[to] {
			case white:
				dfs(to)
			case gray:
				idx := stackIndex(stack, to)
				cycle := append([]StateID{}, stack[idx:]...)
				cycles = append(cycles, cycle)
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}
	for i := range m.states {
		if color[i] == white {
			dfs(m.states[i].ID)
		}
	}
	return cycles
}

func stackIndex(stack []StateID, v StateID) int {
	for i, x := range stack {
		if x == v {
			return i
		}
	}
	return -1
}

// TraceMismatch is returned by VerifyTrace when an expected action has
// no matching outgoing transition.
type TraceMismatch struct {
	Index  int
	State  StateID
	Reason string
}

func (e *TraceMismatch) Error() string {
	return fmt.Sprintf("action %d at state %d: %s", e.Index, e.State, e.Reason)
}

// VerifyTrace consumes actions one at a time starting at m's initial
// state, τ-closing deterministically before each comparison (spec §4.5).
// It fails with a *TraceMismatch naming the first action with no
// matching outgoing transition.
func VerifyTrace(m *CFSM, actions []Action) error {
	cur := FollowTau(m, m.Initial)
	for i, want := range actions {
		tid, ok := matchOutgoing(m, cur, want)
		if !ok {
			return &TraceMismatch{Index: i, State: cur, Reason: fmt.Sprintf("no outgoing transition matches %s", want)}
		}
		cur = FollowTau(m, m.transitions[tid].To)
	}
	return nil
}

// FollowTau advances along τ-transitions until none remain (spec §4.6's
// τ-closure), taking the first in transition order at each step. Safe
// against infinite loops: a τ-cycle (which the projector produces for a
// role that takes no part in a recursion's body) is cut by a visited set,
// and FollowTau stops at the last state before the cycle would repeat.
func FollowTau(m *CFSM, id StateID) StateID {
	visited := map[StateID]bool{id: true}
	for {
		advanced := false
		for _, tid := range m.states[id].Out {
			if m.transitions[tid].Action.Kind == ActionTau {
				next := m.transitions[tid].To
				if visited[next] {
					return id
				}
				visited[next] = true
				id = next
				advanced = true
				break
			}
		}
		if !advanced {
			return id
		}
	}
}

func matchOutgoing(m *CFSM, from StateID, want Action) (TransitionID, bool) {
	for _, tid := range m.states[from].Out {
		tr := m.transitions[tid]
		if tr.Action.Kind == ActionTau {
			continue
		}
		if actionsEqual(tr.Action, want) {
			return tid, true
		}
	}
	return 0, false
}

func actionsEqual(a, b Action) bool {
	if a.Kind != b.Kind || a.Message.Label != b.Message.Label {
		return false
	}
	switch a.Kind {
	case ActionSend:
		return rolesEqual(a.To, b.To)
	case ActionReceive:
		return a.From == b.From
	default:
		return true
	}
}

func rolesEqual(a, b []ast.Role) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
