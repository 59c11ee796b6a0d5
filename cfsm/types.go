// SPDX-License-Identifier: GPL-3.0-or-later

package cfsm

import (
	"fmt"

	"github.com/mpst-go/mpst/ast"
)

// StateID and TransitionID index into a CFSM's arenas, mirroring
// [cfg.NodeID]/[cfg.EdgeID]'s rationale (see doc.go).
type StateID int
type TransitionID int

// ActionKind tags a Transition's variant (spec §3.3).
type ActionKind int

const (
	ActionSend ActionKind = iota
	ActionReceive
	ActionTau
)

func (k ActionKind) String() string {
	switch k {
	case ActionSend:
		return "send"
	case ActionReceive:
		return "receive"
	case ActionTau:
		return "tau"
	default:
		return "unknown"
	}
}

// Action is the label on a Transition.
type Action struct {
	Kind ActionKind

	To      []ast.Role // ActionSend
	From    ast.Role   // ActionReceive
	Message ast.Message

	// Annotation names the sub-protocol a τ-transition stands for
	// (spec §4.4's "Action{subprotocol}" rule), or the recursion label a
	// τ-transition exits (empty otherwise).
	Annotation string
}

func (a Action) String() string {
	switch a.Kind {
	case ActionSend:
		return fmt.Sprintf("send %v %s", a.To, a.Message.Label)
	case ActionReceive:
		return fmt.Sprintf("receive %s %s", a.From, a.Message.Label)
	default:
		if a.Annotation != "" {
			return "tau:" + a.Annotation
		}
		return "tau"
	}
}

// State is one CFSM state.
type State struct {
	ID StateID

	// RecLabel ties this state back to the label of the Recursive node it
	// was projected from (spec §4.4: "associate cfsmState with label"),
	// empty otherwise.
	RecLabel string

	Out []TransitionID
	In  []TransitionID
}

// Transition connects two states, carrying an Action.
type Transition struct {
	ID       TransitionID
	From, To StateID
	Action   Action
}

// CFSM is one role's projection of a global protocol: an edge-labelled
// LTS (spec §3.3).
type CFSM struct {
	Role         ast.Role
	ProtocolName string
	Parameters   []ast.TypeParam

	states      []State
	transitions []Transition

	Initial   StateID
	Terminals []StateID

	// Metadata records projection choices that change observable behavior
	// (SPEC_FULL.md §4): "shuffle" (parallel-composition interleaving
	// strategy) and "multicastLowering" (copied from the source CFG).
	Metadata map[string]string
}

// New creates an empty CFSM for role, ready for AddState/AddTransition.
func New(role ast.Role, protocolName string, params []ast.TypeParam) *CFSM {
	return &CFSM{Role: role, ProtocolName: protocolName, Parameters: params, Metadata: map[string]string{}}
}

// AddState appends a fresh state and returns its id.
func (m *CFSM) AddState() StateID {
	id := StateID(len(m.states))
	m.states = append(m.states, State{ID: id})
	return id
}

// AddTransition appends a transition from -> to labelled with action.
func (m *CFSM) AddTransition(from, to StateID, action Action) TransitionID {
	id := TransitionID(len(m.transitions))
	m.transitions = append(m.transitions, Transition{ID: id, From: from, To: to, Action: action})
	m.states[from].Out = append(m.states[from].Out, id)
	m.states[to].In = append(m.states[to].In, id)
	return id
}

// MarkTerminal records id as a terminal state.
func (m *CFSM) MarkTerminal(id StateID) {
	m.Terminals = append(m.Terminals, id)
}

// SetRecLabel tags id with the recursion label it was projected from.
func (m *CFSM) SetRecLabel(id StateID, label string) {
	m.states[id].RecLabel = label
}

// StateByRecLabel finds the state tagged with label, if any. Used to
// redirect a `continue` back-edge to the CFSM state associated with a
// Recursive node's label (spec §4.4 rule 3).
func (m *CFSM) StateByRecLabel(label string) (StateID, bool) {
	for i := range m.states {
		if m.states[i].RecLabel == label {
			return m.states[i].ID, true
		}
	}
	return 0, false
}

// State returns the state with the given id.
func (m *CFSM) State(id StateID) *State { return &m.states[id] }

// Transition returns the transition with the given id.
func (m *CFSM) Transition(id TransitionID) *Transition { return &m.transitions[id] }

// NumStates returns the number of states.
func (m *CFSM) NumStates() int { return len(m.states) }

// NumTransitions returns the number of transitions.
func (m *CFSM) NumTransitions() int { return len(m.transitions) }

// StateIDs returns every state id in arena (creation) order.
func (m *CFSM) StateIDs() []StateID {
	ids := make([]StateID, len(m.states))
	for i := range ids {
		ids[i] = StateID(i)
	}
	return ids
}

// IsTerminal reports whether id is one of m's terminal states.
func (m *CFSM) IsTerminal(id StateID) bool {
	for _, t := range m.Terminals {
		if t == id {
			return true
		}
	}
	return false
}
