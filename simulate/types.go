// SPDX-License-Identifier: GPL-3.0-or-later

package simulate

import (
	"github.com/mpst-go/mpst/ast"
	"github.com/mpst-go/mpst/cfg"
)

// Mode picks how the simulator orders a Fork node's branches (spec §4.8).
type Mode int

const (
	// Deterministic drains fork branches one at a time, in declaration
	// order: branch 1 runs to its Join before branch 2 starts.
	Deterministic Mode = iota
	// Nondeterministic interleaves fork branches round-robin, one step
	// of each in turn.
	Nondeterministic
)

func (m Mode) String() string {
	if m == Nondeterministic {
		return "nondeterministic"
	}
	return "deterministic"
}

// EventKind tags an [Event]'s variant.
type EventKind int

const (
	// EventMessage is emitted at an Action{message} node.
	EventMessage EventKind = iota
	// EventSubprotocolCall is emitted at an Action{subprotocol} node (a
	// Do call); the global CFG does not inline sub-protocols (only
	// per-role projection does), so the simulator surfaces the call as
	// its own event rather than silently skipping it.
	EventSubprotocolCall
	// EventDynamic is emitted at an Action{dynamic} node (SPEC_FULL.md
	// Open Question 3's opaque dynamic-MPST constructs).
	EventDynamic
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventSubprotocolCall:
		return "subprotocolCall"
	case EventDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Event is one observable step of the simulator's run, recorded in its
// trace when recording is enabled (spec §4.8).
type Event struct {
	Kind EventKind

	// EventMessage fields.
	From    ast.Role
	To      []ast.Role
	Label   string
	Payload *ast.PayloadType

	// EventSubprotocolCall fields.
	Protocol string
}

// State is the simulator's externally observable snapshot (spec §4.8:
// "Maintains {currentNode, atChoice?, availableChoices?, recursionStack,
// stepCount, visited[], trace?}").
type State struct {
	CurrentNode      cfg.NodeID
	AtChoice         bool
	AvailableChoices []cfg.EdgeID
	RecursionStack   []string
	StepCount        int
	Visited          []cfg.NodeID
	ReachedMaxSteps  bool
	Complete         bool
}
