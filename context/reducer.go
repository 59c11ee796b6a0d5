// SPDX-License-Identifier: GPL-3.0-or-later

package context

import (
	"context"

	"github.com/mpst-go/mpst/ast"
	"github.com/mpst-go/mpst/cfsm"
	"github.com/mpst-go/mpst/pipeline"
)

// Error codes produced by this package (spec §4.6, §7).
const (
	ErrTerminal          pipeline.Code = "terminal"
	ErrStuck             pipeline.Code = "stuck"
	ErrExecutionExceeded pipeline.Code = "execution-exceeded"
)

// Communication is one enabled send/receive pair (or, for a multicast
// send, one send paired with every matching receive) between Γ's roles.
type Communication struct {
	Sender         ast.Role
	Receivers      []ast.Role
	Message        ast.Message
	SendTransition cfsm.TransitionID
	// ReceiveTransitions maps each receiver to the transition it takes.
	ReceiveTransitions map[ast.Role]cfsm.TransitionID
}

// AtomicMulticast is the enabled-communication search spec §4.6
// describes: a send is enabled iff every one of its listed receivers has
// a matching receive at its current state, and reducing by it advances
// the sender and every receiver together as a single step.
//
// This repository's projector lowers multicast to sequential unicasts by
// default (Open Question 1 in DESIGN.md), so in practice every send this
// function sees has exactly one receiver; AtomicMulticast still
// implements the general rule so that CFSMs built by an alternate,
// non-lowering projection remain reducible without a second code path.
func AtomicMulticast(tc *TypingContext) []Communication {
	var out []Communication
	for _, p := range tc.Roles() {
		mp, _ := tc.Machine(p)
		sp, _ := tc.State(p)
		for _, tid := range mp.State(sp).Out {
			tr := mp.Transition(tid)
			if tr.Action.Kind != cfsm.ActionSend {
				continue
			}
			recvs := make(map[ast.Role]cfsm.TransitionID, len(tr.Action.To))
			complete := true
			for _, q := range tr.Action.To {
				mq, ok := tc.Machine(q)
				if !ok {
					complete = false
					break
				}
				sq, _ := tc.State(q)
				rtid, ok := findReceive(mq, sq, p, tr.Action.Message.Label)
				if !ok {
					complete = false
					break
				}
				recvs[q] = rtid
			}
			if complete {
				out = append(out, Communication{
					Sender:             p,
					Receivers:          append([]ast.Role{}, tr.Action.To...),
					Message:            tr.Action.Message,
					SendTransition:     tid,
					ReceiveTransitions: recvs,
				})
			}
		}
	}
	return out
}

func findReceive(m *cfsm.CFSM, at cfsm.StateID, from ast.Role, label string) (cfsm.TransitionID, bool) {
	for _, tid := range m.State(at).Out {
		tr := m.Transition(tid)
		if tr.Action.Kind == cfsm.ActionReceive && tr.Action.From == from && tr.Action.Message.Label == label {
			return tid, true
		}
	}
	return 0, false
}

// Enabled is the reducer's configured strategy (spec §4.6's `enabled`).
var Enabled = AtomicMulticast

// tauClose advances every role along its own machine's τ-closure. Each
// role's chain is independent and cfsm.FollowTau already iterates to a
// fixed point, so one pass over roles suffices (spec §4.6 describes an
// outer fixed-point loop for the general case; it collapses to this
// because τ-transitions never cross roles).
func tauClose(tc *TypingContext) *TypingContext {
	next := tc
	for _, role := range next.Roles() {
		m, _ := next.Machine(role)
		st, _ := next.State(role)
		if closed := cfsm.FollowTau(m, st); closed != st {
			next = next.withState(role, closed)
		}
	}
	return next
}

// ReduceBy advances tc by the chosen communication and applies
// tau-closure (spec §4.6's "small step").
func ReduceBy(tc *TypingContext, c Communication) *TypingContext {
	sender, _ := tc.Machine(c.Sender)
	next := tc.withState(c.Sender, sender.Transition(c.SendTransition).To)
	for _, q := range c.Receivers {
		m, _ := tc.Machine(q)
		next = next.withState(q, m.Transition(c.ReceiveTransitions[q]).To)
	}
	return tauClose(next)
}

// Reduce picks the first enabled communication, in Enabled's iteration
// order, and reduces by it. It fails with ErrTerminal if tc is terminal,
// or ErrStuck if tc is non-terminal with no enabled communication.
func Reduce(tc *TypingContext) (*TypingContext, error) {
	if tc.IsTerminal() {
		return nil, pipeline.NewError(ErrTerminal, "typing context is terminal; no further reductions")
	}
	enabled := Enabled(tc)
	if len(enabled) == 0 {
		return nil, pipeline.NewError(ErrStuck, "typing context is stuck: non-terminal with no enabled communication")
	}
	return ReduceBy(tc, enabled[0]), nil
}

// FindAllSuccessors returns { ReduceBy(tc,c) | c ∈ Enabled(tc) },
// deduplicated by Key (spec §4.6).
func FindAllSuccessors(tc *TypingContext) []*TypingContext {
	seen := map[string]bool{}
	var out []*TypingContext
	for _, c := range Enabled(tc) {
		succ := ReduceBy(tc, c)
		key := succ.Key()
		if !seen[key] {
			seen[key] = true
			out = append(out, succ)
		}
	}
	return out
}

// ExecuteToCompletion iterates Reduce until tc is terminal, maxSteps is
// exhausted, or goCtx is cancelled (spec §4.6; goCtx is this module's
// cooperative-cancellation convention, the same shape as the teacher's
// CancelWatchFunc binding a lifetime to a context.Context). It fails
// with ErrExecutionExceeded if the bound is hit before termination, or
// with whatever error Reduce returns (ErrStuck) on a stuck path.
func ExecuteToCompletion(goCtx context.Context, tc *TypingContext, maxSteps int) (*TypingContext, error) {
	cur := tc
	for i := 0; i < maxSteps; i++ {
		if err := goCtx.Err(); err != nil {
			return cur, err
		}
		if cur.IsTerminal() {
			return cur, nil
		}
		next, err := Reduce(cur)
		if err != nil {
			return cur, err
		}
		cur = next
	}
	if cur.IsTerminal() {
		return cur, nil
	}
	return cur, pipeline.NewError(ErrExecutionExceeded, "execution did not terminate within maxSteps")
}
