// SPDX-License-Identifier: GPL-3.0-or-later

package safety

import (
	"github.com/mpst-go/mpst/ast"
	"github.com/mpst-go/mpst/cfsm"
	"github.com/mpst-go/mpst/context"
)

// BasicSafety implements Definition 4.1 (spec §4.7):
//
//	safe(Γ0) = sendReceiveCompatible(Γ0) ∧ ∀ Γ ∈ reachable(Γ0). sendReceiveCompatible(Γ)
type BasicSafety struct {
	cfg *Config
}

// NewBasicSafety returns a BasicSafety backed by cfg, or [NewConfig]'s
// defaults if cfg is nil.
func NewBasicSafety(cfg *Config) *BasicSafety {
	return &BasicSafety{cfg: configOrDefault(cfg)}
}

// Name implements [SafetyProperty].
func (b *BasicSafety) Name() string { return "BasicSafety" }

// Description implements [SafetyProperty].
func (b *BasicSafety) Description() string {
	return "every enabled send has a matching receive, in Γ0 and every reachable Γ"
}

// Check implements [SafetyProperty]: BFS from tc over reachable
// contexts, keyed by [context.TypingContext.Key], short-circuiting on
// the first sendReceiveCompatible violation found in tc or any
// reachable context (spec §4.7).
func (b *BasicSafety) Check(tc *context.TypingContext) Result {
	start := b.cfg.TimeNow()
	b.cfg.Logger.Info("safety.BasicSafety.check start", "session", tc.SessionID)

	visited := map[string]bool{tc.Key(): true}
	queue := []*context.TypingContext{tc}
	explored := 0

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		explored++

		if explored > b.cfg.MaxContexts {
			b.cfg.Logger.Info("safety.BasicSafety.check done", "safe", false, "truncated", true, "statesExplored", explored)
			return Result{Diagnostics: Diagnostics{StatesExplored: explored, WallClock: b.cfg.TimeNow().Sub(start), Truncated: true}}
		}

		if vs := checkSendReceiveCompatible(cur); len(vs) > 0 {
			b.cfg.Logger.Info("safety.BasicSafety.check done", "safe", false, "statesExplored", explored)
			return Result{Violations: vs, Diagnostics: Diagnostics{StatesExplored: explored, WallClock: b.cfg.TimeNow().Sub(start)}}
		}

		for _, succ := range context.FindAllSuccessors(cur) {
			key := succ.Key()
			if !visited[key] {
				visited[key] = true
				b.cfg.Logger.Debug("safety.BasicSafety.check enqueue", "key", key)
				queue = append(queue, succ)
			}
		}
	}

	b.cfg.Logger.Info("safety.BasicSafety.check done", "safe", true, "statesExplored", explored)
	return Result{Safe: true, Diagnostics: Diagnostics{StatesExplored: explored, WallClock: b.cfg.TimeNow().Sub(start)}}
}

// checkSendReceiveCompatible reports every enabled send in tc with no
// matching receive at its receiver's current state. This differs from
// [context.AtomicMulticast]'s own notion of "enabled": that function
// silently excludes an incomplete multicast from the reducer's choice
// set, whereas sendReceiveCompatible must surface the incomplete case as
// a diagnosable violation.
func checkSendReceiveCompatible(tc *context.TypingContext) []Violation {
	var out []Violation
	for _, p := range tc.Roles() {
		mp, _ := tc.Machine(p)
		sp, _ := tc.State(p)
		for _, tid := range mp.State(sp).Out {
			tr := mp.Transition(tid)
			if tr.Action.Kind != cfsm.ActionSend {
				continue
			}
			for _, q := range tr.Action.To {
				mq, ok := tc.Machine(q)
				if !ok {
					continue
				}
				sq, _ := tc.State(q)
				if !hasMatchingReceive(mq, sq, p, tr.Action.Message.Label) {
					out = append(out, Violation{Sender: p, Receiver: q, Message: tr.Action.Message, Context: tc})
				}
			}
		}
	}
	return out
}

func hasMatchingReceive(m *cfsm.CFSM, at cfsm.StateID, from ast.Role, label string) bool {
	for _, tid := range m.State(at).Out {
		tr := m.Transition(tid)
		if tr.Action.Kind == cfsm.ActionReceive && tr.Action.From == from && tr.Action.Message.Label == label {
			return true
		}
	}
	return false
}
