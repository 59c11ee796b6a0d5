// SPDX-License-Identifier: GPL-3.0-or-later

package safety

import "github.com/mpst-go/mpst/context"

// DeadlockFreedom is the [SafetyProperty] spec §4.7's extension-point
// language calls for beyond BasicSafety (SPEC_FULL.md §4 supplemented
// feature): no reachable Γ is stuck while non-terminal. This is the
// check a syntactic CFG-level "parallel deadlock" heuristic was dropped
// in favor of (see DESIGN.md's `verify` detail) — only the projected
// CFSM ensemble plus the reducer's actual branch interleaving can decide
// it soundly.
type DeadlockFreedom struct {
	cfg *Config
}

// NewDeadlockFreedom returns a DeadlockFreedom backed by cfg, or
// [NewConfig]'s defaults if cfg is nil.
func NewDeadlockFreedom(cfg *Config) *DeadlockFreedom {
	return &DeadlockFreedom{cfg: configOrDefault(cfg)}
}

// Name implements [SafetyProperty].
func (d *DeadlockFreedom) Name() string { return "DeadlockFreedom" }

// Description implements [SafetyProperty].
func (d *DeadlockFreedom) Description() string {
	return "no reachable Γ is non-terminal with zero enabled communications"
}

// Check implements [SafetyProperty], reusing the same BFS shape as
// [BasicSafety.Check] over [context.FindAllSuccessors].
func (d *DeadlockFreedom) Check(tc *context.TypingContext) Result {
	start := d.cfg.TimeNow()
	d.cfg.Logger.Info("safety.DeadlockFreedom.check start", "session", tc.SessionID)

	visited := map[string]bool{tc.Key(): true}
	queue := []*context.TypingContext{tc}
	explored := 0

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		explored++

		if explored > d.cfg.MaxContexts {
			d.cfg.Logger.Info("safety.DeadlockFreedom.check done", "safe", false, "truncated", true, "statesExplored", explored)
			return Result{Diagnostics: Diagnostics{StatesExplored: explored, WallClock: d.cfg.TimeNow().Sub(start), Truncated: true}}
		}

		if !cur.IsTerminal() && len(context.Enabled(cur)) == 0 {
			d.cfg.Logger.Info("safety.DeadlockFreedom.check done", "safe", false, "statesExplored", explored)
			return Result{
				Violations:  []Violation{{Context: cur}},
				Diagnostics: Diagnostics{StatesExplored: explored, WallClock: d.cfg.TimeNow().Sub(start)},
			}
		}

		for _, succ := range context.FindAllSuccessors(cur) {
			key := succ.Key()
			if !visited[key] {
				visited[key] = true
				d.cfg.Logger.Debug("safety.DeadlockFreedom.check enqueue", "key", key)
				queue = append(queue, succ)
			}
		}
	}

	d.cfg.Logger.Info("safety.DeadlockFreedom.check done", "safe", true, "statesExplored", explored)
	return Result{Safe: true, Diagnostics: Diagnostics{StatesExplored: explored, WallClock: d.cfg.TimeNow().Sub(start)}}
}
