// SPDX-License-Identifier: GPL-3.0-or-later

package context

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mpst-go/mpst/ast"
	"github.com/mpst-go/mpst/cfsm"
	"github.com/mpst-go/mpst/pipeline"
)

type roleState struct {
	Machine *cfsm.CFSM
	State   cfsm.StateID
}

// TypingContext is Γ for one session: an immutable mapping from role to
// (machine, current state) (spec §3.4).
type TypingContext struct {
	SessionID string

	roles map[ast.Role]roleState
}

// New builds Γ0 from one CFSM per role, each starting at its machine's
// Initial state, and applies tau-closure before returning it (spec §4.6:
// "after construction of the initial context" every role τ-closes).
func New(cfsms map[ast.Role]*cfsm.CFSM) *TypingContext {
	roles := make(map[ast.Role]roleState, len(cfsms))
	for role, m := range cfsms {
		roles[role] = roleState{Machine: m, State: m.Initial}
	}
	return tauClose(&TypingContext{SessionID: pipeline.NewSessionID(), roles: roles})
}

// Roles returns every role in Γ, sorted, so iteration is deterministic.
func (c *TypingContext) Roles() []ast.Role {
	out := make([]ast.Role, 0, len(c.roles))
	for r := range c.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Machine returns role's CFSM.
func (c *TypingContext) Machine(role ast.Role) (*cfsm.CFSM, bool) {
	rs, ok := c.roles[role]
	return rs.Machine, ok
}

// State returns role's current state.
func (c *TypingContext) State(role ast.Role) (cfsm.StateID, bool) {
	rs, ok := c.roles[role]
	return rs.State, ok
}

// IsTerminal reports whether every role's current state is terminal in
// its own machine (spec §3.4).
func (c *TypingContext) IsTerminal() bool {
	for _, rs := range c.roles {
		if !rs.Machine.IsTerminal(rs.State) {
			return false
		}
	}
	return true
}

// Key returns a stable string identifying Γ's state for BFS
// visited-set membership (spec §4.7): the stringified multiset of
// role:state pairs, roles in sorted order.
func (c *TypingContext) Key() string {
	roles := c.Roles()
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = fmt.Sprintf("%s:%d", r, c.roles[r].State)
	}
	return strings.Join(parts, ",")
}

// withState returns a copy of c with role advanced to state; the role map
// is copied entry by entry, every other role keeps its state, and the
// machines themselves are shared by pointer (spec §3.5: "reductions produce new
// contexts by functional update of a single role's current state").
func (c *TypingContext) withState(role ast.Role, state cfsm.StateID) *TypingContext {
	next := make(map[ast.Role]roleState, len(c.roles))
	for r, rs := range c.roles {
		next[r] = rs
	}
	rs := next[role]
	rs.State = state
	next[role] = rs
	return &TypingContext{SessionID: c.SessionID, roles: next}
}
