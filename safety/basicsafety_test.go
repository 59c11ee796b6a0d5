// SPDX-License-Identifier: GPL-3.0-or-later

package safety

import (
	"testing"

	"github.com/mpst-go/mpst/ast"
	"github.com/mpst-go/mpst/cfsm"
	"github.com/mpst-go/mpst/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildRequestResponse mirrors S1 end to end, matching context package's
// own fixture so both packages' tests agree on the baseline scenario.
func buildRequestResponse(t *testing.T) map[ast.Role]*cfsm.CFSM {
	t.Helper()

	c := cfsm.New("C", "RequestResponse", nil)
	c0 := c.AddState()
	c1 := c.AddState()
	c2 := c.AddState()
	c.AddTransition(c0, c1, cfsm.Action{Kind: cfsm.ActionSend, To: []ast.Role{"S"}, Message: ast.Message{Label: "req"}})
	c.AddTransition(c1, c2, cfsm.Action{Kind: cfsm.ActionReceive, From: "S", Message: ast.Message{Label: "resp"}})
	c.MarkTerminal(c2)

	s := cfsm.New("S", "RequestResponse", nil)
	s0 := s.AddState()
	s1 := s.AddState()
	s2 := s.AddState()
	s.AddTransition(s0, s1, cfsm.Action{Kind: cfsm.ActionReceive, From: "C", Message: ast.Message{Label: "req"}})
	s.AddTransition(s1, s2, cfsm.Action{Kind: cfsm.ActionSend, To: []ast.Role{"C"}, Message: ast.Message{Label: "resp"}})
	s.MarkTerminal(s2)

	return map[ast.Role]*cfsm.CFSM{"C": c, "S": s}
}

func TestBasicSafetyAcceptsRequestResponse(t *testing.T) {
	tc := context.New(buildRequestResponse(t))
	r := NewBasicSafety(nil).Check(tc)
	assert.True(t, r.Safe)
	assert.Empty(t, r.Violations)
	assert.GreaterOrEqual(t, r.Diagnostics.StatesExplored, 1)
}

// TestBasicSafetyRejectsMismatchedLabel builds a pair of CFSMs where C
// sends "req" but S only ever expects to receive "other" — the enabled
// send has no matching receive, which checkSendReceiveCompatible must
// flag at Γ0 itself.
func TestBasicSafetyRejectsMismatchedLabel(t *testing.T) {
	c := cfsm.New("C", "Mismatched", nil)
	c0 := c.AddState()
	c1 := c.AddState()
	c.AddTransition(c0, c1, cfsm.Action{Kind: cfsm.ActionSend, To: []ast.Role{"S"}, Message: ast.Message{Label: "req"}})
	c.MarkTerminal(c1)

	s := cfsm.New("S", "Mismatched", nil)
	s0 := s.AddState()
	s1 := s.AddState()
	s.AddTransition(s0, s1, cfsm.Action{Kind: cfsm.ActionReceive, From: "C", Message: ast.Message{Label: "other"}})
	s.MarkTerminal(s1)

	tc := context.New(map[ast.Role]*cfsm.CFSM{"C": c, "S": s})
	r := NewBasicSafety(nil).Check(tc)
	require.False(t, r.Safe)
	require.Len(t, r.Violations, 1)
	assert.Equal(t, ast.Role("C"), r.Violations[0].Sender)
	assert.Equal(t, ast.Role("S"), r.Violations[0].Receiver)
	assert.Equal(t, "req", r.Violations[0].Message.Label)
}

func TestBasicSafetyTruncatesAtMaxContexts(t *testing.T) {
	cfg := NewConfig()
	cfg.MaxContexts = 0
	tc := context.New(buildRequestResponse(t))
	r := NewBasicSafety(cfg).Check(tc)
	assert.False(t, r.Safe)
	assert.True(t, r.Diagnostics.Truncated)
}

func TestDeadlockFreedomAcceptsRequestResponse(t *testing.T) {
	tc := context.New(buildRequestResponse(t))
	r := NewDeadlockFreedom(nil).Check(tc)
	assert.True(t, r.Safe)
}

// TestDeadlockFreedomDetectsStuckState builds A waiting on a receive
// that B never sends, which is non-terminal with no enabled
// communication at Γ0 itself.
func TestDeadlockFreedomDetectsStuckState(t *testing.T) {
	a := cfsm.New("A", "P", nil)
	a0 := a.AddState()
	a1 := a.AddState()
	a.AddTransition(a0, a1, cfsm.Action{Kind: cfsm.ActionReceive, From: "B", Message: ast.Message{Label: "never"}})

	b := cfsm.New("B", "P", nil)
	b0 := b.AddState()
	b.MarkTerminal(b0)

	tc := context.New(map[ast.Role]*cfsm.CFSM{"A": a, "B": b})
	r := NewDeadlockFreedom(nil).Check(tc)
	require.False(t, r.Safe)
	require.Len(t, r.Violations, 1)
	assert.Equal(t, tc.Key(), r.Violations[0].Context.Key())
}

func TestLivenessStubsReportNotImplemented(t *testing.T) {
	tc := context.New(buildRequestResponse(t))

	r := Liveness{}.Check(tc)
	require.Error(t, r.Err)
	assert.Equal(t, string(ErrNotImplemented), r.Err.(interface{ Tag() string }).Tag())

	r2 := LivePlus{}.Check(tc)
	require.Error(t, r2.Err)
	assert.Equal(t, string(ErrNotImplemented), r2.Err.(interface{ Tag() string }).Tag())
}

func TestSafetyPropertyInterfaceSatisfied(t *testing.T) {
	var _ SafetyProperty = NewBasicSafety(nil)
	var _ SafetyProperty = NewDeadlockFreedom(nil)
	var _ SafetyProperty = Liveness{}
	var _ SafetyProperty = LivePlus{}
}
