// SPDX-License-Identifier: GPL-3.0-or-later

package context

import (
	stdcontext "context"
	"testing"

	"github.com/mpst-go/mpst/ast"
	"github.com/mpst-go/mpst/cfsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildRequestResponse builds two CFSMs for C->S:req; S->C:resp,
// mirroring the S1 scenario end to end without the projector.
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

func TestNewContextIsNotTerminal(t *testing.T) {
	tc := New(buildRequestResponse(t))
	assert.NotEmpty(t, tc.SessionID)
	assert.False(t, tc.IsTerminal())
	assert.Equal(t, []ast.Role{"C", "S"}, tc.Roles())
}

func TestReduceAdvancesBothRoles(t *testing.T) {
	tc := New(buildRequestResponse(t))

	next, err := Reduce(tc)
	require.NoError(t, err)
	next, err = Reduce(next)
	require.NoError(t, err)

	assert.True(t, next.IsTerminal())
	_, err = Reduce(next)
	require.Error(t, err)
	assert.Equal(t, string(ErrTerminal), err.(interface{ Tag() string }).Tag())
}

func TestReduceStuckWhenNoEnabledCommunication(t *testing.T) {
	a := cfsm.New("A", "P", nil)
	a0 := a.AddState()
	a1 := a.AddState()
	a.AddTransition(a0, a1, cfsm.Action{Kind: cfsm.ActionReceive, From: "B", Message: ast.Message{Label: "never"}})

	b := cfsm.New("B", "P", nil)
	b0 := b.AddState()
	b.MarkTerminal(b0) // B has no outgoing send at all

	tc := New(map[ast.Role]*cfsm.CFSM{"A": a, "B": b})
	_, err := Reduce(tc)
	require.Error(t, err)
	assert.Equal(t, string(ErrStuck), err.(interface{ Tag() string }).Tag())
}

func TestFindAllSuccessorsDeduplicates(t *testing.T) {
	tc := New(buildRequestResponse(t))
	succs := FindAllSuccessors(tc)
	require.Len(t, succs, 1, "only one communication is enabled at Γ0")
	assert.NotEqual(t, tc.Key(), succs[0].Key())
}

func TestExecuteToCompletionReachesTerminal(t *testing.T) {
	tc := New(buildRequestResponse(t))
	final, err := ExecuteToCompletion(stdcontext.Background(), tc, 10)
	require.NoError(t, err)
	assert.True(t, final.IsTerminal())
}

func TestExecuteToCompletionExceeded(t *testing.T) {
	tc := New(buildRequestResponse(t))
	_, err := ExecuteToCompletion(stdcontext.Background(), tc, 1)
	require.Error(t, err)
	assert.Equal(t, string(ErrExecutionExceeded), err.(interface{ Tag() string }).Tag())
}

func TestExecuteToCompletionCancellation(t *testing.T) {
	tc := New(buildRequestResponse(t))
	goCtx, cancel := stdcontext.WithCancel(stdcontext.Background())
	cancel()
	_, err := ExecuteToCompletion(goCtx, tc, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, stdcontext.Canceled)
}

func TestKeyIsStableAcrossRoleOrder(t *testing.T) {
	tc := New(buildRequestResponse(t))
	assert.Equal(t, tc.Key(), tc.Key())
}

func TestAtomicMulticastEnablesOnlyWhenAllReceiversMatch(t *testing.T) {
	s := cfsm.New("S", "ThreeBuyer", nil)
	s0 := s.AddState()
	s1 := s.AddState()
	s.AddTransition(s0, s1, cfsm.Action{Kind: cfsm.ActionSend, To: []ast.Role{"A", "B"}, Message: ast.Message{Label: "quote"}})
	s.MarkTerminal(s1)

	a := cfsm.New("A", "ThreeBuyer", nil)
	a0 := a.AddState()
	a1 := a.AddState()
	a.AddTransition(a0, a1, cfsm.Action{Kind: cfsm.ActionReceive, From: "S", Message: ast.Message{Label: "quote"}})
	a.MarkTerminal(a1)

	// B never receives: the multicast must not be enabled.
	b := cfsm.New("B", "ThreeBuyer", nil)
	b0 := b.AddState()
	b.MarkTerminal(b0)

	tc := New(map[ast.Role]*cfsm.CFSM{"S": s, "A": a, "B": b})
	assert.Empty(t, AtomicMulticast(tc))
}
