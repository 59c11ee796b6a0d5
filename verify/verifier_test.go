// SPDX-License-Identifier: GPL-3.0-or-later

package verify

import (
	"testing"

	"github.com/mpst-go/mpst/ast"
	"github.com/mpst-go/mpst/cfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(label string) ast.Message { return ast.Message{Label: label} }

func transfer(from, to, label string) *ast.MessageTransfer {
	return &ast.MessageTransfer{From: ast.Role(from), To: []ast.Role{ast.Role(to)}, Message: msg(label)}
}

func build(t *testing.T, proto *ast.GlobalProtocolDeclaration) *cfg.CFG {
	t.Helper()
	g, err := cfg.Build(proto)
	require.NoError(t, err)
	return g
}

// TestVerifyRequestResponseIsClean covers S1: a straight-line protocol
// has no violations at all.
func TestVerifyRequestResponseIsClean(t *testing.T) {
	g := build(t, &ast.GlobalProtocolDeclaration{
		Name:  "RequestResponse",
		Roles: []ast.RoleDecl{{Name: "C"}, {Name: "S"}},
		Body: []ast.Interaction{
			transfer("C", "S", "req"),
			transfer("S", "C", "resp"),
		},
	})

	r := Verify(g)
	assert.True(t, r.Valid)
	assert.Empty(t, r.Errors())
}

// TestVerifyChoiceDeterministic covers a well-formed OAuth-like choice
// where each branch's first message label differs.
func TestVerifyChoiceDeterministic(t *testing.T) {
	g := build(t, &ast.GlobalProtocolDeclaration{
		Name:  "Auth",
		Roles: []ast.RoleDecl{{Name: "C"}, {Name: "S"}},
		Body: []ast.Interaction{
			&ast.Choice{
				At: "S",
				Branches: []ast.Branch{
					{Label: "ok", Body: []ast.Interaction{transfer("S", "C", "accept")}},
					{Label: "bad", Body: []ast.Interaction{transfer("S", "C", "reject")}},
				},
			},
		},
	})

	r := Verify(g)
	assert.True(t, r.Valid)
}

// TestVerifyChoiceAmbiguousFirstMessageFails builds a choice whose two
// branches start with the identical (sender, receiver, label) message —
// a receiver has no way to tell the branches apart from the first wire
// message, which checkChoiceDeterminism must reject.
func TestVerifyChoiceAmbiguousFirstMessageFails(t *testing.T) {
	g := build(t, &ast.GlobalProtocolDeclaration{
		Name:  "Ambiguous",
		Roles: []ast.RoleDecl{{Name: "C"}, {Name: "S"}},
		Body: []ast.Interaction{
			&ast.Choice{
				At: "S",
				Branches: []ast.Branch{
					{Label: "b1", Body: []ast.Interaction{transfer("S", "C", "x")}},
					{Label: "b2", Body: []ast.Interaction{transfer("S", "C", "x")}},
				},
			},
		},
	})

	r := Verify(g)
	assert.False(t, r.Valid)
	found := false
	for _, v := range r.Errors() {
		if v.Check == "choice-determinism" {
			found = true
		}
	}
	assert.True(t, found)
}

// TestVerifyChoiceMergeabilityFails builds a choice where role C's view
// of the two outer branches overlaps without being identical: "outer1"
// nests a further choice giving C a first-involvement set of {p, q},
// while "outer2" offers only {p}. C cannot tell from its own first
// action alone whether "outer1/inner1" or "outer2" was taken, so the two
// views cannot be merged into one projected state.
func TestVerifyChoiceMergeabilityFails(t *testing.T) {
	g := build(t, &ast.GlobalProtocolDeclaration{
		Name:  "Unmergeable",
		Roles: []ast.RoleDecl{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		Body: []ast.Interaction{
			&ast.Choice{
				At: "A",
				Branches: []ast.Branch{
					{Label: "outer1", Body: []ast.Interaction{
						&ast.Choice{
							At: "A",
							Branches: []ast.Branch{
								{Label: "inner1", Body: []ast.Interaction{
									transfer("A", "B", "m1"),
									transfer("C", "A", "p"),
								}},
								{Label: "inner2", Body: []ast.Interaction{
									transfer("A", "B", "m2"),
									transfer("C", "A", "q"),
								}},
							},
						},
					}},
					{Label: "outer2", Body: []ast.Interaction{
						transfer("A", "B", "m3"),
						transfer("C", "A", "p"),
					}},
				},
			},
		},
	})

	r := Verify(g)
	assert.False(t, r.Valid)
	found := false
	for _, v := range r.Errors() {
		if v.Check == "choice-mergeability" {
			found = true
			assert.Equal(t, "C", v.Detail["role"])
		}
	}
	assert.True(t, found)
}

// TestVerifyRecursiveClean covers S4 (recursive ping-pong): no
// violations, despite the continue edge forming a cycle.
func TestVerifyRecursiveClean(t *testing.T) {
	g := build(t, &ast.GlobalProtocolDeclaration{
		Name:  "PingPong",
		Roles: []ast.RoleDecl{{Name: "A"}, {Name: "B"}},
		Body: []ast.Interaction{
			&ast.Recursion{
				Label: "Loop",
				Body: []ast.Interaction{
					transfer("A", "B", "ping"),
					transfer("B", "A", "pong"),
					&ast.Continue{Label: "Loop"},
				},
			},
		},
	})

	r := Verify(g)
	assert.True(t, r.Valid)
}

// TestVerifyUnusedRoleIsInfoNotError covers S6: an unused role is
// reported, but it must not invalidate the protocol.
func TestVerifyUnusedRoleIsInfoNotError(t *testing.T) {
	g := build(t, &ast.GlobalProtocolDeclaration{
		Name:  "Observed",
		Roles: []ast.RoleDecl{{Name: "A"}, {Name: "B"}, {Name: "Observer"}},
		Body: []ast.Interaction{
			transfer("A", "B", "hello"),
		},
	})

	r := Verify(g)
	assert.True(t, r.Valid)
	var found *Violation
	for i := range r.Violations {
		if r.Violations[i].Check == "connectedness" {
			found = &r.Violations[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, SeverityInfo, found.Severity)
	assert.Equal(t, "Observer", found.Detail["role"])
}

// TestVerifyParallelForkJoinClean covers a straightforward fork/join with
// no shared channels, which must report no violations.
func TestVerifyParallelForkJoinClean(t *testing.T) {
	g := build(t, &ast.GlobalProtocolDeclaration{
		Name:  "Fork1",
		Roles: []ast.RoleDecl{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		Body: []ast.Interaction{
			&ast.Parallel{
				Branches: [][]ast.Interaction{
					{transfer("A", "B", "x")},
					{transfer("A", "C", "y")},
				},
			},
		},
	})

	r := Verify(g)
	assert.True(t, r.Valid)
}

// TestVerifyParallelRaceDetected builds a fork whose two sibling branches
// both use the identical (sender, receiver, label) channel, which
// checkNoRaces must flag as ambiguous once the branches interleave.
func TestVerifyParallelRaceDetected(t *testing.T) {
	g := build(t, &ast.GlobalProtocolDeclaration{
		Name:  "RacyFork",
		Roles: []ast.RoleDecl{{Name: "A"}, {Name: "B"}},
		Body: []ast.Interaction{
			&ast.Parallel{
				Branches: [][]ast.Interaction{
					{transfer("A", "B", "x")},
					{transfer("A", "B", "x")},
				},
			},
		},
	})

	r := Verify(g)
	assert.False(t, r.Valid)
	found := false
	for _, v := range r.Errors() {
		if v.Check == "no-races" {
			found = true
		}
	}
	assert.True(t, found)
}

// TestVerifyParallelSharedSenderIsClean covers the common fork pattern
// where the same role initiates more than one branch (its own projection
// simply interleaves those sends in some order) — this must not be
// flagged as a violation.
func TestVerifyParallelSharedSenderIsClean(t *testing.T) {
	g := build(t, &ast.GlobalProtocolDeclaration{
		Name:  "SharedSenderFork",
		Roles: []ast.RoleDecl{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		Body: []ast.Interaction{
			&ast.Parallel{
				Branches: [][]ast.Interaction{
					{transfer("A", "B", "x")},
					{transfer("A", "C", "y")},
				},
			},
		},
	})

	r := Verify(g)
	assert.True(t, r.Valid)
}
