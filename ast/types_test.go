// SPDX-License-Identifier: GPL-3.0-or-later

package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleNames(t *testing.T) {
	g := &GlobalProtocolDeclaration{
		Name: "P",
		Roles: []RoleDecl{
			{Name: "C"}, {Name: "S"},
		},
	}
	assert.Equal(t, []Role{"C", "S"}, g.RoleNames())
}

func TestInteractionLocation(t *testing.T) {
	loc := &SourceLocation{File: "p.scr", Line: 3}
	mt := &MessageTransfer{From: "A", To: []Role{"B"}, Message: Message{Label: "ping"}, Loc: loc}
	assert.Same(t, loc, Location(mt))

	cont := &Continue{Label: "Loop"}
	assert.Nil(t, Location(cont))
}

func TestExhaustiveInteractionVariants(t *testing.T) {
	var variants = []Interaction{
		&MessageTransfer{},
		&Choice{},
		&Parallel{},
		&Recursion{},
		&Continue{},
		&Do{},
		&DynamicRoleDecl{},
		&CreateParticipants{},
		&Invitation{},
		&UpdatableRecursion{},
	}
	for _, v := range variants {
		assert.NotNil(t, v)
	}
}
