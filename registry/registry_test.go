// SPDX-License-Identifier: GPL-3.0-or-later

package registry

import (
	"testing"

	"github.com/mpst-go/mpst/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proto(name string, roles []string, body []ast.Interaction) *ast.GlobalProtocolDeclaration {
	decls := make([]ast.RoleDecl, len(roles))
	for i, r := range roles {
		decls[i] = ast.RoleDecl{Name: ast.Role(r)}
	}
	return &ast.GlobalProtocolDeclaration{Name: name, Roles: decls, Body: body}
}

func TestNewAndResolve(t *testing.T) {
	m := &ast.Module{Protocols: []*ast.GlobalProtocolDeclaration{
		proto("Auth", []string{"C", "S"}, []ast.Interaction{
			&ast.MessageTransfer{From: "C", To: []ast.Role{"S"}, Message: ast.Message{Label: "login"}},
		}),
	}}
	r, err := New(m)
	require.NoError(t, err)

	p, err := r.Resolve("Auth")
	require.NoError(t, err)
	assert.Equal(t, "Auth", p.Name)

	assert.True(t, r.Has("Auth"))
	assert.False(t, r.Has("Nope"))
	assert.Equal(t, []string{"Auth"}, r.GetProtocolNames())

	_, err = r.Resolve("Nope")
	require.Error(t, err)
}

func TestNewFailsOnMissingDependency(t *testing.T) {
	m := &ast.Module{Protocols: []*ast.GlobalProtocolDeclaration{
		proto("Outer", []string{"C", "S"}, []ast.Interaction{
			&ast.Do{Protocol: "Missing", RoleArgs: []ast.Role{"C", "S"}},
		}),
	}}
	_, err := New(m)
	require.Error(t, err)
	assert.Equal(t, string(ErrProtocolNotFound), err.(interface{ Tag() string }).Tag())
}

func TestNewFailsOnDependencyCycle(t *testing.T) {
	m := &ast.Module{Protocols: []*ast.GlobalProtocolDeclaration{
		proto("A", []string{"C", "S"}, []ast.Interaction{
			&ast.Do{Protocol: "B", RoleArgs: []ast.Role{"C", "S"}},
		}),
		proto("B", []string{"C", "S"}, []ast.Interaction{
			&ast.Do{Protocol: "A", RoleArgs: []ast.Role{"C", "S"}},
		}),
	}}
	_, err := New(m)
	require.Error(t, err)
	assert.Equal(t, string(ErrCircularDependency), err.(interface{ Tag() string }).Tag())
}

func TestGetDependenciesRecursesIntoNestedBodies(t *testing.T) {
	m := &ast.Module{Protocols: []*ast.GlobalProtocolDeclaration{
		proto("Outer", []string{"C", "S"}, []ast.Interaction{
			&ast.Choice{At: "C", Branches: []ast.Branch{
				{Body: []ast.Interaction{&ast.Do{Protocol: "Inner", RoleArgs: []ast.Role{"C", "S"}}}},
			}},
			&ast.Recursion{Label: "L", Body: []ast.Interaction{
				&ast.Parallel{Branches: [][]ast.Interaction{
					{&ast.Do{Protocol: "Other", RoleArgs: []ast.Role{"C"}}},
				}},
			}},
		}),
		proto("Inner", []string{"C", "S"}, nil),
		proto("Other", []string{"C"}, nil),
	}}
	r, err := New(m)
	require.NoError(t, err)

	deps, err := r.GetDependencies("Outer")
	require.NoError(t, err)
	assert.Equal(t, []string{"Inner", "Other"}, deps)
}

func TestCreateRoleMapping(t *testing.T) {
	m := &ast.Module{Protocols: []*ast.GlobalProtocolDeclaration{
		proto("Sub", []string{"X", "Y"}, nil),
	}}
	r, err := New(m)
	require.NoError(t, err)

	f2a, a2f, err := r.CreateRoleMapping("Sub", []ast.Role{"C", "S"})
	require.NoError(t, err)
	assert.Equal(t, ast.Role("C"), f2a["X"])
	assert.Equal(t, ast.Role("S"), f2a["Y"])
	assert.Equal(t, ast.Role("X"), a2f["C"])
	assert.Equal(t, ast.Role("Y"), a2f["S"])

	_, _, err = r.CreateRoleMapping("Sub", []ast.Role{"C"})
	require.Error(t, err)
	assert.Equal(t, string(ErrRoleMismatch), err.(interface{ Tag() string }).Tag())
}

func TestGetCFGIsCached(t *testing.T) {
	m := &ast.Module{Protocols: []*ast.GlobalProtocolDeclaration{
		proto("P", []string{"A", "B"}, []ast.Interaction{
			&ast.MessageTransfer{From: "A", To: []ast.Role{"B"}, Message: ast.Message{Label: "x"}},
		}),
	}}
	r, err := New(m)
	require.NoError(t, err)

	g1, err := r.GetCFG("P")
	require.NoError(t, err)
	g2, err := r.GetCFG("P")
	require.NoError(t, err)
	assert.Same(t, g1, g2)
}

func TestGetCFGUnknownProtocol(t *testing.T) {
	r, err := New(&ast.Module{})
	require.NoError(t, err)
	_, err = r.GetCFG("Nope")
	require.Error(t, err)
}
