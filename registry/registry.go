// SPDX-License-Identifier: GPL-3.0-or-later

package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mpst-go/mpst/ast"
	"github.com/mpst-go/mpst/cfg"
	"github.com/mpst-go/mpst/pipeline"
	"golang.org/x/sync/singleflight"
)

// Error codes produced by this package (spec §4.1, §7).
const (
	ErrProtocolNotFound   pipeline.Code = "protocol-not-found"
	ErrCircularDependency pipeline.Code = "circular-dependency"
	ErrRoleMismatch       pipeline.Code = "role-mismatch"
)

// Registry resolves sub-protocol names and caches their built CFGs (spec
// §4.1).
type Registry struct {
	protocols map[string]*ast.GlobalProtocolDeclaration

	mu       sync.Mutex
	cfgCache map[string]*cfg.CFG
	group    singleflight.Group
}

// New builds a Registry from module and validates eagerly: it fails with
// ErrProtocolNotFound if any Do/ProtocolCall references an undeclared
// protocol, or ErrCircularDependency if the dependency graph has a cycle
// (spec §4.1's construction policy). Local-protocol declarations, if
// module carried any, would be ignored; this module only ever holds
// GlobalProtocolDeclarations (spec §4.1).
func New(module *ast.Module) (*Registry, error) {
	protocols := make(map[string]*ast.GlobalProtocolDeclaration, len(module.Protocols))
	for _, p := range module.Protocols {
		protocols[p.Name] = p
	}
	r := &Registry{protocols: protocols, cfgCache: map[string]*cfg.CFG{}}
	if err := r.validateDependencies(); err != nil {
		return nil, err
	}
	return r, nil
}

// Resolve returns the declaration named name.
func (r *Registry) Resolve(name string) (*ast.GlobalProtocolDeclaration, error) {
	p, ok := r.protocols[name]
	if !ok {
		return nil, pipeline.NewError(ErrProtocolNotFound, fmt.Sprintf("no protocol named %q", name))
	}
	return p, nil
}

// Has reports whether name is a declared protocol.
func (r *Registry) Has(name string) bool {
	_, ok := r.protocols[name]
	return ok
}

// GetProtocolNames returns every declared protocol name, sorted.
func (r *Registry) GetProtocolNames() []string {
	out := make([]string, 0, len(r.protocols))
	for name := range r.protocols {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// GetDependencies returns the unique set of protocol names name's body
// references via Do/ProtocolCall or Invitation, recursing into
// Choice/Parallel/Recursion bodies (spec §4.1). This implementation has
// no Try/Timeout construct to recurse into — §3.1 does not define one —
// so that part of the spec's recursion list is vacuous here.
func (r *Registry) GetDependencies(name string) ([]string, error) {
	p, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	collectDependencies(p.Body, seen)
	out := make([]string, 0, len(seen))
	for dep := range seen {
		out = append(out, dep)
	}
	sort.Strings(out)
	return out, nil
}

func collectDependencies(body []ast.Interaction, into map[string]bool) {
	for _, item := range body {
		switch it := item.(type) {
		case *ast.Do:
			into[it.Protocol] = true
		case *ast.Invitation:
			into[it.Protocol] = true
		case *ast.Choice:
			for _, br := range it.Branches {
				collectDependencies(br.Body, into)
			}
		case *ast.Parallel:
			for _, br := range it.Branches {
				collectDependencies(br, into)
			}
		case *ast.Recursion:
			collectDependencies(it.Body, into)
		case *ast.UpdatableRecursion:
			collectDependencies(it.With, into)
		}
	}
}

// validateDependencies checks every declared protocol's dependencies
// exist and that the dependency graph is acyclic, via DFS with a
// recursion stack (spec §4.1). The first cycle found is reported as the
// path from its first re-entry.
func (r *Registry) validateDependencies() error {
	for _, name := range r.GetProtocolNames() {
		deps, err := r.GetDependencies(name)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			if !r.Has(dep) {
				return pipeline.NewError(ErrProtocolNotFound, fmt.Sprintf("protocol %q references undeclared protocol %q", name, dep)).
					WithDetail("protocol", name).WithDetail("dependency", dep)
			}
		}
	}

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(r.protocols))
	var stack []string

	var dfs func(name string) error
	dfs = func(name string) error {
		color[name] = gray
		stack = append(stack, name)
		deps, _ := r.GetDependencies(name)
		for _, dep := range deps {
			switch color[dep] {
			case white:
				if err := dfs(dep); err != nil {
					return err
				}
			case gray:
				idx := indexOf(stack, dep)
				cycle := append(append([]string{}, stack[idx:]...), dep)
				return pipeline.NewError(ErrCircularDependency, fmt.Sprintf("circular protocol dependency: %v", cycle)).
					WithDetail("cycle", cycle)
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return nil
	}
	for _, name := range r.GetProtocolNames() {
		if color[name] == white {
			if err := dfs(name); err != nil {
				return err
			}
		}
	}
	return nil
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// CreateRoleMapping returns the bidirectional bijection between subName's
// formal roles (in declaration order) and actualRoles, failing with
// ErrRoleMismatch if the arities differ (spec §4.1).
func (r *Registry) CreateRoleMapping(subName string, actualRoles []ast.Role) (formalToActual, actualToFormal map[ast.Role]ast.Role, err error) {
	p, err := r.Resolve(subName)
	if err != nil {
		return nil, nil, err
	}
	formal := p.RoleNames()
	if len(formal) != len(actualRoles) {
		return nil, nil, pipeline.NewError(ErrRoleMismatch,
			fmt.Sprintf("protocol %q expects %d roles, got %d", subName, len(formal), len(actualRoles))).
			WithDetail("expected", len(formal)).WithDetail("actual", len(actualRoles))
	}
	formalToActual = make(map[ast.Role]ast.Role, len(formal))
	actualToFormal = make(map[ast.Role]ast.Role, len(formal))
	for i, f := range formal {
		formalToActual[f] = actualRoles[i]
		actualToFormal[actualRoles[i]] = f
	}
	return formalToActual, actualToFormal, nil
}

// GetCFG builds (or returns the cached build of) name's CFG. Concurrent
// callers requesting the same name share one in-flight build via
// singleflight instead of racing duplicate cfg.Build calls.
func (r *Registry) GetCFG(name string) (*cfg.CFG, error) {
	r.mu.Lock()
	if g, ok := r.cfgCache[name]; ok {
		r.mu.Unlock()
		return g, nil
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do(name, func() (any, error) {
		p, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		g, err := cfg.Build(p)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cfgCache[name] = g
		r.mu.Unlock()
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cfg.CFG), nil
}
