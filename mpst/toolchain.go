// SPDX-License-Identifier: GPL-3.0-or-later

package mpst

import (
	"context"
	"fmt"

	gocontext "github.com/mpst-go/mpst/context"

	"github.com/mpst-go/mpst/ast"
	"github.com/mpst-go/mpst/cfg"
	"github.com/mpst-go/mpst/cfsm"
	"github.com/mpst-go/mpst/pipeline"
	"github.com/mpst-go/mpst/project"
	"github.com/mpst-go/mpst/registry"
	"github.com/mpst-go/mpst/verify"
)

// Toolchain wires the per-package stages (spec §4.1-4.7) into the single
// surface spec §6 describes: buildCFG, verifyProtocol, project,
// projectAll, createInitialContext.
//
// A Toolchain is built once per [ast.Module] (a set of mutually-callable
// global protocols) and is safe for concurrent use: [registry.Registry]
// itself is.
type Toolchain struct {
	reg  *registry.Registry
	proj *project.Projector
}

// New builds a Toolchain over module, failing with whatever
// [registry.New] reports (an undeclared protocol reference or a
// circular protocol dependency, spec §4.1).
func New(module *ast.Module) (*Toolchain, error) {
	reg, err := registry.New(module)
	if err != nil {
		return nil, err
	}
	return &Toolchain{reg: reg, proj: project.New(reg)}, nil
}

// Registry returns the underlying [*registry.Registry], for callers that
// need [registry.Registry.GetDependencies] or [registry.Registry.Has]
// directly.
func (t *Toolchain) Registry() *registry.Registry { return t.reg }

// BuildCFG returns name's control-flow graph, building it on first
// request and caching it thereafter ([registry.Registry.GetCFG]).
func (t *Toolchain) BuildCFG(name string) (*cfg.CFG, error) {
	return t.reg.GetCFG(name)
}

// VerifyProtocol runs [verify.Verify] over name's CFG (spec §4.3).
func (t *Toolchain) VerifyProtocol(name string) (verify.Report, error) {
	g, err := t.BuildCFG(name)
	if err != nil {
		return verify.Report{}, err
	}
	return verify.Verify(g), nil
}

// Project returns role's projected CFSM for name (spec §4.4).
func (t *Toolchain) Project(name string, role ast.Role) (*cfsm.CFSM, error) {
	return t.proj.Project(name, role)
}

// ProjectAll returns every declared role's projected CFSM for name
// (spec §4.4).
func (t *Toolchain) ProjectAll(name string) (map[ast.Role]*cfsm.CFSM, error) {
	return t.proj.ProjectAll(name)
}

// CreateInitialContext projects every role of name and assembles the
// resulting CFSMs into Γ0 ([gocontext.New], spec §3.4, §4.6).
func (t *Toolchain) CreateInitialContext(name string) (*gocontext.TypingContext, error) {
	cfsms, err := t.ProjectAll(name)
	if err != nil {
		return nil, err
	}
	return gocontext.New(cfsms), nil
}

// BuildCFGFunc adapts [Toolchain.BuildCFG] to a [pipeline.Func], so it
// can be chained with [pipeline.Compose2] and friends.
func (t *Toolchain) BuildCFGFunc() pipeline.Func[string, *cfg.CFG] {
	return pipeline.FuncAdapter[string, *cfg.CFG](func(_ context.Context, name string) (*cfg.CFG, error) {
		return t.BuildCFG(name)
	})
}

// VerifyFunc adapts [verify.Verify] to a [pipeline.Func] over a CFG
// already produced by [Toolchain.BuildCFGFunc].
func VerifyFunc() pipeline.Func[*cfg.CFG, verify.Report] {
	return pipeline.FuncAdapter[*cfg.CFG, verify.Report](func(_ context.Context, g *cfg.CFG) (verify.Report, error) {
		return verify.Verify(g), nil
	})
}

// CreateInitialContextFunc adapts [Toolchain.CreateInitialContext] to a
// [pipeline.Func], for composing "project every role, then assemble Γ0"
// as one pipeline stage.
func (t *Toolchain) CreateInitialContextFunc() pipeline.Func[string, *gocontext.TypingContext] {
	return pipeline.FuncAdapter[string, *gocontext.TypingContext](func(_ context.Context, name string) (*gocontext.TypingContext, error) {
		return t.CreateInitialContext(name)
	})
}

// BuildAndVerify composes [Toolchain.BuildCFGFunc] and [VerifyFunc] via
// [pipeline.Compose2] into "build name's CFG, then verify it" as a
// single pipeline stage — the two-step sequence spec §6 names as the
// toolchain's most common call shape.
func (t *Toolchain) BuildAndVerify() pipeline.Func[string, verify.Report] {
	return pipeline.Compose2(t.BuildCFGFunc(), VerifyFunc())
}

// RequireValid runs [Toolchain.VerifyProtocol] and turns a structurally
// invalid report into an error, for callers that only want a single
// pass/fail gate rather than the full [verify.Report].
func (t *Toolchain) RequireValid(name string) error {
	r, err := t.VerifyProtocol(name)
	if err != nil {
		return err
	}
	if !r.Valid {
		return pipeline.NewError(ErrProtocolInvalid, fmt.Sprintf("protocol %q failed verification", name)).
			WithDetail("errors", r.Errors())
	}
	return nil
}
