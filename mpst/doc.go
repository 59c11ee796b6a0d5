// SPDX-License-Identifier: GPL-3.0-or-later

// Package mpst is the root convenience surface spec §6 describes:
// buildCFG, verifyProtocol, project, projectAll, and
// createInitialContext, wired together over one [ast.Module].
//
// [New] builds a [*Toolchain] from a module's declared protocols,
// resolving and validating sub-protocol dependencies up front
// ([registry.New], spec §4.1). From there:
//
//   - [Toolchain.BuildCFG] builds (or returns the cached build of) a
//     named protocol's [cfg.CFG].
//   - [Toolchain.VerifyProtocol] runs [verify.Verify] over it.
//   - [Toolchain.Project] / [Toolchain.ProjectAll] project one role, or
//     every declared role, to a [cfsm.CFSM].
//   - [Toolchain.CreateInitialContext] projects every role and
//     assembles the result into Γ0, ready for [Toolchain.CheckSafety]
//     or direct use with the context package's reducer.
//   - [Toolchain.CheckSafety] and [Toolchain.NewSimulator] hand Γ0 (or
//     the CFG) to the safety and simulate packages respectively.
//
// [Toolchain.BuildCFGFunc], [VerifyFunc], and [Toolchain.BuildAndVerify]
// expose the same stages as [pipeline.Func] values, composable with
// [pipeline.Compose2] and friends for callers building a larger
// pipeline (batch verification across many protocol names, for
// instance) out of these stages rather than calling them imperatively.
package mpst
