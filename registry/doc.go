// SPDX-License-Identifier: GPL-3.0-or-later

// Package registry resolves sub-protocol names, computes dependency
// graphs, enforces role-arity matching, and caches built CFGs (spec
// §4.1).
//
// # Core Abstraction
//
// A [Registry] wraps an [ast.Module]'s protocol declarations. It
// validates eagerly at construction time (spec §4.1's "construction
// policy"): missing Do/ProtocolCall references and dependency cycles
// both fail [New] outright rather than surfacing later as a build-time
// surprise deep in [cfg.Build].
//
// [Registry.GetCFG] memoizes [cfg.Build] per protocol name using
// golang.org/x/sync/singleflight, so concurrent callers resolving the
// same sub-protocol share one build instead of racing duplicate work —
// the same pattern singleflight is built for (collapsing duplicate
// concurrent cache-miss work into one).
//
// # Design Boundaries
//
// The registry never inspects role compatibility beyond arity
// ([Registry.CreateRoleMapping]'s bijection check) — projection-level
// semantics belong to [project.Projector].
package registry
