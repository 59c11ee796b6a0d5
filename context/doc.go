// SPDX-License-Identifier: GPL-3.0-or-later

// Package context implements the typing context Γ (spec §3.4) and the
// operational-semantics reducer over it (spec §4.6).
//
// # Core Abstraction
//
// A [TypingContext] is an immutable snapshot mapping every role to its
// CFSM and current state, tagged with a session id minted via
// [pipeline.NewSessionID]. Reductions never mutate a TypingContext; they
// return a new one via a functional update of a single role's state (or,
// for a multicast communication, every receiver's state), matching
// spec §3.5's "typing contexts are immutable values" lifecycle rule.
//
// [Enabled] finds the set of communications a context can perform next;
// [Reduce] and [ReduceBy] perform one step; [FindAllSuccessors] and
// [ExecuteToCompletion] build on those primitives for exploration
// (the BFS of [safety.BasicSafety] and [safety.DeadlockFreedom]) and
// bounded single-path execution.
//
// # Design Boundaries
//
// This package knows nothing about the global CFG or AST — it operates
// purely on [cfsm.CFSM] values handed to it by [project.Projector]. It
// does not decide safety; that is the job of package safety, built on top of
// [Enabled]/[ReduceBy].
package context
