// SPDX-License-Identifier: GPL-3.0-or-later

// Package safety checks a [context.TypingContext] against a
// [SafetyProperty] (spec §4.7, Definition 4.1).
//
// # BasicSafety
//
// [BasicSafety] is the contract every protocol this toolchain accepts
// must satisfy: a send is sendReceiveCompatible at Γ iff every enabled
// send has a matching receive at its receiver's current state.
// [BasicSafety.Check] BFS-explores every context reachable from Γ0 via
// [context.FindAllSuccessors], keyed by [context.TypingContext.Key] so
// the same context is never enqueued twice, and returns as soon as it
// finds a violation — in Γ0 itself or in any reachable Γ. [Config.MaxContexts]
// bounds the search; breaching it returns a truncated, non-conclusive
// result rather than running forever.
//
// # Extension points
//
// [SafetyProperty] lets an alternative check reuse the same BFS shape.
// [DeadlockFreedom] is the one other property fully implemented here:
// no reachable Γ may be non-terminal with zero enabled communications.
// [Liveness] and [LivePlus] are registered as stubs that report
// ErrNotImplemented rather than omitting the extension point entirely.
//
// # Design Boundaries
//
// This package never mutates a [context.TypingContext]; every BFS step
// consumes [context.FindAllSuccessors]'s already-τ-closed results. It
// never performs projection or CFG construction itself — it is handed a
// fully-built Γ0 by the caller (see the `mpst` root package's
// `createInitialContext` wiring).
package safety
