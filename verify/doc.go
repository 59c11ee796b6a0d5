// SPDX-License-Identifier: GPL-3.0-or-later

// Package verify rechecks a built [cfg.CFG] against spec §3.2's
// structural invariants and performs the higher-level checks of spec
// §4.3: connectedness, choice determinism, choice mergeability,
// progress, and fork/join channel race-freedom.
//
// # Core Abstraction
//
// [Verify] runs every check and returns a [Report]: a flat list of
// [Violation] values, each tagged with the check that produced it and a
// [Severity]. Connectedness findings (an unused role) are informational
// ([SeverityInfo]) rather than fatal — spec's scenario S6 expects an
// unused role to be *reported*, not to make the protocol unprojectable.
// Every other check's findings are [SeverityError] and flip
// [Report.Valid] to false.
//
// # Design Boundaries
//
// Verify never mutates the CFG it is given, and never decides safety —
// deadlock-freedom proper requires exploring how fork/join branches
// actually interleave at runtime, which needs the full projected CFSM
// ensemble and context reduction ([context.ExecuteToCompletion]); that
// lives in [safety.DeadlockFreedom], not here. What this package can check
// soundly from the CFG alone is narrower: structural well-formedness,
// and whether two sibling branches of the same fork race on an identical
// (sender, receiver, label) channel.
package verify
