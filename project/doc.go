// SPDX-License-Identifier: GPL-3.0-or-later

// Package project builds one role's [cfsm.CFSM] from a [cfg.CFG] (spec
// §4.4: "projection").
//
// # Core Abstraction
//
// [Projector.Project] walks every node of the built CFG once and appends
// one CFSM state per node into the role's machine, in the same order
// [cfg.CFG.NodeIDs] produces. An Action{message} node becomes a send or
// receive transition when the role is the sender or a receiver, and a
// tau transition otherwise; the structural nodes Initial, Terminal,
// Merge, Join and Recursive are tau for every role. A Branch node instead
// gets one transition per alternative, labelled with the first send or
// receive the role observes on that alternative; a Fork node whose
// branches the role acts in gets the interleaving (shuffle) product of
// those branches, built into extra states at projection time. The
// projection does not minimize away consecutive tau states at
// construction time. Collapsing tau chains happens lazily wherever a
// CFSM is actually driven — [cfsm.FollowTau], used by
// [context.TypingContext] and the safety checker — the same division of
// labour spec §4.2 uses between CFG construction and CFG consumption.
//
// A static sub-protocol call (Do) is inlined rather than left opaque:
// [Projector.Project] recurses into the callee's CFG for the role's
// mapped formal counterpart (via [registry.Registry.CreateRoleMapping])
// and splices the callee's states directly into the caller's machine,
// bracketed by an "enter" and "exit" tau annotated with the callee's
// name. [registry.Registry] already guarantees the protocol dependency
// graph is acyclic, so this recursion always terminates. A role not
// named in the call's role arguments sees the whole call as a single
// tau, the same as a dynamic-MPST construct.
//
// [Projector.ProjectAll] projects every declared role concurrently via
// an errgroup and returns the partial result together with every error
// joined together, so a caller can report every role's projection
// failure in one pass instead of stopping at the first.
package project
