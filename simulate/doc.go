// SPDX-License-Identifier: GPL-3.0-or-later

// Package simulate steps a [cfg.CFG] through its actions one at a time
// (spec §4.8), independent of per-role projection or safety checking.
//
// # Control flow
//
// [Simulator.Step] advances to the next Action node, walking silently
// through any Initial, Merge, Fork, Join, and Recursive nodes in
// between — [State.StepCount] counts actions, not raw CFG nodes, which
// is what makes spec §4.8's S4 example work out (maxSteps=10 covering
// exactly 5 ping-pong iterations of two messages each). A Branch node
// pauses the simulator (AtChoice in [State]) until the caller resolves
// it with [Simulator.Choose]; a Recursive node pushes its label onto the
// recursion stack only on a fresh entry, not on a continue-triggered
// re-entry (distinguished by inspecting whether the label is already on
// top of the stack, since the CFG builder gives a `continue` no node of
// its own — it always targets the same Recursive node id that the
// loop's first entry used).
//
// # Concurrency
//
// A Fork node cannot be represented by a single currentNode, so the
// simulator keeps a small internal tree of cursors: entering a Fork
// pushes a forkFrame holding one cursor per branch, and each [Config.ForkMode]
// decides how those cursors are interleaved ([Deterministic] drains one
// branch before starting the next; [Nondeterministic] round-robins
// across whichever branches remain). A frame is popped once every
// branch has reached the Fork's matching Join, and the outer cursor
// resumes from there. This tree is internal bookkeeping only —
// [State] still reports a single CurrentNode, per spec §4.8's schema.
//
// # Events
//
// An Action{message} node emits an [EventMessage]. A static sub-protocol
// call remains an opaque Action{subprotocol} node at this level — CFG
// construction never inlines it, only per-role projection does — so it
// is surfaced as [EventSubprotocolCall] rather than silently stepped
// over. A dynamic-MPST node emits [EventDynamic].
package simulate
