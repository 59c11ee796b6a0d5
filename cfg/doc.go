// SPDX-License-Identifier: GPL-3.0-or-later

// Package cfg builds and holds the control-flow graph intermediate
// representation (spec §3.2) and the builder that derives it from an
// [ast.GlobalProtocolDeclaration] (spec §4.2).
//
// # Core Abstraction
//
// A [CFG] is an arena of [Node] values connected by [Edge] values, both
// referenced by integer id rather than pointer — spec §9's "cyclic graphs
// without cyclic ownership": recursion introduces back-edges, and an
// arena-of-nodes with a side table from recursion label to node id makes
// those back-edges representable without mutual pointers or unsafe
// mutation after the fact.
//
// [Build] is the single entry point: it translates each [ast.Interaction]
// compositionally (each construct gets a single entry node and wires to a
// caller-supplied exit node). A continue resolves to the node id already
// registered for its recursion label rather than a fresh node, so the
// edge a caller wires into it is classified "continue" right where it is
// created (builder.go's exitIsCont threading) instead of via a separate
// graph-wide retagging post-pass.
//
// # Design Boundaries
//
// No verification beyond what the builder must guarantee as it builds: full
// structural re-validation is [verify.Verify]'s job. No projection. No
// pretty-printing beyond the String() methods of the kind enums.
package cfg
