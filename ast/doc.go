// SPDX-License-Identifier: GPL-3.0-or-later

// Package ast defines the external input to the MPST toolchain: the
// abstract syntax tree produced by a (not-implemented-here) recursive-descent
// parser front-end.
//
// # Core Abstraction
//
// A [Module] is an ordered collection of declarations; the declaration this
// module cares about is [GlobalProtocolDeclaration], an ordered body of
// [Interaction] values. Interaction is a closed tagged union ([MessageTransfer],
// [Choice], [Parallel], [Recursion], [Continue], [Do], and the dynamic-MPST
// extensions [DynamicRoleDecl], [CreateParticipants], [Invitation],
// [UpdatableRecursion]); every construct carries an optional [SourceLocation]
// for diagnostics.
//
// # Design Boundaries
//
// This package holds data only: no parsing, no validation beyond what the Go
// type system gives for free, no pretty-printing. ASTs are immutable after
// construction — nothing in this module mutates a Module once built.
package ast
