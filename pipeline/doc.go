// SPDX-License-Identifier: GPL-3.0-or-later

// Package pipeline provides the composable primitives shared by every stage
// of the MPST toolchain.
//
// # Core Abstraction
//
// The package is built around a single interface:
//
//	type Func[A, B any] interface {
//		Call(ctx context.Context, input A) (B, error)
//	}
//
// Each Func represents one pipeline stage with exactly one success mode
// and one failure mode; mpst.Toolchain exposes buildCFG, verifyProtocol
// and createInitialContext this way (Toolchain.BuildCFGFunc,
// mpst.VerifyFunc, Toolchain.CreateInitialContextFunc). [Compose2]
// through [Compose8] chain stages into type-checked pipelines, e.g.
// Compose2(BuildCFGFunc(), VerifyFunc()) to get a
// Func[string, verify.Report] in one step.
//
// # Observability
//
// The safety checks and the CFG simulator log through [SLogger]
// (compatible with [log/slog]); CFG building, verification and
// projection do not log. By default, logging is disabled; set a logger explicitly to
// enable it. Error classification is configurable via [ErrClassifier]; the
// default classifies any error implementing [Tagged] by its own tag.
//
// # Design Boundaries
//
// This package intentionally provides only the composition seam and the
// ambient stack (logging, error classification, session identifiers). It
// does not know about CFGs or CFSMs; its only domain import is ast, for
// the [ast.SourceLocation] an [Error] may carry. Every other domain
// package in this module depends on pipeline, never the other way around.
package pipeline
