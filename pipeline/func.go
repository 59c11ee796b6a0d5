// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import "context"

// Func is a generic operation that accepts an input and returns a result.
//
// Func instances can be composed using [Compose2], [Compose3], etc. to create
// type-safe pipelines where the output of one operation flows to the input of the next.
// The toolchain exposes its build, verify and initial-context stages as
// Funcs: [Func][string, *cfg.CFG] for the builder (keyed by protocol
// name), [Func][*cfg.CFG, verify.Report] for the verifier, and so on.
//
// All Funcs in this module are total and side-effect-free unless documented
// otherwise; none perform I/O or blocking work.
type Func[A, B any] interface {
	Call(ctx context.Context, input A) (B, error)
}

// FuncAdapter wraps a function as a [Func] implementation.
//
// Use this to create ad-hoc [Func] instances from closures when you need
// custom behavior that doesn't fit the existing primitives.
type FuncAdapter[A, B any] func(ctx context.Context, input A) (B, error)

// Call implements [Func].
func (f FuncAdapter[A, B]) Call(ctx context.Context, input A) (B, error) {
	return f(ctx, input)
}
