// SPDX-License-Identifier: GPL-3.0-or-later

package safety

import (
	"github.com/mpst-go/mpst/context"
	"github.com/mpst-go/mpst/pipeline"
)

// ErrNotImplemented tags the result of a stub [SafetyProperty].
const ErrNotImplemented pipeline.Code = "not-implemented"

// Liveness is a stub [SafetyProperty]: deciding that every role
// eventually reaches its intended continuation is out of scope (spec.md
// Non-goals: "richer safety levels" beyond BasicSafety are not fully
// implemented). Check always returns a NotImplemented error rather than
// a fabricated verdict.
type Liveness struct{}

// Name implements [SafetyProperty].
func (Liveness) Name() string { return "Liveness" }

// Description implements [SafetyProperty].
func (Liveness) Description() string { return "not implemented" }

// Check implements [SafetyProperty].
func (Liveness) Check(tc *context.TypingContext) Result {
	return Result{Err: pipeline.NewError(ErrNotImplemented, "Liveness is not implemented")}
}

// LivePlus is a stub [SafetyProperty]; see [Liveness].
type LivePlus struct{}

// Name implements [SafetyProperty].
func (LivePlus) Name() string { return "LivePlus" }

// Description implements [SafetyProperty].
func (LivePlus) Description() string { return "not implemented" }

// Check implements [SafetyProperty].
func (LivePlus) Check(tc *context.TypingContext) Result {
	return Result{Err: pipeline.NewError(ErrNotImplemented, "LivePlus is not implemented")}
}
