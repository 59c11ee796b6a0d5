// SPDX-License-Identifier: GPL-3.0-or-later

package simulate

import "github.com/mpst-go/mpst/pipeline"

const (
	// ErrChoiceRequired is returned by [Simulator.Step] when the
	// simulator is paused at a Branch node: the caller must resolve it
	// with [Simulator.Choose] before stepping further.
	ErrChoiceRequired pipeline.Code = "choice-required"

	// ErrNoChoicePending is returned by [Simulator.Choose] when no
	// Branch node is currently pending.
	ErrNoChoicePending pipeline.Code = "no-choice-pending"

	// ErrChoiceOutOfRange is returned by [Simulator.Choose] when the
	// given index is not a valid branch index.
	ErrChoiceOutOfRange pipeline.Code = "choice-out-of-range"

	// ErrAlreadyComplete is returned by [Simulator.Step] once the
	// simulator's root cursor has reached the Terminal node.
	ErrAlreadyComplete pipeline.Code = "already-complete"

	// ErrMaxStepsReached is returned by [Simulator.Step] when called
	// again after a prior step already hit [Config.MaxSteps].
	ErrMaxStepsReached pipeline.Code = "max-steps-reached"

	// ErrNoProgress is returned by [Simulator.Step] if its silent
	// structural walk between two actions exceeds its guard bound,
	// indicating a CFG shape no well-formed protocol should produce
	// (e.g. a recursion whose body never reaches an Action).
	ErrNoProgress pipeline.Code = "no-progress"
)
