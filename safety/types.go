// SPDX-License-Identifier: GPL-3.0-or-later

package safety

import (
	"time"

	"github.com/mpst-go/mpst/ast"
	"github.com/mpst-go/mpst/context"
)

// Violation is one sendReceiveCompatible or stuck-state failure found at
// Context (spec §4.7, Definition 4.1). Sender/Receiver/Message are the
// zero value for a property (DeadlockFreedom) whose violations are not
// about a specific send.
type Violation struct {
	Sender   ast.Role
	Receiver ast.Role
	Message  ast.Message
	Context  *context.TypingContext
}

// Diagnostics reports BFS exploration statistics (spec §4.7, §5).
type Diagnostics struct {
	StatesExplored int
	WallClock      time.Duration
	Truncated      bool
}

// Result is what every [SafetyProperty.Check] returns.
type Result struct {
	Safe        bool
	Violations  []Violation
	Diagnostics Diagnostics

	// Err is set only by a property that does not decide a verdict at
	// all (Liveness, LivePlus stubs); Safe and Violations are the zero
	// value whenever Err is non-nil.
	Err error
}

// SafetyProperty is the extension point spec §4.7 describes: an
// alternative property that reuses the reducer's reachability search
// over the same [context.TypingContext] BFS as [BasicSafety].
type SafetyProperty interface {
	Check(tc *context.TypingContext) Result
	Name() string
	Description() string
}
