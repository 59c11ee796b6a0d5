// SPDX-License-Identifier: GPL-3.0-or-later

package verify

import "github.com/mpst-go/mpst/cfg"

// Severity distinguishes a fatal structural problem from an
// informational finding.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityInfo  Severity = "info"
)

// Violation is one finding produced by a single check.
type Violation struct {
	Check    string
	Severity Severity
	Message  string
	NodeID   *cfg.NodeID
	Detail   map[string]any
}

// Report is the structured output of [Verify].
type Report struct {
	Valid      bool
	Violations []Violation
}

// Errors returns only the SeverityError violations.
func (r Report) Errors() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			out = append(out, v)
		}
	}
	return out
}

func nodePtr(id cfg.NodeID) *cfg.NodeID {
	v := id
	return &v
}
