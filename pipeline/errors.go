// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import (
	"fmt"

	"github.com/mpst-go/mpst/ast"
)

// Code is a stable, short tag identifying an error's category — see spec
// §7's taxonomy (e.g. "undefined-recursion-label", "role-not-found",
// "send-receive-mismatch"). Codes are stable across releases so that UIs
// and CLIs built on this module can key diagnostics by code.
type Code string

// Error is the structured error value used throughout this module (spec §7:
// "structured values carrying a tag, a human-readable message, optional
// source location, and optional contextual details").
type Error struct {
	Code    Code
	Message string
	Loc     *ast.SourceLocation
	Details map[string]any
}

var _ error = (*Error)(nil)
var _ Tagged = (*Error)(nil)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Loc != nil && e.Loc.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Loc.File, e.Loc.Line, e.Loc.Column, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Tag implements [Tagged].
func (e *Error) Tag() string {
	return string(e.Code)
}

// NewError builds an [*Error] with the given code and message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithLoc returns a copy of e annotated with a source location.
func (e *Error) WithLoc(loc *ast.SourceLocation) *Error {
	cp := *e
	cp.Loc = loc
	return &cp
}

// WithDetail returns a copy of e with one extra detail key set.
func (e *Error) WithDetail(key string, value any) *Error {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}
