// SPDX-License-Identifier: GPL-3.0-or-later

// Package cfsm holds the Communicating Finite State Machine data model
// (spec §3.3) produced by [project.Projector] and the LTS analyses that
// operate on it (spec §4.5).
//
// # Core Abstraction
//
// A [CFSM] is an edge-labelled LTS, represented the same way as [cfg.CFG]:
// an arena of [State] values connected by [Transition] values referenced
// by integer id. [Action] tags each transition as a send, a receive, or an
// internal τ. States and transitions are appended through exported
// methods (AddState, AddTransition) because, unlike cfg.Build, the
// builder of a CFSM lives in a different package (project.Projector).
//
// # Design Boundaries
//
// This package never projects a CFG — that's project.Projector's job —
// and never reasons about a multi-role ensemble — that's the job of
// package context's reducer and package safety's checks. It owns exactly one machine's shape and the
// handful of pure structural queries (CountActions, FindBranchingStates,
// CanReachTerminal, DetectCycles, VerifyTrace) spec §4.5 lists.
package cfsm
