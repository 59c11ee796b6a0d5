// SPDX-License-Identifier: GPL-3.0-or-later

package simulate

import (
	"fmt"

	"github.com/mpst-go/mpst/cfg"
	"github.com/mpst-go/mpst/pipeline"
)

// cursor is one execution position within the global CFG. A cursor
// normally tracks a single node, but while it is inside a Fork it holds
// a stack of forkFrames instead — one per nested Fork — so concurrency
// is modeled as a small tree of cursors rather than a flat list of
// active nodes (spec §4.8's single-currentNode State schema has no room
// for concurrent threads, so the tree lives only inside the simulator).
type cursor struct {
	node  cfg.NodeID
	forks []*forkFrame
}

// forkFrame is one active Fork: the branches spawned at a Fork node that
// have not yet reached their matching Join.
type forkFrame struct {
	parallelID int
	threads    []*cursor
	rrNext     int // round-robin cursor for Nondeterministic mode
}

// Simulator walks a [*cfg.CFG] one step at a time (spec §4.8). Unlike
// [project.Projector] and the safety checks, it operates on the global
// protocol graph directly rather than on per-role projections.
type Simulator struct {
	g   *cfg.CFG
	cfg *Config

	root            *cursor
	pendingCursor   *cursor
	available       []*cfg.Edge
	recursionStack  []string
	stepCount       int
	visited         []cfg.NodeID
	trace           []Event
	reachedMaxSteps bool
}

// New creates a [*Simulator] over g, backed by cfg (or [NewConfig]'s
// defaults if cfg is nil), and resets it to g's Initial node.
func New(g *cfg.CFG, cfg *Config) *Simulator {
	s := &Simulator{g: g, cfg: configOrDefault(cfg)}
	s.Reset()
	return s
}

// Reset restores the simulator to g's Initial node and clears the
// recursion stack, visited list, trace, and any pending choice.
func (s *Simulator) Reset() {
	s.root = &cursor{node: s.g.Initial}
	s.pendingCursor = nil
	s.available = nil
	s.recursionStack = nil
	s.stepCount = 0
	s.visited = nil
	s.trace = nil
	s.reachedMaxSteps = false
}

// IsComplete reports whether the root cursor has reached the Terminal
// node with no fork still open and no choice pending.
func (s *Simulator) IsComplete() bool {
	return len(s.root.forks) == 0 && s.pendingCursor == nil && s.g.Node(s.root.node).Kind == cfg.KindTerminal
}

// Step advances the simulation to its next observable action: it walks
// silently through any Initial, Merge, Fork, Join, and Recursive nodes
// in between (those never consume step budget or appear as a distinct
// "step" — spec §4.8's worked examples count steps as actions, e.g. S4's
// maxSteps=10 covering 5 ping-pong iterations of two messages each) and
// stops at the first Action node, a pending Branch, or the Terminal
// node. It returns [ErrAlreadyComplete], [ErrMaxStepsReached], or
// [ErrChoiceRequired] instead of stepping when those conditions hold;
// the caller must resolve a pending choice with [Choose] before the
// next Step succeeds.
func (s *Simulator) Step() error {
	if s.IsComplete() {
		return pipeline.NewError(ErrAlreadyComplete, "simulator has already reached the terminal node")
	}
	if s.reachedMaxSteps {
		return pipeline.NewError(ErrMaxStepsReached, "simulator already reached its step bound")
	}
	if s.pendingCursor != nil {
		return pipeline.NewError(ErrChoiceRequired, "choose(i) must resolve the pending branch before stepping")
	}
	if s.stepCount >= s.cfg.MaxSteps {
		s.reachedMaxSteps = true
		s.cfg.Logger.Info("simulate.step maxStepsReached", "stepCount", s.stepCount)
		return nil
	}

	// Bounds the silent structural walk between two actions: a
	// well-formed protocol never cycles through Recursive/Merge/Fork
	// nodes without eventually reaching an Action, so this only trips
	// on a pathological CFG (an empty recursion body, for instance).
	guard := s.g.NumNodes()*4 + 16
	for ; guard > 0; guard-- {
		executed, _, ev, err := s.stepCursor(s.root, false)
		if err != nil {
			return err
		}
		s.visited = append(s.visited, executed)

		if ev != nil {
			s.stepCount++
			if s.cfg.RecordTrace {
				s.trace = append(s.trace, *ev)
			}
			s.cfg.Logger.Debug("simulate.step", "stepCount", s.stepCount, "node", executed)
			return nil
		}
		if s.pendingCursor != nil {
			s.cfg.Logger.Debug("simulate.step pausedAtChoice", "node", executed)
			return nil
		}
		if s.IsComplete() {
			return nil
		}
	}
	return pipeline.NewError(ErrNoProgress, "no action reached within the structural-node guard")
}

// Choose resolves a pending Branch by selecting its i'th outgoing edge,
// in declaration order. It fails with [ErrNoChoicePending] if no Branch
// is pending, or [ErrChoiceOutOfRange] if i is not a valid index.
func (s *Simulator) Choose(i int) error {
	if s.pendingCursor == nil {
		return pipeline.NewError(ErrNoChoicePending, "no branch is pending")
	}
	if i < 0 || i >= len(s.available) {
		return pipeline.NewError(ErrChoiceOutOfRange, fmt.Sprintf("choice %d out of range [0,%d)", i, len(s.available)))
	}

	edge := s.available[i]
	s.pendingCursor.node = edge.To
	s.pendingCursor = nil
	s.available = nil

	s.visited = append(s.visited, edge.From)
	s.cfg.Logger.Debug("simulate.choose", "index", i, "label", edge.Label)
	return nil
}

// Run steps the simulator until it completes, reaches its step bound,
// or pauses at a pending choice. It returns whatever error [Step]
// returned; [ErrChoiceRequired] means the caller should [Choose] and
// call Run again to continue.
func (s *Simulator) Run() error {
	for !s.IsComplete() && !s.reachedMaxSteps {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// GetState returns the simulator's current snapshot.
func (s *Simulator) GetState() State {
	st := State{
		CurrentNode:     s.root.node,
		AtChoice:        s.pendingCursor != nil,
		RecursionStack:  append([]string(nil), s.recursionStack...),
		StepCount:       s.stepCount,
		Visited:         append([]cfg.NodeID(nil), s.visited...),
		ReachedMaxSteps: s.reachedMaxSteps,
		Complete:        s.IsComplete(),
	}
	for _, e := range s.available {
		st.AvailableChoices = append(st.AvailableChoices, e.ID)
	}
	return st
}

// GetTrace returns every [Event] recorded so far (empty unless
// [Config.RecordTrace] is true).
func (s *Simulator) GetTrace() []Event {
	return append([]Event(nil), s.trace...)
}

// stepCursor advances c by exactly one underlying CFG node and reports
// (the node it executed, whether c itself has now finished, an emitted
// event if any, an error). asThread is true only when c is being
// evaluated as one of a forkFrame's threads: finished then means "this
// thread reached its Fork's matching Join" and the parent retires it.
// When asThread is false (the root cursor, or a cursor just resumed
// after its own frame popped), a Join is a plain pass-through like
// Merge — the outer protocol flow continues past it — and Terminal
// simply stops without advancing further.
func (s *Simulator) stepCursor(c *cursor, asThread bool) (executed cfg.NodeID, finished bool, ev *Event, err error) {
	if len(c.forks) > 0 {
		frame := c.forks[len(c.forks)-1]
		idx := s.pickThreadIndex(frame)
		th := frame.threads[idx]

		executed, thFinished, ev, err := s.stepCursor(th, true)
		if err != nil {
			return 0, false, nil, err
		}
		if thFinished {
			frame.threads = append(frame.threads[:idx], frame.threads[idx+1:]...)
			if len(frame.threads) == 0 {
				c.forks = c.forks[:len(c.forks)-1]
				c.node = th.node // the matching Join node
			}
		}
		return executed, false, ev, nil
	}

	n := s.g.Node(c.node)
	switch n.Kind {
	case cfg.KindTerminal:
		return c.node, true, nil, nil

	case cfg.KindJoin:
		if asThread {
			return c.node, true, nil, nil
		}
		executed := c.node
		c.node = s.g.Successors(c.node)[0].To
		return executed, false, nil, nil

	case cfg.KindBranch:
		s.pendingCursor = c
		s.available = s.g.Successors(c.node)
		return c.node, false, nil, nil

	case cfg.KindFork:
		succs := s.g.Successors(c.node)
		threads := make([]*cursor, len(succs))
		for i, e := range succs {
			threads[i] = &cursor{node: e.To}
		}
		c.forks = append(c.forks, &forkFrame{parallelID: n.ParallelID, threads: threads})
		return c.node, false, nil, nil

	case cfg.KindRecursive:
		if len(s.recursionStack) == 0 || s.recursionStack[len(s.recursionStack)-1] != n.RecLabel {
			s.recursionStack = append(s.recursionStack, n.RecLabel)
		}
		executed := c.node
		c.node = s.g.Successors(c.node)[0].To
		return executed, false, nil, nil

	case cfg.KindAction:
		executed := c.node
		ev := eventFor(n)
		c.node = s.g.Successors(c.node)[0].To
		return executed, false, ev, nil

	default: // KindInitial, KindMerge: plain pass-through
		executed := c.node
		c.node = s.g.Successors(c.node)[0].To
		return executed, false, nil, nil
	}
}

// pickThreadIndex chooses which of frame's remaining threads steps
// next. Deterministic mode always picks index 0, which — since a
// finished thread is removed from the slice — drains each branch fully
// before the next one starts (declaration order). Nondeterministic
// mode round-robins across whatever threads remain.
func (s *Simulator) pickThreadIndex(frame *forkFrame) int {
	if s.cfg.ForkMode == Deterministic {
		return 0
	}
	idx := frame.rrNext % len(frame.threads)
	frame.rrNext++
	return idx
}

func eventFor(n *cfg.Node) *Event {
	switch n.Action.Kind {
	case cfg.ActionMessage:
		return &Event{Kind: EventMessage, From: n.Action.From, To: n.Action.To, Label: n.Action.Message.Label, Payload: n.Action.Message.Payload}
	case cfg.ActionSubprotocol:
		return &Event{Kind: EventSubprotocolCall, Protocol: n.Action.Protocol}
	default:
		return &Event{Kind: EventDynamic}
	}
}
