package session

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/keygraph/pkg/clock"
	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/float"
	"github.com/matzehuels/keygraph/pkg/layout"
	"github.com/matzehuels/keygraph/pkg/reveal"
	"github.com/matzehuels/keygraph/pkg/visibility"
)

// State is the phase of a session.
type State string

// Session states. The middle four mirror the reveal scheduler.
const (
	StateIdle           State = "idle"
	StateAwaitingLayout State = "awaiting_layout"
	StateRevealingNodes State = "revealing_nodes"
	StateRevealingEdges State = "revealing_edges"
	StateFloating       State = "floating"
	StateFailed         State = "failed"
	StateStopped        State = "stopped"
)

// Handle is one session. It owns the layout handle, the reveal scheduler
// (and with it the pending reveal timer), the float animator and the settle
// timeout.
type Handle struct {
	ID        string
	StartedAt time.Time

	graph *elements.Graph
	ctx   context.Context
	stop  context.CancelFunc

	// Owned resources; only touched under the lifecycle mutex.
	vis     *visibility.Controller
	sched   *reveal.Scheduler
	anim    *float.Animator
	layout  layout.Handle
	timeout clock.Timer
	origins layout.Positions
	torn    bool

	mu    sync.Mutex
	final State
	err   error
	done  chan struct{}
	once  sync.Once
}

func newHandle(ctx context.Context, id string, g *elements.Graph, now time.Time) *Handle {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &Handle{
		ID:        id,
		StartedAt: now,
		graph:     g,
		ctx:       ctx,
		stop:      cancel,
		done:      make(chan struct{}),
	}
}

// Graph returns the element graph of the session.
func (h *Handle) Graph() *elements.Graph { return h.graph }

// Empty reports whether the session was started with an empty dataset.
func (h *Handle) Empty() bool { return h.graph.IsEmpty() }

// Done is closed once the session reaches Floating, fails or is stopped.
// An empty session is done immediately.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns why the session ended early, or nil.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// State returns the current phase.
func (h *Handle) State() State {
	h.mu.Lock()
	final, sched := h.final, h.sched
	h.mu.Unlock()

	if final != "" {
		return final
	}
	if sched == nil {
		return StateIdle
	}
	switch sched.State() {
	case reveal.AwaitingLayout:
		return StateAwaitingLayout
	case reveal.RevealingNodes:
		return StateRevealingNodes
	case reveal.RevealingEdges:
		return StateRevealingEdges
	case reveal.Floating:
		return StateFloating
	case reveal.Stopped:
		return StateStopped
	default:
		return StateIdle
	}
}

// Origins returns the settled positions, or nil before the layout settled.
func (h *Handle) Origins() layout.Positions {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.origins == nil {
		return nil
	}
	return h.origins.Clone()
}

func (h *Handle) setScheduler(s *reveal.Scheduler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sched = s
}

func (h *Handle) setOrigins(pos layout.Positions) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.origins = pos
}

// end records the final state unless one is set, then closes Done.
func (h *Handle) end(state State, err error) {
	h.mu.Lock()
	if h.final == "" && state != "" {
		h.final = state
		if h.err == nil {
			h.err = err
		}
	}
	h.mu.Unlock()
	h.markDone()
}

func (h *Handle) markDone() {
	h.once.Do(func() { close(h.done) })
}
