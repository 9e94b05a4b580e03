// Package reveal stages the appearance of a graph once its layout settles.
//
// # States
//
// A [Scheduler] moves through
//
//	Idle → AwaitingLayout → RevealingNodes → RevealingEdges → Floating
//
// and may be cancelled from any state, which moves it to Stopped.
//
// # Timeline
//
// On [Scheduler.Settled] the first keyword unit (keyword node plus detail
// node) is revealed synchronously. Each further unit follows after
// [Options.Interval]. The step that reveals the last unit also reveals every
// edge, after which the scheduler enters Floating and calls
// [Options.OnFloating]. With three units and the default interval:
//
//	t=0     unit 1
//	t=800ms unit 2
//	t=1.6s  unit 3, all edges, Floating
//
// A graph without nodes goes straight to Floating.
//
// # Errors
//
// A panic raised while revealing a unit is recovered, logged and reported to
// [Options.OnRecovered]; the schedule continues with the next unit.
package reveal

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/keygraph/pkg/clock"
	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/visibility"
)

// DefaultInterval is the pause between two revealed units.
const DefaultInterval = 800 * time.Millisecond

// State is the phase of a scheduler.
type State int

// Scheduler states.
const (
	Idle State = iota
	AwaitingLayout
	RevealingNodes
	RevealingEdges
	Floating
	Stopped
)

var stateNames = [...]string{"idle", "awaiting_layout", "revealing_nodes", "revealing_edges", "floating", "stopped"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Options configures a [Scheduler].
type Options struct {
	// Interval between unit reveals. Default: 800ms.
	Interval time.Duration

	// Clock schedules the pauses. Default: clock.Real.
	Clock clock.Clock

	// Dispatch runs timer callbacks. The session uses it to serialize
	// callbacks and drop those of a superseded session. Default: call f.
	Dispatch func(f func())

	// OnStep is called after unit i has been revealed.
	OnStep func(i int, u elements.Unit)

	// OnFloating is called once, after the last reveal step.
	OnFloating func()

	// OnRecovered is called with the error recovered from a panicking step.
	OnRecovered func(i int, err error)

	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Clock == nil {
		o.Clock = clock.Real{}
	}
	if o.Dispatch == nil {
		o.Dispatch = func(f func()) { f() }
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Scheduler reveals the units of one graph over time.
type Scheduler struct {
	opts  Options
	vis   *visibility.Controller
	units []elements.Unit

	mu    sync.Mutex
	state State
	next  int
	timer clock.Timer
}

// New returns an idle scheduler that reveals g's units through vis.
func New(g *elements.Graph, vis *visibility.Controller, opts Options) *Scheduler {
	return &Scheduler{
		opts:  opts.withDefaults(),
		vis:   vis,
		units: g.Units(),
	}
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Await moves an idle scheduler to AwaitingLayout.
func (s *Scheduler) Await() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return errors.New(errors.ErrCodeInternal, "await from state %s", s.state)
	}
	s.state = AwaitingLayout
	return nil
}

// Settled starts the reveal. The first unit is shown before Settled returns.
func (s *Scheduler) Settled() error {
	s.mu.Lock()
	if s.state != AwaitingLayout {
		state := s.state
		s.mu.Unlock()
		return errors.New(errors.ErrCodeInternal, "settled from state %s", state)
	}
	s.state = RevealingNodes
	s.mu.Unlock()

	s.opts.Logger.Debug("reveal started", "units", len(s.units), "interval", s.opts.Interval)
	if len(s.units) == 0 {
		s.finish()
		return nil
	}
	s.step()
	return nil
}

// Cancel stops the schedule. No reveal happens after Cancel returns.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = Stopped
}

// step reveals the next unit and schedules the one after it.
func (s *Scheduler) step() {
	s.mu.Lock()
	if s.state != RevealingNodes {
		s.mu.Unlock()
		return
	}
	i := s.next
	s.next++
	last := s.next >= len(s.units)
	s.mu.Unlock()

	s.revealUnit(i)

	if last {
		s.finish()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == RevealingNodes {
		s.timer = s.opts.Clock.AfterFunc(s.opts.Interval, func() {
			s.opts.Dispatch(s.step)
		})
	}
}

func (s *Scheduler) revealUnit(i int) {
	u := s.units[i]
	defer func() {
		if r := recover(); r != nil {
			s.fail(i, errors.New(errors.ErrCodeInternal, "reveal step %d (%s): %v", i, u.KeywordID, r))
		}
	}()

	if err := s.vis.RevealUnit(u.KeywordID); err != nil {
		s.fail(i, err)
		return
	}
	s.opts.Logger.Debug("revealed unit", "step", i, "keyword", u.KeywordID)
	if s.opts.OnStep != nil {
		s.opts.OnStep(i, u)
	}
}

func (s *Scheduler) revealEdges() {
	defer func() {
		if r := recover(); r != nil {
			s.fail(len(s.units), errors.New(errors.ErrCodeInternal, "reveal edges: %v", r))
		}
	}()
	s.vis.RevealAllEdges()
}

func (s *Scheduler) fail(i int, err error) {
	s.opts.Logger.Error("reveal step failed", "step", i, "err", err)
	if s.opts.OnRecovered != nil {
		s.opts.OnRecovered(i, err)
	}
}

// finish reveals all edges and enters Floating.
func (s *Scheduler) finish() {
	s.mu.Lock()
	if s.state != RevealingNodes {
		s.mu.Unlock()
		return
	}
	s.state = RevealingEdges
	s.timer = nil
	s.mu.Unlock()

	s.revealEdges()

	s.mu.Lock()
	if s.state != RevealingEdges {
		s.mu.Unlock()
		return
	}
	s.state = Floating
	s.mu.Unlock()

	s.opts.Logger.Debug("reveal complete")
	if s.opts.OnFloating != nil {
		s.opts.OnFloating()
	}
}
