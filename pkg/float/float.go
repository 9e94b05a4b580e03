// Package float drives the idle motion of a settled graph.
//
// Every node drifts around its settled position on an independent path.
// Per node, an [Animator] draws six parameters once (angles in [0, 2π),
// speeds in [0.03, 0.05) and amplitudes in [5, 15) for each axis) and keeps
// them in its own side table. Each tick advances both angles by their speed
// and moves the node to
//
//	x = originX + amplitudeX · sin(angleX)
//	y = originY + amplitudeY · cos(angleY)
//
// The default tick is 60ms. The random source is injectable so tests can
// fix the parameters.
package float

import (
	"io"
	"maps"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/keygraph/pkg/clock"
	"github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/layout"
)

// DefaultTick is the time between two motion updates.
const DefaultTick = 60 * time.Millisecond

// Parameter ranges.
const (
	MinSpeed     = 0.03
	SpeedSpan    = 0.02
	MinAmplitude = 5.0
	AmplSpan     = 10.0
)

// Params is the motion state of one node.
type Params struct {
	Origin     layout.Point
	AngleX     float64
	AngleY     float64
	SpeedX     float64
	SpeedY     float64
	AmplitudeX float64
	AmplitudeY float64
}

// position returns the point for the current angles.
func (p Params) position() layout.Point {
	return layout.Point{
		X: p.Origin.X + p.AmplitudeX*math.Sin(p.AngleX),
		Y: p.Origin.Y + p.AmplitudeY*math.Cos(p.AngleY),
	}
}

// Sink receives the positions computed by one tick.
type Sink func(layout.Positions)

// Options configures an [Animator].
type Options struct {
	// Tick is the update period. Default: 60ms.
	Tick time.Duration

	// Clock schedules ticks. Default: clock.Real.
	Clock clock.Clock

	// Rand draws the motion parameters. Default: seeded from the time.
	Rand *rand.Rand

	// Dispatch runs tick callbacks. Default: call f.
	Dispatch func(f func())

	// OnRecovered is called with the error recovered from a panicking tick.
	OnRecovered func(err error)

	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Tick <= 0 {
		o.Tick = DefaultTick
	}
	if o.Clock == nil {
		o.Clock = clock.Real{}
	}
	if o.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		o.Rand = rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	}
	if o.Dispatch == nil {
		o.Dispatch = func(f func()) { f() }
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Animator moves a fixed set of nodes until stopped.
type Animator struct {
	opts Options
	sink Sink
	ids  []string

	mu      sync.Mutex
	params  map[string]*Params
	timer   clock.Timer
	running bool
	ticks   int
}

// New captures origins as the rest positions and draws the parameters of
// every node. Parameters are drawn in id order so a seeded source always
// yields the same table.
func New(origins layout.Positions, sink Sink, opts Options) *Animator {
	opts = opts.withDefaults()
	ids := slices.Sorted(maps.Keys(origins))
	params := make(map[string]*Params, len(ids))
	for _, id := range ids {
		params[id] = &Params{
			Origin:     origins[id],
			AngleX:     opts.Rand.Float64() * 2 * math.Pi,
			AngleY:     opts.Rand.Float64() * 2 * math.Pi,
			SpeedX:     MinSpeed + opts.Rand.Float64()*SpeedSpan,
			SpeedY:     MinSpeed + opts.Rand.Float64()*SpeedSpan,
			AmplitudeX: MinAmplitude + opts.Rand.Float64()*AmplSpan,
			AmplitudeY: MinAmplitude + opts.Rand.Float64()*AmplSpan,
		}
	}
	return &Animator{opts: opts, sink: sink, ids: ids, params: params}
}

// Params returns a copy of the motion state of id.
func (a *Animator) Params(id string) (Params, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.params[id]
	if !ok {
		return Params{}, false
	}
	return *p, true
}

// Running reports whether ticks are scheduled.
func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Ticks returns the number of completed ticks.
func (a *Animator) Ticks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ticks
}

// Start schedules the first tick. Calling Start on a running animator does
// nothing.
func (a *Animator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}
	a.running = true
	a.schedule()
	a.opts.Logger.Debug("float started", "nodes", len(a.ids), "tick", a.opts.Tick)
}

// Stop cancels the pending tick. No tick runs after Stop returns.
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = false
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// schedule must be called with a.mu held.
func (a *Animator) schedule() {
	a.timer = a.opts.Clock.AfterFunc(a.opts.Tick, func() {
		a.opts.Dispatch(a.tick)
	})
}

// tick schedules the next tick first so a panicking update never ends the
// motion.
func (a *Animator) tick() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.schedule()
	a.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err := errors.New(errors.ErrCodeInternal, "float tick: %v", r)
			a.opts.Logger.Error("float tick failed", "err", err)
			if a.opts.OnRecovered != nil {
				a.opts.OnRecovered(err)
			}
		}
	}()

	pos := a.advance()
	if a.sink != nil {
		a.sink(pos)
	}
}

// advance moves every node one step along its path.
func (a *Animator) advance() layout.Positions {
	a.mu.Lock()
	defer a.mu.Unlock()
	pos := make(layout.Positions, len(a.ids))
	for _, id := range a.ids {
		p := a.params[id]
		p.AngleX += p.SpeedX
		p.AngleY += p.SpeedY
		pos[id] = p.position()
	}
	a.ticks++
	return pos
}
