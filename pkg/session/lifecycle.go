package session

import (
	"context"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/keygraph/pkg/clock"
	"github.com/matzehuels/keygraph/pkg/dataset"
	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/float"
	"github.com/matzehuels/keygraph/pkg/layout"
	"github.com/matzehuels/keygraph/pkg/observability"
	"github.com/matzehuels/keygraph/pkg/reveal"
	"github.com/matzehuels/keygraph/pkg/surface"
	"github.com/matzehuels/keygraph/pkg/visibility"
)

// DefaultSettleTimeout bounds the wait for the layout settle signal.
const DefaultSettleTimeout = 10 * time.Second

// =============================================================================
// Options
// =============================================================================

// Options configures a [Lifecycle].
type Options struct {
	// Adapter computes layouts. Required.
	Adapter layout.Adapter

	// Surface renders sessions. Default: surface.Nop.
	Surface surface.Surface

	// Layout is passed to the adapter verbatim. Default: layout.DefaultConfig().
	Layout *layout.Config

	// Elements configures the transform.
	Elements elements.Options

	// Styles is mounted with every graph. Default: elements.DefaultStyles().
	Styles elements.StyleTable

	// RevealInterval is the pause between unit reveals. Default: 800ms.
	RevealInterval time.Duration

	// FloatTick is the float update period. Default: 60ms.
	FloatTick time.Duration

	// SettleTimeout fails a session whose layout has not settled in time.
	// Default: 10s.
	SettleTimeout time.Duration

	// Clock drives every timer. Default: clock.Real.
	Clock clock.Clock

	// Seed, when non-zero, makes float parameters reproducible.
	Seed uint64

	Logger *log.Logger
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Adapter == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "a layout adapter is required")
	}
	if o.RevealInterval < 0 || o.FloatTick < 0 || o.SettleTimeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "durations must not be negative")
	}
	if err := o.Elements.Validate(); err != nil {
		return err
	}
	if o.Layout != nil {
		return o.Layout.Validate()
	}
	return nil
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.Surface == nil {
		o.Surface = surface.Nop{}
	}
	if o.Layout == nil {
		cfg := layout.DefaultConfig()
		o.Layout = &cfg
	}
	if o.Styles == nil {
		o.Styles = elements.DefaultStyles()
	}
	if o.RevealInterval == 0 {
		o.RevealInterval = reveal.DefaultInterval
	}
	if o.FloatTick == 0 {
		o.FloatTick = float.DefaultTick
	}
	if o.SettleTimeout == 0 {
		o.SettleTimeout = DefaultSettleTimeout
	}
	if o.Clock == nil {
		o.Clock = clock.Real{}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// =============================================================================
// Lifecycle
// =============================================================================

// Lifecycle runs at most one session at a time.
type Lifecycle struct {
	opts Options

	mu      sync.Mutex
	current *Handle
	closed  bool
}

// New returns a lifecycle with no active session.
func New(opts Options) (*Lifecycle, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.SetDefaults()
	return &Lifecycle{opts: opts}, nil
}

// Current returns the active session, or nil.
func (l *Lifecycle) Current() *Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// StartSession stops the previous session and starts one for ds. Invalid
// datasets are returned as errors and leave no session running. The
// returned session is awaiting its layout; watch [Handle.Done].
func (l *Lifecycle) StartSession(ctx context.Context, ds dataset.Dataset) (*Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, errors.New(errors.ErrCodeInternal, "session lifecycle is closed")
	}

	if prev := l.current; prev != nil {
		l.current = nil
		l.teardown(prev, StateStopped,
			errors.New(errors.ErrCodeSessionSuperseded, "session %s superseded", prev.ID))
	}

	g, err := elements.Transform(ds, l.opts.Elements)
	if err != nil {
		l.opts.Logger.Error("rejected dataset", "err", err)
		return nil, err
	}

	h := newHandle(ctx, uuid.NewString(), g, l.opts.Clock.Now())
	logger := l.opts.Logger.With("session", shortID(h.ID))
	for _, d := range g.Duplicates {
		logger.Warn("duplicate connection merged", "edge", d.EdgeID, "index", d.Index)
	}

	l.current = h
	observability.Session().OnSessionStart(h.ctx, h.ID, g.NodeCount(), g.EdgeCount())
	l.opts.Surface.Mount(g, l.opts.Styles)

	if g.IsEmpty() {
		logger.Warn("empty dataset", "code", errors.ErrCodeEmptyDataset)
		h.markDone()
		return h, nil
	}

	h.vis = visibility.New(g, l.opts.Surface.Show)
	h.setScheduler(reveal.New(g, h.vis, reveal.Options{
		Interval: l.opts.RevealInterval,
		Clock:    l.opts.Clock,
		Dispatch: func(f func()) { l.dispatch(h, f) },
		OnStep: func(i int, u elements.Unit) {
			observability.Session().OnRevealStep(h.ctx, h.ID, i)
		},
		OnFloating: func() { l.startFloating(h, logger) },
		OnRecovered: func(i int, err error) {
			observability.Session().OnRecovered(h.ctx, h.ID, "reveal", err)
		},
		Logger: logger,
	}))
	if err := h.sched.Await(); err != nil {
		l.teardown(h, StateFailed, err)
		l.current = nil
		return nil, err
	}

	lh, err := l.opts.Adapter.Initialize(h.ctx, g, *l.opts.Layout)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeLayoutFailed, err, "initialize %s layout", l.opts.Adapter.Name())
		l.teardown(h, StateFailed, err)
		l.current = nil
		return nil, err
	}
	h.layout = lh

	started := l.opts.Clock.Now()
	h.timeout = l.opts.Clock.AfterFunc(l.opts.SettleTimeout, func() {
		l.dispatch(h, func() {
			err := errors.New(errors.ErrCodeLayoutTimeout, "layout did not settle within %s", l.opts.SettleTimeout)
			logger.Error("layout timed out", "timeout", l.opts.SettleTimeout)
			observability.Session().OnLayoutSettled(h.ctx, h.ID, l.opts.Adapter.Name(), l.opts.SettleTimeout, err)
			l.teardown(h, StateFailed, err)
		})
	})
	lh.OnSettled(func(r layout.Result) {
		l.dispatch(h, func() { l.settled(h, r, started, logger) })
	})

	logger.Info("session started",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"engine", l.opts.Adapter.Name())
	return h, nil
}

// StopSession tears h down. Stopping a session that already ended is a
// no-op.
func (l *Lifecycle) StopSession(h *Handle) {
	if h == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == h {
		l.current = nil
	}
	l.teardown(h, StateStopped, nil)
}

// Close stops the active session and rejects further sessions.
func (l *Lifecycle) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if h := l.current; h != nil {
		l.current = nil
		l.teardown(h, StateStopped, nil)
	}
}

// dispatch runs f under the lifecycle mutex if h is still current and
// alive. It is the only way timer and adapter callbacks touch a session.
func (l *Lifecycle) dispatch(h *Handle, f func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != h || h.torn {
		return
	}
	f()
}

// settled handles the layout result. Called under l.mu.
func (l *Lifecycle) settled(h *Handle, r layout.Result, started time.Time, logger *log.Logger) {
	if h.timeout != nil {
		h.timeout.Stop()
		h.timeout = nil
	}
	elapsed := l.opts.Clock.Now().Sub(started)
	observability.Session().OnLayoutSettled(h.ctx, h.ID, r.Engine, elapsed, r.Err)

	if r.Err != nil {
		err := errors.Wrap(errors.ErrCodeLayoutFailed, r.Err, "%s layout", r.Engine)
		logger.Error("layout failed", "err", r.Err)
		l.teardown(h, StateFailed, err)
		return
	}

	logger.Debug("layout settled", "engine", r.Engine, "elapsed", elapsed)
	h.setOrigins(r.Positions)
	l.opts.Surface.Move(r.Positions)
	if err := h.sched.Settled(); err != nil {
		logger.Error("reveal did not start", "err", err)
		l.teardown(h, StateFailed, err)
	}
}

// startFloating hands the settled positions to a new animator. Called
// under l.mu from the scheduler's last step.
func (l *Lifecycle) startFloating(h *Handle, logger *log.Logger) {
	opts := float.Options{
		Tick:     l.opts.FloatTick,
		Clock:    l.opts.Clock,
		Dispatch: func(f func()) { l.dispatch(h, f) },
		OnRecovered: func(err error) {
			observability.Session().OnRecovered(h.ctx, h.ID, "float", err)
		},
		Logger: logger,
	}
	if l.opts.Seed != 0 {
		opts.Rand = rand.New(rand.NewPCG(l.opts.Seed, l.opts.Seed^0xdeadbeef))
	}

	h.anim = float.New(h.Origins(), l.opts.Surface.Move, opts)
	h.anim.Start()
	observability.Session().OnFloatStart(h.ctx, h.ID, h.graph.NodeCount())
	logger.Info("session floating", "elapsed", l.opts.Clock.Now().Sub(h.StartedAt))
	h.markDone()
}

// teardown cancels every resource of h and unmounts the surface if h owns
// it. Called under l.mu.
func (l *Lifecycle) teardown(h *Handle, state State, err error) {
	if h.torn {
		return
	}
	h.torn = true

	if h.sched != nil {
		// Only a session that never reached Floating was cut short.
		if h.sched.State() == reveal.Floating {
			err = nil
		}
		h.sched.Cancel()
	}
	if h.anim != nil {
		h.anim.Stop()
	}
	if h.timeout != nil {
		h.timeout.Stop()
		h.timeout = nil
	}
	if h.layout != nil {
		h.layout.Destroy()
	}
	h.stop()
	l.opts.Surface.Unmount()

	h.end(state, err)
	observability.Session().OnSessionStop(h.ctx, h.ID, string(state), err)
	l.opts.Logger.Debug("session stopped", "session", shortID(h.ID), "state", state)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
