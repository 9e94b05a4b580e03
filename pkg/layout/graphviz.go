package layout

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/keygraph/pkg/clock"
	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/errors"
)

// formatPlain is Graphviz's line-oriented position dump.
const formatPlain graphviz.Format = "plain"

// Graphviz lays graphs out with the fdp force-directed engine.
type Graphviz struct {
	// Clock delays the settle signal by the animation duration.
	Clock clock.Clock
}

// NewGraphviz returns an fdp adapter on the real clock.
func NewGraphviz() *Graphviz {
	return &Graphviz{Clock: clock.Real{}}
}

// Name returns "fdp".
func (a *Graphviz) Name() string { return EngineFDP }

// Initialize starts the layout on its own goroutine and returns at once.
func (a *Graphviz) Initialize(ctx context.Context, g *elements.Graph, cfg Config) (Handle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &runHandle{cancel: cancel, clock: a.Clock}
	if h.clock == nil {
		h.clock = clock.Real{}
	}
	dot := ToDOT(g, cfg)

	go func() {
		start := time.Now()
		pos, err := computeFDP(ctx, g, dot)
		if err == nil && cfg.Fit {
			pos = Fit(pos, cfg)
		}
		h.finish(ctx, settleDelay(cfg), Result{
			Positions: pos,
			Engine:    EngineFDP,
			Elapsed:   time.Since(start),
			Err:       err,
		})
	}()
	return h, nil
}

// Layout runs fdp synchronously and returns the positions.
func (a *Graphviz) Layout(ctx context.Context, g *elements.Graph, cfg Config) (Positions, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pos, err := computeFDP(ctx, g, ToDOT(g, cfg))
	if err != nil {
		return nil, err
	}
	if cfg.Fit {
		pos = Fit(pos, cfg)
	}
	return pos, nil
}

func computeFDP(ctx context.Context, g *elements.Graph, dot string) (Positions, error) {
	if g.IsEmpty() {
		return Positions{}, nil
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "init graphviz")
	}
	defer gv.Close()

	graph, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "parse DOT")
	}
	defer graph.Close()

	gv.SetLayout(graphviz.FDP)

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, formatPlain, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "run fdp")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return parsePlain(buf.Bytes(), g)
}

func settleDelay(cfg Config) time.Duration {
	if cfg.Animate {
		return cfg.AnimationDuration
	}
	return 0
}

// runHandle is the handle of adapters that compute on a goroutine.
type runHandle struct {
	settler
	cancel context.CancelFunc
	clock  clock.Clock

	mu    sync.Mutex
	timer clock.Timer
}

// finish settles r, after delay if positive. It runs on the adapter's
// goroutine.
func (h *runHandle) finish(ctx context.Context, delay time.Duration, r Result) {
	if ctx.Err() != nil {
		return
	}
	if delay <= 0 {
		h.settle(r)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timer = h.clock.AfterFunc(delay, func() {
		if ctx.Err() == nil {
			h.settle(r)
		}
	})
}

func (h *runHandle) Destroy() {
	h.cancel()
	h.destroy()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

var (
	_ Adapter = (*Graphviz)(nil)
	_ Handle  = (*runHandle)(nil)
)
