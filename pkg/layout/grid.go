package layout

import (
	"context"
	"math"
	"time"

	"github.com/matzehuels/keygraph/pkg/clock"
	"github.com/matzehuels/keygraph/pkg/elements"
)

// Grid places keyword units row by row on a square grid.
type Grid struct {
	Clock clock.Clock
}

// NewGrid returns a grid adapter on the real clock.
func NewGrid() *Grid {
	return &Grid{Clock: clock.Real{}}
}

// Name returns "grid".
func (a *Grid) Name() string { return EngineGrid }

// Initialize computes the grid and settles on another goroutine, after the
// animation duration when animating.
func (a *Grid) Initialize(ctx context.Context, g *elements.Graph, cfg Config) (Handle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &runHandle{cancel: cancel, clock: a.Clock}
	if h.clock == nil {
		h.clock = clock.Real{}
	}

	start := time.Now()
	pos := GridPositions(g, cfg)
	r := Result{Positions: pos, Engine: EngineGrid, Elapsed: time.Since(start)}
	go h.finish(ctx, settleDelay(cfg), r)
	return h, nil
}

// GridPositions returns grid positions for g. Cells are as wide as the
// largest detail node plus the node separation.
func GridPositions(g *elements.Graph, cfg Config) Positions {
	n := len(g.Keywords)
	pos := make(Positions, 2*n)
	if n == 0 {
		return pos
	}

	cols := int(math.Ceil(math.Sqrt(float64(n))))
	largest := elements.MinimalSize
	for _, d := range g.Details {
		largest = max(largest, d.Size)
	}
	cell := largest + cfg.NodeSeparation

	for i, k := range g.Keywords {
		p := Point{
			X: float64(i%cols) * cell,
			Y: float64(i/cols) * cell,
		}
		pos[k.ID] = p
		pos[g.Details[i].ID] = p
	}
	if cfg.Fit {
		pos = Fit(pos, cfg)
	}
	return pos
}

var _ Adapter = (*Grid)(nil)
