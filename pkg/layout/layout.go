package layout

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/errors"
)

// =============================================================================
// Geometry
// =============================================================================

// Point is a position in viewport pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Positions maps node ids to positions.
type Positions map[string]Point

// Clone returns a copy of p.
func (p Positions) Clone() Positions {
	out := make(Positions, len(p))
	for id, pt := range p {
		out[id] = pt
	}
	return out
}

// =============================================================================
// Configuration
// =============================================================================

// Engine names.
const (
	EngineFDP  = "fdp"
	EngineGrid = "grid"
)

// Quality trades layout time for layout quality.
const (
	QualityDraft   = "draft"
	QualityDefault = "default"
	QualityProof   = "proof"
)

// Default configuration values.
const (
	DefaultAnimationDuration = time.Second
	DefaultPadding           = 50.0
	DefaultNodeSeparation    = 300.0
	DefaultIdealEdgeLength   = 150.0
	DefaultNodeRepulsion     = 20000.0
	DefaultComponentSpacing  = 200.0
	DefaultWidth             = 1920.0
	DefaultHeight            = 1080.0
)

// Config is handed to the adapter verbatim. The engine core never reads it.
type Config struct {
	Engine            string        `json:"engine" toml:"engine"`
	Quality           string        `json:"quality" toml:"quality"`
	Animate           bool          `json:"animate" toml:"animate"`
	AnimationDuration time.Duration `json:"animation_duration" toml:"animation_duration"`
	Fit               bool          `json:"fit" toml:"fit"`
	Padding           float64       `json:"padding" toml:"padding"`
	NodeSeparation    float64       `json:"node_separation" toml:"node_separation"`
	IdealEdgeLength   float64       `json:"ideal_edge_length" toml:"ideal_edge_length"`
	NodeRepulsion     float64       `json:"node_repulsion" toml:"node_repulsion"`
	ComponentSpacing  float64       `json:"component_spacing" toml:"component_spacing"`
	Width             float64       `json:"width" toml:"width"`
	Height            float64       `json:"height" toml:"height"`

	// Seed fixes the initial placement of force-directed engines. Zero
	// lets the engine choose.
	Seed int64 `json:"seed,omitempty" toml:"seed"`
}

// DefaultConfig returns the standard layout configuration.
func DefaultConfig() Config {
	return Config{
		Engine:            EngineFDP,
		Quality:           QualityProof,
		Animate:           true,
		AnimationDuration: DefaultAnimationDuration,
		Fit:               true,
		Padding:           DefaultPadding,
		NodeSeparation:    DefaultNodeSeparation,
		IdealEdgeLength:   DefaultIdealEdgeLength,
		NodeRepulsion:     DefaultNodeRepulsion,
		ComponentSpacing:  DefaultComponentSpacing,
		Width:             DefaultWidth,
		Height:            DefaultHeight,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Engine {
	case EngineFDP, EngineGrid:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "invalid layout engine: %q (must be one of: fdp, grid)", c.Engine)
	}
	switch c.Quality {
	case QualityDraft, QualityDefault, QualityProof:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "invalid layout quality: %q (must be one of: draft, default, proof)", c.Quality)
	}
	if c.AnimationDuration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "animation duration must not be negative")
	}
	for name, v := range map[string]float64{
		"padding":           c.Padding,
		"node separation":   c.NodeSeparation,
		"component spacing": c.ComponentSpacing,
	} {
		if v < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must not be negative", name)
		}
	}
	if c.IdealEdgeLength <= 0 || c.NodeRepulsion <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "ideal edge length and node repulsion must be positive")
	}
	if c.Fit && (c.Width <= 0 || c.Height <= 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "fit requires a positive viewport (got %gx%g)", c.Width, c.Height)
	}
	return nil
}

// =============================================================================
// Adapter
// =============================================================================

// Result is delivered once per layout run.
type Result struct {
	Positions Positions
	Engine    string
	Elapsed   time.Duration
	Err       error
}

// Handle is one running layout.
type Handle interface {
	// OnSettled registers f to receive the result. f runs exactly once and
	// never on the goroutine that called Initialize. Registering after the
	// layout settled delivers the stored result on a new goroutine.
	OnSettled(f func(Result))

	// Destroy abandons the layout. Pending callbacks are dropped.
	Destroy()
}

// Adapter computes node positions for an element graph.
type Adapter interface {
	Name() string
	Initialize(ctx context.Context, g *elements.Graph, cfg Config) (Handle, error)
}

// New returns the adapter named by cfg.Engine.
func New(cfg Config) (Adapter, error) {
	switch cfg.Engine {
	case EngineFDP, "":
		return NewGraphviz(), nil
	case EngineGrid:
		return NewGrid(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "invalid layout engine: %q", cfg.Engine)
	}
}

// =============================================================================
// Settle bookkeeping
// =============================================================================

// settler implements the callback half of Handle.
type settler struct {
	mu        sync.Mutex
	settled   bool
	destroyed bool
	result    Result
	fns       []func(Result)
}

func (s *settler) OnSettled(f func(Result)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	if s.settled {
		r := s.result
		go f(r)
		return
	}
	s.fns = append(s.fns, f)
}

// settle stores r and runs the registered callbacks on the calling
// goroutine. Adapters call it from their own goroutine.
func (s *settler) settle(r Result) {
	s.mu.Lock()
	if s.settled || s.destroyed {
		s.mu.Unlock()
		return
	}
	s.settled = true
	s.result = r
	fns := s.fns
	s.fns = nil
	s.mu.Unlock()

	for _, f := range fns {
		f(r)
	}
}

func (s *settler) destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	s.fns = nil
}
