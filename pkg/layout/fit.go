package layout

import "math"

// Fit scales pos down (never up) and centers it in the viewport described
// by cfg, keeping cfg.Padding free on every side. A single node lands in
// the center.
func Fit(pos Positions, cfg Config) Positions {
	if len(pos) == 0 {
		return pos
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pos {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	availW := max(cfg.Width-2*cfg.Padding, 1)
	availH := max(cfg.Height-2*cfg.Padding, 1)
	scale := 1.0
	if w := maxX - minX; w > 0 {
		scale = min(scale, availW/w)
	}
	if h := maxY - minY; h > 0 {
		scale = min(scale, availH/h)
	}

	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	out := make(Positions, len(pos))
	for id, p := range pos {
		out[id] = Point{
			X: cfg.Width/2 + (p.X-cx)*scale,
			Y: cfg.Height/2 + (p.Y-cy)*scale,
		}
	}
	return out
}
