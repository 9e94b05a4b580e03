// Package pkg provides the core libraries for keygraph presentations.
//
// # Overview
//
// Keygraph turns a keyword dataset (keywords plus the connections between
// them) into an animated knowledge graph. Keywords appear one at a time in
// order of prominence, their relationships follow, and once everything is
// visible the nodes drift gently around their settled positions.
//
// The typical data flow:
//
//	Dataset (JSON/YAML, or an assistant reply)
//	         ↓
//	    [elements] (keyword, detail and edge elements + styles)
//	         ↓
//	    [layout] (force-directed or grid positions)
//	         ↓
//	    [reveal] + [float] (timed visibility, idle motion)
//	         ↓
//	    [surface] (frames for a terminal, SSE client or SVG)
//
// [session] ties these together: one session at a time, each new dataset
// supersedes the previous presentation.
//
// # Quick Start
//
//	ds, _ := dataset.ReadFile("topics.json")
//
//	adapter, _ := layout.New(layout.DefaultConfig())
//	canvas := surface.NewCanvas()
//	lc, _ := session.New(session.Options{Adapter: adapter, Surface: canvas})
//	defer lc.Close()
//
//	h, _ := lc.StartSession(ctx, ds)
//	<-h.Done()
//
// # Main Packages
//
// [dataset] - The input format: keywords with optional descriptions and
// images, and connections between them.
//
// [elements] - Builds the presentation graph. Each keyword gets a detail
// node, node size follows degree, duplicate edges are merged or rejected.
//
// [visibility] - Which elements are shown at a given reveal step.
//
// [reveal] - The reveal schedule: one keyword per tick, then edges.
//
// [float] - Idle motion around the settled origins.
//
// [layout] - Layout adapters (Graphviz fdp and grid), DOT export, SVG
// rendering and viewport fitting.
//
// [surface] - The canvas the session draws on. Subscribers receive frames.
//
// [session] - The presentation lifecycle and its state machine.
//
// ## Infrastructure
//
// [assistant] - Client for the hosted assistant that extracts keyword
// datasets from a dialogue.
//
// [cache] - Reply cache (file and null backends).
//
// [config] - TOML configuration with environment overrides.
//
// [httputil] - Retry and rate limiting for outbound HTTP.
//
// [observability] - Hooks for session and HTTP metrics.
//
// [errors] - Error codes shared across packages.
//
// [dataset]: https://pkg.go.dev/github.com/matzehuels/keygraph/pkg/dataset
// [elements]: https://pkg.go.dev/github.com/matzehuels/keygraph/pkg/elements
// [visibility]: https://pkg.go.dev/github.com/matzehuels/keygraph/pkg/visibility
// [reveal]: https://pkg.go.dev/github.com/matzehuels/keygraph/pkg/reveal
// [float]: https://pkg.go.dev/github.com/matzehuels/keygraph/pkg/float
// [layout]: https://pkg.go.dev/github.com/matzehuels/keygraph/pkg/layout
// [surface]: https://pkg.go.dev/github.com/matzehuels/keygraph/pkg/surface
// [session]: https://pkg.go.dev/github.com/matzehuels/keygraph/pkg/session
// [assistant]: https://pkg.go.dev/github.com/matzehuels/keygraph/pkg/assistant
// [cache]: https://pkg.go.dev/github.com/matzehuels/keygraph/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/keygraph/pkg/config
// [httputil]: https://pkg.go.dev/github.com/matzehuels/keygraph/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/keygraph/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/keygraph/pkg/errors
package pkg
