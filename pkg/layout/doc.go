// Package layout computes node positions for an element graph.
//
// # Overview
//
// The presentation engine treats layout as a collaborator behind the
// [Adapter] interface: it hands over the graph and a [Config], receives a
// [Handle], and waits for the settle signal delivered through
// [Handle.OnSettled]. The engine never interprets the configuration.
//
// Settle callbacks are always delivered asynchronously, never from inside
// Initialize, so callers may hold locks while initializing.
//
// # Adapters
//
//   - [Graphviz] runs Graphviz's fdp force-directed engine. Each keyword is a
//     cluster wrapping its detail node, so the keyword node encloses its
//     detail node as a compound box. Detail nodes are fixed-size boxes of
//     their display size and edges carry the ideal edge length.
//   - [Grid] places units on a square grid; it needs no Graphviz and is
//     useful for previews and tests.
//   - [Manual] settles only when told to, for driving sessions by hand.
//
// # Fit
//
// With [Config.Fit] set, positions are scaled down (never up) and centered
// so the graph fits the viewport minus [Config.Padding].
//
// # Snapshots
//
// [RenderSVG] draws a static picture of the graph (keyword boxes, detail
// labels and relationship labels) with the same fdp engine.
package layout
