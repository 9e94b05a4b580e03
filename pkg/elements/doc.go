// Package elements turns a raw dataset into the element graph rendered by
// the presentation engine.
//
// # Overview
//
// Every keyword becomes two nodes presented as one visual unit:
//
//   - a [KeywordNode] carrying the keyword as its label, acting as the
//     layout parent (a compound box), and
//   - a [DetailNode] carrying the description, the resolved image, the
//     keyword's degree and a display size.
//
// Every connection becomes an [Edge] whose id is "<from>-<to>".
//
// The parent/child relation is stored explicitly ([DetailNode.ParentID] and
// the lookups [Graph.DetailOf] / [Graph.ParentOf]); nothing is resolved by
// concatenating ids.
//
// # Sizing
//
// Detail nodes with an image are sized by degree, linearly mapped into
// [100, 200]:
//
//	size = 100 + (degree - minDegree) / max(maxDegree - minDegree, 1) * 100
//
// where min and max are taken over all keywords. Detail nodes without an
// image get [MinimalSize] whatever their degree.
//
// # Errors
//
// [Transform] is pure and fails fast: a connection naming an unknown keyword
// returns an [errors.InvalidReferenceError] and no graph. Duplicate element
// ids are rejected. Duplicate connections between the same ordered pair are
// handled according to [DuplicatePolicy].
//
// # Styles
//
// [DefaultStyles] returns the style table keyed by element class
// (keyword-node, detail-node, edge, hidden) that rendering surfaces use to
// pick label and size fields and to suppress hidden elements.
package elements
