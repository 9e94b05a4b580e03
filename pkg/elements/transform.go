package elements

import (
	"slices"
	"strings"

	"github.com/matzehuels/keygraph/pkg/dataset"
	"github.com/matzehuels/keygraph/pkg/errors"
)

// =============================================================================
// Options
// =============================================================================

// DuplicatePolicy decides what happens when two connections share the same
// ordered (from, to) pair and therefore the same edge id.
type DuplicatePolicy string

// Duplicate connection policies.
const (
	// DuplicateOverwrite keeps one edge at the position of the first
	// connection and takes the relationship of the last one.
	DuplicateOverwrite DuplicatePolicy = "overwrite"

	// DuplicateReject fails the transform with ErrCodeDuplicateEdge.
	DuplicateReject DuplicatePolicy = "reject"
)

// DefaultImagePrefix is prepended to image names.
const DefaultImagePrefix = "/images/"

// Options configures [Transform].
type Options struct {
	// ImagePrefix is joined with a keyword's image to form ImagePath.
	// Default: "/images/".
	ImagePrefix string

	// DuplicateEdges selects the duplicate connection policy.
	// Default: DuplicateOverwrite.
	DuplicateEdges DuplicatePolicy
}

// Validate checks the option values.
func (o Options) Validate() error {
	switch o.DuplicateEdges {
	case "", DuplicateOverwrite, DuplicateReject:
		return nil
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid duplicate edge policy: %q (must be one of: overwrite, reject)", o.DuplicateEdges)
	}
}

func (o Options) withDefaults() Options {
	if o.ImagePrefix == "" {
		o.ImagePrefix = DefaultImagePrefix
	}
	if o.DuplicateEdges == "" {
		o.DuplicateEdges = DuplicateOverwrite
	}
	return o
}

// =============================================================================
// Transform
// =============================================================================

// Transform builds the element graph for ds. It has no side effects.
//
// Errors:
//   - *errors.InvalidReferenceError when a connection names an unknown keyword
//   - ErrCodeInvalidInput for empty or malformed ids and image names
//   - ErrCodeDuplicateID when two elements would share an id
//   - ErrCodeDuplicateEdge for repeated connections under DuplicateReject
//
// An empty dataset yields an empty graph and no error.
func Transform(ds dataset.Dataset, opts Options) (*Graph, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	degrees, err := degreeMap(ds)
	if err != nil {
		return nil, err
	}

	g := newGraph(len(ds.Keywords), len(ds.Connections))
	if len(ds.Keywords) == 0 {
		return g, nil
	}
	g.MinDegree, g.MaxDegree = degreeRange(degrees)

	for _, k := range ds.Keywords {
		if !g.add(k.ID, KindKeyword) {
			return nil, errors.New(errors.ErrCodeDuplicateID, "keyword id %q appears more than once", k.ID)
		}
	}

	for i, k := range ds.Keywords {
		detailID := k.ID + detailSuffix
		if !g.add(detailID, KindDetail) {
			return nil, errors.New(errors.ErrCodeDuplicateID,
				"detail node id %q of keyword %q collides with another element", detailID, k.ID)
		}

		degree := degrees[k.ID]
		g.Keywords = append(g.Keywords, KeywordNode{ID: k.ID, Label: k.Keyword})
		g.Details = append(g.Details, DetailNode{
			ID:        detailID,
			ParentID:  k.ID,
			ImagePath: imagePath(opts.ImagePrefix, k),
			Degree:    degree,
			Size:      nodeSize(k.HasImage(), degree, g.MinDegree, g.MaxDegree),
			Label:     k.Description,
		})
		g.keywordAt[k.ID] = i
		g.detailAt[detailID] = i
	}

	pairAt := make(map[[2]string]int, len(ds.Connections))
	for i, c := range ds.Connections {
		id := c.From + "-" + c.To
		pair := [2]string{c.From, c.To}
		if at, dup := pairAt[pair]; dup {
			if opts.DuplicateEdges == DuplicateReject {
				return nil, errors.New(errors.ErrCodeDuplicateEdge,
					"connection %d repeats %s -> %s", i, c.From, c.To)
			}
			g.Edges[at].Label = c.Relationship
			g.Duplicates = append(g.Duplicates, Duplicate{EdgeID: id, Index: i})
			continue
		}
		if at, taken := g.edgeAt[id]; taken {
			prev := g.Edges[at]
			return nil, errors.New(errors.ErrCodeDuplicateID,
				"edge id %q of connection %d (%s -> %s) collides with %s -> %s",
				id, i, c.From, c.To, prev.Source, prev.Target)
		}
		if !g.add(id, KindEdge) {
			return nil, errors.New(errors.ErrCodeDuplicateID,
				"edge id %q of connection %d collides with a node id", id, i)
		}
		pairAt[pair] = len(g.Edges)
		g.edgeAt[id] = len(g.Edges)
		g.Edges = append(g.Edges, Edge{ID: id, Source: c.From, Target: c.To, Label: c.Relationship})
	}

	return g, nil
}

// degreeMap counts, per keyword id, the connections touching it. Every
// keyword starts at 0. Unknown endpoints fail the whole input.
func degreeMap(ds dataset.Dataset) (map[string]int, error) {
	degrees := make(map[string]int, len(ds.Keywords))
	for i, k := range ds.Keywords {
		if err := errors.ValidateKeywordID(k.ID); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "keyword %d", i)
		}
		if err := errors.ValidateImageName(k.Image); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "keyword %q", k.ID)
		}
		degrees[k.ID] = 0
	}

	for i, c := range ds.Connections {
		if _, ok := degrees[c.From]; !ok {
			return nil, &errors.InvalidReferenceError{Index: i, Field: "from", ID: c.From}
		}
		if _, ok := degrees[c.To]; !ok {
			return nil, &errors.InvalidReferenceError{Index: i, Field: "to", ID: c.To}
		}
		degrees[c.From]++
		degrees[c.To]++
	}
	return degrees, nil
}

func degreeRange(degrees map[string]int) (lo, hi int) {
	values := make([]int, 0, len(degrees))
	for _, d := range degrees {
		values = append(values, d)
	}
	return slices.Min(values), slices.Max(values)
}

// nodeSize maps degree linearly into [BaseSize, BaseSize+SizeRange] for
// image-bearing nodes. The denominator is at least 1 so equal degrees all
// map to BaseSize.
func nodeSize(hasImage bool, degree, lo, hi int) float64 {
	if !hasImage {
		return MinimalSize
	}
	span := max(hi-lo, 1)
	return BaseSize + float64(degree-lo)/float64(span)*SizeRange
}

func imagePath(prefix string, k dataset.Keyword) string {
	if !k.HasImage() {
		return ""
	}
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimSpace(k.Image)
}
