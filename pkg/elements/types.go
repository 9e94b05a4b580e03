package elements

// =============================================================================
// Constants
// =============================================================================

// Class names used by the style table and by rendering surfaces.
const (
	ClassKeyword = "keyword-node"
	ClassDetail  = "detail-node"
	ClassEdge    = "edge"
	ClassHidden  = "hidden"
)

// Size bounds for detail nodes.
const (
	// MinimalSize is the footprint of a detail node without an image.
	MinimalSize = 1.0

	// BaseSize is the size of the least connected image-bearing node.
	BaseSize = 100.0

	// SizeRange is added to BaseSize for the most connected node.
	SizeRange = 100.0
)

// detailSuffix names the detail node of a keyword. It is only used when
// building ids; lookups go through the graph's maps.
const detailSuffix = "-child"

// Kind tells what an element id refers to.
type Kind int

// Element kinds.
const (
	KindUnknown Kind = iota
	KindKeyword
	KindDetail
	KindEdge
)

// String returns the element class for the kind.
func (k Kind) String() string {
	switch k {
	case KindKeyword:
		return ClassKeyword
	case KindDetail:
		return ClassDetail
	case KindEdge:
		return ClassEdge
	default:
		return "unknown"
	}
}

// =============================================================================
// Element Types
// =============================================================================

// KeywordNode is the compound parent of exactly one DetailNode.
type KeywordNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// DetailNode carries the annotation of a keyword.
type DetailNode struct {
	ID        string  `json:"id"`
	ParentID  string  `json:"parent"`
	ImagePath string  `json:"image"`
	Degree    int     `json:"degree"`
	Size      float64 `json:"size"`
	Label     string  `json:"label"`
}

// HasImage reports whether the node displays an image.
func (d DetailNode) HasImage() bool { return d.ImagePath != "" }

// Edge is one labeled connection.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Unit pairs a keyword node with its detail node. Units are revealed as one
// step.
type Unit struct {
	KeywordID string
	DetailID  string
}

// Duplicate records a connection whose edge id collided with an earlier one.
type Duplicate struct {
	EdgeID string `json:"edge_id"`
	Index  int    `json:"index"` // Position of the later connection in the dataset
}
