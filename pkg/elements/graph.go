package elements

// Graph is the element graph derived from one dataset. It is built once by
// [Transform] and never mutated afterwards; a new dataset produces a new
// Graph.
//
// Keywords and Details are index-aligned: Details[i] is the child of
// Keywords[i]. The order is the dataset order and is the reveal order.
type Graph struct {
	Keywords   []KeywordNode `json:"keywords"`
	Details    []DetailNode  `json:"details"`
	Edges      []Edge        `json:"edges"`
	Duplicates []Duplicate   `json:"duplicates,omitempty"`

	MinDegree int `json:"min_degree"`
	MaxDegree int `json:"max_degree"`

	kinds     map[string]Kind
	keywordAt map[string]int // keyword id → index
	detailAt  map[string]int // detail id → index
	edgeAt    map[string]int // edge id → index
}

func newGraph(n, m int) *Graph {
	return &Graph{
		Keywords:  make([]KeywordNode, 0, n),
		Details:   make([]DetailNode, 0, n),
		Edges:     make([]Edge, 0, m),
		kinds:     make(map[string]Kind, 2*n+m),
		keywordAt: make(map[string]int, n),
		detailAt:  make(map[string]int, n),
		edgeAt:    make(map[string]int, m),
	}
}

// NodeCount returns the number of nodes (keyword and detail).
func (g *Graph) NodeCount() int { return len(g.Keywords) + len(g.Details) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// IsEmpty reports whether the graph has no nodes.
func (g *Graph) IsEmpty() bool { return len(g.Keywords) == 0 }

// Kind returns what id refers to, or KindUnknown.
func (g *Graph) Kind(id string) Kind {
	return g.kinds[id]
}

// Has reports whether id names an element of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.kinds[id]
	return ok
}

// Keyword returns the keyword node with the given id.
func (g *Graph) Keyword(id string) (KeywordNode, bool) {
	i, ok := g.keywordAt[id]
	if !ok {
		return KeywordNode{}, false
	}
	return g.Keywords[i], true
}

// Detail returns the detail node with the given id.
func (g *Graph) Detail(id string) (DetailNode, bool) {
	i, ok := g.detailAt[id]
	if !ok {
		return DetailNode{}, false
	}
	return g.Details[i], true
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id string) (Edge, bool) {
	i, ok := g.edgeAt[id]
	if !ok {
		return Edge{}, false
	}
	return g.Edges[i], true
}

// DetailOf returns the detail node whose parent is keywordID.
func (g *Graph) DetailOf(keywordID string) (DetailNode, bool) {
	i, ok := g.keywordAt[keywordID]
	if !ok {
		return DetailNode{}, false
	}
	return g.Details[i], true
}

// ParentOf returns the keyword node that contains detailID.
func (g *Graph) ParentOf(detailID string) (KeywordNode, bool) {
	d, ok := g.Detail(detailID)
	if !ok {
		return KeywordNode{}, false
	}
	return g.Keyword(d.ParentID)
}

// Units returns the keyword/detail pairs in reveal order.
func (g *Graph) Units() []Unit {
	units := make([]Unit, len(g.Keywords))
	for i, k := range g.Keywords {
		units[i] = Unit{KeywordID: k.ID, DetailID: g.Details[i].ID}
	}
	return units
}

// NodeIDs returns every node id in enumeration order: each keyword
// immediately followed by its detail node.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, g.NodeCount())
	for i, k := range g.Keywords {
		ids = append(ids, k.ID, g.Details[i].ID)
	}
	return ids
}

// EdgeIDs returns every edge id in edge order.
func (g *Graph) EdgeIDs() []string {
	ids := make([]string, len(g.Edges))
	for i, e := range g.Edges {
		ids[i] = e.ID
	}
	return ids
}

// ElementIDs returns all node ids followed by all edge ids.
func (g *Graph) ElementIDs() []string {
	return append(g.NodeIDs(), g.EdgeIDs()...)
}

// add registers id under kind. It reports false if the id is taken.
func (g *Graph) add(id string, k Kind) bool {
	if _, taken := g.kinds[id]; taken {
		return false
	}
	g.kinds[id] = k
	return true
}
