package surface

import (
	"sync"

	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/layout"
)

// Frame is the observable state of a canvas at one version.
type Frame struct {
	Version   uint64           `json:"version"`
	Mounted   bool             `json:"mounted"`
	Visible   []string         `json:"visible"`
	Positions layout.Positions `json:"positions"`
}

// IsVisible reports whether id is visible in the frame.
func (f Frame) IsVisible(id string) bool {
	for _, v := range f.Visible {
		if v == id {
			return true
		}
	}
	return false
}

// Element is one graph element in the node/edge list format understood by
// browser graph libraries: a group, class names, a data record and, for
// nodes, a position.
type Element struct {
	Group    string         `json:"group"`
	Classes  []string       `json:"classes"`
	Data     map[string]any `json:"data"`
	Position *layout.Point  `json:"position,omitempty"`
}

// Canvas is an in-memory [Surface]. It is safe for concurrent use.
type Canvas struct {
	mu      sync.RWMutex
	g       *elements.Graph
	styles  elements.StyleTable
	visible map[string]bool
	pos     layout.Positions
	version uint64

	subs    map[int]chan Frame
	nextSub int
}

// NewCanvas returns an empty, unmounted canvas.
func NewCanvas() *Canvas {
	return &Canvas{
		visible: make(map[string]bool),
		pos:     make(layout.Positions),
		subs:    make(map[int]chan Frame),
	}
}

// Mount implements Surface.
func (c *Canvas) Mount(g *elements.Graph, styles elements.StyleTable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.g = g
	c.styles = styles
	c.visible = make(map[string]bool)
	c.pos = make(layout.Positions)
	c.publish()
}

// Show implements Surface. Ids outside the mounted graph are ignored.
func (c *Canvas) Show(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.g == nil {
		return
	}
	for _, id := range ids {
		if c.g.Has(id) {
			c.visible[id] = true
		}
	}
	c.publish()
}

// Move implements Surface.
func (c *Canvas) Move(pos layout.Positions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.g == nil {
		return
	}
	for id, p := range pos {
		if c.g.Has(id) {
			c.pos[id] = p
		}
	}
	c.publish()
}

// Unmount implements Surface.
func (c *Canvas) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.g = nil
	c.styles = nil
	c.visible = make(map[string]bool)
	c.pos = make(layout.Positions)
	c.publish()
}

// Graph returns the mounted graph, or nil.
func (c *Canvas) Graph() *elements.Graph {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.g
}

// Styles returns the style table of the mounted graph.
func (c *Canvas) Styles() elements.StyleTable {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.styles
}

// Snapshot returns the current frame.
func (c *Canvas) Snapshot() Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frame()
}

// Elements lists the mounted graph in element order. Hidden elements carry
// the hidden class.
func (c *Canvas) Elements() []Element {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.g == nil {
		return nil
	}

	out := make([]Element, 0, c.g.NodeCount()+c.g.EdgeCount())
	for i, k := range c.g.Keywords {
		d := c.g.Details[i]
		out = append(out,
			c.node(k.ID, elements.ClassKeyword, map[string]any{
				"id":    k.ID,
				"label": k.Label,
			}),
			c.node(d.ID, elements.ClassDetail, map[string]any{
				"id":     d.ID,
				"parent": d.ParentID,
				"image":  d.ImagePath,
				"degree": d.Degree,
				"size":   d.Size,
				"label":  d.Label,
			}),
		)
	}
	for _, e := range c.g.Edges {
		out = append(out, Element{
			Group:   "edges",
			Classes: c.classes(e.ID, elements.ClassEdge),
			Data: map[string]any{
				"id":     e.ID,
				"source": e.Source,
				"target": e.Target,
				"label":  e.Label,
			},
		})
	}
	return out
}

func (c *Canvas) node(id, class string, data map[string]any) Element {
	el := Element{Group: "nodes", Classes: c.classes(id, class), Data: data}
	if p, ok := c.pos[id]; ok {
		el.Position = &p
	}
	return el
}

func (c *Canvas) classes(id, class string) []string {
	if c.visible[id] {
		return []string{class}
	}
	return []string{class, elements.ClassHidden}
}

// Subscribe returns a channel receiving frames and a function that ends
// the subscription. Slow readers only see the latest frame. The current
// frame is delivered first.
func (c *Canvas) Subscribe() (<-chan Frame, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan Frame, 1)
	ch <- c.frame()
	c.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// frame must be called with c.mu held.
func (c *Canvas) frame() Frame {
	f := Frame{
		Version:   c.version,
		Mounted:   c.g != nil,
		Positions: c.pos.Clone(),
	}
	if c.g != nil {
		for _, id := range c.g.ElementIDs() {
			if c.visible[id] {
				f.Visible = append(f.Visible, id)
			}
		}
	}
	return f
}

// publish bumps the version and offers the new frame to every subscriber,
// replacing an unread older frame. It must be called with c.mu held.
func (c *Canvas) publish() {
	c.version++
	f := c.frame()
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- f
	}
}

var _ Surface = (*Canvas)(nil)
