// Package visibility tracks which elements of a graph are shown.
//
// A [Controller] starts with every node and edge hidden. Elements only ever
// move from hidden to visible; there is no operation that hides an element
// again. A new graph gets a new Controller.
//
// Every change is pushed to a [Listener], usually a rendering surface's
// Show method. Revealing an element that is already visible is a no-op and
// does not notify the listener.
package visibility

import (
	"sync"

	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/errors"
)

// Listener receives the ids that became visible in one step.
type Listener func(ids ...string)

// Controller holds the hidden/visible state of one element graph.
type Controller struct {
	mu       sync.RWMutex
	g        *elements.Graph
	hidden   map[string]bool
	listener Listener
}

// New returns a controller for g with every element hidden. listener may be
// nil.
func New(g *elements.Graph, listener Listener) *Controller {
	ids := g.ElementIDs()
	hidden := make(map[string]bool, len(ids))
	for _, id := range ids {
		hidden[id] = true
	}
	return &Controller{g: g, hidden: hidden, listener: listener}
}

// Reveal makes the given elements visible. Unknown ids fail with
// ErrCodeNotFound and nothing is revealed.
func (c *Controller) Reveal(ids ...string) error {
	for _, id := range ids {
		if !c.g.Has(id) {
			return errors.New(errors.ErrCodeNotFound, "unknown element %q", id)
		}
	}
	c.show(ids)
	return nil
}

// RevealUnit makes a keyword node and its detail node visible in one step.
func (c *Controller) RevealUnit(keywordID string) error {
	d, ok := c.g.DetailOf(keywordID)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "unknown keyword %q", keywordID)
	}
	c.show([]string{keywordID, d.ID})
	return nil
}

// RevealAllEdges makes every edge visible in one step.
func (c *Controller) RevealAllEdges() {
	c.show(c.g.EdgeIDs())
}

// IsHidden reports whether id is hidden. Unknown ids report false.
func (c *Controller) IsHidden(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hidden[id]
}

// Hidden returns the ids still hidden, in element order.
func (c *Controller) Hidden() []string { return c.filter(true) }

// Visible returns the ids already shown, in element order.
func (c *Controller) Visible() []string { return c.filter(false) }

// AllVisible reports whether nothing is hidden any more.
func (c *Controller) AllVisible() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, h := range c.hidden {
		if h {
			return false
		}
	}
	return true
}

func (c *Controller) filter(hidden bool) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for _, id := range c.g.ElementIDs() {
		if c.hidden[id] == hidden {
			out = append(out, id)
		}
	}
	return out
}

// show flips ids to visible and notifies the listener with the ids that
// actually changed. The listener runs without the lock held.
func (c *Controller) show(ids []string) {
	c.mu.Lock()
	changed := make([]string, 0, len(ids))
	for _, id := range ids {
		if c.hidden[id] {
			c.hidden[id] = false
			changed = append(changed, id)
		}
	}
	c.mu.Unlock()

	if len(changed) > 0 && c.listener != nil {
		c.listener(changed...)
	}
}
