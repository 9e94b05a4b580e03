// Package surface defines the rendering surface driven by a session and an
// in-memory implementation that other front ends observe.
//
// A [Surface] receives the element graph once per session (Mount), learns
// which elements became visible (Show), receives node positions (Move) and
// is cleared when the session ends (Unmount). Everything is hidden right
// after Mount.
//
// [Canvas] keeps that state in memory and publishes an immutable [Frame]
// after every change. The terminal player and the HTTP frame stream both
// read from a Canvas rather than being driven by the session directly.
package surface

import (
	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/layout"
)

// Surface is the rendering collaborator of a session.
type Surface interface {
	// Mount replaces whatever was shown with g. Every element starts hidden.
	Mount(g *elements.Graph, styles elements.StyleTable)

	// Show makes ids visible.
	Show(ids ...string)

	// Move updates node positions.
	Move(pos layout.Positions)

	// Unmount clears the surface.
	Unmount()
}

// Nop is a Surface that discards everything.
type Nop struct{}

func (Nop) Mount(*elements.Graph, elements.StyleTable) {}
func (Nop) Show(...string)                             {}
func (Nop) Move(layout.Positions)                      {}
func (Nop) Unmount()                                   {}

var _ Surface = Nop{}
