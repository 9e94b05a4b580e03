package layout

import (
	"context"
	"sync"

	"github.com/matzehuels/keygraph/pkg/elements"
)

// Manual is an adapter whose layouts settle only when told to. Sessions
// driven by hand or by tests use it to control exactly when the settle
// signal arrives.
type Manual struct {
	// Err, when set, is returned by Initialize.
	Err error

	mu      sync.Mutex
	handles []*ManualHandle
}

// NewManual returns a manual adapter.
func NewManual() *Manual { return &Manual{} }

// Name returns "manual".
func (m *Manual) Name() string { return "manual" }

// Initialize records the layout request and returns its handle.
func (m *Manual) Initialize(_ context.Context, g *elements.Graph, cfg Config) (Handle, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	h := &ManualHandle{Graph: g, Config: cfg}
	m.mu.Lock()
	m.handles = append(m.handles, h)
	m.mu.Unlock()
	return h, nil
}

// Handles returns every handle created so far.
func (m *Manual) Handles() []*ManualHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*ManualHandle(nil), m.handles...)
}

// Last returns the most recent handle, or nil.
func (m *Manual) Last() *ManualHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.handles) == 0 {
		return nil
	}
	return m.handles[len(m.handles)-1]
}

// ManualHandle is the handle of a [Manual] layout.
type ManualHandle struct {
	settler
	Graph  *elements.Graph
	Config Config

	mu        sync.Mutex
	destroyed bool
}

// Settle delivers pos on the calling goroutine. A nil pos uses
// [GridPositions].
func (h *ManualHandle) Settle(pos Positions) {
	if pos == nil {
		pos = GridPositions(h.Graph, h.Config)
	}
	h.settle(Result{Positions: pos, Engine: "manual"})
}

// Fail delivers a failed result.
func (h *ManualHandle) Fail(err error) {
	h.settle(Result{Engine: "manual", Err: err})
}

// Destroy drops pending callbacks.
func (h *ManualHandle) Destroy() {
	h.mu.Lock()
	h.destroyed = true
	h.mu.Unlock()
	h.destroy()
}

// Destroyed reports whether Destroy was called.
func (h *ManualHandle) Destroyed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.destroyed
}

var (
	_ Adapter = (*Manual)(nil)
	_ Handle  = (*ManualHandle)(nil)
)
