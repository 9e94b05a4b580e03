// Package observability provides hooks for metrics and logging.
//
// The engine emits events through hook interfaces without depending on a
// metrics backend. The binary registers an implementation at startup (see
// internal/metrics for the Prometheus one); libraries only ever see the
// interfaces and fall back to no-op defaults.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    c := metrics.New()
//	    observability.SetSessionHooks(c)
//	    observability.SetHTTPHooks(c)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Session().OnSessionStart(ctx, id, nodes, edges)
//	// ... layout settles ...
//	observability.Session().OnLayoutSettled(ctx, id, engine, elapsed, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Session Hooks
// =============================================================================

// SessionHooks receives events from presentation sessions.
type SessionHooks interface {
	// Lifecycle events
	OnSessionStart(ctx context.Context, id string, nodes, edges int)
	OnSessionStop(ctx context.Context, id, state string, err error)

	// Layout events
	OnLayoutSettled(ctx context.Context, id, engine string, duration time.Duration, err error)

	// Animation events
	OnRevealStep(ctx context.Context, id string, step int)
	OnFloatStart(ctx context.Context, id string, nodes int)

	// OnRecovered records a panic recovered inside a reveal step or float
	// tick. component is "reveal" or "float".
	OnRecovered(ctx context.Context, id, component string, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSessionHooks is a no-op implementation of SessionHooks.
type NoopSessionHooks struct{}

func (NoopSessionHooks) OnSessionStart(context.Context, string, int, int)     {}
func (NoopSessionHooks) OnSessionStop(context.Context, string, string, error) {}
func (NoopSessionHooks) OnLayoutSettled(context.Context, string, string, time.Duration, error) {
}
func (NoopSessionHooks) OnRevealStep(context.Context, string, int)          {}
func (NoopSessionHooks) OnFloatStart(context.Context, string, int)          {}
func (NoopSessionHooks) OnRecovered(context.Context, string, string, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	sessionHooks SessionHooks = NoopSessionHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetSessionHooks registers custom session hooks.
// This should be called once at application startup before any session starts.
func SetSessionHooks(h SessionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sessionHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Session returns the registered session hooks.
func Session() SessionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sessionHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	sessionHooks = NoopSessionHooks{}
	httpHooks = NoopHTTPHooks{}
}
