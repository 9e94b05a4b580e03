// Package metrics exports keygraph's observability hooks to Prometheus.
//
// A [Collector] owns its own registry. It implements both
// [observability.SessionHooks] and [observability.HTTPHooks] and provides
// an HTTP middleware for the server's routes:
//
//	c := metrics.New()
//	observability.SetSessionHooks(c)
//	observability.SetHTTPHooks(c)
//	r.Use(c.Middleware)
//	r.Handle("/metrics", c.Handler())
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/observability"
)

const namespace = "keygraph"

// Collector holds every keygraph metric.
type Collector struct {
	registry *prometheus.Registry

	// Sessions
	SessionsStarted *prometheus.CounterVec
	SessionsStopped *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
	SessionElements *prometheus.HistogramVec

	// Layout and animation
	LayoutDuration *prometheus.HistogramVec
	RevealSteps    prometheus.Counter
	FloatStarts    prometheus.Counter
	Recovered      *prometheus.CounterVec

	// Outgoing HTTP (assistant)
	ClientRequests *prometheus.CounterVec
	ClientDuration *prometheus.HistogramVec
	ClientErrors   *prometheus.CounterVec

	// Incoming HTTP (server)
	ServerRequests *prometheus.CounterVec
	ServerDuration *prometheus.HistogramVec
}

// New returns a collector registered on a fresh registry, together with
// the Go runtime and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		SessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Sessions started, by whether the dataset was empty.",
		}, []string{"empty"}),
		SessionsStopped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_stopped_total",
			Help:      "Sessions torn down, by final state and error code.",
		}, []string{"state", "code"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions started and not yet torn down.",
		}),
		SessionElements: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_elements",
			Help:      "Nodes and edges per session graph.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"kind"}),

		LayoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_settle_seconds",
			Help:      "Time from layout start to settle, by engine and outcome.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"engine", "outcome"}),
		RevealSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reveal_steps_total",
			Help:      "Keyword units revealed.",
		}),
		FloatStarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "float_starts_total",
			Help:      "Sessions that reached the floating state.",
		}),
		Recovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovered_panics_total",
			Help:      "Panics recovered inside reveal steps and float ticks.",
		}, []string{"component"}),

		ClientRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_requests_total",
			Help:      "Outgoing HTTP requests, by host and status.",
		}, []string{"method", "host", "status"}),
		ClientDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "client_request_duration_seconds",
			Help:      "Outgoing HTTP request duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "host"}),
		ClientErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_errors_total",
			Help:      "Outgoing HTTP requests that failed without a response.",
		}, []string{"method", "host"}),

		ServerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests served, by route and status.",
		}, []string{"method", "route", "status"}),
		ServerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Request handling time, by route.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		c.SessionsStarted, c.SessionsStopped, c.ActiveSessions, c.SessionElements,
		c.LayoutDuration, c.RevealSteps, c.FloatStarts, c.Recovered,
		c.ClientRequests, c.ClientDuration, c.ClientErrors,
		c.ServerRequests, c.ServerDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// =============================================================================
// Session hooks
// =============================================================================

func (c *Collector) OnSessionStart(_ context.Context, _ string, nodes, edges int) {
	c.SessionsStarted.WithLabelValues(strconv.FormatBool(nodes == 0)).Inc()
	c.ActiveSessions.Inc()
	c.SessionElements.WithLabelValues("nodes").Observe(float64(nodes))
	c.SessionElements.WithLabelValues("edges").Observe(float64(edges))
}

func (c *Collector) OnSessionStop(_ context.Context, _ string, state string, err error) {
	c.SessionsStopped.WithLabelValues(state, codeLabel(err)).Inc()
	c.ActiveSessions.Dec()
}

func (c *Collector) OnLayoutSettled(_ context.Context, _ string, engine string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.LayoutDuration.WithLabelValues(engine, outcome).Observe(d.Seconds())
}

func (c *Collector) OnRevealStep(context.Context, string, int) { c.RevealSteps.Inc() }

func (c *Collector) OnFloatStart(context.Context, string, int) { c.FloatStarts.Inc() }

func (c *Collector) OnRecovered(_ context.Context, _ string, component string, _ error) {
	c.Recovered.WithLabelValues(component).Inc()
}

// =============================================================================
// HTTP client hooks
// =============================================================================

func (c *Collector) OnRequest(context.Context, string, string, string) {}

func (c *Collector) OnResponse(_ context.Context, method, host, _ string, status int, d time.Duration) {
	c.ClientRequests.WithLabelValues(method, host, strconv.Itoa(status)).Inc()
	c.ClientDuration.WithLabelValues(method, host).Observe(d.Seconds())
}

func (c *Collector) OnError(_ context.Context, method, host, _ string, _ error) {
	c.ClientErrors.WithLabelValues(method, host).Inc()
}

// =============================================================================
// Server middleware
// =============================================================================

// Middleware records every request by its chi route pattern, so path
// parameters do not explode the label space.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.ServerRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.ServerDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func codeLabel(err error) string {
	if err == nil {
		return "none"
	}
	if code := errors.GetCode(err); code != "" {
		return string(code)
	}
	return "unknown"
}

var (
	_ observability.SessionHooks = (*Collector)(nil)
	_ observability.HTTPHooks    = (*Collector)(nil)
)
