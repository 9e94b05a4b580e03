package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/keygraph/internal/metrics"
	"github.com/matzehuels/keygraph/pkg/assistant"
	"github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/session"
	"github.com/matzehuels/keygraph/pkg/surface"
)

// Timeouts of the HTTP server. Writes are unbounded for the frame stream.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	keepAlive         = 15 * time.Second
	maxBodyBytes      = 1 << 20
)

// Exchanger runs an assistant exchange. *assistant.Client implements it.
type Exchanger interface {
	Exchange(ctx context.Context, dialogue string) (*assistant.Reply, error)
}

// Options configures a [Server].
type Options struct {
	// Lifecycle runs the sessions. Required.
	Lifecycle *session.Lifecycle

	// Canvas is the lifecycle's surface. Required.
	Canvas *surface.Canvas

	// Assistant serves /chat. Without it /chat answers 501.
	Assistant Exchanger

	// Metrics, when set, instruments every route and serves /metrics.
	Metrics *metrics.Collector

	// AllowedOrigins for CORS. Default: any origin.
	AllowedOrigins []string

	Logger *log.Logger
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Lifecycle == nil || o.Canvas == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "server needs a lifecycle and its canvas")
	}
	return nil
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{"*"}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Server is the HTTP transport of a lifecycle.
type Server struct {
	opts   Options
	router chi.Router
}

// New builds the router.
func New(opts Options) (*Server, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.SetDefaults()
	s := &Server{opts: opts}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.opts.Logger))
	r.Use(chimiddleware.Recoverer)
	if s.opts.Metrics != nil {
		r.Use(s.opts.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Post("/chat", s.chat)

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", s.startSession)
		r.Get("/sessions/current", s.currentSession)
		r.Delete("/sessions/current", s.stopSession)
		r.Get("/graph", s.graph)
		r.Get("/frames", s.frames)
	})

	if s.opts.Metrics != nil {
		r.Handle("/metrics", s.opts.Metrics.Handler())
	}
	return r
}

// Run serves on addr until ctx ends, then shuts down gracefully and stops
// the active session.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is [Server.Run] on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.opts.Logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.opts.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.opts.Lifecycle.Close()
		return err
	})
	return g.Wait()
}
