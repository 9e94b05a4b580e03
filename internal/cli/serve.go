package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/keygraph/internal/metrics"
	"github.com/matzehuels/keygraph/internal/server"
	"github.com/matzehuels/keygraph/pkg/assistant"
	"github.com/matzehuels/keygraph/pkg/cache"
	"github.com/matzehuels/keygraph/pkg/config"
	"github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/layout"
	"github.com/matzehuels/keygraph/pkg/observability"
	"github.com/matzehuels/keygraph/pkg/session"
	"github.com/matzehuels/keygraph/pkg/surface"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	addr    string
	metrics bool
	noCache bool
}

// serveCommand runs the HTTP server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		opts  = serveOpts{metrics: true}
		lopts = &layoutOpts{}
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve presentations over HTTP",
		Long: `Serve the presentation API: POST a dataset (or a dialogue to /chat) to start
a session and follow it on /api/frames as server-sent events.

The address comes from --addr, KEYGRAPH_ADDR or [server] addr. /chat needs
OPENAI_API_KEY and an assistant id; without them it answers 501.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := lopts.apply(&cfg); err != nil {
				return err
			}
			if opts.addr != "" {
				cfg.Server.Addr = opts.addr
			}
			return c.serve(cmd, cfg, opts)
		},
	}

	lopts.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, "+config.DefaultAddr+")")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", opts.metrics, "expose Prometheus metrics on /metrics")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the assistant reply cache")

	return cmd
}

func (c *CLI) serve(cmd *cobra.Command, cfg config.Config, opts serveOpts) error {
	adapter, err := layout.New(cfg.Layout)
	if err != nil {
		return err
	}

	var collector *metrics.Collector
	if opts.metrics {
		collector = metrics.New()
		observability.SetSessionHooks(collector)
		observability.SetHTTPHooks(collector)
	}

	canvas := surface.NewCanvas()
	sopts := cfg.SessionOptions(adapter)
	sopts.Surface = canvas
	sopts.Logger = c.Logger
	lc, err := session.New(sopts)
	if err != nil {
		return err
	}

	sv := server.Options{
		Lifecycle:      lc,
		Canvas:         canvas,
		Metrics:        collector,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         c.Logger,
	}

	store, err := newCache(opts.noCache)
	if err != nil {
		return err
	}
	defer store.Close()
	client, err := c.newAssistant(cfg, store, defaultReplyTTL)
	switch {
	case err == nil:
		sv.Assistant = client
	case errors.Is(err, errors.ErrCodeUnauthorized), errors.Is(err, errors.ErrCodeInvalidConfig):
		c.Logger.Warn("assistant disabled", "reason", errors.UserMessage(err))
	default:
		return err
	}

	srv, err := server.New(sv)
	if err != nil {
		return err
	}

	c.Logger.Info("serving presentations",
		"addr", cfg.Server.Addr,
		"engine", adapter.Name(),
		"assistant", sv.Assistant != nil,
		"metrics", collector != nil)
	return srv.Run(cmd.Context(), cfg.Server.Addr)
}

// newAssistant builds a client from the [assistant] section.
func (c *CLI) newAssistant(cfg config.Config, store cache.Cache, ttl time.Duration) (*assistant.Client, error) {
	return assistant.New(assistant.Options{
		BaseURL:      cfg.Assistant.BaseURL,
		APIKey:       cfg.Assistant.APIKey,
		AssistantID:  cfg.Assistant.AssistantID,
		PollInterval: cfg.Assistant.PollInterval,
		Timeout:      cfg.Assistant.Timeout,
		Cache:        store,
		CacheTTL:     ttl,
		Logger:       c.Logger,
	})
}
