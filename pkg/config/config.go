package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/float"
	"github.com/matzehuels/keygraph/pkg/layout"
	"github.com/matzehuels/keygraph/pkg/reveal"
	"github.com/matzehuels/keygraph/pkg/session"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "keygraph.toml"

// Environment variables read by [Config.LoadEnv].
const (
	EnvAPIKey      = "OPENAI_API_KEY"
	EnvAssistantID = "KEYGRAPH_ASSISTANT_ID"
	EnvAddr        = "KEYGRAPH_ADDR"
)

// Assistant defaults.
const (
	DefaultBaseURL      = "https://api.openai.com/v1"
	DefaultPollInterval = 5 * time.Second
	DefaultRunTimeout   = 5 * time.Minute
	DefaultAddr         = ":5000"
)

// =============================================================================
// Sections
// =============================================================================

// Reveal configures the staged reveal.
type Reveal struct {
	Interval time.Duration `toml:"interval"`
}

// Float configures the idle animation.
type Float struct {
	Tick time.Duration `toml:"tick"`
	Seed uint64        `toml:"seed"`
}

// Session configures the session lifecycle.
type Session struct {
	SettleTimeout time.Duration `toml:"settle_timeout"`
}

// Elements configures the element transform.
type Elements struct {
	ImagePrefix    string `toml:"image_prefix"`
	DuplicateEdges string `toml:"duplicate_edges"`
}

// Server configures the HTTP transport.
type Server struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Assistant configures the remote assistant exchange.
type Assistant struct {
	BaseURL      string        `toml:"base_url"`
	AssistantID  string        `toml:"assistant_id"`
	PollInterval time.Duration `toml:"poll_interval"`
	Timeout      time.Duration `toml:"timeout"`

	// APIKey is only read from the environment.
	APIKey string `toml:"-"`
}

// Config is the complete keygraph configuration.
type Config struct {
	Reveal    Reveal        `toml:"reveal"`
	Float     Float         `toml:"float"`
	Session   Session       `toml:"session"`
	Layout    layout.Config `toml:"layout"`
	Elements  Elements      `toml:"elements"`
	Server    Server        `toml:"server"`
	Assistant Assistant     `toml:"assistant"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Reveal:  Reveal{Interval: reveal.DefaultInterval},
		Float:   Float{Tick: float.DefaultTick},
		Session: Session{SettleTimeout: session.DefaultSettleTimeout},
		Layout:  layout.DefaultConfig(),
		Elements: Elements{
			ImagePrefix:    elements.DefaultImagePrefix,
			DuplicateEdges: string(elements.DuplicateOverwrite),
		},
		Server: Server{Addr: DefaultAddr, AllowedOrigins: []string{"*"}},
		Assistant: Assistant{
			BaseURL:      DefaultBaseURL,
			PollInterval: DefaultPollInterval,
			Timeout:      DefaultRunTimeout,
		},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Load reads path over the defaults. Keys present in the file override
// the defaults; absent keys keep them. The returned list names keys the
// file sets that keygraph does not know.
func Load(path string) (Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config")
	}

	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}

	var unknown []string
	for _, k := range md.Undecoded() {
		unknown = append(unknown, k.String())
	}
	return cfg, unknown, nil
}

// Parse decodes TOML text over the defaults.
func Parse(text string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(text, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	return cfg, nil
}

// LoadEnv loads the given .env files (or ./.env) and applies the
// environment to c. Missing .env files are ignored.
func (c *Config) LoadEnv(files ...string) {
	_ = godotenv.Load(files...)

	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		c.Assistant.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAssistantID)); v != "" {
		c.Assistant.AssistantID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		c.Server.Addr = v
	}
}

// =============================================================================
// Validation
// =============================================================================

// Validate rejects non-positive intervals and unknown enum values.
func (c Config) Validate() error {
	for name, d := range map[string]time.Duration{
		"reveal.interval":         c.Reveal.Interval,
		"float.tick":              c.Float.Tick,
		"session.settle_timeout":  c.Session.SettleTimeout,
		"assistant.poll_interval": c.Assistant.PollInterval,
		"assistant.timeout":       c.Assistant.Timeout,
	} {
		if d <= 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must be positive (got %s)", name, d)
		}
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if err := c.ElementOptions().Validate(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr must not be empty")
	}
	return nil
}

// ElementOptions converts the [elements] section.
func (c Config) ElementOptions() elements.Options {
	return elements.Options{
		ImagePrefix:    c.Elements.ImagePrefix,
		DuplicateEdges: elements.DuplicatePolicy(c.Elements.DuplicateEdges),
	}
}

// SessionOptions returns lifecycle options for adapter and surface.
func (c Config) SessionOptions(adapter layout.Adapter) session.Options {
	cfg := c.Layout
	return session.Options{
		Adapter:        adapter,
		Layout:         &cfg,
		Elements:       c.ElementOptions(),
		RevealInterval: c.Reveal.Interval,
		FloatTick:      c.Float.Tick,
		SettleTimeout:  c.Session.SettleTimeout,
		Seed:           c.Float.Seed,
	}
}
