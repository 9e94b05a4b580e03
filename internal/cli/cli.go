// Package cli implements the keygraph command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/keygraph/pkg/buildinfo"
	"github.com/matzehuels/keygraph/pkg/cache"
	"github.com/matzehuels/keygraph/pkg/config"
	"github.com/matzehuels/keygraph/pkg/dataset"
	"github.com/matzehuels/keygraph/pkg/elements"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "keygraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output. Logs go to the logger's writer.
	Out io.Writer

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Keygraph presents knowledge graphs one keyword at a time",
		Long: `Keygraph turns keyword datasets into animated knowledge graphs: each keyword
and its description card appear in turn, then the relationships between them,
and finally the graph floats gently until the next dataset arrives.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./"+config.DefaultFile+" when present)")

	root.AddCommand(c.elementsCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.playCommand())
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config
// =============================================================================

// loadConfig reads --config, or ./keygraph.toml when it exists, applies
// the environment and validates the result.
func (c *CLI) loadConfig() (config.Config, error) {
	path := c.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultFile); err == nil {
			path = config.DefaultFile
		}
	}

	cfg := config.Default()
	if path != "" {
		var (
			unknown []string
			err     error
		)
		cfg, unknown, err = config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		for _, k := range unknown {
			c.Logger.Warn("unknown config key", "key", k, "file", path)
		}
		c.Logger.Debug("loaded config", "file", path)
	}

	cfg.LoadEnv()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// =============================================================================
// Inputs
// =============================================================================

// readDataset reads a dataset file, or stdin for "-".
func readDataset(path string) (dataset.Dataset, error) {
	if path == "-" {
		return dataset.Read(os.Stdin, dataset.FormatJSON)
	}
	return dataset.ReadFile(path)
}

// loadGraph reads path and transforms it with the configured options.
func (c *CLI) loadGraph(path string, cfg config.Config) (*elements.Graph, error) {
	ds, err := readDataset(path)
	if err != nil {
		return nil, err
	}
	g, err := elements.Transform(ds, cfg.ElementOptions())
	if err != nil {
		return nil, err
	}
	for _, d := range g.Duplicates {
		c.Logger.Warn("duplicate connection merged", "edge", d.EdgeID, "index", d.Index)
	}
	return g, nil
}

// =============================================================================
// Cache
// =============================================================================

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NullCache{}, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NullCache{}, nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/keygraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Outputs
// =============================================================================

// outputFormat picks json or yaml from a file name. Stdout is json.
func outputFormat(path, override string) string {
	if override != "" {
		return strings.ToLower(override)
	}
	if path == "" || path == "-" {
		return dataset.FormatJSON
	}
	return dataset.FormatFromPath(path)
}
