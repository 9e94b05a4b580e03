package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/layout"
)

// Render formats.
const (
	formatSVG = "svg"
	formatDOT = "dot"
)

// validFormats is the set of supported render formats.
var validFormats = map[string]bool{formatSVG: true, formatDOT: true}

// renderCommand renders a static snapshot of the fully revealed graph.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		opts   = &layoutOpts{}
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "render [dataset]",
		Short: "Render the fully revealed graph to SVG",
		Long: `Render a static snapshot of the graph as it looks once every keyword and
relationship is visible. Keyword nodes are drawn as clusters around their
description cards.

The snapshot is always laid out with fdp; --format dot prints the Graphviz
document instead of rendering it.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataset,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if !validFormats[format] {
				return errors.New(errors.ErrCodeInvalidInput, "invalid format: %s (must be 'svg' or 'dot')", format)
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(&cfg); err != nil {
				return err
			}
			g, err := c.loadGraph(args[0], cfg)
			if err != nil {
				return err
			}
			if g.IsEmpty() {
				return errors.New(errors.ErrCodeEmptyDataset, "dataset %s has no keywords", args[0])
			}

			path := outputPath(output, args[0], format)
			prog := newProgress(c.Logger)
			data, err := renderGraph(cmd.Context(), g, cfg.Layout, format)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
			}
			prog.done("Rendered graph", "format", format, "bytes", len(data))

			printSuccess(c.Out, "Rendered %d keywords", len(g.Keywords))
			printStats(c.Out, g.NodeCount(), g.EdgeCount(), false)
			printFile(c.Out, path)
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <dataset>.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", formatSVG, "output format: svg, dot")

	return cmd
}

func renderGraph(ctx context.Context, g *elements.Graph, cfg layout.Config, format string) ([]byte, error) {
	if format == formatDOT {
		return []byte(layout.SnapshotDOT(g, cfg)), nil
	}
	cfg.Engine = layout.EngineFDP
	return layout.RenderSVG(ctx, g, cfg)
}

// outputPath derives the output file from the dataset path when output is
// empty, e.g. "talk.json" becomes "talk.svg".
func outputPath(output, input, format string) string {
	if output != "" {
		return output
	}
	if input == "-" {
		return "keygraph." + format
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
}
