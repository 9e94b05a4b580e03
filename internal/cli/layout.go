package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/keygraph/pkg/config"
	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/layout"
)

// layoutOpts holds the flags shared by layout and render.
type layoutOpts struct {
	engine  string
	quality string
	seed    int64
	noFit   bool
}

func (o *layoutOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.engine, "engine", "", "layout engine: fdp, grid (default from config)")
	cmd.Flags().StringVar(&o.quality, "quality", "", "layout quality: draft, default, proof (default from config)")
	cmd.Flags().Int64Var(&o.seed, "seed", 0, "seed for the initial fdp placement")
	cmd.Flags().BoolVar(&o.noFit, "no-fit", false, "keep engine coordinates instead of fitting the viewport")
}

// apply overrides the layout section of cfg with the flags that were set.
func (o *layoutOpts) apply(cfg *config.Config) error {
	if o.engine != "" {
		cfg.Layout.Engine = o.engine
	}
	if o.quality != "" {
		cfg.Layout.Quality = o.quality
	}
	if o.seed != 0 {
		cfg.Layout.Seed = o.seed
	}
	if o.noFit {
		cfg.Layout.Fit = false
	}
	return cfg.Layout.Validate()
}

// layoutCommand computes node positions for a dataset.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		opts   = &layoutOpts{}
		output string
		format string
		dot    bool
	)

	cmd := &cobra.Command{
		Use:   "layout [dataset]",
		Short: "Compute node positions for a dataset",
		Long: `Compute the node positions a presentation of the dataset would settle on.

Positions are written as a JSON or YAML map from node id to {x, y}. With --dot
the Graphviz input is printed instead, which is useful for tuning the fdp
parameters by hand.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataset,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			if dot {
				_, err := fmt.Fprint(c.Out, layout.ToDOT(g, cfg.Layout))
				return err
			}

			prog := newProgress(c.Logger)
			pos, err := runLayout(cmd.Context(), g, cfg.Layout)
			if err != nil {
				return err
			}
			prog.done("Laid out graph", "engine", cfg.Layout.Engine, "nodes", len(pos))
			return writeOutput(c.Out, output, outputFormat(output, format), pos)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&format, "format", "", "output format: json or yaml (default from file extension)")
	cmd.Flags().BoolVar(&dot, "dot", false, "print the Graphviz input instead of positions")

	return cmd
}

// runLayout runs the configured adapter once and waits for it to settle.
func runLayout(ctx context.Context, g *elements.Graph, cfg layout.Config) (layout.Positions, error) {
	adapter, err := layout.New(cfg)
	if err != nil {
		return nil, err
	}

	cfg.Animate = false
	h, err := adapter.Initialize(ctx, g, cfg)
	if err != nil {
		return nil, err
	}
	defer h.Destroy()

	results := make(chan layout.Result, 1)
	h.OnSettled(func(r layout.Result) { results <- r })

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(errors.ErrCodeLayoutTimeout, ctx.Err(), "layout interrupted")
	case r := <-results:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Positions, nil
	}
}
