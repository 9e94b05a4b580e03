package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/keygraph/pkg/dataset"
	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/errors"
)

// elementsOpts holds the flags of the elements command.
type elementsOpts struct {
	output string
	format string
	table  bool
}

// elementsCommand prints the element graph of a dataset.
func (c *CLI) elementsCommand() *cobra.Command {
	var opts elementsOpts

	cmd := &cobra.Command{
		Use:   "elements [dataset]",
		Short: "Transform a dataset into its element graph",
		Long: `Transform a dataset into the element graph that is presented: one keyword
node and one detail node per keyword, and one edge per connection.

The dataset is JSON or YAML (by extension); "-" reads JSON from stdin.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataset,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			g, err := c.loadGraph(args[0], cfg)
			if err != nil {
				return err
			}
			if opts.table {
				printElementTable(c.Out, g)
				return nil
			}
			return writeOutput(c.Out, opts.output, outputFormat(opts.output, opts.format), g)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.format, "format", "", "output format: json or yaml (default from file extension)")
	cmd.Flags().BoolVar(&opts.table, "table", false, "print a table instead of the graph document")

	return cmd
}

// writeOutput encodes v as json or yaml to path, or to w when path is
// empty or "-".
func writeOutput(w io.Writer, path, format string, v any) error {
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
		}
		defer f.Close()
		if err := encode(f, format, v); err != nil {
			return err
		}
		printFile(w, path)
		return nil
	}
	return encode(w, format, v)
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case dataset.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case dataset.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unsupported output format %q (must be json or yaml)", format)
	}
}

func printElementTable(w io.Writer, g *elements.Graph) {
	if g.IsEmpty() {
		printWarning(w, "Dataset has no keywords")
		return
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, 0, len(g.Keywords))
	for i, k := range g.Keywords {
		d := g.Details[i]
		image := "—"
		if d.HasImage() {
			image = d.ImagePath
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			k.ID,
			k.Label,
			strconv.Itoa(d.Degree),
			strconv.FormatFloat(d.Size, 'f', 0, 64),
			image,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "ID", "Keyword", "Degree", "Size", "Image").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 2 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	fmt.Fprintln(w, styleTitle.Render("Keywords"))
	fmt.Fprintln(w, t.Render())
	for _, e := range g.Edges {
		fmt.Fprintf(w, "  %s %s %s  %s\n", e.Source, styleDim.Render(iconArrow), e.Target, styleDim.Render(e.Label))
	}
	printStats(w, g.NodeCount(), g.EdgeCount(), false)
}
