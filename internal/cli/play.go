package cli

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/keygraph/pkg/layout"
	"github.com/matzehuels/keygraph/pkg/session"
	"github.com/matzehuels/keygraph/pkg/surface"
)

// playCommand presents a dataset in the terminal.
func (c *CLI) playCommand() *cobra.Command {
	var (
		opts    = &layoutOpts{}
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "play [dataset]",
		Short: "Present a dataset in the terminal",
		Long: `Present a dataset in the terminal the way the browser would: keywords appear
one by one at their laid-out positions, then the relationships, and finally
the graph floats until you quit.

Press r to restart the presentation, s to stop it and q to quit.`,
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
			ds, err := readDataset(args[0])
			if err != nil {
				return err
			}
			adapter, err := layout.New(cfg.Layout)
			if err != nil {
				return err
			}

			// The terminal belongs to the player; session logs go to
			// --log or nowhere.
			var logw io.Writer = io.Discard
			if logFile != "" {
				f, err := tea.LogToFile(logFile, appName)
				if err != nil {
					return err
				}
				defer f.Close()
				logw = f
			}

			canvas := surface.NewCanvas()
			sopts := cfg.SessionOptions(adapter)
			sopts.Surface = canvas
			sopts.Logger = newLogger(logw, c.Logger.GetLevel())
			lc, err := session.New(sopts)
			if err != nil {
				return err
			}
			defer lc.Close()

			frames, unsubscribe := canvas.Subscribe()
			defer unsubscribe()

			model := NewPlayModel(cmd.Context(), lc, canvas, frames, ds, cfg.Layout)
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&logFile, "log", "", "write session logs to this file")

	return cmd
}

var _ tea.Model = PlayModel{}
