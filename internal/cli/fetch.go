package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/keygraph/pkg/cache"
	"github.com/matzehuels/keygraph/pkg/errors"
)

// defaultReplyTTL keeps cached replies for a week.
const defaultReplyTTL = 7 * 24 * time.Hour

// fetchOpts holds the flags of the fetch command.
type fetchOpts struct {
	dialogue string
	output   string
	format   string
	noCache  bool
	refresh  bool
	ttl      time.Duration
}

// fetchCommand sends a dialogue to the assistant and saves the dataset it
// extracts.
func (c *CLI) fetchCommand() *cobra.Command {
	opts := fetchOpts{ttl: defaultReplyTTL}

	cmd := &cobra.Command{
		Use:   "fetch [dialogue-file]",
		Short: "Extract a dataset from a dialogue with the assistant",
		Long: `Send a dialogue transcript to the configured assistant and save the keyword
dataset it replies with. The dialogue comes from a file, from stdin ("-") or
from --dialogue.

Replies are cached by assistant and dialogue; --refresh asks again and
--no-cache skips the cache entirely. The assistant needs OPENAI_API_KEY and
an assistant id (KEYGRAPH_ASSISTANT_ID or [assistant] assistant_id).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dialogue, err := readDialogue(opts.dialogue, args)
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			store, err := newCache(opts.noCache)
			if err != nil {
				return err
			}
			defer store.Close()
			if opts.refresh {
				if err := store.Delete(cmd.Context(), cache.ReplyKey(cfg.Assistant.AssistantID, dialogue)); err != nil {
					c.Logger.Warn("drop cached reply", "err", err)
				}
			}

			client, err := c.newAssistant(cfg, store, opts.ttl)
			if err != nil {
				return err
			}

			status := cmd.ErrOrStderr()
			spin := newSpinner(cmd.Context(), status, "Waiting for the assistant")
			spin.Start()
			reply, err := client.Exchange(cmd.Context(), dialogue)
			if err != nil {
				spin.StopWithError(errors.UserMessage(err))
				return err
			}
			spin.StopWithSuccess("Extracted " + pluralize(len(reply.Data.Keywords), "keyword", "keywords"))
			printStats(status, 2*len(reply.Data.Keywords), len(reply.Data.Connections), reply.Cached)

			if err := writeOutput(c.Out, opts.output, outputFormat(opts.output, opts.format), reply.Data); err != nil {
				return err
			}
			if opts.output != "" && opts.output != "-" {
				printNextStep(status, "Present it", appName+" play "+opts.output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.dialogue, "dialogue", "", "dialogue text (instead of a file)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.format, "format", "", "output format: json or yaml (default from file extension)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the reply cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore a cached reply and ask again")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", opts.ttl, "how long replies stay cached (0 keeps them forever)")

	return cmd
}

// readDialogue returns --dialogue, or the contents of the file argument.
func readDialogue(flag string, args []string) (string, error) {
	var text string
	switch {
	case flag != "" && len(args) > 0:
		return "", errors.New(errors.ErrCodeInvalidInput, "pass a dialogue file or --dialogue, not both")
	case flag != "":
		text = flag
	case len(args) == 0:
		return "", errors.New(errors.ErrCodeInvalidInput, "no dialogue given (pass a file, \"-\" or --dialogue)")
	case args[0] == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
		}
		text = string(data)
	default:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "read dialogue")
		}
		text = string(data)
	}

	if strings.TrimSpace(text) == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "dialogue is empty")
	}
	return text, nil
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, plural)
}
