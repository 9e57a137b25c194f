// Package memorycmder provides the memory command for inspecting and seeding
// the topic memory.
package memorycmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/scout/cmd/scout/app"
	"github.com/papercomputeco/scout/pkg/cliui"
	"github.com/papercomputeco/scout/pkg/config"
	"github.com/papercomputeco/scout/pkg/topic"
)

var flagKeys = []string{
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagCollection,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagEventStreamProv,
	config.FlagEventBrokers,
}

const memoryLongDesc string = `Inspect and seed the topic memory.

The topic memory holds every topic scout has committed. Candidates too close
to a stored topic are rejected by discover and check.

Examples:
  scout memory list
  scout memory list --limit 10 --json
  scout memory count
  scout memory add "The Lost City of Atlantis"`

const memoryShortDesc string = "Inspect and seed the topic memory"

type memoryCommander struct {
	flags struct {
		vectorProvider string
		vectorTarget   string
		collection     string
		embedProvider  string
		embedTarget    string
		embedModel     string
		embedDims      uint
		streamProvider string
		brokers        string
	}

	resolved *app.Resolved
	logger   *slog.Logger
	out      io.Writer
}

func NewMemoryCmd() *cobra.Command {
	cmder := &memoryCommander{}

	cmd := &cobra.Command{
		Use:   "memory",
		Short: memoryShortDesc,
		Long:  memoryLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.resolved, err = app.Resolve(cmd, flagKeys...)
			if err != nil {
				return err
			}
			cmder.logger = app.CLILogger(cmder.resolved.Debug)
			cmder.out = cmd.OutOrStdout()
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cmder.flags.vectorProvider, config.Flags[config.FlagVectorStoreProv].Name, "", config.Flags[config.FlagVectorStoreProv].Description)
	pf.StringVar(&cmder.flags.vectorTarget, config.Flags[config.FlagVectorStoreTgt].Name, "", config.Flags[config.FlagVectorStoreTgt].Description)
	pf.StringVar(&cmder.flags.collection, config.Flags[config.FlagCollection].Name, "", config.Flags[config.FlagCollection].Description)
	pf.StringVar(&cmder.flags.embedProvider, config.Flags[config.FlagEmbeddingProv].Name, "", config.Flags[config.FlagEmbeddingProv].Description)
	pf.StringVar(&cmder.flags.embedTarget, config.Flags[config.FlagEmbeddingTgt].Name, "", config.Flags[config.FlagEmbeddingTgt].Description)
	pf.StringVar(&cmder.flags.embedModel, config.Flags[config.FlagEmbeddingModel].Name, "", config.Flags[config.FlagEmbeddingModel].Description)
	pf.UintVar(&cmder.flags.embedDims, config.Flags[config.FlagEmbeddingDims].Name, 0, config.Flags[config.FlagEmbeddingDims].Description)
	pf.StringVar(&cmder.flags.streamProvider, config.Flags[config.FlagEventStreamProv].Name, "", config.Flags[config.FlagEventStreamProv].Description)
	pf.StringVar(&cmder.flags.brokers, config.Flags[config.FlagEventBrokers].Name, "", config.Flags[config.FlagEventBrokers].Description)

	cmd.AddCommand(cmder.newListCmd())
	cmd.AddCommand(cmder.newCountCmd())
	cmd.AddCommand(cmder.newAddCmd())

	return cmd
}

// withApp opens the topic memory for the duration of fn.
func (c *memoryCommander) withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := app.New(ctx, c.resolved.Config, c.resolved.Dir, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			c.logger.Warn("closing", "error", err)
		}
	}()

	return fn(a)
}

func (c *memoryCommander) newListCmd() *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List used topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				records, err := a.Store.List(cmd.Context())
				if err != nil {
					return err
				}
				if limit > 0 && len(records) > limit {
					records = records[len(records)-limit:]
				}

				if jsonOut {
					return app.PrintJSON(c.out, records)
				}
				c.printRecords(records)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Only show the most recent n topics")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the topics as JSON")

	return cmd
}

func (c *memoryCommander) printRecords(records []topic.Record) {
	if len(records) == 0 {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("The topic memory is empty."))
		return
	}

	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{strconv.Itoa(i + 1), r.ID[:min(len(r.ID), 12)], r.Text})
	}
	fmt.Fprintln(c.out, cliui.Table([]string{"#", "ID", "Topic"}, rows))
}

func (c *memoryCommander) newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count used topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				n, err := a.Store.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, n)
				return nil
			})
		},
	}
}

func (c *memoryCommander) newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <topic>...",
		Short: "Mark topics as used",
		Long: `Mark topics as used without a novelty check.

Each topic is committed like a discovered one: it is embedded, stored and
announced on the event stream. Topics already in memory are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				if _, err := a.Cycle.Recover(cmd.Context()); err != nil {
					return err
				}

				for _, text := range args {
					added, err := a.Cycle.CommitCandidate(cmd.Context(), topic.Candidate{Title: text})
					if err != nil {
						return fmt.Errorf("adding %q: %w", text, err)
					}

					mark, note := cliui.SuccessMark, "added"
					if !added {
						mark, note = cliui.SkipMark, "already used"
					}
					fmt.Fprintf(c.out, "  %s %s %s\n", mark, cliui.TopicStyle.Render(text), cliui.DimStyle.Render(note))
				}
				return nil
			})
		},
	}
}
