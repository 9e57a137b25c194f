// Package discovercmder provides the discover command, which runs one
// propose/commit discovery cycle against the topic memory.
package discovercmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/scout/cmd/scout/app"
	"github.com/papercomputeco/scout/pkg/candidates"
	"github.com/papercomputeco/scout/pkg/candidates/gemini"
	"github.com/papercomputeco/scout/pkg/candidates/reddit"
	"github.com/papercomputeco/scout/pkg/cliui"
	"github.com/papercomputeco/scout/pkg/config"
	"github.com/papercomputeco/scout/pkg/topic"
)

type discoverCommander struct {
	candidatesPath string
	category       string
	dryRun         bool
	jsonOut        bool

	flags struct {
		threshold      float64
		vectorProvider string
		vectorTarget   string
		collection     string
		embedProvider  string
		embedTarget    string
		embedModel     string
		embedDims      uint
		genProvider    string
		genModel       string
		redditLimit    int
		streamProvider string
		brokers        string
	}

	resolved *app.Resolved
	logger   *slog.Logger
	out      io.Writer
	errOut   io.Writer
}

var flagKeys = []string{
	config.FlagThreshold,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagCollection,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagGeneratorProv,
	config.FlagGeneratorModel,
	config.FlagRedditLimit,
	config.FlagEventStreamProv,
	config.FlagEventBrokers,
}

const discoverLongDesc string = `Discover the next video topic.

Runs one discovery cycle: candidates are checked against the topic memory,
near-duplicates of used topics are rejected, the highest scored fresh
candidate is selected and committed to the memory.

Candidates come from a JSON file (an array of {"title", "score",
"justification"} objects, or {"ideas": [...]}), "-" for stdin, or when no
file is given they are brainstormed with Gemini from the year's top Reddit
posts of an evergreen category.

A selection interrupted before it was committed is replayed first.

Examples:
  scout discover
  scout discover --category "Space Discoveries & Phenomena"
  scout discover --candidates ideas.json --threshold 0.9
  cat ideas.json | scout discover --candidates - --json
  scout discover --candidates ideas.json --dry-run`

const discoverShortDesc string = "Select and commit a fresh topic"

func NewDiscoverCmd() *cobra.Command {
	cmder := &discoverCommander{}

	cmd := &cobra.Command{
		Use:   "discover",
		Short: discoverShortDesc,
		Long:  discoverLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.resolved, err = app.Resolve(cmd, flagKeys...)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.logger = app.CLILogger(cmder.resolved.Debug)
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.candidatesPath, "candidates", "c", "", "Candidate JSON file, - for stdin")
	cmd.Flags().StringVar(&cmder.category, "category", "", "Evergreen category to research (default: random)")
	cmd.Flags().BoolVar(&cmder.dryRun, "dry-run", false, "Show the selection without committing it")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the outcome as JSON")

	config.AddFloat64Flag(cmd, config.Flags, config.FlagThreshold, &cmder.flags.threshold)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.flags.vectorProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.flags.vectorTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagCollection, &cmder.flags.collection)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.flags.embedProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.flags.embedTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.flags.embedModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.flags.embedDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagGeneratorProv, &cmder.flags.genProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagGeneratorModel, &cmder.flags.genModel)
	config.AddIntFlag(cmd, config.Flags, config.FlagRedditLimit, &cmder.flags.redditLimit)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStreamProv, &cmder.flags.streamProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventBrokers, &cmder.flags.brokers)

	return cmd
}

func (c *discoverCommander) run(ctx context.Context) error {
	a, err := app.New(ctx, c.resolved.Config, c.resolved.Dir, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			c.logger.Warn("closing", "error", err)
		}
	}()

	progress := c.progress()

	if !c.dryRun {
		var recovered bool
		err := cliui.Step(progress, "Replaying interrupted selection", func() error {
			pending, err := a.Cycle.Recover(ctx)
			recovered = pending != nil
			return err
		})
		if err != nil {
			return err
		}
		if recovered {
			c.logger.Info("replayed an interrupted selection")
		}
	}

	var list []topic.Candidate
	if err := cliui.Step(progress, "Gathering candidates", func() error {
		list, err = c.gather(ctx)
		return err
	}); err != nil {
		return err
	}

	outcome, err := c.decide(ctx, a.Cycle, candidates.Clean(list), progress)
	if err != nil {
		return err
	}

	if c.jsonOut {
		if err := app.PrintJSON(c.out, outcome); err != nil {
			return err
		}
	} else {
		app.PrintOutcome(c.out, outcome)
	}

	return outcome.Err()
}

func (c *discoverCommander) decide(ctx context.Context, cycle *topic.Cycle, list []topic.Candidate, progress io.Writer) (*topic.Outcome, error) {
	if c.dryRun {
		var outcome *topic.Outcome
		err := cliui.Step(progress, "Checking novelty", func() error {
			var err error
			outcome, err = cycle.Preview(ctx, list)
			return err
		})
		return outcome, err
	}

	var proposal *topic.Proposal
	if err := cliui.Step(progress, "Checking novelty", func() error {
		var err error
		proposal, err = cycle.Propose(ctx, list)
		return err
	}); err != nil {
		return nil, err
	}

	if proposal.Outcome.Selected == nil {
		return proposal.Outcome, nil
	}

	if err := cliui.Step(progress, "Committing topic", func() error {
		return proposal.Commit(ctx)
	}); err != nil {
		return nil, err
	}

	return proposal.Outcome, nil
}

// progress is where spinner steps go: stderr, or nowhere in JSON mode.
func (c *discoverCommander) progress() io.Writer {
	if c.jsonOut {
		return io.Discard
	}
	return c.errOut
}

func (c *discoverCommander) gather(ctx context.Context) ([]topic.Candidate, error) {
	if c.candidatesPath != "" {
		return candidates.ReadFile(c.candidatesPath)
	}
	return c.brainstorm(ctx)
}

func (c *discoverCommander) brainstorm(ctx context.Context) ([]topic.Candidate, error) {
	cfg := c.resolved.Config
	if cfg.Generator.Provider != "gemini" {
		return nil, fmt.Errorf("unsupported generator provider: %s", cfg.Generator.Provider)
	}

	category, err := candidates.PickCategory(c.category, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	if err != nil {
		return nil, fmt.Errorf("%w (known: %s)", err, strings.Join(candidates.CategoryNames(), ", "))
	}
	c.logger.Info("researching category", "category", category.Name)

	source, err := reddit.NewSource(reddit.Config{
		UserAgent: cfg.Reddit.UserAgent,
		Limit:     cfg.Reddit.Limit,
	}, c.logger)
	if err != nil {
		return nil, err
	}

	themes := source.Themes(ctx, category)
	if len(themes) == 0 {
		return nil, fmt.Errorf("%w for %s", gemini.ErrNoThemes, category.Name)
	}

	b, err := gemini.NewBrainstormer(ctx, gemini.Config{Model: cfg.Generator.Model}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", topic.ErrProviderUnavailable, err)
	}

	return b.Brainstorm(ctx, category.Name, themes)
}
