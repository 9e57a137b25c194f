// Package checkcmder provides the check command, a read-only novelty check
// of candidate topics against the topic memory.
package checkcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/scout/api/novelty"
	"github.com/papercomputeco/scout/cmd/scout/app"
	"github.com/papercomputeco/scout/pkg/candidates"
	"github.com/papercomputeco/scout/pkg/cliui"
	"github.com/papercomputeco/scout/pkg/config"
	"github.com/papercomputeco/scout/pkg/topic"
)

type checkCommander struct {
	candidatesPath string
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
	}

	resolved *app.Resolved
	logger   *slog.Logger
	out      io.Writer
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
}

const checkLongDesc string = `Check candidate topics against the topic memory.

Every candidate is compared with its nearest used topic and reported as
fresh or as a near-duplicate. Nothing is committed.

Candidates are read from a JSON file (--candidates, - for stdin) or given
as arguments.

Examples:
  scout check "The Voynich Manuscript" "Why octopuses have three hearts"
  scout check --candidates ideas.json --threshold 0.9
  scout check --candidates ideas.json --json`

const checkShortDesc string = "Check candidates for novelty"

func NewCheckCmd() *cobra.Command {
	cmder := &checkCommander{}

	cmd := &cobra.Command{
		Use:   "check [topic...]",
		Short: checkShortDesc,
		Long:  checkLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.resolved, err = app.Resolve(cmd, flagKeys...)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.logger = app.CLILogger(cmder.resolved.Debug)
			cmder.out = cmd.OutOrStdout()

			list, err := cmder.gather(args)
			if err != nil {
				return err
			}
			return cmder.run(cmd.Context(), list)
		},
	}

	cmd.Flags().StringVarP(&cmder.candidatesPath, "candidates", "c", "", "Candidate JSON file, - for stdin")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the verdicts as JSON")

	config.AddFloat64Flag(cmd, config.Flags, config.FlagThreshold, &cmder.flags.threshold)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.flags.vectorProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.flags.vectorTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagCollection, &cmder.flags.collection)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.flags.embedProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.flags.embedTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.flags.embedModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.flags.embedDims)

	return cmd
}

func (c *checkCommander) gather(args []string) ([]topic.Candidate, error) {
	if c.candidatesPath == "" && len(args) == 0 {
		return nil, errors.New("pass topics as arguments or a --candidates file")
	}

	var list []topic.Candidate
	if c.candidatesPath != "" {
		fromFile, err := candidates.ReadFile(c.candidatesPath)
		if err != nil {
			return nil, err
		}
		list = append(list, fromFile...)
	}
	for _, arg := range args {
		list = append(list, topic.Candidate{Title: arg})
	}

	return candidates.Clean(list), nil
}

func (c *checkCommander) run(ctx context.Context, list []topic.Candidate) error {
	a, err := app.New(ctx, c.resolved.Config, c.resolved.Dir, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			c.logger.Warn("closing", "error", err)
		}
	}()

	output, err := novelty.Check(ctx, a.Cycle.Checker(), novelty.CheckInput{Candidates: list}, a.Cycle.Threshold(), c.logger)
	if err != nil {
		return err
	}

	if c.jsonOut {
		return app.PrintJSON(c.out, output)
	}

	fmt.Fprintf(c.out, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Threshold:"),
		cliui.ValueStyle.Render(strconv.FormatFloat(output.Threshold, 'g', -1, 64)),
	)
	app.PrintVerdicts(c.out, output.Verdicts)
	fmt.Fprintf(c.out, "\n  %s of %s candidates are fresh\n\n",
		cliui.TopicStyle.Render(strconv.Itoa(output.Count)),
		cliui.ValueStyle.Render(strconv.Itoa(len(output.Verdicts))),
	)

	return nil
}
