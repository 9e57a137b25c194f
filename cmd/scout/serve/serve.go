// Package servecmder provides the serve command, which runs the topic
// memory HTTP API and MCP server.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/scout/api"
	"github.com/papercomputeco/scout/cmd/scout/app"
	"github.com/papercomputeco/scout/pkg/cliui"
	"github.com/papercomputeco/scout/pkg/config"
	"github.com/papercomputeco/scout/pkg/logger"
)

type serveCommander struct {
	disableMCP bool
	logFile    string

	flags struct {
		listen         string
		threshold      float64
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
}

var flagKeys = []string{
	config.FlagAPIListen,
	config.FlagThreshold,
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

const serveLongDesc string = `Run the scout API server.

Serves the topic memory over HTTP:
  GET  /ping                 Health check
  GET  /v1/topics            List used topics
  GET  /v1/topics/count      Count used topics
  POST /v1/topics            Mark a topic as used
  POST /v1/novelty/check     Check candidates without committing
  POST /v1/cycles            Run a discovery cycle
  /mcp                       MCP tools (check_novelty, list_topics, commit_topic)

Edits to novelty.threshold in config.toml are picked up without a restart.

Examples:
  scout serve
  scout serve --listen :9090 --threshold 0.9
  scout serve --eventstream-provider kafka --eventstream-brokers localhost:9092`

const serveShortDesc string = "Run the scout API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.resolved, err = app.Resolve(cmd, flagKeys...)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			closeLog, err := cmder.setupLogger()
			if err != nil {
				return err
			}
			defer closeLog()

			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&cmder.disableMCP, "disable-mcp", false, "Do not mount the MCP server on /mcp")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file; stdout then gets human readable logs")

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.flags.listen)
	config.AddFloat64Flag(cmd, config.Flags, config.FlagThreshold, &cmder.flags.threshold)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.flags.vectorProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.flags.vectorTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagCollection, &cmder.flags.collection)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.flags.embedProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.flags.embedTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.flags.embedModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.flags.embedDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStreamProv, &cmder.flags.streamProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventBrokers, &cmder.flags.brokers)

	return cmd
}

// setupLogger logs JSON to stdout, or with --log-file, pretty lines to
// stdout and JSON to the file.
func (c *serveCommander) setupLogger() (func(), error) {
	debug := c.resolved.Debug
	if c.logFile == "" {
		c.logger = logger.New(logger.WithDebug(debug), logger.WithJSON(true))
		return func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	c.logger = logger.Multi(
		logger.New(logger.WithDebug(debug), logger.WithPretty(cliui.IsTerminal(os.Stdout))),
		logger.New(logger.WithDebug(debug), logger.WithJSON(true), logger.WithWriter(f)),
	)
	return func() { _ = f.Close() }, nil
}

func (c *serveCommander) run(ctx context.Context) error {
	cfg := c.resolved.Config

	a, err := app.New(ctx, cfg, c.resolved.Dir, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			c.logger.Warn("closing", "error", err)
		}
	}()

	if pending, err := a.Cycle.Recover(ctx); err != nil {
		return err
	} else if pending != nil {
		c.logger.Info("replayed interrupted selection", "title", pending.Title)
	}

	// the threshold flag pins the value, so file edits only apply without it
	config.WatchThreshold(c.resolved.Viper, func(threshold float64) {
		if err := a.Cycle.SetThreshold(threshold); err != nil {
			c.logger.Warn("ignoring threshold from config", "threshold", threshold, "error", err)
			return
		}
		c.logger.Info("reloaded novelty threshold", "threshold", threshold)
	})

	server, err := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
		DisableMCP: c.disableMCP,
	}, a.Cycle, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("topic memory ready",
		"vector_store", cfg.VectorStore.Provider,
		"embedding", cfg.Embedding.Provider,
		"eventstream", cfg.EventStream.Provider,
		"threshold", a.Cycle.Threshold(),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	case <-ctx.Done():
		return server.Shutdown()
	}
}
