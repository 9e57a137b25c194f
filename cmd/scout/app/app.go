// Package app assembles the topic memory, journal, event publisher and
// discovery cycle described by a resolved scout configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/scout/cmd/scout/sqlitepath"
	"github.com/papercomputeco/scout/pkg/config"
	"github.com/papercomputeco/scout/pkg/dotdir"
	"github.com/papercomputeco/scout/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/scout/pkg/embeddings/utils"
	"github.com/papercomputeco/scout/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/scout/pkg/eventstream/utils"
	"github.com/papercomputeco/scout/pkg/topic"
	"github.com/papercomputeco/scout/pkg/vector"
	vectorutils "github.com/papercomputeco/scout/pkg/vector/utils"
)

// App owns every long-lived dependency of a scout command.
type App struct {
	Config *config.Config

	// Dir is the resolved .scout/ directory.
	Dir string

	Driver    vector.Driver
	Embedder  embeddings.Embedder
	Publisher eventstream.Publisher
	Journal   *dotdir.Journal
	Store     *topic.Store
	Cycle     *topic.Cycle

	logger *slog.Logger
}

// New builds an App from cfg. Resources opened before a failure are closed
// before returning.
func New(ctx context.Context, cfg *config.Config, configDir string, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	ddm := dotdir.NewManager()
	dir, err := ddm.Target(configDir)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Dir:    dir,
		logger: logger,
	}

	if err := a.open(ctx, ddm); err != nil {
		return nil, errors.Join(err, a.Close())
	}

	return a, nil
}

func (a *App) open(ctx context.Context, ddm *dotdir.Manager) error {
	var err error
	cfg := a.Config

	target := cfg.VectorStore.Target
	if cfg.VectorStore.Provider == "sqlite" {
		target, err = sqlitepath.ResolveSQLitePath(target, a.Dir)
		if err != nil {
			return err
		}
	}

	a.Driver, err = vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		Target:       target,
		Collection:   cfg.VectorStore.Collection,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       a.logger,
	})
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}

	a.logger.Debug("opened topic memory",
		"provider", cfg.VectorStore.Provider,
		"target", target,
		"collection", cfg.VectorStore.Collection,
	)

	a.Embedder, err = embeddingutils.NewEmbedder(ctx, &embeddingutils.NewEmbedderOpts{
		ProviderType:     cfg.Embedding.Provider,
		TargetURL:        cfg.Embedding.Target,
		Model:            embeddingModel(cfg.Embedding),
		Dimensions:       cfg.Embedding.Dimensions,
		DisableNormalize: cfg.Embedding.DisableNormalize,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	a.Publisher, err = eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.EventStream.Provider,
		Brokers:      cfg.EventStream.Brokers,
		Topic:        cfg.EventStream.Topic,
		Logger:       a.logger,
	})
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}

	a.Journal, err = ddm.NewJournal(a.Dir)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}

	a.Store = topic.NewStore(a.Driver, a.Embedder, a.logger)
	a.Cycle, err = topic.NewCycle(topic.CycleConfig{
		Store:     a.Store,
		Journal:   a.Journal,
		Publisher: a.Publisher,
		Threshold: cfg.Novelty.Threshold,
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}

	return nil
}

// Close releases the publisher, embedder and vector driver.
func (a *App) Close() error {
	var errs []error
	if a.Publisher != nil {
		errs = append(errs, a.Publisher.Close())
	}
	if a.Embedder != nil {
		errs = append(errs, a.Embedder.Close())
	}
	if a.Driver != nil {
		errs = append(errs, a.Driver.Close())
	}
	return errors.Join(errs...)
}

// embeddingModel drops the ollama default model name when another provider
// is configured, so that provider falls back to its own default.
func embeddingModel(c config.EmbeddingConfig) string {
	if c.Provider != "ollama" && c.Model == config.NewDefaultConfig().Embedding.Model {
		return ""
	}
	return c.Model
}
