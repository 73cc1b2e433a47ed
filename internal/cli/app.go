package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"tradecoach/internal/chunker"
	"tradecoach/internal/config"
	"tradecoach/internal/domain"
	"tradecoach/internal/embedding"
	"tradecoach/internal/generation"
	"tradecoach/internal/indexer"
	"tradecoach/internal/logging"
	"tradecoach/internal/reasoning"
	"tradecoach/internal/retriever"
	"tradecoach/internal/service"
)

// app holds the assembled components shared by the commands.
type app struct {
	cfg       *config.AppConfig
	logger    *slog.Logger
	paths     indexer.Paths
	generator domain.Generator
	builder   *indexer.Builder
	holder    *indexer.Holder
	coach     *service.CoachService
}

func loadConfig() (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newApp assembles every component without touching the index.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Logging, cmd.ErrOrStderr())

	emb, err := embedding.New(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	gen, err := generation.New(cfg.Generator)
	if err != nil {
		return nil, err
	}
	ch, err := chunker.NewWindowChunker(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		return nil, err
	}

	holder := indexer.NewHolder(nil)
	ret := retriever.New(holder, cfg.Retrieval.TopK, logger)
	classifier := reasoning.NewClassifier(gen, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		paths:     indexer.Paths{Corpus: cfg.Corpus.Path, Index: cfg.Corpus.IndexPath, Chunks: cfg.Corpus.ChunksPath},
		generator: gen,
		builder:   indexer.NewBuilder(ch, emb, logger),
		holder:    holder,
		coach:     service.NewCoachService(ret, gen, classifier, cfg.Retrieval.TopK, logger),
	}, nil
}

// loadIndex restores or builds the index and publishes it to the retriever.
func (a *app) loadIndex(ctx context.Context) (*indexer.Snapshot, error) {
	snap, err := a.builder.LoadOrBuild(ctx, a.paths)
	if err != nil {
		a.logger.Error("index unavailable", "corpus", a.paths.Corpus, "err", err)
		return nil, err
	}
	a.holder.Store(snap)
	return snap, nil
}

// openApp assembles the components and loads the index.
func openApp(cmd *cobra.Command) (*app, error) {
	a, err := newApp(cmd)
	if err != nil {
		return nil, err
	}
	if _, err := a.loadIndex(cmd.Context()); err != nil {
		return nil, err
	}
	return a, nil
}
