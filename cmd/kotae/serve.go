package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/generate"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/search"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/watcher"
	"github.com/hyperjump/kotae/pkg/utils"
)

func serveCmd() *cobra.Command {
	var configPath string
	var debug bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath, debug)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "config file path")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}

func runServe(ctx context.Context, configPath string, debug bool) error {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))

	c, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srvOpts := []server.ServerOption{server.WithMetrics(c.Metrics)}
	if len(cfg.Watch.Directories) > 0 {
		inbox := watcher.NewWatcher(cfg.Watch.Directories, cfg.Watch.Extensions,
			func(ctx context.Context, path string) error {
				_, err := c.Indexer.IngestFile(ctx, path)
				return err
			},
			watcher.WithLogger(logger.Named("watcher")))
		if err := inbox.Start(ctx); err != nil {
			return fmt.Errorf("start inbox watcher: %w", err)
		}
		defer inbox.Stop()
		srvOpts = append(srvOpts, server.WithInbox(inbox))
	}

	srv := server.NewServer(c.Engine, c.Indexer, c.RAG, c.Audit, cfg, logger, srvOpts...)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// components holds the services built from a config.
type components struct {
	Embedder embedding.Embedder
	Engine   *search.Engine
	Indexer  *indexer.Indexer
	RAG      *rag.Service
	Audit    *storage.SQLiteIngestionLog
	Metrics  *metrics.Metrics
}

func (c *components) Close() {
	if c.Audit != nil {
		_ = c.Audit.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	c := &components{Metrics: metrics.New()}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}
	c.Embedder = embedder
	logger.Info("embedder initialized", zap.String("name", embedder.Name()), zap.Int("dimensions", embedder.Dimensions()))

	chunker, err := indexer.NewChunker(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Engine, err = search.NewEngine(embedder, chunker, cfg.Retrieval,
		search.WithLogger(logger.Named("search")),
		search.WithMetrics(c.Metrics),
		search.WithBatchSize(cfg.Embedding.BatchSize))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize engine: %w", err)
	}

	c.Audit, err = storage.NewSQLiteIngestionLog(cfg.Storage.DatabasePath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize ingestion log: %w", err)
	}

	c.Indexer = indexer.NewIndexer(c.Engine,
		extract.NewExtractor(extract.WithLogger(logger.Named("extract"))),
		&cfg.Server,
		indexer.WithLogger(logger.Named("indexer")),
		indexer.WithIngestionLog(c.Audit),
		indexer.WithMetrics(c.Metrics))

	gen, err := generate.New(cfg.Generation)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize generator: %w", err)
	}
	c.RAG = rag.NewService(c.Engine, gen,
		rag.WithLogger(logger.Named("rag")),
		rag.WithMetrics(c.Metrics),
		rag.WithTimeout(cfg.Generation.Timeout),
		rag.WithTopK(cfg.Retrieval.TopK))
	return c, nil
}
