// Package main starts the article analyzer binary.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newsgrid/article-analyzer/internal/analyzer"
	"github.com/newsgrid/article-analyzer/internal/config"
	"github.com/newsgrid/article-analyzer/internal/elastic"
	"github.com/newsgrid/article-analyzer/internal/inference"
	"github.com/newsgrid/article-analyzer/internal/log"
	"github.com/newsgrid/article-analyzer/internal/metrics"
	"github.com/newsgrid/article-analyzer/internal/pipeline"
	"github.com/newsgrid/article-analyzer/internal/redis"
	"github.com/newsgrid/article-analyzer/internal/scraper"
)

const bootstrapTimeout = 30 * time.Second

// services bundles everything that needs an orderly close on shutdown.
type services struct {
	consumer      *redis.Consumer
	source        *scraper.Repository // only in notification mode
	pipeline      *pipeline.Pipeline
	metricsServer *metrics.Server // only when an address is configured
}

func run() int {
	logger := log.New()
	logger.Info("Starting article analyzer")

	cfg, err := loadAndLogConfig(logger)
	if err != nil {
		return 1
	}

	svc, err := initializeServices(cfg, logger)
	if err != nil {
		return 1
	}
	defer closeServices(svc, logger)

	return runMainLoop(svc, cfg, logger)
}

func loadAndLogConfig(logger *log.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}

	logger.Info("Configuration loaded successfully")
	logger.Info("Redis: %s, Stream: %s, Group: %s", cfg.Redis.Address(), cfg.Redis.Stream, cfg.Redis.Group)
	logger.Info("Elasticsearch: %s, Indices: %s/%s", cfg.Elastic.Host, cfg.Elastic.ArticlesIndex, cfg.Elastic.CategoriesIndex)
	logger.Info("Mode: %s, Batch: size=%d timeout=%s", cfg.Pipeline.Mode, cfg.Batch.MaxSize, cfg.Batch.Timeout)
	return cfg, nil
}

func initializeServices(cfg *config.Config, logger *log.Logger) (*services, error) {
	m := metrics.New()

	ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
	defer cancel()

	writer, err := elastic.NewWriter(&cfg.Elastic, cfg.Models.EmbeddingsDims, m, logger)
	if err != nil {
		logger.Fatal("Failed to create Elasticsearch writer: %v", err)
	}
	if err := writer.EnsureIndices(ctx); err != nil {
		logger.Fatal("Failed to bootstrap indices: %v", err)
	}
	logger.Info("Connected to Elasticsearch")

	classifier := inference.NewClassifier(cfg.Models.ClassifierEndpoint, cfg.Models.RequestTimeout)
	embedder := inference.NewEmbedder(cfg.Models.EmbeddingsEndpoint, cfg.Models.EmbeddingsDims, cfg.Models.RequestTimeout)

	var recognizer analyzer.EntityRecognizer
	if cfg.Models.NEREndpoint != "" {
		recognizer = inference.NewEntityRecognizer(cfg.Models.NEREndpoint, cfg.Models.RequestTimeout)
		logger.Info("Entity recognition enabled via %s", cfg.Models.NEREndpoint)
	}

	anl := analyzer.New(classifier, embedder, recognizer, writer, m, logger)

	var repo *scraper.Repository
	var source pipeline.ArticleSource
	if cfg.Pipeline.Mode == config.ModeNotifications {
		repo, err = scraper.NewRepository(ctx, &cfg.Mongo, logger)
		if err != nil {
			logger.Fatal("Failed to connect to the scraper store: %v", err)
		}
		source = repo
		logger.Info("Connected to the scraper store")
	}

	consumer, err := redis.NewConsumer(&cfg.Redis, cfg.Pipeline.PayloadField, m, logger)
	if err != nil {
		logger.Fatal("Failed to create Redis consumer: %v", err)
	}
	logger.Info("Connected to Redis")

	pl, err := pipeline.New(cfg, consumer, anl, source, m, logger)
	if err != nil {
		logger.Fatal("Failed to assemble pipeline: %v", err)
	}

	svc := &services{
		consumer: consumer,
		source:   repo,
		pipeline: pl,
	}
	if cfg.Metrics.Address != "" {
		svc.metricsServer = metrics.NewServer(cfg.Metrics.Address, m, logger)
	}
	return svc, nil
}

func closeServices(svc *services, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if svc.metricsServer != nil {
		if err := svc.metricsServer.Shutdown(ctx); err != nil {
			logger.Error("Error closing metrics listener: %v", err)
		}
	}
	if svc.source != nil {
		if err := svc.source.Close(ctx); err != nil {
			logger.Error("Error closing scraper store connection: %v", err)
		}
	}
	if err := svc.consumer.Close(); err != nil {
		logger.Error("Error closing Redis consumer: %v", err)
	}
}

func runMainLoop(svc *services, cfg *config.Config, logger *log.Logger) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if svc.metricsServer != nil {
		go func() {
			if err := svc.metricsServer.Start(); err != nil {
				logger.Error("Metrics listener failed: %v", err)
			}
		}()
	}

	errChan := make(chan error, 1)
	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		if err := svc.pipeline.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- err
		}
	}()

	logger.Info("Analysis pipeline started")

	select {
	case sig := <-sigChan:
		logger.Info("Received signal %v, initiating graceful shutdown", sig)
		cancel()
		return handleGracefulShutdown(pipelineDone, cfg, logger)

	case err := <-errChan:
		logger.Error("Pipeline error: %v", err)
		cancel()
		return 1
	}
}

// handleGracefulShutdown waits for the pipeline to finish draining before
// the deferred closes tear down the connections it is still using.
func handleGracefulShutdown(pipelineDone <-chan struct{}, cfg *config.Config, logger *log.Logger) int {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Pipeline.ShutdownTimeout)
	defer shutdownCancel()

	select {
	case <-pipelineDone:
		logger.Info("Graceful shutdown completed")
		logger.Info("Analyzer stopped")
		return 0
	case <-shutdownCtx.Done():
		logger.Error("Shutdown timeout exceeded")
		return 1
	}
}

func main() {
	// Keep main minimal to ensure defers in run() execute correctly.
	os.Exit(run())
}
