// Package pipeline wires the stream consumer, the batcher and the analysis
// stage into one running unit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/newsgrid/article-analyzer/internal/analyzer"
	"github.com/newsgrid/article-analyzer/internal/batcher"
	"github.com/newsgrid/article-analyzer/internal/config"
	"github.com/newsgrid/article-analyzer/internal/log"
	"github.com/newsgrid/article-analyzer/internal/metrics"
	"github.com/newsgrid/article-analyzer/internal/redis"
	"github.com/newsgrid/article-analyzer/internal/scraper"
)

// ArticleSource fetches raw documents for notified article ids.
type ArticleSource interface {
	ArticleBatch(ctx context.Context, ids []string) ([][]byte, error)
}

// Pipeline orchestrates consumption, batching and analysis.
type Pipeline struct {
	consumer *redis.Consumer
	batcher  *batcher.Batcher
	analyzer *analyzer.Analyzer
	source   ArticleSource // only set in notification mode

	metrics *metrics.Metrics
	log     *log.Logger
}

// New assembles the pipeline for the configured consumer mode. In article
// mode batches go straight to the analyzer; in notification mode the raw
// documents are fetched from the scraper store first. source must be non-nil
// exactly in notification mode.
func New(
	cfg *config.Config,
	consumer *redis.Consumer,
	anl *analyzer.Analyzer,
	source ArticleSource,
	m *metrics.Metrics,
	logger *log.Logger,
) (*Pipeline, error) {
	p := &Pipeline{
		consumer: consumer,
		analyzer: anl,
		source:   source,
		metrics:  m,
		log:      logger,
	}

	var flush batcher.FlushFunc
	switch cfg.Pipeline.Mode {
	case config.ModeArticles:
		flush = func(ctx context.Context, payloads [][]byte) error {
			_, err := anl.Process(ctx, payloads)
			return err
		}
	case config.ModeNotifications:
		if source == nil {
			return nil, errors.New("notification mode requires an article source")
		}
		flush = p.flushNotifications
	default:
		return nil, fmt.Errorf("unknown consumer mode %q", cfg.Pipeline.Mode)
	}

	p.batcher = batcher.New(cfg.Batch.MaxSize, cfg.Batch.Timeout, flush, m, logger)
	return p, nil
}

// flushNotifications resolves a batch of completion events into the raw
// documents they announce, then runs the regular analysis flow on them.
func (p *Pipeline) flushNotifications(ctx context.Context, payloads [][]byte) error {
	var ids []string
	for _, payload := range payloads {
		notifications, err := scraper.DecodeNotifications(payload)
		if err != nil {
			p.log.Warn("Discarding notification payload: %v", err)
			p.metrics.ParseRejects.Inc()
			continue
		}
		ids = append(ids, scraper.ArticleIDs(notifications)...)
	}
	if len(ids) == 0 {
		return nil
	}

	docs, err := p.source.ArticleBatch(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to resolve notified articles: %w", err)
	}
	_, err = p.analyzer.Process(ctx, docs)
	return err
}

// startLoop starts a loop goroutine and reports non-canceled errors.
func (p *Pipeline) startLoop(
	ctx context.Context,
	wg *sync.WaitGroup,
	name string,
	loop func(context.Context) error,
	errCh chan<- error,
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("%s loop error: %w", name, err)
		}
	}()
}

// Run starts all pipeline loops and blocks until the context is canceled or
// a loop fails.
func (p *Pipeline) Run(ctx context.Context) error {
	p.log.Info("Starting analysis pipeline")

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 4)

	p.startLoop(loopCtx, &wg, "batch", func(ctx context.Context) error {
		p.batcher.Run(ctx)
		return nil
	}, errCh)
	p.startLoop(loopCtx, &wg, "consume", func(ctx context.Context) error {
		return p.consumer.Run(ctx, p.handleEntry)
	}, errCh)
	p.startLoop(loopCtx, &wg, "reclaim", func(ctx context.Context) error {
		p.consumer.RunReclaim(ctx)
		return nil
	}, errCh)
	p.startLoop(loopCtx, &wg, "cleanup", func(ctx context.Context) error {
		p.consumer.RunCleanup(ctx)
		return nil
	}, errCh)

	select {
	case <-ctx.Done():
		p.log.Info("Shutting down analysis pipeline")
		cancel()
		wg.Wait()
		return ctx.Err()
	case err := <-errCh:
		p.log.Error("Pipeline error: %v", err)
		cancel()
		wg.Wait()
		return err
	}
}

// handleEntry hands one stream entry to the batcher, which acknowledges it
// after its batch was flushed.
func (p *Pipeline) handleEntry(ctx context.Context, entry redis.Entry) error {
	return p.batcher.Add(ctx, batcher.Item{Payload: entry.Payload, Ack: entry.Ack})
}
