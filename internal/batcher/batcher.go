// Package batcher groups stream entries into batches released by size or by
// inactivity, deferring acknowledgement until a batch was flushed.
package batcher

import (
	"context"
	"time"

	"github.com/newsgrid/article-analyzer/internal/log"
	"github.com/newsgrid/article-analyzer/internal/metrics"
)

// Acker acknowledges one stream entry after its batch was flushed.
type Acker interface {
	Ack(ctx context.Context) error
}

// Item is one queued payload together with its deferred acknowledgement.
type Item struct {
	Payload []byte
	Ack     Acker
}

// FlushFunc receives a released batch. A nil return acknowledges every item
// of the batch; an error keeps the batch queued for the next release.
type FlushFunc func(ctx context.Context, payloads [][]byte) error

// Batcher serializes all queue access in a single goroutine, so arrivals,
// ticks and flushes never race. Producers hand items over through Add.
type Batcher struct {
	maxSize int
	timeout time.Duration
	flush   FlushFunc

	arrivals chan Item
	queue    []Item

	// touched suppresses the next tick flush, so a batch is released on
	// time only after a full timeout without arrivals.
	touched bool

	metrics *metrics.Metrics
	log     *log.Logger
}

// New creates a batcher releasing batches of maxSize entries, or whatever
// accumulated when the queue stayed untouched for a full timeout.
func New(maxSize int, timeout time.Duration, flush FlushFunc, m *metrics.Metrics, logger *log.Logger) *Batcher {
	return &Batcher{
		maxSize:  maxSize,
		timeout:  timeout,
		flush:    flush,
		arrivals: make(chan Item),
		metrics:  m,
		log:      logger,
	}
}

// Add queues one item. It blocks until the serializer accepts the item or
// the context is canceled.
func (b *Batcher) Add(ctx context.Context, item Item) error {
	select {
	case b.arrivals <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run owns the queue until the context is canceled. On shutdown a final
// flush attempt drains whatever is still queued.
func (b *Batcher) Run(ctx context.Context) {
	ticker := time.NewTicker(b.timeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(b.queue) > 0 {
				b.log.Info("Draining %d queued entries on shutdown", len(b.queue))
				b.flushQueued(context.Background())
			}
			return

		case item := <-b.arrivals:
			b.queue = append(b.queue, item)
			b.touched = true
			if len(b.queue) >= b.maxSize {
				b.flushQueued(ctx)
				b.touched = false
				ticker.Reset(b.timeout)
			}

		case <-ticker.C:
			if b.touched {
				b.touched = false
				continue
			}
			if len(b.queue) > 0 {
				b.flushQueued(ctx)
			}
		}
	}
}

// flushQueued releases the queue in chunks of maxSize. A failed chunk stops
// the pass and stays queued together with everything behind it, so entries
// are only acknowledged after a successful flush.
func (b *Batcher) flushQueued(ctx context.Context) {
	for len(b.queue) > 0 {
		n := len(b.queue)
		if n > b.maxSize {
			n = b.maxSize
		}
		chunk := b.queue[:n]

		payloads := make([][]byte, n)
		for i, item := range chunk {
			payloads[i] = item.Payload
		}

		if err := b.flush(ctx, payloads); err != nil {
			b.log.Error("Batch flush failed, keeping %d queued entries: %v", len(b.queue), err)
			return
		}

		for _, item := range chunk {
			if err := item.Ack.Ack(ctx); err != nil {
				b.log.Warn("Failed to acknowledge flushed entry: %v", err)
			}
		}

		b.metrics.BatchesReleased.Inc()
		b.queue = b.queue[n:]
	}
}
