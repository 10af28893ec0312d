// Package redis provides Redis stream operations and consumer group management.
package redis

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/newsgrid/article-analyzer/internal/config"
	"github.com/newsgrid/article-analyzer/internal/log"
	"github.com/newsgrid/article-analyzer/internal/metrics"
)

const (
	// cursorPending replays entries already assigned to this consumer,
	// cursorNew fetches entries never delivered to the group.
	cursorPending = "0"
	cursorNew     = ">"

	maxReconnectBackoff = 30 * time.Second
)

// Consumer reads a single stream through a consumer group. Each instance
// registers under a unique name so parallel replicas share the stream
// without double delivery.
type Consumer struct {
	rdb          *redis.Client
	stream       string
	group        string
	consumer     string
	payloadField string

	readCount     int64
	blockTimeout  time.Duration
	claimIdle     time.Duration
	claimInterval time.Duration
	claimMax      int64
	cleanupEvery  time.Duration
	consumerIdle  time.Duration
	pingTimeout   time.Duration

	// replay is set by the reclaim loop when ownership of stale entries
	// moved to this consumer; the read loop then restarts from the
	// pending cursor to pick them up.
	replay atomic.Bool

	metrics *metrics.Metrics
	log     *log.Logger
}

// NewConsumer connects to Redis, verifies the connection and joins the
// consumer group, creating stream and group when they do not exist yet.
func NewConsumer(cfg *config.RedisConfig, payloadField string, m *metrics.Metrics, logger *log.Logger) (*Consumer, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Address(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := &Consumer{
		rdb:           rdb,
		stream:        cfg.Stream,
		group:         cfg.Group,
		consumer:      fmt.Sprintf("%s_%x", cfg.Group, uuid.New()),
		payloadField:  payloadField,
		readCount:     int64(cfg.ReadCount),
		blockTimeout:  cfg.BlockTimeout,
		claimIdle:     cfg.ClaimIdle,
		claimInterval: cfg.ClaimInterval,
		claimMax:      int64(cfg.ClaimMaxCount),
		cleanupEvery:  cfg.CleanupInterval,
		consumerIdle:  cfg.ConsumerIdleTimeout,
		pingTimeout:   cfg.PingTimeout,
		metrics:       m,
		log:           logger,
	}

	if err := c.ensureGroup(ctx); err != nil {
		return nil, err
	}

	logger.Info("Joined group '%s' on stream '%s' as consumer '%s'", c.group, c.stream, c.consumer)
	return c, nil
}

// ensureGroup creates the consumer group starting at the stream tail, so a
// fresh deployment does not replay the whole history.
func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.rdb.XGroupCreateMkStream(ctx, c.stream, c.group, "$").Err()
	if err != nil {
		if isBusyGroup(err) {
			c.log.Info("Consumer group '%s' already exists on stream '%s', joining existing group", c.group, c.stream)
			return nil
		}
		return fmt.Errorf("failed to create consumer group %s on stream %s: %w", c.group, c.stream, err)
	}
	c.log.Info("Created consumer group '%s' on stream '%s'", c.group, c.stream)
	return nil
}

// isBusyGroup recognizes the reply returned when the group already exists.
func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

// readCursor is the two phase read position of the consumer loop. The
// pending phase starts at "0" whenever it is entered and advances past each
// delivered entry, so one pass hands every pending entry to the handler
// exactly once. An exhausted pending read switches to new entries; a new
// read that comes back empty re-enters the pending phase from the start, so
// reclaimed entries with old ids are picked up.
type readCursor struct {
	pending bool
	lastID  string
}

func newReadCursor() *readCursor {
	return &readCursor{pending: true, lastID: cursorPending}
}

func (rc *readCursor) id() string {
	if rc.pending {
		return rc.lastID
	}
	return cursorNew
}

// reset re-enters the pending phase from the start of the pending list.
func (rc *readCursor) reset() {
	rc.pending = true
	rc.lastID = cursorPending
}

// observe records the outcome of one read: delivered entries advance the
// pending cursor past lastID, an empty read switches the phase.
func (rc *readCursor) observe(delivered int, lastID string) {
	if delivered > 0 {
		if rc.pending {
			rc.lastID = lastID
		}
		return
	}
	if rc.pending {
		rc.pending = false
	} else {
		rc.reset()
	}
}

// Run delivers stream entries to the handler until the context is canceled
// or the handler fails. Delivery starts from the pending cursor so entries
// assigned to this consumer name before a restart are replayed first, then
// switches to new entries.
func (c *Consumer) Run(ctx context.Context, handler func(context.Context, Entry) error) error {
	cursor := newReadCursor()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if c.replay.Swap(false) {
			cursor.reset()
		}

		result, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.consumer,
			Streams:  []string{c.stream, cursor.id()},
			Count:    c.readCount,
			Block:    c.blockTimeout,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Block timeout expired without new entries.
				cursor.observe(0, "")
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error("xreadgroup failed: %v", err)
			c.awaitReconnect(ctx)
			cursor.reset()
			continue
		}

		delivered := 0
		lastID := ""
		for _, streamResult := range result {
			for _, msg := range streamResult.Messages {
				delivered++
				lastID = msg.ID
				entry, err := c.buildEntry(msg)
				if err != nil {
					return err
				}
				if err := handler(ctx, entry); err != nil {
					return err
				}
			}
		}
		c.metrics.EntriesRead.Add(float64(delivered))

		// An exhausted pending cursor returns an empty reply, not redis.Nil.
		cursor.observe(delivered, lastID)
	}
}

// buildEntry extracts the payload field from a raw stream message. A missing
// or non string field means the producer writes envelopes no consumer in the
// group can process, so it tears the consumer down instead of being skipped.
func (c *Consumer) buildEntry(msg redis.XMessage) (Entry, error) {
	value, ok := msg.Values[c.payloadField]
	if !ok {
		return Entry{}, fmt.Errorf("entry %s has no '%s' field", msg.ID, c.payloadField)
	}
	payload, ok := value.(string)
	if !ok {
		return Entry{}, fmt.Errorf("entry %s field '%s' is not a string", msg.ID, c.payloadField)
	}

	return Entry{
		ID:      msg.ID,
		Payload: []byte(payload),
		Ack: Ack{
			rdb:    c.rdb,
			stream: c.stream,
			group:  c.group,
			id:     msg.ID,
		},
	}, nil
}

// awaitReconnect pings Redis with doubling backoff until the connection is
// back or the context is canceled.
func (c *Consumer) awaitReconnect(ctx context.Context) {
	backoff := time.Duration(500+rand.Intn(500)) * time.Millisecond // #nosec G404 - jitter, not security

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		pingCtx, cancel := context.WithTimeout(ctx, c.pingTimeout)
		err := c.rdb.Ping(pingCtx).Err()
		cancel()

		if err == nil {
			c.log.Info("Redis connection restored")
			return
		}
		c.log.Warn("Redis still unreachable, retrying in %s: %v", backoff, err)

		backoff *= 2
		if backoff > maxReconnectBackoff {
			backoff = maxReconnectBackoff
		}
	}
}

// ConsumerName returns the unique name this instance registered under.
func (c *Consumer) ConsumerName() string {
	return c.consumer
}

// Close closes the underlying connection.
func (c *Consumer) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}
