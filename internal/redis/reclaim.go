package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunReclaim periodically transfers ownership of entries that sat idle in
// another consumer's pending list, typically after a crash between read and
// acknowledge. Claimed entries surface through the read loop's pending
// cursor, so the payload is not fetched here.
func (c *Consumer) RunReclaim(ctx context.Context) {
	ticker := time.NewTicker(c.claimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.reclaimOnce(ctx)
		}
	}
}

func (c *Consumer) reclaimOnce(ctx context.Context) {
	ids, _, err := c.rdb.XAutoClaimJustID(ctx, &redis.XAutoClaimArgs{
		Stream:   c.stream,
		Group:    c.group,
		Consumer: c.consumer,
		MinIdle:  c.claimIdle,
		Start:    "0-0",
		Count:    c.claimMax,
	}).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return
		}
		c.log.Warn("xautoclaim failed: %v", err)
		return
	}

	if len(ids) == 0 {
		return
	}

	c.log.Info("Reclaimed %d stale entries from the group", len(ids))
	c.metrics.EntriesReclaimed.Add(float64(len(ids)))
	c.replay.Store(true)
}
