package redis

import (
	"context"
	"fmt"
	"time"
)

// RunCleanup periodically removes consumers that stopped reading, so the
// group's consumer list does not grow without bound as replicas come and go.
// Pending entries of a removed consumer are dropped by Redis, which is safe
// here because the reclaim loop moves stale entries away first.
func (c *Consumer) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(c.cleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed, err := c.cleanupDeadConsumers(ctx); err != nil {
				if ctx.Err() == nil {
					c.log.Warn("failed to cleanup dead consumers: %v", err)
				}
			} else if removed > 0 {
				c.log.Info("Cleaned up %d dead consumers", removed)
			}
		}
	}
}

func (c *Consumer) cleanupDeadConsumers(ctx context.Context) (int, error) {
	consumers, err := c.rdb.XInfoConsumers(ctx, c.stream, c.group).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get consumers info: %w", err)
	}

	var removed int

	for _, consumer := range consumers {
		if consumer.Name == c.consumer {
			continue
		}

		if consumer.Idle <= c.consumerIdle {
			c.log.Debug("Consumer %s is active (idle for %s)", consumer.Name, consumer.Idle)
			continue
		}

		c.log.Info("Removing dead consumer %s (idle for %s)", consumer.Name, consumer.Idle)

		pending, err := c.rdb.XGroupDelConsumer(ctx, c.stream, c.group, consumer.Name).Result()
		if err != nil {
			c.log.Error("Failed to delete consumer %s: %v", consumer.Name, err)
			continue
		}

		if pending > 0 {
			c.log.Warn("Deleted consumer %s still had %d pending entries", consumer.Name, pending)
		}
		removed++
	}

	return removed, nil
}
