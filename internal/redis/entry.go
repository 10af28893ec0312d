package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Entry is one stream entry handed to the pipeline. The payload is the raw
// value of the configured payload field; acknowledgement is deferred until
// the entry's batch has been flushed.
type Entry struct {
	ID      string
	Payload []byte
	Ack     Ack
}

// Ack acknowledges a single entry against its consumer group. It is a value
// type so entries can be copied freely across the batching stage.
type Ack struct {
	rdb    *redis.Client
	stream string
	group  string
	id     string
}

// Ack marks the entry as processed. The entry stays in the stream for other
// groups; only the pending list of this group is updated.
func (a Ack) Ack(ctx context.Context) error {
	if a.rdb == nil {
		return nil
	}
	if err := a.rdb.XAck(ctx, a.stream, a.group, a.id).Err(); err != nil {
		return fmt.Errorf("xack failed for entry %s: %w", a.id, err)
	}
	return nil
}
