package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// enqueueTimeout bounds how long a check-in request will wait on Redis.
const enqueueTimeout = 2 * time.Second

// ListPusher is the subset of the Redis client used for enqueueing.
// *redis.Client satisfies it.
type ListPusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisQueue dispatches alerts by pushing JSON payloads onto a Redis list.
// The delivery worker consumes the list from the other end.
type RedisQueue struct {
	client ListPusher
	key    string
}

// NewRedisQueue creates a RedisQueue writing to the given list key.
func NewRedisQueue(client ListPusher, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

// Dispatch marshals the alert and pushes it onto the queue.
func (q *RedisQueue) Dispatch(ctx context.Context, a Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, enqueueTimeout)
	defer cancel()

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue alert: %w", err)
	}

	return nil
}

// compile-time interface check
var _ Dispatcher = (*RedisQueue)(nil)
