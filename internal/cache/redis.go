// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/runo/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for game action logs.
const DefaultQueueName = "runo_actions"

// Connect opens a Redis client and verifies it answers.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// ActionQueue is a Redis list of GameAction records shared between the game
// server (producer) and the historian (consumer).
type ActionQueue struct {
	rdb   redis.Cmdable
	queue string
}

// NewActionQueue wraps rdb. An empty queue name uses DefaultQueueName.
func NewActionQueue(rdb redis.Cmdable, queue string) *ActionQueue {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &ActionQueue{rdb: rdb, queue: queue}
}

// Publish serializes the record and pushes it onto the queue.
func (q *ActionQueue) Publish(ctx context.Context, record models.GameAction) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal GameAction: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.queue, err)
	}
	return nil
}

// Pop blocks up to timeout for the next record. It returns (nil, nil) when the
// timeout passes with nothing queued.
func (q *ActionQueue) Pop(ctx context.Context, timeout time.Duration) (*models.GameAction, error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BLPop %s: %w", q.queue, err)
	}
	if len(res) < 2 {
		return nil, nil
	}

	// res[0] is the queue name and res[1] the payload.
	var record models.GameAction
	if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
		return nil, fmt.Errorf("invalid action record: %w", err)
	}
	return &record, nil
}

// Len reports how many records are waiting.
func (q *ActionQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.queue).Result()
}
