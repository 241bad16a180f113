package redisqueue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

/* Redis implementation of the delivery trigger layer.
 * A single sorted set holds event IDs scored by their due time: an immediate
 * enqueue scores now, a retry scores now+delay. Because members are unique,
 * re-adding an event inside the retry window just moves its due time, which
 * deduplicates double-enqueues for free.
 */

const scheduledKey = "deliveries:scheduled"

type Queue struct {
	client *redis.Client
}

// New creates a queue on a fresh Redis connection
func New(addr, password string, db int) (*Queue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Queue{client: client}, nil
}

// NewWithClient creates a queue on an existing Redis client
func NewWithClient(client *redis.Client) *Queue {
	return &Queue{client: client}
}

// Enqueue schedules an immediate delivery cycle for the event
func (q *Queue) Enqueue(ctx context.Context, eventID string) error {
	return q.Schedule(ctx, eventID, 0)
}

// Schedule schedules a delivery cycle for the event after the given delay
func (q *Queue) Schedule(ctx context.Context, eventID string, delay time.Duration) error {
	due := time.Now().Add(delay)
	err := q.client.ZAdd(ctx, scheduledKey, redis.Z{
		Score:  float64(due.UnixMilli()),
		Member: eventID,
	}).Err()
	if err != nil {
		return fmt.Errorf("scheduling delivery: %w", err)
	}
	return nil
}

/* ClaimDue pops one due event ID. Ownership is decided by ZRem: of any
 * concurrent workers that read the same member, exactly one removes it and
 * wins the claim, so at most one processing cycle per trigger is in flight.
 */
func (q *Queue) ClaimDue(ctx context.Context, now time.Time) (string, bool, error) {
	ids, err := q.client.ZRangeByScore(ctx, scheduledKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: 1,
	}).Result()
	if err != nil {
		return "", false, fmt.Errorf("reading due deliveries: %w", err)
	}
	if len(ids) == 0 {
		return "", false, nil
	}

	removed, err := q.client.ZRem(ctx, scheduledKey, ids[0]).Result()
	if err != nil {
		return "", false, fmt.Errorf("claiming delivery: %w", err)
	}
	if removed == 0 {
		// Another worker won the claim
		return "", false, nil
	}

	return ids[0], true, nil
}

// Depth returns the number of scheduled deliveries, due or not
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	depth, err := q.client.ZCard(ctx, scheduledKey).Result()
	if err != nil {
		return 0, fmt.Errorf("reading queue depth: %w", err)
	}
	return depth, nil
}

// Close closes the Redis connection
func (q *Queue) Close() error {
	return q.client.Close()
}

// Client returns the underlying Redis client for advanced operations
func (q *Queue) Client() *redis.Client {
	return q.client
}
