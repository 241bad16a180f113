package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/courierhq/courier/delivery/redisqueue"
)

// EventCounter exposes event counts per status from the store
type EventCounter interface {
	StatusCounts(ctx context.Context) (map[string]int64, error)
}

// StoreCollector implements Collector over the Postgres event store and the
// Redis delivery queue.
type StoreCollector struct {
	events EventCounter
	queue  *redisqueue.Queue
}

// NewStoreCollector creates a collector over the two backing stores
func NewStoreCollector(events EventCounter, queue *redisqueue.Queue) *StoreCollector {
	return &StoreCollector{
		events: events,
		queue:  queue,
	}
}

// Collect gathers all metrics
func (c *StoreCollector) Collect(ctx context.Context) (Metrics, error) {
	depth, err := c.GetScheduledDepth(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting scheduled depth: %w", err)
	}

	statusCounts, err := c.GetStatusCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting status counts: %w", err)
	}

	workers, err := c.GetActiveWorkers(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting active workers: %w", err)
	}

	return Metrics{
		ScheduledDepth: depth,
		StatusCounts:   statusCounts,
		Workers:        workers,
		Timestamp:      time.Now(),
	}, nil
}

// GetScheduledDepth returns the delivery queue depth
func (c *StoreCollector) GetScheduledDepth(ctx context.Context) (int64, error) {
	return c.queue.Depth(ctx)
}

// GetStatusCounts returns event counts grouped by status
func (c *StoreCollector) GetStatusCounts(ctx context.Context) (map[string]int64, error) {
	return c.events.StatusCounts(ctx)
}

// GetActiveWorkers returns workers with a live heartbeat
func (c *StoreCollector) GetActiveWorkers(ctx context.Context) ([]WorkerInfo, error) {
	heartbeats, err := c.queue.GetActiveWorkers(ctx)
	if err != nil {
		return nil, err
	}

	workers := make([]WorkerInfo, 0, len(heartbeats))
	for _, hb := range heartbeats {
		workers = append(workers, WorkerInfo{
			WorkerID:      hb.WorkerID,
			Status:        hb.Status,
			LastHeartbeat: hb.LastHeartbeat,
		})
	}
	return workers, nil
}
