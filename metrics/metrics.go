package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the delivery system.
type Metrics struct {
	// ScheduledDepth is the number of deliveries waiting in the queue, due or not
	ScheduledDepth int64 `json:"scheduled_depth"`

	// StatusCounts maps event status name to count of events in that status
	StatusCounts map[string]int64 `json:"status_counts"`

	// Workers lists the delivery workers with a live heartbeat
	Workers []WorkerInfo `json:"workers"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// WorkerInfo represents information about an active delivery worker.
type WorkerInfo struct {
	// WorkerID is a unique identifier for the worker
	WorkerID string `json:"worker_id"`

	// Status is the current status of the worker (e.g., "idle", "processing")
	Status string `json:"status"`

	// LastHeartbeat is the timestamp of the last heartbeat
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// Collector defines the interface for collecting metrics from the delivery system.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetScheduledDepth returns the number of scheduled deliveries
	GetScheduledDepth(ctx context.Context) (int64, error)

	// GetStatusCounts returns the count of events by lifecycle status
	GetStatusCounts(ctx context.Context) (map[string]int64, error)

	// GetActiveWorkers returns information about active delivery workers
	GetActiveWorkers(ctx context.Context) ([]WorkerInfo, error)
}
