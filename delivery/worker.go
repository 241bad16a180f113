package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Source hands out claimed, due event IDs to workers
type Source interface {
	ClaimDue(ctx context.Context, now time.Time) (string, bool, error)
}

// Heartbeater publishes worker liveness for observability
type Heartbeater interface {
	SetWorkerHeartbeat(ctx context.Context, workerID, status string) error
}

// Observer records delivery cycle outcomes for metrics
type Observer interface {
	ObserveDelivery(ctx context.Context, result string, duration time.Duration)
}

// WorkerConfig holds the polling knobs for the delivery worker
type WorkerConfig struct {
	Parallelism  int           // number of concurrent consumers
	PollInterval time.Duration // base polling interval
	Burst        int           // max events per tick per consumer
	IdleDelay    time.Duration // sleep when no work
}

// DefaultWorkerConfig returns sensible polling defaults
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Parallelism:  4,
		PollInterval: 500 * time.Millisecond,
		Burst:        5,
		IdleDelay:    800 * time.Millisecond,
	}
}

/* Worker drains the scheduled-delivery queue and runs one ProcessCycle per
 * claimed event. Events are independent tasks; the only shared state between
 * concurrent cycles is the persisted store.
 */
type Worker struct {
	Processor *Processor
	Source    Source
	Config    WorkerConfig
	Heartbeat Heartbeater // optional
	Observer  Observer    // optional
	Logger    *slog.Logger
}

// NewWorker creates a delivery worker
func NewWorker(processor *Processor, source Source, cfg WorkerConfig, logger *slog.Logger) *Worker {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleDelay <= 0 {
		cfg.IdleDelay = 800 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		Processor: processor,
		Source:    source,
		Config:    cfg,
		Logger:    logger,
	}
}

// Run consumes until ctx is canceled
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.Config.Parallelism; i++ {
		workerID := fmt.Sprintf("worker-%s", uuid.New().String()[:8])
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.consume(ctx, workerID)
		}()
	}
	wg.Wait()
}

func (w *Worker) consume(ctx context.Context, workerID string) {
	ticker := time.NewTicker(w.Config.PollInterval)
	defer ticker.Stop()

	w.Logger.Info("worker started", "worker_id", workerID, "interval", w.Config.PollInterval, "burst", w.Config.Burst)
	w.beat(ctx, workerID, "idle")

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("worker stopping", "worker_id", workerID, "cause", ctx.Err())
			return

		case <-ticker.C:
			processedAny := false

			for i := 0; i < w.Config.Burst; i++ {
				claimed, err := w.processOne(ctx, workerID)
				if err != nil {
					w.Logger.Error("processing cycle failed", "worker_id", workerID, "error", err)
					continue
				}
				if !claimed {
					break
				}
				processedAny = true
			}

			w.beat(ctx, workerID, "idle")

			if !processedAny {
				select {
				case <-ctx.Done():
					return
				case <-time.After(w.Config.IdleDelay):
				}
			}
		}
	}
}

func (w *Worker) processOne(ctx context.Context, workerID string) (bool, error) {
	eventID, ok, err := w.Source.ClaimDue(ctx, time.Now())
	if err != nil {
		return false, fmt.Errorf("claiming due delivery: %w", err)
	}
	if !ok {
		return false, nil
	}

	w.beat(ctx, workerID, "processing")

	start := time.Now()
	result, err := w.Processor.ProcessCycle(ctx, eventID)
	if err != nil {
		/* Infrastructure fault: the claim is consumed but the event is not
		 * terminal. Reconciliation of events stuck in Processing is handled
		 * by an out-of-band sweep.
		 */
		return true, err
	}

	if w.Observer != nil {
		w.Observer.ObserveDelivery(ctx, result.Status, time.Since(start))
	}
	return true, nil
}

func (w *Worker) beat(ctx context.Context, workerID, status string) {
	if w.Heartbeat == nil {
		return
	}
	if err := w.Heartbeat.SetWorkerHeartbeat(ctx, workerID, status); err != nil {
		w.Logger.Warn("setting heartbeat failed", "worker_id", workerID, "error", err)
	}
}
