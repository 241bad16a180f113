package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/courierhq/courier/delivery/signature"
	"github.com/courierhq/courier/destination"
	"github.com/courierhq/courier/event"
)

// Attempter performs exactly one outbound delivery try
type Attempter interface {
	Attempt(ctx context.Context, url string, payload []byte, sig, eventID string) Outcome
}

/* Scheduler is the delayed re-invocation layer. Retries are realized as a
 * message scheduled for the future, never as a blocking sleep, so the
 * processing task frees its resources between attempts.
 */
type Scheduler interface {
	Enqueue(ctx context.Context, eventID string) error
	Schedule(ctx context.Context, eventID string, delay time.Duration) error
}

// Result summarizes one processing cycle for the trigger layer and metrics
type Result struct {
	EventID    string
	Status     string
	Reason     string
	StatusCode int
}

// Result status values
const (
	ResultSuccess  = "success"
	ResultFailed   = "failed"
	ResultRetrying = "retrying"
	ResultDropped  = "dropped"
	ResultNoop     = "noop"
)

/* Processor owns the event lifecycle: Pending -> Processing -> Success/Failed.
 * Each ProcessCycle call revalidates event existence and destination liveness
 * fresh from the store; no state is cached across invocations.
 */
type Processor struct {
	Events       event.Repository
	Destinations destination.Reader
	Client       Attempter
	Recorder     *Recorder
	Policy       Policy
	Scheduler    Scheduler
	Logger       *slog.Logger
}

// NewProcessor wires the delivery engine together
func NewProcessor(events event.Repository, destinations destination.Reader, client Attempter, policy Policy, scheduler Scheduler, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Events:       events,
		Destinations: destinations,
		Client:       client,
		Recorder:     NewRecorder(events),
		Policy:       policy,
		Scheduler:    scheduler,
		Logger:       logger,
	}
}

/* ProcessCycle runs one delivery cycle for the event. It is idempotent for
 * terminal events and safe to call with a stale trigger: a since-deleted
 * event is a logged no-op, never an error. Only genuine infrastructure
 * faults (storage down, scheduler down) propagate as errors.
 */
func (p *Processor) ProcessCycle(ctx context.Context, eventID string) (Result, error) {
	ev, err := p.Events.Get(ctx, eventID)
	if errors.Is(err, event.ErrNotFound) {
		p.Logger.Warn("event not found, dropping trigger", "event_id", eventID)
		return Result{EventID: eventID, Status: ResultDropped}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("loading event: %w", err)
	}

	if ev.Status.IsFinal() {
		return Result{EventID: eventID, Status: ResultNoop}, nil
	}

	dest, err := p.Destinations.Get(ctx, ev.DestinationID)
	if errors.Is(err, destination.ErrNotFound) {
		p.Logger.Warn("destination not found, dropping trigger", "event_id", eventID, "destination_id", ev.DestinationID)
		return Result{EventID: eventID, Status: ResultDropped}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("loading destination: %w", err)
	}

	// Inactive destinations are never attempted and never retried
	if !dest.IsActive {
		p.Logger.Warn("destination inactive, skipping delivery", "event_id", eventID, "destination_id", dest.ID)
		if err := p.Events.UpdateStatus(ctx, eventID, event.Failed); err != nil {
			return Result{}, fmt.Errorf("failing event for inactive destination: %w", err)
		}
		return Result{EventID: eventID, Status: ResultFailed, Reason: "destination_inactive"}, nil
	}

	// Claim the event: Processing + incremented counter, before the network
	// call, so a crash mid-delivery is visible rather than silently lost
	attempts, err := p.Events.BeginAttempt(ctx, eventID)
	if errors.Is(err, event.ErrTerminal) {
		return Result{EventID: eventID, Status: ResultNoop}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("claiming event: %w", err)
	}

	sig, err := signature.Sign(ev.Payload, dest.Secret)
	if err != nil {
		return Result{}, fmt.Errorf("signing payload: %w", err)
	}

	p.Logger.Info("delivering event", "event_id", eventID, "url", dest.URL, "attempt", attempts)

	outcome := p.Client.Attempt(ctx, dest.URL, ev.Payload, sig, eventID)

	if _, err := p.Recorder.Record(ctx, eventID, outcome); err != nil {
		return Result{}, err
	}

	decision := p.Policy.Decide(attempts, outcome)
	switch decision.Action {
	case FinishSuccess:
		if err := p.Events.UpdateStatus(ctx, eventID, event.Success); err != nil {
			return Result{}, fmt.Errorf("finishing event: %w", err)
		}
		p.Logger.Info("event delivered", "event_id", eventID, "status_code", outcome.StatusCode, "attempts", attempts)
		return Result{EventID: eventID, Status: ResultSuccess, StatusCode: outcome.StatusCode}, nil

	case FinishFailed:
		if err := p.Events.UpdateStatus(ctx, eventID, event.Failed); err != nil {
			return Result{}, fmt.Errorf("failing event: %w", err)
		}
		p.Logger.Error("event failed terminally", "event_id", eventID, "reason", decision.Reason, "status_code", outcome.StatusCode)
		return Result{EventID: eventID, Status: ResultFailed, Reason: decision.Reason, StatusCode: outcome.StatusCode}, nil

	default:
		/* The event stays Processing. If the scheduling layer itself is down
		 * we surface the error and leave the event for an out-of-band sweep;
		 * the gap is explicit, not a silent crash.
		 */
		if err := p.Scheduler.Schedule(ctx, eventID, decision.Delay); err != nil {
			p.Logger.Error("scheduling retry failed, event left processing", "event_id", eventID, "error", err)
			return Result{}, fmt.Errorf("scheduling retry: %w", err)
		}
		p.Logger.Warn("scheduling retry", "event_id", eventID, "attempt", attempts, "delay", decision.Delay, "status_code", outcome.StatusCode)
		return Result{EventID: eventID, Status: ResultRetrying, StatusCode: outcome.StatusCode}, nil
	}
}
