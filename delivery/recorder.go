package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/courierhq/courier/event"
)

/* Recorder appends one immutable DeliveryAttempt per delivery try.
 * It never fails except on storage unavailability, which is surfaced to the
 * caller so the whole cycle can be re-triggered at the transport level.
 */
type Recorder struct {
	Repo event.Writer
}

// NewRecorder creates an attempt recorder backed by the event store
func NewRecorder(repo event.Writer) *Recorder {
	return &Recorder{Repo: repo}
}

// Record classifies the outcome and persists it as a DeliveryAttempt row
func (r *Recorder) Record(ctx context.Context, eventID string, out Outcome) (event.DeliveryAttempt, error) {
	status := event.AttemptFailed
	if out.OK() {
		status = event.AttemptSucceeded
	}

	attempt := event.DeliveryAttempt{
		EventID:            eventID,
		Status:             status,
		ResponseStatusCode: out.StatusCode,
		ResponseBody:       out.Body,
		Timestamp:          time.Now().UTC(),
	}

	if err := r.Repo.RecordAttempt(ctx, attempt); err != nil {
		return event.DeliveryAttempt{}, fmt.Errorf("recording attempt: %w", err)
	}

	return attempt, nil
}
