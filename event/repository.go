package event

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an event does not exist in the store
var ErrNotFound = errors.New("event not found")

// ErrInvalidPayload is returned when an ingested payload is not valid JSON
var ErrInvalidPayload = errors.New("payload must be valid JSON")

/* ErrTerminal is returned by BeginAttempt when the event is already in a
 * terminal state. A retry trigger racing a concurrent finalization observes
 * this instead of claiming the event a second time.
 */
var ErrTerminal = errors.New("event already in terminal status")

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// Reader provides read operations for events and their attempts
type Reader interface {
	Get(ctx context.Context, id string) (Event, error)
	ListByDestination(ctx context.Context, destinationID string, limit int) ([]Event, error)
	ListAttempts(ctx context.Context, eventID string) ([]DeliveryAttempt, error)
}

// Writer provides write operations for events
type Writer interface {
	Create(ctx context.Context, ev Event) error
	/* BeginAttempt transitions the event to Processing and increments its
	 * attempt counter in a single store update, returning the new counter.
	 * The update is the single-writer claim for a processing cycle: it
	 * happens before the network call so a crash mid-delivery shows up as a
	 * stuck Processing event, never as a silently lost one.
	 */
	BeginAttempt(ctx context.Context, id string) (int, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	/* RecordAttempt appends one immutable DeliveryAttempt row.
	 * Existing rows are never mutated.
	 */
	RecordAttempt(ctx context.Context, attempt DeliveryAttempt) error
}

/* Interface composition - combining small interfaces into larger ones
 * This is preferred over large monolithic interfaces
 */
type Repository interface {
	Reader
	Writer
}
