package event

import "time"

/* Event represents one inbound occurrence queued for delivery to exactly
 * one destination. Uses value semantics as it represents data, not behavior
 */
type Event struct {
	ID            string
	DestinationID string
	Payload       []byte
	Status        Status
	AttemptsCount int
	CreatedAt     time.Time
}

/* DeliveryAttempt is an immutable log entry for one delivery try.
 * Rows are append-only: one per attempt, in timestamp order.
 * ResponseStatusCode 0 means a network-level failure with no HTTP response.
 */
type DeliveryAttempt struct {
	ID                 int64
	EventID            string
	Status             AttemptStatus
	ResponseStatusCode int
	ResponseBody       string
	Timestamp          time.Time
}

// AttemptStatus is the terminal outcome of a single delivery attempt
type AttemptStatus int

const (
	AttemptSucceeded AttemptStatus = iota + 1
	AttemptFailed
)

// String returns the string representation of the attempt status
func (s AttemptStatus) String() string {
	switch s {
	case AttemptSucceeded:
		return "success"
	case AttemptFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// NewAttemptStatus creates an AttemptStatus from a string
func NewAttemptStatus(str string) AttemptStatus {
	if str == "success" {
		return AttemptSucceeded
	}
	return AttemptFailed
}
