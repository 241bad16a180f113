package delivery

import "time"

/* Retry policy: 2xx finishes the event, 4xx is terminal (the receiver has
 * explicitly rejected the payload, retrying will not change that), everything
 * else - 5xx, the 0 transport sentinel, or any other code - is retryable
 * within the budget with exponential backoff anchored at the first retry.
 */

// Action is the tagged decision the orchestration layer branches on
type Action int

const (
	FinishSuccess Action = iota + 1
	FinishFailed
	RetryLater
)

// Terminal failure reasons, distinguished for observability only
const (
	ReasonClientError        = "client_error"
	ReasonMaxRetriesExceeded = "max_retries_exceeded"
)

// Decision is the outcome of evaluating a delivery attempt
type Decision struct {
	Action Action
	Reason string
	Delay  time.Duration
}

/* Policy holds the retry knobs as an explicitly passed value, so the
 * decision function is testable in isolation with injected parameters.
 */
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultPolicy returns the production retry budget: three retries at
// 60s, 120s and 240s.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  60 * time.Second,
	}
}

// Decide maps an attempt outcome and the attempts made so far onto the next
// action. Pure function: no state, no I/O.
func (p Policy) Decide(attemptsSoFar int, out Outcome) Decision {
	if out.OK() {
		return Decision{Action: FinishSuccess}
	}

	if out.StatusCode >= 400 && out.StatusCode < 500 {
		return Decision{Action: FinishFailed, Reason: ReasonClientError}
	}

	if attemptsSoFar < p.MaxRetries {
		return Decision{Action: RetryLater, Delay: p.backoff(attemptsSoFar)}
	}

	return Decision{Action: FinishFailed, Reason: ReasonMaxRetriesExceeded}
}

// backoff doubles the base delay per completed attempt: base * 2^(attempt-1)
func (p Policy) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay << (attempt - 1)
}
