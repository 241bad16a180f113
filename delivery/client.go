package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the per-attempt network timeout
	DefaultTimeout = 30 * time.Second

	// maxBodySnippet bounds how much of the response body is kept per attempt
	maxBodySnippet = 1000

	// userAgent identifies this sender to receivers
	userAgent = "courier-webhook/1.0"
)

/* Outcome is the structured result of exactly one delivery try.
 * StatusCode 0 is the sentinel for a network-level failure with no HTTP
 * response; Body then carries a descriptive message instead of response data.
 */
type Outcome struct {
	StatusCode int
	Body       string
}

// OK reports whether the outcome is a delivery success (2xx)
func (o Outcome) OK() bool {
	return o.StatusCode >= 200 && o.StatusCode < 300
}

/* Client performs single outbound delivery attempts. It never retries: each
 * call is exactly one network round-trip, and every network fault is
 * converted into an Outcome rather than an error.
 */
type Client struct {
	http *http.Client
}

// NewClient creates a delivery client with the given per-attempt timeout
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Attempt POSTs the payload to url with signed headers and classifies the result
func (c *Client) Attempt(ctx context.Context, url string, payload []byte, sig, eventID string) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Outcome{StatusCode: 0, Body: fmt.Sprintf("Unexpected error: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", sig)
	req.Header.Set("X-Event-ID", eventID)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(err, c.http.Timeout)
	}
	defer resp.Body.Close()

	snippet, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippet))
	if err != nil {
		// The status line arrived; keep the code and whatever body we got
		return Outcome{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	return Outcome{StatusCode: resp.StatusCode, Body: string(snippet)}
}

func classifyTransportError(err error, timeout time.Duration) Outcome {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return Outcome{
			StatusCode: 0,
			Body:       fmt.Sprintf("Request timeout after %d seconds", int(timeout.Seconds())),
		}
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if (errors.As(err, &opErr) && opErr.Op == "dial") || errors.As(err, &dnsErr) {
		return Outcome{
			StatusCode: 0,
			Body:       "Connection error - destination unreachable",
		}
	}

	return Outcome{StatusCode: 0, Body: fmt.Sprintf("Unexpected error: %v", err)}
}
