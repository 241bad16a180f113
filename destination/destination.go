package destination

import (
	"fmt"
	"net/url"
	"time"
)

/* Destination represents a registered delivery target: an endpoint URL plus
 * the shared secret used to sign payloads sent to it.
 * The secret is immutable after creation and is never updated through the API.
 */
type Destination struct {
	ID        string
	URL       string
	Secret    string
	IsActive  bool
	CreatedAt time.Time
}

// Validate checks the destination's endpoint address.
// Bare hostnames are accepted so container service names like
// http://web:8000 work as delivery targets.
func (d Destination) Validate() error {
	if d.URL == "" {
		return fmt.Errorf("url cannot be empty")
	}
	u, err := url.Parse(d.URL)
	if err != nil {
		return fmt.Errorf("parsing url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https: %s", d.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("url must include a host: %s", d.URL)
	}
	return nil
}
