package destination

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a destination does not exist in the store
var ErrNotFound = errors.New("destination not found")

// Reader provides read operations for destinations
type Reader interface {
	Get(ctx context.Context, id string) (Destination, error)
	List(ctx context.Context) ([]Destination, error)
}

// Writer provides write operations for destinations
type Writer interface {
	Create(ctx context.Context, d Destination) error
	/* Update mutates url and is_active only. The secret is immutable
	 * after creation and has no update path.
	 */
	Update(ctx context.Context, id, url string, isActive bool) error
	/* Delete removes the destination. The store cascades the delete to the
	 * destination's events and their delivery attempts.
	 */
	Delete(ctx context.Context, id string) error
}

type Repository interface {
	Reader
	Writer
}
