package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/courierhq/courier/event"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

/* PostgreSQL implementation of event.Repository.
 * Events reference their destination with ON DELETE CASCADE, and delivery
 * attempts reference their event the same way, so destination deletion
 * removes the whole ownership chain.
 */

type Repository struct {
	Pool *pgxpool.Pool
}

// NewRepository creates a repository on a shared connection pool
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{Pool: pool}
}

// Migrate creates the events and delivery_attempts tables if they do not
// exist. Requires the destinations table to exist already.
func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			id             UUID PRIMARY KEY,
			destination_id UUID NOT NULL REFERENCES destinations(id) ON DELETE CASCADE,
			payload        JSONB NOT NULL,
			status         TEXT NOT NULL DEFAULT 'pending',
			attempts_count INT NOT NULL DEFAULT 0 CHECK (attempts_count >= 0),
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}

	_, err = r.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS delivery_attempts (
			id                   BIGSERIAL PRIMARY KEY,
			event_id             UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			status               TEXT NOT NULL,
			response_status_code INT NOT NULL,
			response_body        TEXT NOT NULL DEFAULT '',
			attempted_at         TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("creating delivery_attempts table: %w", err)
	}
	return nil
}

// Create inserts a new event
func (r *Repository) Create(ctx context.Context, ev event.Event) error {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO events (id, destination_id, payload, status, attempts_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.ID, ev.DestinationID, ev.Payload, ev.Status.String(), ev.AttemptsCount, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// Get retrieves an event by ID
func (r *Repository) Get(ctx context.Context, id string) (event.Event, error) {
	var ev event.Event
	var status string
	err := r.Pool.QueryRow(ctx,
		`SELECT id, destination_id, payload, status, attempts_count, created_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(&ev.ID, &ev.DestinationID, &ev.Payload, &status, &ev.AttemptsCount, &ev.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return event.Event{}, event.ErrNotFound
	}
	if err != nil {
		return event.Event{}, fmt.Errorf("selecting event: %w", err)
	}

	ev.Status = event.NewStatus(status)
	return ev, nil
}

// ListByDestination returns the destination's most recent events
func (r *Repository) ListByDestination(ctx context.Context, destinationID string, limit int) ([]event.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.Pool.Query(ctx,
		`SELECT id, destination_id, payload, status, attempts_count, created_at
		 FROM events WHERE destination_id = $1 ORDER BY created_at DESC LIMIT $2`,
		destinationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting events: %w", err)
	}
	defer rows.Close()

	var evs []event.Event
	for rows.Next() {
		var ev event.Event
		var status string
		if err := rows.Scan(&ev.ID, &ev.DestinationID, &ev.Payload, &status, &ev.AttemptsCount, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.Status = event.NewStatus(status)
		evs = append(evs, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return evs, nil
}

/* BeginAttempt is the single-writer claim for a processing cycle: one UPDATE
 * moves the event to processing and bumps the counter, guarded so terminal
 * events can never be claimed again.
 */
func (r *Repository) BeginAttempt(ctx context.Context, id string) (int, error) {
	var attempts int
	err := r.Pool.QueryRow(ctx,
		`UPDATE events
		 SET status = 'processing', attempts_count = attempts_count + 1
		 WHERE id = $1 AND status IN ('pending', 'processing')
		 RETURNING attempts_count`,
		id,
	).Scan(&attempts)

	if errors.Is(err, pgx.ErrNoRows) {
		// Either gone or already terminal; tell them apart for the caller
		if _, getErr := r.Get(ctx, id); errors.Is(getErr, event.ErrNotFound) {
			return 0, event.ErrNotFound
		}
		return 0, event.ErrTerminal
	}
	if err != nil {
		return 0, fmt.Errorf("claiming event: %w", err)
	}

	return attempts, nil
}

// UpdateStatus sets the event's lifecycle status
func (r *Repository) UpdateStatus(ctx context.Context, id string, status event.Status) error {
	tag, err := r.Pool.Exec(ctx,
		`UPDATE events SET status = $2 WHERE id = $1`,
		id, status.String(),
	)
	if err != nil {
		return fmt.Errorf("updating event status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return event.ErrNotFound
	}
	return nil
}

// RecordAttempt appends one immutable delivery attempt row
func (r *Repository) RecordAttempt(ctx context.Context, attempt event.DeliveryAttempt) error {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO delivery_attempts (event_id, status, response_status_code, response_body, attempted_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		attempt.EventID, attempt.Status.String(), attempt.ResponseStatusCode, attempt.ResponseBody, attempt.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("inserting delivery attempt: %w", err)
	}
	return nil
}

// ListAttempts returns the event's delivery attempts, oldest first
func (r *Repository) ListAttempts(ctx context.Context, eventID string) ([]event.DeliveryAttempt, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT id, event_id, status, response_status_code, response_body, attempted_at
		 FROM delivery_attempts WHERE event_id = $1 ORDER BY attempted_at, id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting delivery attempts: %w", err)
	}
	defer rows.Close()

	var attempts []event.DeliveryAttempt
	for rows.Next() {
		var a event.DeliveryAttempt
		var status string
		if err := rows.Scan(&a.ID, &a.EventID, &status, &a.ResponseStatusCode, &a.ResponseBody, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning delivery attempt: %w", err)
		}
		a.Status = event.NewAttemptStatus(status)
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating delivery attempts: %w", err)
	}

	return attempts, nil
}

// StatusCounts returns the number of events per lifecycle status
func (r *Repository) StatusCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := r.Pool.Query(ctx, `SELECT status, count(*) FROM events GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting events by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status counts: %w", err)
	}

	return counts, nil
}
