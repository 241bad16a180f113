package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/courierhq/courier/destination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

/* PostgreSQL implementation of destination.Repository.
 * Deleting a destination cascades to its events and their delivery attempts
 * through the foreign keys declared in Migrate.
 */

type Repository struct {
	Pool *pgxpool.Pool
}

// NewRepository creates a repository on a shared connection pool
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{Pool: pool}
}

// Migrate creates the destinations table if it does not exist
func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS destinations (
			id         UUID PRIMARY KEY,
			url        TEXT NOT NULL,
			secret     TEXT NOT NULL,
			is_active  BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("creating destinations table: %w", err)
	}
	return nil
}

// Create inserts a new destination
func (r *Repository) Create(ctx context.Context, d destination.Destination) error {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO destinations (id, url, secret, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.URL, d.Secret, d.IsActive, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting destination: %w", err)
	}
	return nil
}

// Get retrieves a destination by ID
func (r *Repository) Get(ctx context.Context, id string) (destination.Destination, error) {
	var d destination.Destination
	err := r.Pool.QueryRow(ctx,
		`SELECT id, url, secret, is_active, created_at FROM destinations WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.URL, &d.Secret, &d.IsActive, &d.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return destination.Destination{}, destination.ErrNotFound
	}
	if err != nil {
		return destination.Destination{}, fmt.Errorf("selecting destination: %w", err)
	}
	return d, nil
}

// List returns all destinations, oldest first
func (r *Repository) List(ctx context.Context) ([]destination.Destination, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT id, url, secret, is_active, created_at FROM destinations ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("selecting destinations: %w", err)
	}
	defer rows.Close()

	var ds []destination.Destination
	for rows.Next() {
		var d destination.Destination
		if err := rows.Scan(&d.ID, &d.URL, &d.Secret, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning destination: %w", err)
		}
		ds = append(ds, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating destinations: %w", err)
	}

	return ds, nil
}

// Update mutates url and is_active. The secret column is never touched.
func (r *Repository) Update(ctx context.Context, id, url string, isActive bool) error {
	tag, err := r.Pool.Exec(ctx,
		`UPDATE destinations SET url = $2, is_active = $3 WHERE id = $1`,
		id, url, isActive,
	)
	if err != nil {
		return fmt.Errorf("updating destination: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return destination.ErrNotFound
	}
	return nil
}

// Delete removes a destination; events and attempts go with it via cascade
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM destinations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting destination: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return destination.ErrNotFound
	}
	return nil
}
