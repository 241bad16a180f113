package destination

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UseCase defines the business operations for destination management
type UseCase interface {
	Register(ctx context.Context, url string) (Destination, error)
	Get(ctx context.Context, id string) (Destination, error)
	List(ctx context.Context) ([]Destination, error)
	Update(ctx context.Context, id, url string, isActive bool) (Destination, error)
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	Repo Repository
}

// NewService creates a new destination service with dependency injection
func NewService(repo Repository) *Service {
	return &Service{
		Repo: repo,
	}
}

// Register creates a new destination with a server-generated signing secret.
// The secret is returned exactly once, in the creation response.
func (s *Service) Register(ctx context.Context, url string) (Destination, error) {
	d := Destination{
		ID:        uuid.New().String(),
		URL:       url,
		Secret:    uuid.New().String(),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}

	if err := d.Validate(); err != nil {
		return Destination{}, fmt.Errorf("validating destination: %w", err)
	}

	if err := s.Repo.Create(ctx, d); err != nil {
		return Destination{}, fmt.Errorf("storing destination: %w", err)
	}

	return d, nil
}

// Get retrieves a destination by ID
func (s *Service) Get(ctx context.Context, id string) (Destination, error) {
	d, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Destination{}, fmt.Errorf("getting destination: %w", err)
	}
	return d, nil
}

// List returns all registered destinations
func (s *Service) List(ctx context.Context) ([]Destination, error) {
	ds, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing destinations: %w", err)
	}
	return ds, nil
}

// Update changes a destination's endpoint URL and active flag
func (s *Service) Update(ctx context.Context, id, url string, isActive bool) (Destination, error) {
	d, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Destination{}, fmt.Errorf("getting destination: %w", err)
	}

	d.URL = url
	d.IsActive = isActive
	if err := d.Validate(); err != nil {
		return Destination{}, fmt.Errorf("validating destination: %w", err)
	}

	if err := s.Repo.Update(ctx, id, url, isActive); err != nil {
		return Destination{}, fmt.Errorf("updating destination: %w", err)
	}

	return d, nil
}

// Deactivate soft-disables a destination. Events already referencing it are
// kept; their next processing cycle terminates them without an attempt.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	d, err := s.Repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("getting destination: %w", err)
	}

	if err := s.Repo.Update(ctx, id, d.URL, false); err != nil {
		return fmt.Errorf("deactivating destination: %w", err)
	}
	return nil
}

// Delete removes a destination and, by cascade, its events and attempts
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting destination: %w", err)
	}
	return nil
}
