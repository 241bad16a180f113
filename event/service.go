package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/courierhq/courier/destination"
	"github.com/google/uuid"
)

/* Service represents the business logic layer for event ingestion
 * Uses pointer semantics as it's an API, not data
 */

// UseCase defines the business operations for event management
type UseCase interface {
	/* Ingest accepts a payload for a destination, persists it as a Pending
	 * event and enqueues the first delivery cycle. The caller never blocks
	 * on delivery completion; the outcome is observable only by querying
	 * the event afterwards.
	 */
	Ingest(ctx context.Context, destinationID string, payload []byte) (string, error)
	Get(ctx context.Context, id string) (Event, error)
	ListAttempts(ctx context.Context, id string) ([]DeliveryAttempt, error)
}

// Enqueuer hands a freshly created event to the delivery-triggering layer
type Enqueuer interface {
	Enqueue(ctx context.Context, eventID string) error
}

type Service struct {
	Repo         Repository
	Destinations destination.Reader
	Queue        Enqueuer
}

// NewService creates a new event service with dependency injection
func NewService(repo Repository, destinations destination.Reader, queue Enqueuer) *Service {
	return &Service{
		Repo:         repo,
		Destinations: destinations,
		Queue:        queue,
	}
}

// Ingest validates and stores an inbound event, then triggers its first delivery
func (s *Service) Ingest(ctx context.Context, destinationID string, payload []byte) (string, error) {
	if _, err := s.Destinations.Get(ctx, destinationID); err != nil {
		return "", fmt.Errorf("loading destination: %w", err)
	}

	if !json.Valid(payload) {
		return "", ErrInvalidPayload
	}

	ev := Event{
		ID:            uuid.New().String(),
		DestinationID: destinationID,
		Payload:       payload,
		Status:        Pending,
		AttemptsCount: 0,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, ev); err != nil {
		return "", fmt.Errorf("storing event: %w", err)
	}

	if err := s.Queue.Enqueue(ctx, ev.ID); err != nil {
		return "", fmt.Errorf("enqueueing delivery: %w", err)
	}

	return ev.ID, nil
}

// Get retrieves an event by ID
func (s *Service) Get(ctx context.Context, id string) (Event, error) {
	ev, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Event{}, fmt.Errorf("getting event: %w", err)
	}
	return ev, nil
}

// ListAttempts returns the delivery attempts recorded for an event, oldest first
func (s *Service) ListAttempts(ctx context.Context, id string) ([]DeliveryAttempt, error) {
	if _, err := s.Repo.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("getting event: %w", err)
	}

	attempts, err := s.Repo.ListAttempts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}
	return attempts, nil
}
