package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierhq/courier/destination"
	"github.com/courierhq/courier/event"
)

/* The handler tests exercise the full router with stubbed use cases, so URL
 * parameter extraction and middleware wiring are covered alongside the
 * status-code mapping.
 */

type stubDestinationService struct {
	register   func(ctx context.Context, url string) (destination.Destination, error)
	get        func(ctx context.Context, id string) (destination.Destination, error)
	list       func(ctx context.Context) ([]destination.Destination, error)
	update     func(ctx context.Context, id, url string, isActive bool) (destination.Destination, error)
	deactivate func(ctx context.Context, id string) error
	delete     func(ctx context.Context, id string) error
}

func (s *stubDestinationService) Register(ctx context.Context, url string) (destination.Destination, error) {
	return s.register(ctx, url)
}

func (s *stubDestinationService) Get(ctx context.Context, id string) (destination.Destination, error) {
	return s.get(ctx, id)
}

func (s *stubDestinationService) List(ctx context.Context) ([]destination.Destination, error) {
	return s.list(ctx)
}

func (s *stubDestinationService) Update(ctx context.Context, id, url string, isActive bool) (destination.Destination, error) {
	return s.update(ctx, id, url, isActive)
}

func (s *stubDestinationService) Deactivate(ctx context.Context, id string) error {
	return s.deactivate(ctx, id)
}

func (s *stubDestinationService) Delete(ctx context.Context, id string) error {
	return s.delete(ctx, id)
}

type stubEventService struct {
	ingest       func(ctx context.Context, destinationID string, payload []byte) (string, error)
	get          func(ctx context.Context, id string) (event.Event, error)
	listAttempts func(ctx context.Context, id string) ([]event.DeliveryAttempt, error)
}

func (s *stubEventService) Ingest(ctx context.Context, destinationID string, payload []byte) (string, error) {
	return s.ingest(ctx, destinationID, payload)
}

func (s *stubEventService) Get(ctx context.Context, id string) (event.Event, error) {
	return s.get(ctx, id)
}

func (s *stubEventService) ListAttempts(ctx context.Context, id string) ([]event.DeliveryAttempt, error) {
	return s.listAttempts(ctx, id)
}

func newTestRouter(ds destination.UseCase, es event.UseCase) http.Handler {
	return Handlers(ds, es, nil)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&stubDestinationService{}, &stubEventService{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestPostDestination(t *testing.T) {
	t.Run("registers and returns the secret once", func(t *testing.T) {
		ds := &stubDestinationService{
			register: func(_ context.Context, url string) (destination.Destination, error) {
				return destination.Destination{
					ID:        "dest-1",
					URL:       url,
					Secret:    "whsec-generated",
					IsActive:  true,
					CreatedAt: time.Now().UTC(),
				}, nil
			},
		}
		router := newTestRouter(ds, &stubEventService{})

		body := bytes.NewBufferString(`{"url": "https://receiver.example.com/hooks"}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/destinations", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "dest-1", resp["id"])
		assert.Equal(t, "https://receiver.example.com/hooks", resp["url"])
		assert.Equal(t, "whsec-generated", resp["secret"])
		assert.Equal(t, true, resp["is_active"])
	})

	t.Run("error - malformed body", func(t *testing.T) {
		router := newTestRouter(&stubDestinationService{}, &stubEventService{})

		req := httptest.NewRequest(http.MethodPost, "/v1/destinations", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("error - invalid url", func(t *testing.T) {
		ds := &stubDestinationService{
			register: func(context.Context, string) (destination.Destination, error) {
				return destination.Destination{}, fmt.Errorf("validating destination: url scheme must be http or https")
			},
		}
		router := newTestRouter(ds, &stubEventService{})

		req := httptest.NewRequest(http.MethodPost, "/v1/destinations", bytes.NewBufferString(`{"url": "ftp://x"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetDestination(t *testing.T) {
	t.Run("found, secret never exposed", func(t *testing.T) {
		ds := &stubDestinationService{
			get: func(_ context.Context, id string) (destination.Destination, error) {
				return destination.Destination{ID: id, URL: "https://receiver.example.com", Secret: "whsec-hidden", IsActive: true}, nil
			},
		}
		router := newTestRouter(ds, &stubEventService{})

		req := httptest.NewRequest(http.MethodGet, "/v1/destinations/dest-1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "whsec-hidden")
		assert.NotContains(t, rec.Body.String(), "secret")
	})

	t.Run("error - not found", func(t *testing.T) {
		ds := &stubDestinationService{
			get: func(context.Context, string) (destination.Destination, error) {
				return destination.Destination{}, destination.ErrNotFound
			},
		}
		router := newTestRouter(ds, &stubEventService{})

		req := httptest.NewRequest(http.MethodGet, "/v1/destinations/missing", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListDestinations(t *testing.T) {
	ds := &stubDestinationService{
		list: func(context.Context) ([]destination.Destination, error) {
			return []destination.Destination{
				{ID: "dest-1", URL: "https://a.example.com", IsActive: true},
				{ID: "dest-2", URL: "https://b.example.com", IsActive: false},
			}, nil
		},
	}
	router := newTestRouter(ds, &stubEventService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/destinations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "dest-1", resp[0]["id"])
	assert.Equal(t, false, resp[1]["is_active"])
}

func TestPutDestination(t *testing.T) {
	t.Run("updates url and active flag", func(t *testing.T) {
		var gotID, gotURL string
		var gotActive bool
		ds := &stubDestinationService{
			update: func(_ context.Context, id, url string, isActive bool) (destination.Destination, error) {
				gotID, gotURL, gotActive = id, url, isActive
				return destination.Destination{ID: id, URL: url, IsActive: isActive}, nil
			},
		}
		router := newTestRouter(ds, &stubEventService{})

		body := bytes.NewBufferString(`{"url": "https://new.example.com", "is_active": false}`)
		req := httptest.NewRequest(http.MethodPut, "/v1/destinations/dest-1", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "dest-1", gotID)
		assert.Equal(t, "https://new.example.com", gotURL)
		assert.False(t, gotActive)
	})

	t.Run("error - not found", func(t *testing.T) {
		ds := &stubDestinationService{
			update: func(context.Context, string, string, bool) (destination.Destination, error) {
				return destination.Destination{}, destination.ErrNotFound
			},
		}
		router := newTestRouter(ds, &stubEventService{})

		body := bytes.NewBufferString(`{"url": "https://new.example.com"}`)
		req := httptest.NewRequest(http.MethodPut, "/v1/destinations/missing", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteDestination(t *testing.T) {
	t.Run("deletes and returns 204", func(t *testing.T) {
		ds := &stubDestinationService{
			delete: func(context.Context, string) error { return nil },
		}
		router := newTestRouter(ds, &stubEventService{})

		req := httptest.NewRequest(http.MethodDelete, "/v1/destinations/dest-1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("error - not found", func(t *testing.T) {
		ds := &stubDestinationService{
			delete: func(context.Context, string) error { return destination.ErrNotFound },
		}
		router := newTestRouter(ds, &stubEventService{})

		req := httptest.NewRequest(http.MethodDelete, "/v1/destinations/missing", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPostEvent(t *testing.T) {
	t.Run("accepts and returns 202 before delivery", func(t *testing.T) {
		es := &stubEventService{
			ingest: func(_ context.Context, destinationID string, payload []byte) (string, error) {
				assert.Equal(t, "dest-1", destinationID)
				assert.JSONEq(t, `{"type": "order.created"}`, string(payload))
				return "evt-1", nil
			},
		}
		router := newTestRouter(&stubDestinationService{}, es)

		body := bytes.NewBufferString(`{"destination_id": "dest-1", "payload": {"type": "order.created"}}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/events", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusAccepted, rec.Code)

		var resp eventAcceptedResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "evt-1", resp.EventID)
		assert.Equal(t, "dest-1", resp.DestinationID)
		assert.Equal(t, "Request accepted. Processing in background.", resp.Message)
	})

	t.Run("error - missing destination_id", func(t *testing.T) {
		router := newTestRouter(&stubDestinationService{}, &stubEventService{})

		body := bytes.NewBufferString(`{"payload": {"a": 1}}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/events", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("error - missing payload", func(t *testing.T) {
		router := newTestRouter(&stubDestinationService{}, &stubEventService{})

		body := bytes.NewBufferString(`{"destination_id": "dest-1"}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/events", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("error - unknown destination", func(t *testing.T) {
		es := &stubEventService{
			ingest: func(context.Context, string, []byte) (string, error) {
				return "", fmt.Errorf("loading destination: %w", destination.ErrNotFound)
			},
		}
		router := newTestRouter(&stubDestinationService{}, es)

		body := bytes.NewBufferString(`{"destination_id": "missing", "payload": {"a": 1}}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/events", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetEvent(t *testing.T) {
	t.Run("reports status and attempt count", func(t *testing.T) {
		es := &stubEventService{
			get: func(_ context.Context, id string) (event.Event, error) {
				return event.Event{
					ID:            id,
					DestinationID: "dest-1",
					Payload:       []byte(`{"type": "order.created"}`),
					Status:        event.Success,
					AttemptsCount: 2,
					CreatedAt:     time.Now().UTC(),
				}, nil
			},
		}
		router := newTestRouter(&stubDestinationService{}, es)

		req := httptest.NewRequest(http.MethodGet, "/v1/events/evt-1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp eventResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "evt-1", resp.ID)
		assert.Equal(t, "success", resp.Status)
		assert.Equal(t, 2, resp.AttemptsCount)
		assert.JSONEq(t, `{"type": "order.created"}`, string(resp.Payload))
	})

	t.Run("error - not found", func(t *testing.T) {
		es := &stubEventService{
			get: func(context.Context, string) (event.Event, error) {
				return event.Event{}, event.ErrNotFound
			},
		}
		router := newTestRouter(&stubDestinationService{}, es)

		req := httptest.NewRequest(http.MethodGet, "/v1/events/missing", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetEventAttempts(t *testing.T) {
	t.Run("returns the attempt history", func(t *testing.T) {
		es := &stubEventService{
			listAttempts: func(_ context.Context, id string) ([]event.DeliveryAttempt, error) {
				return []event.DeliveryAttempt{
					{EventID: id, Status: event.AttemptFailed, ResponseStatusCode: 500, ResponseBody: "boom"},
					{EventID: id, Status: event.AttemptSucceeded, ResponseStatusCode: 200, ResponseBody: "ok"},
				}, nil
			},
		}
		router := newTestRouter(&stubDestinationService{}, es)

		req := httptest.NewRequest(http.MethodGet, "/v1/events/evt-1/attempts", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp []attemptResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 2)
		assert.Equal(t, "failed", resp[0].Status)
		assert.Equal(t, 500, resp[0].ResponseStatusCode)
		assert.Equal(t, "success", resp[1].Status)
	})

	t.Run("empty history is an empty array", func(t *testing.T) {
		es := &stubEventService{
			listAttempts: func(context.Context, string) ([]event.DeliveryAttempt, error) {
				return nil, nil
			},
		}
		router := newTestRouter(&stubDestinationService{}, es)

		req := httptest.NewRequest(http.MethodGet, "/v1/events/evt-1/attempts", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("error - unknown event", func(t *testing.T) {
		es := &stubEventService{
			listAttempts: func(context.Context, string) ([]event.DeliveryAttempt, error) {
				return nil, fmt.Errorf("getting event: %w", event.ErrNotFound)
			},
		}
		router := newTestRouter(&stubDestinationService{}, es)

		req := httptest.NewRequest(http.MethodGet, "/v1/events/missing/attempts", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
