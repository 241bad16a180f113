package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/courierhq/courier/destination"
	"github.com/courierhq/courier/event"
	"github.com/go-chi/chi/v5"
)

// eventRequest represents the ingestion payload
type eventRequest struct {
	DestinationID string          `json:"destination_id"`
	Payload       json.RawMessage `json:"payload"`
}

// eventAcceptedResponse is the 202 body: acceptance only, never the
// delivery outcome
type eventAcceptedResponse struct {
	EventID       string `json:"event_id"`
	DestinationID string `json:"destination_id"`
	Message       string `json:"message"`
}

// eventResponse represents an event in the API
type eventResponse struct {
	ID            string          `json:"id"`
	DestinationID string          `json:"destination_id"`
	Payload       json.RawMessage `json:"payload"`
	Status        string          `json:"status"`
	AttemptsCount int             `json:"attempts_count"`
	CreatedAt     time.Time       `json:"created_at"`
}

// attemptResponse represents a delivery attempt in the API
type attemptResponse struct {
	Status             string    `json:"status"`
	ResponseStatusCode int       `json:"response_status_code"`
	ResponseBody       string    `json:"response_body,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

// postEvent handles POST /v1/events
func postEvent(service event.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		var req eventRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if req.DestinationID == "" {
			http.Error(w, "destination_id is required", http.StatusBadRequest)
			return
		}
		if len(req.Payload) == 0 {
			http.Error(w, "payload is required", http.StatusBadRequest)
			return
		}

		eventID, err := service.Ingest(r.Context(), req.DestinationID, req.Payload)
		if errors.Is(err, destination.ErrNotFound) {
			http.Error(w, "destination not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, event.ErrInvalidPayload) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		// 202: the caller only ever sees acceptance; delivery is async
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		resp := eventAcceptedResponse{
			EventID:       eventID,
			DestinationID: req.DestinationID,
			Message:       "Request accepted. Processing in background.",
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// getEvent handles GET /v1/events/{event_id}
func getEvent(service event.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "event_id")

		ev, err := service.Get(r.Context(), id)
		if errors.Is(err, event.ErrNotFound) {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		resp := eventResponse{
			ID:            ev.ID,
			DestinationID: ev.DestinationID,
			Payload:       ev.Payload,
			Status:        ev.Status.String(),
			AttemptsCount: ev.AttemptsCount,
			CreatedAt:     ev.CreatedAt,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// getEventAttempts handles GET /v1/events/{event_id}/attempts
func getEventAttempts(service event.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "event_id")

		attempts, err := service.ListAttempts(r.Context(), id)
		if errors.Is(err, event.ErrNotFound) {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		resp := make([]attemptResponse, 0, len(attempts))
		for _, a := range attempts {
			resp = append(resp, attemptResponse{
				Status:             a.Status.String(),
				ResponseStatusCode: a.ResponseStatusCode,
				ResponseBody:       a.ResponseBody,
				Timestamp:          a.Timestamp,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
