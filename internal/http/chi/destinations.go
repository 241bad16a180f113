package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/courierhq/courier/destination"
	"github.com/go-chi/chi/v5"
)

/* HTTP layer DTOs for the destination API
 * Separate from domain entities to avoid leaking internal structure.
 * The signing secret appears only in the creation response; reads and lists
 * never expose it.
 */

// destinationRequest represents the create/update payload
type destinationRequest struct {
	URL      string `json:"url"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// destinationResponse represents a destination in the API (no secret)
type destinationResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// destinationCreatedResponse is returned once, on registration
type destinationCreatedResponse struct {
	destinationResponse
	Secret string `json:"secret"`
}

func toDestinationResponse(d destination.Destination) destinationResponse {
	return destinationResponse{
		ID:        d.ID,
		URL:       d.URL,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
	}
}

// postDestination handles POST /v1/destinations
func postDestination(service destination.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req destinationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}

		d, err := service.Register(r.Context(), req.URL)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		resp := destinationCreatedResponse{
			destinationResponse: toDestinationResponse(d),
			Secret:              d.Secret,
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// getDestinations handles GET /v1/destinations
func getDestinations(service destination.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ds, err := service.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		resp := make([]destinationResponse, 0, len(ds))
		for _, d := range ds {
			resp = append(resp, toDestinationResponse(d))
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// getDestination handles GET /v1/destinations/{destination_id}
func getDestination(service destination.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "destination_id")

		d, err := service.Get(r.Context(), id)
		if errors.Is(err, destination.ErrNotFound) {
			http.Error(w, "destination not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(toDestinationResponse(d)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// putDestination handles PUT /v1/destinations/{destination_id}
func putDestination(service destination.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "destination_id")

		var req destinationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		d, err := service.Update(r.Context(), id, req.URL, isActive)
		if errors.Is(err, destination.ErrNotFound) {
			http.Error(w, "destination not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(toDestinationResponse(d)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// deleteDestination handles DELETE /v1/destinations/{destination_id}
func deleteDestination(service destination.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "destination_id")

		err := service.Delete(r.Context(), id)
		if errors.Is(err, destination.ErrNotFound) {
			http.Error(w, "destination not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
