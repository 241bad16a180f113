package chi

import (
	"net/http"
	"time"

	"github.com/courierhq/courier/destination"
	"github.com/courierhq/courier/event"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
)

// Handlers sets up the API routes
func Handlers(destinationService destination.UseCase, eventService event.UseCase, metricsHandler http.Handler) *chi.Mux {
	logger := httplog.NewLogger("courier-api", httplog.Options{
		JSON: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/destinations", func(r chi.Router) {
			r.Post("/", postDestination(destinationService).ServeHTTP)
			r.Get("/", getDestinations(destinationService).ServeHTTP)
			r.Get("/{destination_id}", getDestination(destinationService).ServeHTTP)
			r.Put("/{destination_id}", putDestination(destinationService).ServeHTTP)
			r.Delete("/{destination_id}", deleteDestination(destinationService).ServeHTTP)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", postEvent(eventService).ServeHTTP)
			r.Get("/{event_id}", getEvent(eventService).ServeHTTP)
			r.Get("/{event_id}/attempts", getEventAttempts(eventService).ServeHTTP)
		})
	})

	return r
}
