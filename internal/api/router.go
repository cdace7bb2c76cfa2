// Package api wires handlers, middleware, and routes into the HTTP
// surface of the service.
package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/wargakita/event-service/internal/api/handlers"
	"github.com/wargakita/event-service/internal/api/middleware"
	"github.com/wargakita/event-service/internal/config"
	"github.com/wargakita/event-service/internal/domain/events"
	"github.com/wargakita/event-service/internal/metrics"
)

// Dependencies carries the constructed services the router mounts.
// The router never builds its own dependencies so tests can swap in
// fakes.
type Dependencies struct {
	Events       *events.Service
	Registration *events.RegistrationService
	Pool         *pgxpool.Pool
}

func NewRouter(cfg config.Config, logger zerolog.Logger, deps Dependencies) http.Handler {
	eventsHandler := handlers.NewEventsHandler(deps.Events, cfg.Environment)
	participantsHandler := handlers.NewParticipantsHandler(deps.Registration, deps.Events, cfg.Environment)

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz(deps.Pool))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(eventsHandler.List),
		http.MethodPost: http.HandlerFunc(eventsHandler.Create),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(eventsHandler.Get),
		http.MethodPut: http.HandlerFunc(eventsHandler.Update),
	}))
	mux.Handle("/api/v1/events/{id}/participants", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(participantsHandler.List),
		http.MethodPost: http.HandlerFunc(participantsHandler.Register),
	}))

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RateLimit(cfg.RateLimit)(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
