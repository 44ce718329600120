// Package httptransport assembles the HTTP API: the middleware chain, the
// public health and metrics endpoints, and the authenticated /v1 surface the
// module handlers mount themselves on.
package httptransport

import (
	"context"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fundvault/internal/platform/metrics"
	"fundvault/internal/platform/middleware"
	"fundvault/pkg/platform/httputil"
)

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires the full HTTP surface. Everything under /v1 requires a
// bearer token; health and metrics stay public for probes and scrapers.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, signingKey string, health http.HandlerFunc, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger, m))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.ClientMetadata)

	r.Get("/healthz", health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(signingKey, logger))
		for _, h := range handlers {
			h.Register(r)
		}
	})

	return r
}

// Checker reports the health of one dependency.
type Checker func(ctx context.Context) error

// HealthHandler probes each dependency and reports per-component status. Any
// failing component turns the response into a 503.
func HealthHandler(checks map[string]Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				components[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			components[name] = "ok"
		}

		state := "up"
		if status != http.StatusOK {
			state = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status":     state,
			"components": components,
		})
	}
}
