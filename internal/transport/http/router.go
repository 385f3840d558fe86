// Package httptransport assembles the HTTP surface: the global middleware
// chain, operational endpoints and the authenticated API routes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"mockview/internal/platform/metrics"
	"mockview/internal/platform/middleware"
	"mockview/pkg/platform/httputil"
	"mockview/pkg/platform/middleware/auth"
	"mockview/pkg/platform/middleware/metadata"
	"mockview/pkg/platform/middleware/requesttime"
)

// Registrar mounts one module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Tokens   auth.TokenValidator
	// Health lists the optional backends by name. Unconfigured ones are omitted.
	Health        map[string]HealthChecker
	HealthTimeout time.Duration
	// Public routes need no bearer token.
	Public []Registrar
	API    []Registrar
}

func NewRouter(d Deps) http.Handler {
	if d.HealthTimeout <= 0 {
		d.HealthTimeout = 2 * time.Second
	}
	r := chi.NewRouter()
	r.Use(
		middleware.Recovery(d.Logger),
		middleware.RequestID,
		metadata.ClientMetadata,
		requesttime.Middleware,
		middleware.Logger(d.Logger),
		middleware.LatencyMiddleware(d.Metrics),
	)

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/healthz", healthHandler(d.Health, d.HealthTimeout))

	for _, reg := range d.Public {
		reg.Register(r)
	}
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(d.Tokens, d.Logger))
		for _, reg := range d.API {
			reg.Register(r)
		}
	})
	return r
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func healthHandler(checks map[string]HealthChecker, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		names := make([]string, 0, len(checks))
		results := make([]string, len(checks))
		var g errgroup.Group
		for name, check := range checks {
			i := len(names)
			names = append(names, name)
			g.Go(func() error {
				results[i] = "ok"
				if err := check.Health(ctx); err != nil {
					results[i] = err.Error()
				}
				return nil
			})
		}
		_ = g.Wait()

		resp := HealthResponse{Status: "ok", Components: make(map[string]string, len(names))}
		status := http.StatusOK
		for i, name := range names {
			resp.Components[name] = results[i]
			if results[i] != "ok" {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, status, resp)
	}
}
