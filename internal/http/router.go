// Package httpapi assembles the public HTTP surface: shared middleware,
// health and metrics endpoints, and the authenticated owner-scoped routes.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	historyhandler "famtree/internal/history/handler"
	ownerhandler "famtree/internal/owner/handler"
	personhandler "famtree/internal/person/handler"
	"famtree/internal/platform/metrics"
	"famtree/pkg/platform/httputil"
	authmw "famtree/pkg/platform/middleware/auth"
	"famtree/pkg/platform/middleware/request"
	"famtree/pkg/platform/middleware/requesttime"
)

const defaultRequestTimeout = 30 * time.Second

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Logger    *slog.Logger
	Validator authmw.JWTValidator
	Registry  *prometheus.Registry
	Owners    *ownerhandler.Handler
	Persons   *personhandler.Handler
	History   *historyhandler.Handler
	Checks    map[string]HealthCheck
	// Clock overrides the per-request time source. Nil means time.Now.
	Clock func() time.Time
	// RequestTimeout bounds authenticated requests. Zero means 30s.
	RequestTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Logger(d.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", healthHandler(d.Checks))
	if d.Registry != nil {
		r.Handle("/metrics", metrics.Handler(d.Registry))
	}

	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(timeout))
		if d.Clock != nil {
			r.Use(requesttime.MiddlewareWithClock(d.Clock))
		} else {
			r.Use(requesttime.Middleware)
		}
		r.Use(authmw.RequireAuth(d.Validator, d.Logger))
		d.Owners.Register(r, func(r chi.Router) {
			d.Persons.Register(r)
			d.History.Register(r)
		})
	})
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
