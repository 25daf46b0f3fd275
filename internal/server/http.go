package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-practice-web/internal/auth"
	"github.com/gokatarajesh/quiz-practice-web/internal/config"
)

// PageRoutes mounts page handlers on the mux.
type PageRoutes interface {
	Register(mux *http.ServeMux)
}

// Deps carries everything the HTTP server routes to.
type Deps struct {
	Auth     *auth.HTTPHandlers
	AuthSvc  *auth.Service
	Cookies  auth.Cookies
	Pages    PageRoutes
	Limiter  *IPRateLimiter
	Metrics  *HTTPMetrics
	Gatherer prometheus.Gatherer
	// Ping checks dependencies for /healthz. Nil reports healthy.
	Ping func(ctx context.Context) error
}

// NewHTTPServer wires health, metrics, auth forms and pages behind the common middleware.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, deps Deps) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewHandler(cfg, logger, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the full middleware chain and mux.
func NewHandler(cfg *config.App, logger zerolog.Logger, deps Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				logger.Error().Err(err).Msg("dependency ping failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	if deps.Auth != nil {
		limit := func(fn http.HandlerFunc) http.Handler {
			if deps.Limiter == nil {
				return fn
			}
			return deps.Limiter.Limit(fn)
		}
		mux.Handle("/login", limit(deps.Auth.Login))
		mux.Handle("/register", limit(deps.Auth.Register))
		mux.HandleFunc("/logout", deps.Auth.Logout)
		mux.Handle("/admin", limit(deps.Auth.AdminGate))
	}

	if deps.Pages != nil {
		deps.Pages.Register(mux)
	}

	mws := []Middleware{
		RequestLogger(logger),
		SecurityHeaders(cfg.Session.CookieSecure),
	}
	if deps.Metrics != nil {
		mws = append(mws, deps.Metrics.Middleware)
	}
	if deps.AuthSvc != nil {
		mws = append(mws, auth.SessionMiddleware(deps.AuthSvc, deps.Cookies, logger))
	}
	return Chain(mux, mws...)
}
