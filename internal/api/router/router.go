package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/salon-booking-wizard/internal/http/middleware"
	"github.com/wolfman30/salon-booking-wizard/internal/webbooking"
	"github.com/wolfman30/salon-booking-wizard/pkg/logging"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Booking        *webbooking.Handler
	Ops            *webbooking.OpsHandler
	MetricsHandler http.Handler

	// HealthChecks are reported by /health; any failure turns the response 503.
	HealthChecks map[string]HealthCheck

	CORSAllowedOrigins []string
	DefaultSalonID     string
	SupportedLanguages []string
	ClientJWTSecret    string
	OpsToken           string
	RateLimiter        *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.HealthChecks))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Booking wizard (public widget surface)
	if cfg.Booking != nil {
		r.Route("/booking", func(booking chi.Router) {
			if cfg.RateLimiter != nil {
				booking.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
			}
			booking.Use(httpmiddleware.Salon(cfg.DefaultSalonID))
			booking.Use(httpmiddleware.Language(cfg.SupportedLanguages))
			booking.Use(httpmiddleware.ClientJWT(cfg.ClientJWTSecret))
			cfg.Booking.Routes(booking)
		})
	}

	// Operator routes (shared token)
	if cfg.Ops != nil && cfg.OpsToken != "" {
		r.Route("/ops", func(ops chi.Router) {
			ops.Use(requireOpsToken(cfg.OpsToken))
			cfg.Ops.Routes(ops)
		})
	}

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		status := http.StatusOK
		resp := map[string]any{"status": "ok"}
		if len(checks) > 0 {
			results := make(map[string]string, len(checks))
			for name, check := range checks {
				if err := check(ctx); err != nil {
					results[name] = err.Error()
					status = http.StatusServiceUnavailable
					resp["status"] = "degraded"
					continue
				}
				results[name] = "ok"
			}
			resp["checks"] = results
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
