package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/nominee-director-site/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/nominee-director-site/internal/http/middleware"
	"github.com/wolfman30/nominee-director-site/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Forms              *handlers.FormsHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimiter throttles form submissions per client IP (optional).
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handlers.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Forms != nil {
		r.Route("/api", func(api chi.Router) {
			// Submissions hit the third-party relay, so they share the per-IP budget.
			api.Group(func(submit chi.Router) {
				if cfg.RateLimiter != nil {
					submit.Use(cfg.RateLimiter.Middleware)
				}
				submit.Post("/contact", cfg.Forms.SubmitContact)
				submit.Post("/apply/submit", cfg.Forms.SubmitApplication)
			})
			api.Get("/apply", cfg.Forms.GetApplication)
			api.Post("/apply/steps/{step}", cfg.Forms.SaveStep)
			api.Post("/apply/fallback", cfg.Forms.UseFallback)
			api.Post("/session/pagehide", cfg.Forms.Pagehide)
		})
	}

	return r
}
