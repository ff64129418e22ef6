package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/estudiolume/leads-api/internal/http/handlers"
	httpmiddleware "github.com/estudiolume/leads-api/internal/http/middleware"
	"github.com/estudiolume/leads-api/internal/identity"
	"github.com/estudiolume/leads-api/internal/leads"
	"github.com/estudiolume/leads-api/internal/ratelimit"
	"github.com/estudiolume/leads-api/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	AdminLeadsHandler  *handlers.AdminLeadsHandler
	Limiter            ratelimit.Limiter
	IdentityResolver   identity.Resolver
	AdminEmails        []string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Lead submission, rate limited per client IP.
	r.Group(func(submit chi.Router) {
		if cfg.Limiter != nil {
			submit.Use(httpmiddleware.RateLimit(cfg.Limiter, cfg.Logger))
		}
		submit.Post("/api/lead", cfg.LeadsHandler.Create)
	})

	// Admin endpoints, re-authorized on every request.
	r.Group(func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminAuth(cfg.IdentityResolver, cfg.AdminEmails, cfg.Logger))
		admin.Get("/api/admin/leads", cfg.AdminLeadsHandler.List)
		admin.Patch("/api/admin/leads", cfg.AdminLeadsHandler.Update)
		admin.Get("/api/admin/leads/export", cfg.AdminLeadsHandler.Export)
	})

	return r
}
