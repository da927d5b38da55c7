package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/30sweetener09/convenient-market-app-sub000/internal/api/handler"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/auth"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/cache"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/config"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Pool  handler.DBPool
	Job   handler.ExpiryJob
	Cache *cache.Cache
	Cfg   *config.Config
}

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Recoverer)

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   d.Cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if d.Cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(d.Cfg.RateLimitRequests, d.Cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(d.Pool, d.Job, d.Cache, d.Cfg)
	verifier := auth.NewVerifier(d.Cfg.SupabaseJWTSecret)

	// --- Routes ---

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
	})

	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/expiry", func(r chi.Router) {
			r.Get("/window", h.GetExpiryWindow)
			r.Get("/status", h.GetExpiryStatus)
			r.With(auth.Middleware(verifier), auth.RequireRole(auth.RoleService)).
				Post("/run", h.RunExpiryPass)
		})

		r.With(auth.Middleware(verifier)).Post("/devices", h.RegisterDevice)
	})

	return r
}
