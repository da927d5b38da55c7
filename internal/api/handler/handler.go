// Package handler provides HTTP handlers for all API endpoints.
// Handlers call prepared statements on the pool directly; there is no
// service layer beyond the expiry job itself.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/30sweetener09/convenient-market-app-sub000/internal/api/respond"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/cache"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/config"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/expiry"
)

// DBPool is the subset of *pgxpool.Pool the handlers use.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ExpiryJob is the subset of *expiry.Job the handlers use.
type ExpiryJob interface {
	Run(ctx context.Context) expiry.PassResult
	Last() (expiry.PassResult, bool)
	Window(t time.Time) expiry.Window
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool  DBPool
	job   ExpiryJob
	cache *cache.Cache
	cfg   *config.Config
	now   func() time.Time
}

// New creates a Handler with shared dependencies.
func New(pool DBPool, job ExpiryJob, c *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{
		pool:  pool,
		job:   job,
		cache: c,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status and the expiry schedule.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"name":    "Fridge Expiry Notifier API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"expiry": map[string]any{
			"schedule":      h.cfg.ExpirySchedule,
			"timezone":      h.cfg.ExpiryLocation.String(),
			"push_provider": h.cfg.PushProvider,
		},
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	var n int
	err := h.pool.QueryRow(r.Context(), "health_check").Scan(&n)
	if err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": h.now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}
