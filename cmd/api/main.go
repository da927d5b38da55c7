// Command api is the fridge expiry notifier: it runs the scheduled expiry
// pass and serves the status/registration API.
//
// Usage:
//
//	fridge-api
//	API_PORT=8080 EXPIRY_CRON="*/5 * * * *" fridge-api

// @title Fridge Expiry Notifier API
// @version 1.0.0
// @description Scheduled expiry warnings for shared fridges, device token registration and pass status.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @contact.name Convenient Market
// @license.name MIT
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/30sweetener09/convenient-market-app-sub000/internal/api"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/cache"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/config"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/db"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/expiry"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/push"

	_ "github.com/30sweetener09/convenient-market-app-sub000/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Push delivery
	sender, err := push.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize push provider", "provider", cfg.PushProvider, "error", err)
		os.Exit(1)
	}
	logger.Info("Push provider ready", "provider", cfg.PushProvider)

	// Expiry job + scheduler
	store := expiry.NewStore(pool.Pool)
	job := expiry.NewJob(expiry.JobConfig{
		Items:   store,
		Members: store,
		Sender:  sender,
		Retry: expiry.RetryPolicy{
			MaxAttempts:    cfg.RetryAttempts,
			InitialBackoff: cfg.RetryBackoff,
			MaxBackoff:     cfg.RetryMaxBackoff,
		},
		Location: cfg.ExpiryLocation,
		Logger:   logger,
	})
	sched, err := expiry.NewScheduler(cfg.ExpirySchedule, job, cfg.ExpirySkipOverlap, cfg.ExpiryLocation, logger)
	if err != nil {
		logger.Error("Invalid expiry schedule", "schedule", cfg.ExpirySchedule, "error", err)
		os.Exit(1)
	}
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := sched.Start(ctx); err != nil {
			logger.Error("Expiry scheduler failed", "error", err)
		}
	}()

	// Response cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Create router
	router := api.NewRouter(api.Deps{Pool: pool.Pool, Job: job, Cache: appCache, Cfg: cfg})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute, // POST /expiry/run is synchronous
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Fridge Expiry Notifier API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}

	select {
	case <-schedDone:
	case <-shutdownCtx.Done():
		logger.Warn("Expiry pass still running at shutdown")
	}
	logger.Info("Server stopped")
}
