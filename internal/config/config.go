// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/notifier.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	// DefaultExpirySchedule fires the expiry pass every 2 minutes.
	DefaultExpirySchedule = "*/2 * * * *"

	PushProviderFCM = "fcm"
	PushProviderSNS = "sns"
	PushProviderLog = "log"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database (the platform's Postgres)
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Response cache
	CacheEnabled bool

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Auth (tokens issued by the platform's auth service)
	SupabaseJWTSecret string

	// Expiry job
	ExpirySchedule    string
	ExpiryLocation    *time.Location
	ExpirySkipOverlap bool
	RetryAttempts     int
	RetryBackoff      time.Duration
	RetryMaxBackoff   time.Duration

	// Push delivery
	PushProvider              string // fcm, sns, log
	FCMCredentialsFile        string
	FCMProjectID              string
	AWSRegion                 string
	SNSPlatformApplicationARN string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("SUPABASE_DB_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or SUPABASE_DB_URL must be set")
	}

	tz := envOr("EXPIRY_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("EXPIRY_TIMEZONE %q: %w", tz, err)
	}

	fcmCreds := envOr("FIREBASE_CREDENTIALS_FILE", "")
	defaultProvider := PushProviderLog
	if fcmCreds != "" {
		defaultProvider = PushProviderFCM
	}
	provider := strings.ToLower(envOr("PUSH_PROVIDER", defaultProvider))
	switch provider {
	case PushProviderFCM, PushProviderSNS, PushProviderLog:
	default:
		return nil, fmt.Errorf("PUSH_PROVIDER must be one of fcm, sns, log (got %q)", provider)
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 5),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		CacheEnabled: envBool("CACHE_ENABLED", true),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		SupabaseJWTSecret: envOr("SUPABASE_JWT_SECRET", ""),

		ExpirySchedule:    envOr("EXPIRY_CRON", DefaultExpirySchedule),
		ExpiryLocation:    loc,
		ExpirySkipOverlap: envBool("EXPIRY_SKIP_OVERLAP", false),
		RetryAttempts:     envInt("EXPIRY_RETRY_ATTEMPTS", 1),
		RetryBackoff:      envDurationMS("EXPIRY_RETRY_BACKOFF_MS", 500*time.Millisecond),
		RetryMaxBackoff:   envDurationMS("EXPIRY_RETRY_MAX_BACKOFF_MS", 10*time.Second),

		PushProvider:              provider,
		FCMCredentialsFile:        fcmCreds,
		FCMProjectID:              envOr("FIREBASE_PROJECT_ID", ""),
		AWSRegion:                 envOr("AWS_REGION", "ap-southeast-1"),
		SNSPlatformApplicationARN: envOr("SNS_PLATFORM_APPLICATION_ARN", ""),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envDurationMS(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
