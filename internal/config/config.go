// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/server and cmd/watchctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is populated from environment variables by Load.
type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// HTTP server
	Host        string
	Port        int
	Environment string // development, staging, production

	// CORS
	CORSAllowOrigins []string

	// Inbound rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Watch engine
	CheckInterval time.Duration // per-watcher cycle interval

	// Remote endpoint (navstevalekara.sk); overridable for development
	RemoteBaseURL    string
	RemoteReqsPerMin int

	// Mailjet (email notifications); all three keys required for the email channel
	MailjetAPIKey      string
	MailjetSecretKey   string
	MailjetSenderEmail string
	MailjetSenderName  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		Host:        envOr("HOST", "0.0.0.0"),
		Port:        envInt("PORT", 8000),
		Environment: envOr("ENVIRONMENT", "development"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{"*"}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CheckInterval: time.Duration(envInt("CHECK_INTERVAL_MINUTES", 5)) * time.Minute,

		RemoteBaseURL:    envOr("REMOTE_BASE_URL", "https://www.navstevalekara.sk"),
		RemoteReqsPerMin: envInt("REMOTE_REQUESTS_PER_MINUTE", 30),

		MailjetAPIKey:      envOr("MAILJET_API_KEY", ""),
		MailjetSecretKey:   envOr("MAILJET_SECRET_KEY", ""),
		MailjetSenderEmail: envOr("MAILJET_SENDER_EMAIL", ""),
		MailjetSenderName:  envOr("MAILJET_SENDER_NAME", "Doctor Appointment Watcher"),
	}, nil
}

// MailjetConfigured reports whether the email channel can be used at all.
func (c *Config) MailjetConfigured() bool {
	return c.MailjetAPIKey != "" && c.MailjetSecretKey != "" && c.MailjetSenderEmail != ""
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
