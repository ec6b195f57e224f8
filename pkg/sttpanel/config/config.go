package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the panel server.
type Config struct {
	Port        string
	DatabaseDSN string

	// Session
	JWTSecret    string
	CookieName   string
	CookieSecure bool

	// Bootstrap admin, optional. When both are set and no admin with
	// that email exists, one is created at startup.
	DefaultAdminEmail    string
	DefaultAdminPassword string

	LogLevel string
}

// Load reads configuration from environment variables and returns a
// validated Config. Returns an error if a required value is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 envString("PORT", "8080"),
		DatabaseDSN:          envString("DATABASE_DSN", "sttpanel.db"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		CookieName:           envString("AUTH_COOKIE_NAME", "sttpanel_session"),
		CookieSecure:         envBool("AUTH_COOKIE_SECURE", true),
		DefaultAdminEmail:    os.Getenv("DEFAULT_ADMIN_EMAIL"),
		DefaultAdminPassword: os.Getenv("DEFAULT_ADMIN_PASSWORD"),
		LogLevel:             envString("LOG_LEVEL", "info"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
