// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Admission settings
	AdminToken    string // authorizes account provisioning; empty disables the admin surface
	RateLimitRPM  int    // per-minute ceiling for registered API keys
	DemoKey       string // raw key for the shared demo identity (optional)
	DemoEnabled   bool   // provision the demo identity at startup
	MaxRequestKB  int64  // request body cap for the scoring endpoint
	OTLPEndpoint  string // OTLP gRPC collector address (optional, tracing is no-op without it)

	// Scoring thresholds (overridable for tuning; zero values fall back
	// to the built-in defaults)
	HighAmountThreshold float64
	VelocityLimit       int
}

const (
	DefaultPort         = "8080"
	DefaultEnv          = "development"
	DefaultLogLevel     = "info"
	DefaultRateLimitRPM = 60
	DefaultMaxRequestKB = 64
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", DefaultPort),
		Env:                 getEnv("ENV", DefaultEnv),
		LogLevel:            getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:         os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		AdminToken:          os.Getenv("ADMIN_TOKEN"),
		RateLimitRPM:        int(getEnvInt64("RATE_LIMIT_RPM", DefaultRateLimitRPM)),
		DemoKey:             os.Getenv("DEMO_API_KEY"),
		DemoEnabled:         getEnvBool("DEMO_ENABLED", false),
		MaxRequestKB:        getEnvInt64("MAX_REQUEST_KB", DefaultMaxRequestKB),
		OTLPEndpoint:        os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		HighAmountThreshold: getEnvFloat("HIGH_AMOUNT_THRESHOLD", 0),
		VelocityLimit:       int(getEnvInt64("VELOCITY_LIMIT", 0)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be positive")
	}
	if c.MaxRequestKB <= 0 {
		return fmt.Errorf("MAX_REQUEST_KB must be positive")
	}
	if c.DemoEnabled && c.DemoKey == "" {
		return fmt.Errorf("DEMO_API_KEY is required when DEMO_ENABLED is set")
	}
	if c.HighAmountThreshold < 0 {
		return fmt.Errorf("HIGH_AMOUNT_THRESHOLD must not be negative")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
