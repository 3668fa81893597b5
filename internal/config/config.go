// Package config handles loading and validating configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration values for the Solguard engine.
type Config struct {
	// Chain gateway
	GatewayURL string
	FeedWSURL  string

	// Pass scheduling
	ScanInterval  time.Duration
	ScoreInterval time.Duration

	// Risk policy
	MinProfitSOL   float64
	RiskThreshold  int
	PriceDepth     int
	TokenLimit     int
	BorrowerLimit  int
	TradeLimit     int
	ParallelLimit  int

	// Profile cache
	ProfileCooldown time.Duration
	ProfileMaxAge   time.Duration
	ProfileMaxSize  int

	// Database (optional; in-memory ledger when unset)
	DatabaseURL string

	// HTTP API
	HTTPPort int

	// UI
	EnableTUI     bool
	UIRefreshRate time.Duration

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables with fallback to .env file.
// Priority order: Environment variables > .env file > hardcoded defaults
func Load() (*Config, error) {
	// Attempt to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		// Gateway
		GatewayURL: getEnv("RPC_GATEWAY_URL", ""),
		FeedWSURL:  getEnv("FEED_WS_URL", ""),

		// Scheduling
		ScanInterval:  time.Duration(getEnvInt("SCAN_INTERVAL_SECONDS", 120)) * time.Second,
		ScoreInterval: time.Duration(getEnvInt("SCORE_INTERVAL_SECONDS", 15)) * time.Second,

		// Risk policy
		MinProfitSOL:  getEnvFloat("MIN_PROFIT_SOL", 0.01),
		RiskThreshold: getEnvInt("RISK_ALERT_THRESHOLD", 70),
		PriceDepth:    getEnvInt("PRICE_HISTORY_DEPTH", 20),
		TokenLimit:    getEnvInt("TOKEN_FETCH_LIMIT", 100),
		BorrowerLimit: getEnvInt("BORROWER_FETCH_LIMIT", 50),
		TradeLimit:    getEnvInt("TRADE_FETCH_LIMIT", 100),
		ParallelLimit: getEnvInt("LIQUIDATION_PARALLELISM", 1),

		// Profile cache
		ProfileCooldown: time.Duration(getEnvInt("PROFILE_COOLDOWN_SECONDS", 300)) * time.Second,
		ProfileMaxAge:   time.Duration(getEnvInt("PROFILE_CACHE_MAX_AGE_SECONDS", 900)) * time.Second,
		ProfileMaxSize:  getEnvInt("PROFILE_CACHE_MAX_ENTRIES", 1000),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// HTTP
		HTTPPort: getEnvInt("HTTP_PORT", 8080),

		// UI
		EnableTUI:     getEnvBool("ENABLE_TUI", false),
		UIRefreshRate: time.Duration(getEnvInt("UI_REFRESH_MS", 500)) * time.Millisecond,

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set and valid.
func (c *Config) Validate() error {
	if c.GatewayURL == "" {
		return fmt.Errorf("RPC_GATEWAY_URL is required")
	}

	if c.ScanInterval < time.Second {
		return fmt.Errorf("SCAN_INTERVAL_SECONDS must be at least 1")
	}

	if c.ScoreInterval < time.Second {
		return fmt.Errorf("SCORE_INTERVAL_SECONDS must be at least 1")
	}

	if c.MinProfitSOL < 0 {
		return fmt.Errorf("MIN_PROFIT_SOL must not be negative")
	}

	if c.RiskThreshold < 0 || c.RiskThreshold > 100 {
		return fmt.Errorf("RISK_ALERT_THRESHOLD must be between 0 and 100")
	}

	if c.PriceDepth < 2 {
		return fmt.Errorf("PRICE_HISTORY_DEPTH must be at least 2")
	}

	if c.ProfileMaxSize < 1 {
		return fmt.Errorf("PROFILE_CACHE_MAX_ENTRIES must be at least 1")
	}

	if c.ParallelLimit < 1 {
		return fmt.Errorf("LIQUIDATION_PARALLELISM must be at least 1")
	}

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}

	return nil
}

// MinProfitLamports converts the configured SOL threshold into lamports.
func (c *Config) MinProfitLamports() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitSOL).
		Mul(decimal.NewFromInt(1_000_000_000)).Floor()
}

// MaskedDatabaseURL returns the connection string with most characters hidden for logging.
func (c *Config) MaskedDatabaseURL() string {
	return maskSecret(c.DatabaseURL)
}

// maskSecret hides all but the first and last 4 characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 8 {
		if len(s) == 0 {
			return "(not set)"
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat retrieves an environment variable as a float64 or returns a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean or returns a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
