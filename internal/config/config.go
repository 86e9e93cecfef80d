package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"billingdash/internal/logger"
)

type Config struct {
	// Billing API Configuration
	APIBaseURL string
	APITimeout time.Duration

	// Invoice List Defaults
	PageSize int

	// Query Cache Configuration
	StaleTime time.Duration
	GCTime    time.Duration

	// UI Preferences Storage
	PrefsPath string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		APIBaseURL:    getEnv("BILLING_API_BASE_URL", ""),
		APITimeout:    getDurationEnv("BILLING_API_TIMEOUT", 30*time.Second),
		PageSize:      getIntEnv("INVOICE_PAGE_SIZE", 20),
		StaleTime:     getDurationEnv("QUERY_STALE_TIME", 10*time.Minute),
		GCTime:        getDurationEnv("QUERY_GC_TIME", 60*time.Minute),
		PrefsPath:     getEnv("PREFS_PATH", defaultPrefsPath()),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		LogTimeFormat: getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:     getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("BILLING_API_BASE_URL is required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("INVOICE_PAGE_SIZE must be positive")
	}
	if c.StaleTime < 0 || c.GCTime < 0 {
		return fmt.Errorf("cache times must not be negative")
	}
	if c.GCTime > 0 && c.GCTime < c.StaleTime {
		return fmt.Errorf("QUERY_GC_TIME must be at least QUERY_STALE_TIME")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func defaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "billingdash-prefs.json"
	}
	return filepath.Join(dir, "billingdash", "prefs.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
