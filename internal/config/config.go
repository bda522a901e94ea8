// ABOUTME: Centralized configuration for the marginalia CLI and MCP server
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/marginalia/internal/storage/sqlite"
)

// Config holds all configuration for marginalia
type Config struct {
	// Storage settings
	DBPath string

	// Charm settings
	CharmHost   string
	CharmDBName string

	// OpenAI settings
	OpenAIKey  string
	ChatModel  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// Search settings
	SearchLimit int

	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:      getEnv("MARGINALIA_DB_PATH", sqlite.DefaultDBPath()),
		CharmHost:   getEnv("CHARM_HOST", "cloud.charm.sh"),
		CharmDBName: getEnv("CHARM_DB", "marginalia"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		ChatModel:   getEnv("MARGINALIA_OPENAI_MODEL", "gpt-4o-mini"),
		Timeout:     getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:  getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:  getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		SearchLimit: getEnvInt("MARGINALIA_SEARCH_LIMIT", sqlite.DefaultSearchLimit),
		LogLevel:    strings.ToLower(getEnv("MARGINALIA_LOG_LEVEL", "info")),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.SearchLimit < 1 || c.SearchLimit > sqlite.MaxSearchLimit {
		return fmt.Errorf("MARGINALIA_SEARCH_LIMIT must be 1-%d, got %d", sqlite.MaxSearchLimit, c.SearchLimit)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("OPENAI_TIMEOUT must be positive, got %v", c.Timeout)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("MARGINALIA_LOG_LEVEL: %w", err)
	}
	return nil
}

// Level returns the parsed log level, falling back to info
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// HasOpenAI reports whether an API key is configured
func (c *Config) HasOpenAI() bool {
	return c.OpenAIKey != ""
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
