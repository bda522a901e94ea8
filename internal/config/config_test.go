// ABOUTME: Tests for centralized configuration system
// ABOUTME: Verifies environment variable parsing and validation
package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

var configEnv = []string{
	"MARGINALIA_DB_PATH", "CHARM_HOST", "CHARM_DB", "OPENAI_API_KEY", "MARGINALIA_OPENAI_MODEL",
	"OPENAI_TIMEOUT", "OPENAI_MAX_RETRIES", "OPENAI_RETRY_DELAY", "MARGINALIA_SEARCH_LIMIT",
	"MARGINALIA_LOG_LEVEL",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("XDG_DATA_HOME", "/tmp/marginalia-config-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DBPath != filepath.Join("/tmp/marginalia-config-test", "marginalia", "marginalia.db") {
		t.Errorf("DBPath = %s, want XDG default", cfg.DBPath)
	}
	if cfg.CharmHost != "cloud.charm.sh" {
		t.Errorf("CharmHost = %s, want cloud.charm.sh", cfg.CharmHost)
	}
	if cfg.CharmDBName != "marginalia" {
		t.Errorf("CharmDBName = %s, want marginalia", cfg.CharmDBName)
	}
	if cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("ChatModel = %s, want gpt-4o-mini", cfg.ChatModel)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 2*time.Second {
		t.Errorf("RetryDelay = %v, want 2s", cfg.RetryDelay)
	}
	if cfg.SearchLimit != 10 {
		t.Errorf("SearchLimit = %d, want 10", cfg.SearchLimit)
	}
	if cfg.Level() != log.InfoLevel {
		t.Errorf("Level() = %v, want info", cfg.Level())
	}
	if cfg.HasOpenAI() {
		t.Error("HasOpenAI() = true without a key")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("MARGINALIA_DB_PATH", "/data/library.db")
	t.Setenv("CHARM_HOST", "custom.charm.sh")
	t.Setenv("CHARM_DB", "test_db")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("MARGINALIA_OPENAI_MODEL", "gpt-4")
	t.Setenv("OPENAI_TIMEOUT", "60s")
	t.Setenv("OPENAI_MAX_RETRIES", "5")
	t.Setenv("OPENAI_RETRY_DELAY", "3s")
	t.Setenv("MARGINALIA_SEARCH_LIMIT", "25")
	t.Setenv("MARGINALIA_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DBPath != "/data/library.db" {
		t.Errorf("DBPath = %s, want /data/library.db", cfg.DBPath)
	}
	if cfg.CharmHost != "custom.charm.sh" {
		t.Errorf("CharmHost = %s, want custom.charm.sh", cfg.CharmHost)
	}
	if cfg.CharmDBName != "test_db" {
		t.Errorf("CharmDBName = %s, want test_db", cfg.CharmDBName)
	}
	if !cfg.HasOpenAI() || cfg.OpenAIKey != "test-key" {
		t.Errorf("OpenAIKey = %s, want test-key", cfg.OpenAIKey)
	}
	if cfg.ChatModel != "gpt-4" {
		t.Errorf("ChatModel = %s, want gpt-4", cfg.ChatModel)
	}
	if cfg.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s", cfg.Timeout)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 3*time.Second {
		t.Errorf("RetryDelay = %v, want 3s", cfg.RetryDelay)
	}
	if cfg.SearchLimit != 25 {
		t.Errorf("SearchLimit = %d, want 25", cfg.SearchLimit)
	}
	if cfg.Level() != log.DebugLevel {
		t.Errorf("Level() = %v, want debug", cfg.Level())
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("OPENAI_MAX_RETRIES", "many")
	t.Setenv("OPENAI_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want default 3", cfg.MaxRetries)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want default 30s", cfg.Timeout)
	}
}

func validConfig() *Config {
	return &Config{MaxRetries: 3, SearchLimit: 10, Timeout: time.Second, LogLevel: "info"}
}

func TestValidate_InvalidMaxRetries(t *testing.T) {
	cfg := validConfig()
	cfg.MaxRetries = 15
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail for MaxRetries > 10")
	}

	cfg.MaxRetries = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail for MaxRetries < 0")
	}
}

func TestValidate_SearchLimit(t *testing.T) {
	tests := []struct {
		limit   int
		wantErr bool
	}{
		{0, true},
		{1, false},
		{100, false},
		{101, true},
	}

	for _, tt := range tests {
		cfg := validConfig()
		cfg.SearchLimit = tt.limit
		err := cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate() with SearchLimit=%d error = %v, wantErr %v", tt.limit, err, tt.wantErr)
		}
	}
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "chatty"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail for an unknown log level")
	}
}
