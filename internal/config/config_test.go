package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SPECSCAN_API_KEY", "k")
	t.Setenv("ANTHROPIC_API_KEY", "a")
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("SCAN_BATCH_DELAY", "not-a-duration")

	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Port != "8090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("WorkerCount = %d, want fallback 2", cfg.WorkerCount)
	}
	if cfg.ScanBatchDelay != time.Second {
		t.Errorf("ScanBatchDelay = %v, want 1s", cfg.ScanBatchDelay)
	}
	if got := cfg.Tiles(); got.Budget != 50000 || got.Overlap != 5000 {
		t.Errorf("Tiles() = %+v", got)
	}
	if got := cfg.Scan(); got.BatchSize != 5 || got.Attempts != 2 {
		t.Errorf("Scan() = %+v", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CLASSIFIER_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "o")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SCAN_BATCH_SIZE", "8")
	t.Setenv("CACHE_MAX_AGE", "72h")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg := Load()
	if cfg.ScanBatchSize != 8 {
		t.Errorf("ScanBatchSize = %d", cfg.ScanBatchSize)
	}
	if cfg.Jobs().CacheMaxAge != 72*time.Hour {
		t.Errorf("CacheMaxAge = %v", cfg.Jobs().CacheMaxAge)
	}
	if cfg.Jobs().Parser.FallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
	if got := cfg.LLM(); got.Provider != "openai" || got.OpenAIKey != "o" {
		t.Errorf("LLM() = %+v", got)
	}
	if got := cfg.Cache(); got.Backend != "redis" || got.RedisURL == "" {
		t.Errorf("Cache() = %+v", got)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		APIKey:          "k",
		Provider:        "anthropic",
		AnthropicAPIKey: "a",
		CacheBackend:    "memory",
		TileBudget:      50000,
		TileOverlap:     5000,
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ok", func(*Config) {}, ""},
		{"missing api key", func(c *Config) { c.APIKey = "" }, "SPECSCAN_API_KEY"},
		{"missing anthropic key", func(c *Config) { c.AnthropicAPIKey = "" }, "ANTHROPIC_API_KEY"},
		{"missing openai key", func(c *Config) { c.Provider = "openai" }, "OPENAI_API_KEY"},
		{"unknown provider", func(c *Config) { c.Provider = "cohere" }, "CLASSIFIER_PROVIDER"},
		{"postgres without url", func(c *Config) { c.CacheBackend = "postgres" }, "DATABASE_URL"},
		{"redis without url", func(c *Config) { c.CacheBackend = "redis" }, "REDIS_URL"},
		{"pathstore without key", func(c *Config) { c.CacheBackend = "pathstore" }, "PATHSTORE_API_KEY"},
		{"unknown backend", func(c *Config) { c.CacheBackend = "mongo" }, "CACHE_BACKEND"},
		{"overlap too large", func(c *Config) { c.TileOverlap = 50000 }, "TILE_OVERLAP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}
