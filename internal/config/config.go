package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/specscan/internal/cache"
	"github.com/dgallion1/specscan/internal/classify"
	"github.com/dgallion1/specscan/internal/extract"
	"github.com/dgallion1/specscan/internal/parser"
	"github.com/dgallion1/specscan/internal/pipeline"
	"github.com/dgallion1/specscan/internal/tiler"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Classifier / extraction model
	Provider        string
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string

	// Tiling
	TileBudget  int
	TileOverlap int

	// Tile scan
	ScanBatchSize   int
	ScanBatchDelay  time.Duration
	ScanAttempts    int
	ScanRetryDelay  time.Duration
	ScanCallTimeout time.Duration

	// Document cache
	CacheBackend    string
	CacheHashPrefix int
	CacheMaxAge     time.Duration
	DatabaseURL     string
	SQLitePath      string
	RedisURL        string
	PathstoreURL    string
	PathstoreAPIKey string

	// Division catalog override (YAML)
	CatalogFile string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("SPECSCAN_API_KEY"),

		Provider:        envOr("CLASSIFIER_PROVIDER", extract.ProviderAnthropic),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     envOr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),

		TileBudget:  envInt("TILE_BUDGET", tiler.DefaultBudget),
		TileOverlap: envInt("TILE_OVERLAP", tiler.DefaultOverlap),

		ScanBatchSize:   envInt("SCAN_BATCH_SIZE", 5),
		ScanBatchDelay:  envDuration("SCAN_BATCH_DELAY", time.Second),
		ScanAttempts:    envInt("SCAN_ATTEMPTS", 2),
		ScanRetryDelay:  envDuration("SCAN_RETRY_DELAY", 500*time.Millisecond),
		ScanCallTimeout: envDuration("SCAN_CALL_TIMEOUT", 90*time.Second),

		CacheBackend:    envOr("CACHE_BACKEND", cache.BackendMemory),
		CacheHashPrefix: envInt("CACHE_HASH_PREFIX", cache.DefaultHashPrefix),
		CacheMaxAge:     envDuration("CACHE_MAX_AGE", 30*24*time.Hour),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SQLitePath:      envOr("SQLITE_PATH", "specscan-cache.db"),
		RedisURL:        os.Getenv("REDIS_URL"),
		PathstoreURL:    envOr("PATHSTORE_URL", "http://localhost:8080"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),

		CatalogFile: os.Getenv("CATALOG_FILE"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 104857600), // 100MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 104857600
	}
	if cfg.CacheHashPrefix <= 0 {
		cfg.CacheHashPrefix = cache.DefaultHashPrefix
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks that the selected provider and cache backend have the
// settings they need.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("SPECSCAN_API_KEY is required")
	}
	switch c.Provider {
	case extract.ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
	case extract.ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	default:
		return fmt.Errorf("CLASSIFIER_PROVIDER must be %q or %q, got %q", extract.ProviderAnthropic, extract.ProviderOpenAI, c.Provider)
	}
	switch c.CacheBackend {
	case cache.BackendMemory, cache.BackendSQLite:
	case cache.BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres cache")
		}
	case cache.BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis cache")
		}
	case cache.BackendPathstore:
		if c.PathstoreAPIKey == "" {
			return fmt.Errorf("PATHSTORE_API_KEY is required for the pathstore cache")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.TileOverlap >= c.TileBudget {
		return fmt.Errorf("TILE_OVERLAP (%d) must be smaller than TILE_BUDGET (%d)", c.TileOverlap, c.TileBudget)
	}
	return nil
}

// LLM returns the model client settings.
func (c Config) LLM() extract.Options {
	return extract.Options{
		Provider:       c.Provider,
		AnthropicKey:   c.AnthropicAPIKey,
		AnthropicModel: c.AnthropicModel,
		OpenAIKey:      c.OpenAIAPIKey,
		OpenAIModel:    c.OpenAIModel,
		OpenAIBaseURL:  c.OpenAIBaseURL,
		Timeout:        c.ScanCallTimeout,
	}
}

func (c Config) Tiles() tiler.Config {
	return tiler.Config{Budget: c.TileBudget, Overlap: c.TileOverlap}
}

func (c Config) Scan() classify.Config {
	return classify.Config{
		BatchSize:   c.ScanBatchSize,
		BatchDelay:  c.ScanBatchDelay,
		Attempts:    c.ScanAttempts,
		RetryDelay:  c.ScanRetryDelay,
		CallTimeout: c.ScanCallTimeout,
	}
}

func (c Config) Cache() cache.Options {
	return cache.Options{
		Backend:         c.CacheBackend,
		DatabaseURL:     c.DatabaseURL,
		SQLitePath:      c.SQLitePath,
		RedisURL:        c.RedisURL,
		PathstoreURL:    c.PathstoreURL,
		PathstoreAPIKey: c.PathstoreAPIKey,
	}
}

func (c Config) Jobs() pipeline.OrchestratorConfig {
	return pipeline.OrchestratorConfig{
		WorkerCount:  c.WorkerCount,
		MaxQueueSize: c.MaxQueueSize,
		JobTTL:       c.JobTTL,
		CacheMaxAge:  c.CacheMaxAge,
		Parser:       parser.Options{FallbackPdftotext: c.PDFFallbackPdftotext},
	}
}

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

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
