package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/specscan/internal/pathstore"
)

// Backend names accepted by OpenStore.
const (
	BackendMemory    = "memory"
	BackendPathstore = "pathstore"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendRedis     = "redis"
)

// Options selects and configures a Store.
type Options struct {
	Backend         string
	DatabaseURL     string
	SQLitePath      string
	RedisURL        string
	PathstoreURL    string
	PathstoreAPIKey string
}

// OpenStore connects the configured backend.
func OpenStore(ctx context.Context, opts Options, log *slog.Logger) (Store, error) {
	log = log.With("backend", opts.Backend)
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendPathstore:
		if opts.PathstoreURL == "" {
			return nil, fmt.Errorf("pathstore backend requires a url")
		}
		return NewPathstoreStore(pathstore.NewClient(opts.PathstoreURL, opts.PathstoreAPIKey)), nil
	case BackendPostgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres backend requires a database url")
		}
		return OpenPostgres(ctx, opts.DatabaseURL, log)
	case BackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = "specscan-cache.db"
		}
		log.Info("opening sqlite cache", "path", path)
		return OpenSQLite(ctx, path)
	case BackendRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("redis backend requires a url")
		}
		return OpenRedis(ctx, opts.RedisURL)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
