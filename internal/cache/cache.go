// Package cache keeps structure analysis results keyed by a hash of the
// document text, so a re-submitted document skips structure analysis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/dgallion1/specscan/internal/structure"
)

// DefaultHashPrefix is how many leading bytes of a document are hashed.
// Documents that share this prefix share a cache entry.
const DefaultHashPrefix = 100000

var ErrNotFound = errors.New("cache entry not found")

// HashDocument returns the hex SHA-256 of the first prefixBytes bytes of
// text. A non-positive prefixBytes uses DefaultHashPrefix.
func HashDocument(text string, prefixBytes int) string {
	if prefixBytes <= 0 {
		prefixBytes = DefaultHashPrefix
	}
	if len(text) > prefixBytes {
		text = text[:prefixBytes]
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Metadata describes the source document of an entry.
type Metadata struct {
	FileName   string `json:"file_name"`
	FileSize   int64  `json:"file_size"`
	TotalPages int    `json:"total_pages"`
}

// Entry is one cached analysis.
type Entry struct {
	DocumentHash string           `json:"document_hash"`
	Metadata                      // file name, size, pages
	Structure    structure.Result `json:"structure"`
	CachedAt     time.Time        `json:"cached_at"`
	LastAccessed time.Time        `json:"last_accessed"`
	AccessCount  int64            `json:"access_count"`
}

// Store persists entries. Get, Touch and Delete return ErrNotFound for an
// unknown hash. Upsert replaces metadata and structure but keeps the access
// count of an existing entry.
type Store interface {
	Get(ctx context.Context, hash string) (*Entry, error)
	Upsert(ctx context.Context, e *Entry) error
	Touch(ctx context.Context, hash string, at time.Time) error
	Delete(ctx context.Context, hash string) error
	// Evict removes entries last accessed before cutoff.
	Evict(ctx context.Context, cutoff time.Time) (int, error)
	Close() error
}

// Cache applies the lookup and store policy on top of a Store. Store
// failures never reach the caller of Lookup or Store.
type Cache struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func New(store Store, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Cache{store: store, log: log, now: time.Now}
}

// Lookup returns a usable entry for hash. Read errors and entries with an
// empty division map are misses. A hit increments the access count.
func (c *Cache) Lookup(ctx context.Context, hash string) (*Entry, bool) {
	log := c.log.With("doc_hash", hash)
	e, err := c.store.Get(ctx, hash)
	if errors.Is(err, ErrNotFound) {
		log.Debug("cache miss")
		return nil, false
	}
	if err != nil {
		log.Warn("cache read failed", "error", err)
		return nil, false
	}
	if len(e.Structure.DivisionMap) == 0 {
		log.Info("cache entry has empty division map, ignoring")
		return nil, false
	}

	now := c.now()
	if err := c.store.Touch(ctx, hash, now); err != nil {
		log.Warn("cache touch failed", "error", err)
	} else {
		e.AccessCount++
		e.LastAccessed = now
	}
	log.Info("cache hit", "method", e.Structure.ExtractionMethod, "access_count", e.AccessCount)
	return e, true
}

// Store writes result under hash. Results without divisions are skipped.
// It reports whether the entry was written.
func (c *Cache) Store(ctx context.Context, hash string, meta Metadata, result structure.Result) bool {
	log := c.log.With("doc_hash", hash)
	if len(result.DivisionMap) == 0 {
		log.Debug("not caching empty structure")
		return false
	}
	now := c.now()
	err := c.store.Upsert(ctx, &Entry{
		DocumentHash: hash,
		Metadata:     meta,
		Structure:    result,
		CachedAt:     now,
		LastAccessed: now,
	})
	if err != nil {
		log.Warn("cache write failed", "error", err)
		return false
	}
	log.Info("cached structure", "method", result.ExtractionMethod, "divisions", len(result.DivisionMap))
	return true
}

// Peek returns an entry without counting an access.
func (c *Cache) Peek(ctx context.Context, hash string) (*Entry, error) {
	return c.store.Get(ctx, hash)
}

func (c *Cache) Delete(ctx context.Context, hash string) error {
	return c.store.Delete(ctx, hash)
}

// Evict removes entries not accessed within maxAge.
func (c *Cache) Evict(ctx context.Context, maxAge time.Duration) (int, error) {
	n, err := c.store.Evict(ctx, c.now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.log.Info("evicted cache entries", "count", n, "max_age", maxAge.String())
	}
	return n, nil
}

func (c *Cache) Close() error {
	return c.store.Close()
}
