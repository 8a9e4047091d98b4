package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var _ Store = (*SQLStore)(nil)

// Dialect selects placeholder syntax.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

const schema = `CREATE TABLE IF NOT EXISTS document_cache (
	document_hash     TEXT PRIMARY KEY,
	file_name         TEXT NOT NULL DEFAULT '',
	file_size         BIGINT NOT NULL DEFAULT 0,
	total_pages       INTEGER NOT NULL DEFAULT 0,
	extraction_method TEXT NOT NULL DEFAULT '',
	confidence        DOUBLE PRECISION NOT NULL DEFAULT 0,
	structure         TEXT NOT NULL,
	cached_at         BIGINT NOT NULL,
	last_accessed     BIGINT NOT NULL,
	access_count      BIGINT NOT NULL DEFAULT 0
)`

const lastAccessedIndex = `CREATE INDEX IF NOT EXISTS document_cache_last_accessed ON document_cache (last_accessed)`

// SQLStore keeps entries in a document_cache table. Timestamps are stored
// as Unix milliseconds so both dialects share one schema.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	closer  func()
}

// NewSQLStore wraps an open database and creates the table if needed.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect}
	for _, stmt := range []string{schema, lastAccessedIndex} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("migrate document_cache: %w", err)
		}
	}
	return s, nil
}

// OpenPostgres connects through a pgx pool exposed as database/sql.
func OpenPostgres(ctx context.Context, dsn string, log *slog.Logger) (*SQLStore, error) {
	log.Info("connecting to cache database")
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pc.MaxConns = 10
	pc.MaxConnIdleTime = 5 * time.Minute
	pc.ConnConfig.RuntimeParams["application_name"] = "specscan"

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s, err := NewSQLStore(ctx, stdlib.OpenDBFromPool(pool), DialectPostgres)
	if err != nil {
		pool.Close()
		return nil, err
	}
	s.closer = pool.Close
	return s, nil
}

// OpenSQLite opens (or creates) a SQLite database file. ":memory:" gives a
// private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serializes writers; one connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	s, err := NewSQLStore(ctx, db, DialectSQLite)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// rebind rewrites ? placeholders for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Get(ctx context.Context, hash string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT document_hash, file_name, file_size, total_pages,
		structure, cached_at, last_accessed, access_count
		FROM document_cache WHERE document_hash = ?`), hash)

	var (
		e                    Entry
		structureJSON        string
		cachedAt, accessedAt int64
	)
	err := row.Scan(&e.DocumentHash, &e.FileName, &e.FileSize, &e.TotalPages,
		&structureJSON, &cachedAt, &accessedAt, &e.AccessCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cache entry: %w", err)
	}
	if err := json.Unmarshal([]byte(structureJSON), &e.Structure); err != nil {
		return nil, fmt.Errorf("decode cached structure: %w", err)
	}
	e.CachedAt = time.UnixMilli(cachedAt).UTC()
	e.LastAccessed = time.UnixMilli(accessedAt).UTC()
	return &e, nil
}

func (s *SQLStore) Upsert(ctx context.Context, e *Entry) error {
	structureJSON, err := json.Marshal(e.Structure)
	if err != nil {
		return fmt.Errorf("marshal structure: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO document_cache
		(document_hash, file_name, file_size, total_pages, extraction_method, confidence,
		 structure, cached_at, last_accessed, access_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (document_hash) DO UPDATE SET
			file_name = excluded.file_name,
			file_size = excluded.file_size,
			total_pages = excluded.total_pages,
			extraction_method = excluded.extraction_method,
			confidence = excluded.confidence,
			structure = excluded.structure,
			cached_at = excluded.cached_at`),
		e.DocumentHash, e.FileName, e.FileSize, e.TotalPages,
		string(e.Structure.ExtractionMethod), e.Structure.Confidence,
		string(structureJSON), e.CachedAt.UnixMilli(), e.LastAccessed.UnixMilli(), e.AccessCount,
	)
	if err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

func (s *SQLStore) Touch(ctx context.Context, hash string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE document_cache
		SET access_count = access_count + 1, last_accessed = ?
		WHERE document_hash = ?`), at.UnixMilli(), hash)
	if err != nil {
		return fmt.Errorf("touch cache entry: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) Delete(ctx context.Context, hash string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM document_cache WHERE document_hash = ?`), hash)
	if err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) Evict(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM document_cache WHERE last_accessed < ?`), cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("evict cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("evict cache entries: %w", err)
	}
	return int(n), nil
}

func (s *SQLStore) Close() error {
	err := s.db.Close()
	if s.closer != nil {
		s.closer()
	}
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
