package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

const (
	// Key prefixes for Redis
	entryPrefix = "specscan:cache:entry:"
	accessIndex = "specscan:cache:accessed"
)

// Hash fields of an entry key.
const (
	fieldEntry        = "entry"
	fieldAccessCount  = "access_count"
	fieldLastAccessed = "last_accessed"
)

// RedisStore keeps each entry in a hash and indexes hashes by last access
// time in a sorted set for eviction.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// OpenRedis connects using a redis:// URL.
func OpenRedis(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client), nil
}

func (s *RedisStore) Get(ctx context.Context, hash string) (*Entry, error) {
	fields, err := s.client.HGetAll(ctx, entryPrefix+hash).Result()
	if err != nil {
		return nil, fmt.Errorf("get cache entry: %w", err)
	}
	raw, ok := fields[fieldEntry]
	if !ok {
		return nil, ErrNotFound
	}
	e, err := decodeEntry([]byte(raw))
	if err != nil {
		return nil, err
	}
	if n, err := strconv.ParseInt(fields[fieldAccessCount], 10, 64); err == nil {
		e.AccessCount = n
	}
	if ms, err := strconv.ParseInt(fields[fieldLastAccessed], 10, 64); err == nil {
		e.LastAccessed = time.UnixMilli(ms).UTC()
	}
	return e, nil
}

// Upsert replaces the entry body. Access fields are only set when absent.
func (s *RedisStore) Upsert(ctx context.Context, e *Entry) error {
	body := *e
	body.AccessCount = 0
	body.LastAccessed = time.Time{}
	data, err := json.Marshal(&body)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	key := entryPrefix + e.DocumentHash
	accessed := e.LastAccessed.UnixMilli()
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fieldEntry, data)
	pipe.HSetNX(ctx, key, fieldAccessCount, e.AccessCount)
	pipe.HSetNX(ctx, key, fieldLastAccessed, accessed)
	pipe.ZAddNX(ctx, accessIndex, redis.Z{Score: float64(accessed), Member: e.DocumentHash})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

var touchScript = redis.NewScript(`
	if redis.call("exists", KEYS[1]) == 0 then
		return 0
	end
	redis.call("hincrby", KEYS[1], "access_count", 1)
	redis.call("hset", KEYS[1], "last_accessed", ARGV[1])
	redis.call("zadd", KEYS[2], ARGV[1], ARGV[2])
	return 1
`)

func (s *RedisStore) Touch(ctx context.Context, hash string, at time.Time) error {
	ms := at.UnixMilli()
	n, err := touchScript.Run(ctx, s.client, []string{entryPrefix + hash, accessIndex}, ms, hash).Int()
	if err != nil {
		return fmt.Errorf("touch cache entry: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, hash string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, entryPrefix+hash)
	pipe.ZRem(ctx, accessIndex, hash)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Evict(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.client.ZRangeByScore(ctx, accessIndex, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.UnixMilli(), 10),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("scan cache index: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	keys := make([]string, len(stale))
	members := make([]any, len(stale))
	for i, h := range stale {
		keys[i] = entryPrefix + h
		members[i] = h
	}
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, keys...)
	pipe.ZRem(ctx, accessIndex, members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("evict cache entries: %w", err)
	}
	return int(del.Val()), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
