package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/specscan/internal/structure"
)

func TestHashDocument(t *testing.T) {
	a := HashDocument("hello", 0)
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashDocument("hello", 0))
	assert.NotEqual(t, a, HashDocument("hello!", 0))

	prefix := strings.Repeat("x", 10)
	assert.Equal(t, HashDocument(prefix+"AAA", 10), HashDocument(prefix+"BBB", 10),
		"documents sharing the hashed prefix collide")
	assert.Equal(t, HashDocument(strings.Repeat("y", DefaultHashPrefix)+"tail", 0),
		HashDocument(strings.Repeat("y", DefaultHashPrefix), 0))
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(), nil)
	c.now = func() time.Time { return base }

	_, ok := c.Lookup(ctx, "h")
	assert.False(t, ok)

	require.True(t, c.Store(ctx, "h", Metadata{FileName: "a.pdf"}, sampleResult()))

	e, ok := c.Lookup(ctx, "h")
	require.True(t, ok)
	assert.Equal(t, structure.MethodTOC, e.Structure.ExtractionMethod)
	assert.Equal(t, 0.5, e.Structure.Confidence)
	assert.Equal(t, sampleResult().DivisionMap, e.Structure.DivisionMap)
	assert.Equal(t, int64(1), e.AccessCount)

	e, ok = c.Lookup(ctx, "h")
	require.True(t, ok)
	assert.Equal(t, int64(2), e.AccessCount)

	peek, err := c.Peek(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, int64(2), peek.AccessCount, "peek does not count")
}

func TestCacheSkipsEmptyMaps(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := New(store, nil)

	assert.False(t, c.Store(ctx, "h", Metadata{}, structure.Empty()))
	_, err := store.Get(ctx, "h")
	assert.ErrorIs(t, err, ErrNotFound)

	// An empty entry written by someone else is still a miss.
	empty := sampleEntry("h", base)
	empty.Structure.DivisionMap = structure.DivisionMap{}
	require.NoError(t, store.Upsert(ctx, empty))
	_, ok := c.Lookup(ctx, "h")
	assert.False(t, ok)
}

type brokenStore struct{ *MemoryStore }

var errBroken = errors.New("store down")

func (b *brokenStore) Get(context.Context, string) (*Entry, error) { return nil, errBroken }
func (b *brokenStore) Upsert(context.Context, *Entry) error      { return errBroken }

func TestCacheAbsorbsStoreErrors(t *testing.T) {
	ctx := context.Background()
	c := New(&brokenStore{NewMemoryStore()}, nil)

	_, ok := c.Lookup(ctx, "h")
	assert.False(t, ok)
	assert.False(t, c.Store(ctx, "h", Metadata{}, sampleResult()))
}

func TestCacheEvict(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(), nil)
	c.now = func() time.Time { return base.Add(-48 * time.Hour) }
	require.True(t, c.Store(ctx, "old", Metadata{}, sampleResult()))
	c.now = func() time.Time { return base }
	require.True(t, c.Store(ctx, "new", Metadata{}, sampleResult()))

	n, err := c.Evict(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = c.Peek(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, c.Delete(ctx, "new"))
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.DiscardHandler)

	s, err := OpenStore(ctx, Options{Backend: BackendMemory}, log)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = OpenStore(ctx, Options{Backend: BackendSQLite, SQLitePath: ":memory:"}, log)
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, s)
	require.NoError(t, s.Close())

	for _, opts := range []Options{
		{Backend: BackendPostgres},
		{Backend: BackendRedis},
		{Backend: BackendPathstore},
		{Backend: "mongo"},
	} {
		_, err := OpenStore(ctx, opts, log)
		assert.Error(t, err, opts.Backend)
	}
}
