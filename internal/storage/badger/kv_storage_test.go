package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/megadodo/guide/internal/interfaces"
)

// fakeClock lets tests move time past a TTL without sleeping.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func openTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	options := badgerhold.DefaultOptions
	options.Dir = t.TempDir()
	options.ValueDir = options.Dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store, logger: arbor.NewLogger()}
}

func TestKVNamespacePutGet(t *testing.T) {
	db := openTestDB(t)
	clock := &fakeClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	ns := NewKVNamespace(db, "articles", clock, arbor.NewLogger())
	ctx := context.Background()

	_, err := ns.Get(ctx, "babel-fish")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)

	require.NoError(t, ns.Put(ctx, "babel-fish", "a remarkable creature", 0))

	value, err := ns.Get(ctx, "babel-fish")
	require.NoError(t, err)
	assert.Equal(t, "a remarkable creature", value)
}

func TestKVNamespaceTTLLapse(t *testing.T) {
	db := openTestDB(t)
	clock := &fakeClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	ns := NewKVNamespace(db, "usage", clock, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, ns.Put(ctx, "2024-06-01", `{"totalTokens":42}`, 24*time.Hour))

	// Inside the window the record is visible
	clock.Advance(23 * time.Hour)
	_, err := ns.Get(ctx, "2024-06-01")
	require.NoError(t, err)

	// At exactly the boundary the record reads as absent
	clock.Advance(time.Hour)
	_, err = ns.Get(ctx, "2024-06-01")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
}

func TestKVNamespaceRewriteExtendsTTL(t *testing.T) {
	db := openTestDB(t)
	clock := &fakeClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	ns := NewKVNamespace(db, "usage", clock, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, ns.Put(ctx, "2024-06-01", "first", 24*time.Hour))
	clock.Advance(12 * time.Hour)
	require.NoError(t, ns.Put(ctx, "2024-06-01", "second", 24*time.Hour))

	// 30h after the first write, 18h after the second: still live
	clock.Advance(18 * time.Hour)
	value, err := ns.Get(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, "second", value)
}

func TestKVNamespaceIsolation(t *testing.T) {
	db := openTestDB(t)
	clock := &fakeClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	articles := NewKVNamespace(db, "articles", clock, arbor.NewLogger())
	searches := NewKVNamespace(db, "searches", clock, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, articles.Put(ctx, "tea", "article about tea", 0))

	_, err := searches.Get(ctx, "tea")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)

	entries, err := searches.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestKVNamespaceListSkipsExpired(t *testing.T) {
	db := openTestDB(t)
	clock := &fakeClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	ns := NewKVNamespace(db, "articles", clock, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, ns.Put(ctx, "permanent", "stays", 0))
	require.NoError(t, ns.Put(ctx, "ephemeral", "goes", time.Hour))

	clock.Advance(2 * time.Hour)

	entries, err := ns.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "permanent", entries[0].Name)
	require.NotNil(t, entries[0].Metadata)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC).Unix(), entries[0].Metadata.Uploaded)
}

func TestKVNamespacePurgeExpired(t *testing.T) {
	db := openTestDB(t)
	clock := &fakeClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	ns := NewKVNamespace(db, "indices", clock, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, ns.Put(ctx, "articles", "[]", time.Hour))
	require.NoError(t, ns.Put(ctx, "searches", "[]", 48*time.Hour))

	clock.Advance(2 * time.Hour)

	purged, err := ns.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = ns.Get(ctx, "searches")
	assert.NoError(t, err)
}

func TestKVNamespaceJSONRoundTrip(t *testing.T) {
	db := openTestDB(t)
	clock := &fakeClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	ns := NewKVNamespace(db, "usage", clock, arbor.NewLogger())
	ctx := context.Background()

	type payload struct {
		Count int `json:"count"`
	}

	require.NoError(t, ns.PutJSON(ctx, "k", payload{Count: 7}, 0))

	var got payload
	require.NoError(t, ns.GetJSON(ctx, "k", &got))
	assert.Equal(t, 7, got.Count)
}

func TestManagerContentNamespace(t *testing.T) {
	db := openTestDB(t)
	clock := &fakeClock{now: time.Now()}
	m := &Manager{
		db:       db,
		articles: NewKVNamespace(db, NamespaceArticles, clock, arbor.NewLogger()),
		searches: NewKVNamespace(db, NamespaceSearches, clock, arbor.NewLogger()),
		logger:   arbor.NewLogger(),
	}

	assert.NotNil(t, m.ContentNamespace("articles"))
	assert.NotNil(t, m.ContentNamespace("searches"))
	assert.Nil(t, m.ContentNamespace("usage"))
	assert.Nil(t, m.ContentNamespace("bogus"))
}
