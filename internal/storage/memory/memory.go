// Package memory provides an in-memory Namespace and StorageManager
// used by service tests in place of a Badger store.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/megadodo/guide/internal/common"
	"github.com/megadodo/guide/internal/interfaces"
	"github.com/megadodo/guide/internal/models"
)

type record struct {
	value     string
	updatedAt time.Time
	expiresAt time.Time
}

// Namespace is an in-memory Namespace implementation with call
// counters for cache behavior assertions.
type Namespace struct {
	mu    sync.Mutex
	data  map[string]record
	clock common.Clock

	GetCalls  int
	PutCalls  int
	ListCalls int
	LastTTL   time.Duration
}

// NewNamespace creates an empty in-memory namespace.
func NewNamespace(clock common.Clock) *Namespace {
	return &Namespace{
		data:  make(map[string]record),
		clock: clock,
	}
}

func (n *Namespace) expired(rec record) bool {
	return !rec.expiresAt.IsZero() && !n.clock.Now().Before(rec.expiresAt)
}

func (n *Namespace) Get(ctx context.Context, key string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.GetCalls++

	rec, ok := n.data[key]
	if !ok || n.expired(rec) {
		return "", interfaces.ErrKeyNotFound
	}
	return rec.value, nil
}

func (n *Namespace) GetJSON(ctx context.Context, key string, out interface{}) error {
	value, err := n.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return fmt.Errorf("failed to decode value for key %q: %w", key, err)
	}
	return nil
}

func (n *Namespace) Put(ctx context.Context, key string, value string, ttl time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.PutCalls++
	n.LastTTL = ttl

	now := n.clock.Now()
	rec := record{value: value, updatedAt: now}
	if ttl > 0 {
		rec.expiresAt = now.Add(ttl)
	}
	n.data[key] = rec
	return nil
}

func (n *Namespace) PutJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode value for key %q: %w", key, err)
	}
	return n.Put(ctx, key, string(data), ttl)
}

func (n *Namespace) List(ctx context.Context) ([]models.IndexEntry, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ListCalls++

	entries := make([]models.IndexEntry, 0, len(n.data))
	for key, rec := range n.data {
		if n.expired(rec) {
			continue
		}
		entries = append(entries, models.IndexEntry{
			Name:     key,
			Metadata: &models.IndexMetadata{Uploaded: rec.updatedAt.Unix()},
		})
	}
	return entries, nil
}

func (n *Namespace) PurgeExpired(ctx context.Context) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	purged := 0
	for key, rec := range n.data {
		if n.expired(rec) {
			delete(n.data, key)
			purged++
		}
	}
	return purged, nil
}

// Len returns the number of stored records including expired ones.
func (n *Namespace) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.data)
}

// Has reports whether a live record exists for key without counting as
// a Get call.
func (n *Namespace) Has(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	rec, ok := n.data[key]
	return ok && !n.expired(rec)
}

// Manager is an in-memory StorageManager.
type Manager struct {
	Articles *Namespace
	Searches *Namespace
	Usage    *Namespace
	Indices  *Namespace
}

// NewManager creates an in-memory manager with all four namespaces.
func NewManager(clock common.Clock) *Manager {
	return &Manager{
		Articles: NewNamespace(clock),
		Searches: NewNamespace(clock),
		Usage:    NewNamespace(clock),
		Indices:  NewNamespace(clock),
	}
}

func (m *Manager) ArticleStorage() interfaces.Namespace { return m.Articles }
func (m *Manager) SearchStorage() interfaces.Namespace  { return m.Searches }
func (m *Manager) UsageStorage() interfaces.Namespace   { return m.Usage }
func (m *Manager) IndexStorage() interfaces.Namespace   { return m.Indices }

func (m *Manager) ContentNamespace(indexKey string) interfaces.Namespace {
	switch indexKey {
	case "articles":
		return m.Articles
	case "searches":
		return m.Searches
	default:
		return nil
	}
}

func (m *Manager) Close() error { return nil }

var _ interfaces.Namespace = (*Namespace)(nil)
var _ interfaces.StorageManager = (*Manager)(nil)
