package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/megadodo/guide/internal/models"
)

// ErrKeyNotFound is returned when a key is not found in the key/value
// store, or when its TTL has lapsed.
var ErrKeyNotFound = errors.New("key not found")

// Namespace defines operations against one flat content namespace
// (articles, searches, usage, indices). Values are stored as strings;
// JSON helpers are provided for structured records.
type Namespace interface {
	// Get retrieves a value by key. Returns ErrKeyNotFound when the key
	// is absent or expired.
	Get(ctx context.Context, key string) (string, error)

	// GetJSON retrieves a value by key and unmarshals it into out.
	GetJSON(ctx context.Context, key string, out interface{}) error

	// Put stores a value under key. A ttl of zero means no expiry.
	Put(ctx context.Context, key string, value string, ttl time.Duration) error

	// PutJSON marshals v and stores it under key.
	PutJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error

	// List returns one entry per live key in the namespace. Expired
	// entries are skipped.
	List(ctx context.Context) ([]models.IndexEntry, error)

	// PurgeExpired removes records whose TTL has lapsed and returns the
	// number of records removed. Expired records are invisible to Get
	// and List regardless; this reclaims the space.
	PurgeExpired(ctx context.Context) (int, error)
}

// StorageManager hands out the namespaces backing the service.
type StorageManager interface {
	ArticleStorage() Namespace
	SearchStorage() Namespace
	UsageStorage() Namespace
	IndexStorage() Namespace

	// ContentNamespace resolves an index key ("articles" or "searches")
	// to its content namespace. Returns nil for unknown keys.
	ContentNamespace(indexKey string) Namespace

	Close() error
}
