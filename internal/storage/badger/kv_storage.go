package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/megadodo/guide/internal/common"
	"github.com/megadodo/guide/internal/interfaces"
	"github.com/megadodo/guide/internal/models"
)

// kvRecord is the persisted form of one namespaced key/value pair.
// Expiry is a timestamp checked on read: badgerhold records do not
// self-expire, so expired records are invisible until purged.
type kvRecord struct {
	Namespace string `badgerholdIndex:"Namespace"`
	Key       string
	Value     string
	UpdatedAt time.Time
	ExpiresAt time.Time // zero = never expires
}

// KVNamespace implements the Namespace interface for one key prefix in
// a shared Badger store.
type KVNamespace struct {
	db        *BadgerDB
	namespace string
	clock     common.Clock
	logger    arbor.ILogger
}

// NewKVNamespace creates a namespace view over the shared store.
func NewKVNamespace(db *BadgerDB, namespace string, clock common.Clock, logger arbor.ILogger) interfaces.Namespace {
	return &KVNamespace{
		db:        db,
		namespace: namespace,
		clock:     clock,
		logger:    logger,
	}
}

func (s *KVNamespace) recordID(key string) string {
	return s.namespace + "/" + strings.TrimSpace(key)
}

func (s *KVNamespace) expired(rec *kvRecord) bool {
	return !rec.ExpiresAt.IsZero() && !s.clock.Now().Before(rec.ExpiresAt)
}

// Get retrieves a value by key. Expired records read as absent.
func (s *KVNamespace) Get(ctx context.Context, key string) (string, error) {
	var rec kvRecord
	err := s.db.Store().Get(s.recordID(key), &rec)
	if err == badgerhold.ErrNotFound {
		return "", interfaces.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key: %w", err)
	}
	if s.expired(&rec) {
		return "", interfaces.ErrKeyNotFound
	}

	return rec.Value, nil
}

// GetJSON retrieves a value by key and unmarshals it into out.
func (s *KVNamespace) GetJSON(ctx context.Context, key string, out interface{}) error {
	value, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return fmt.Errorf("failed to decode value for key %q: %w", key, err)
	}
	return nil
}

// Put stores a value under key. A ttl of zero means no expiry.
func (s *KVNamespace) Put(ctx context.Context, key string, value string, ttl time.Duration) error {
	now := s.clock.Now()
	rec := kvRecord{
		Namespace: s.namespace,
		Key:       strings.TrimSpace(key),
		Value:     value,
		UpdatedAt: now,
	}
	if ttl > 0 {
		rec.ExpiresAt = now.Add(ttl)
	}

	if err := s.db.Store().Upsert(s.recordID(key), &rec); err != nil {
		return fmt.Errorf("failed to put key/value: %w", err)
	}

	return nil
}

// PutJSON marshals v and stores it under key.
func (s *KVNamespace) PutJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode value for key %q: %w", key, err)
	}
	return s.Put(ctx, key, string(data), ttl)
}

// List returns one entry per live key in the namespace, expired
// records skipped.
func (s *KVNamespace) List(ctx context.Context) ([]models.IndexEntry, error) {
	var recs []kvRecord
	err := s.db.Store().Find(&recs, badgerhold.Where("Namespace").Eq(s.namespace))
	if err != nil {
		return nil, fmt.Errorf("failed to list namespace %q: %w", s.namespace, err)
	}

	entries := make([]models.IndexEntry, 0, len(recs))
	for i := range recs {
		if s.expired(&recs[i]) {
			continue
		}
		entries = append(entries, models.IndexEntry{
			Name:     recs[i].Key,
			Metadata: &models.IndexMetadata{Uploaded: recs[i].UpdatedAt.Unix()},
		})
	}

	return entries, nil
}

// PurgeExpired removes records whose TTL has lapsed.
func (s *KVNamespace) PurgeExpired(ctx context.Context) (int, error) {
	var recs []kvRecord
	err := s.db.Store().Find(&recs, badgerhold.Where("Namespace").Eq(s.namespace))
	if err != nil {
		return 0, fmt.Errorf("failed to scan namespace %q: %w", s.namespace, err)
	}

	purged := 0
	for i := range recs {
		if !s.expired(&recs[i]) {
			continue
		}
		if err := s.db.Store().Delete(s.recordID(recs[i].Key), &kvRecord{}); err != nil {
			s.logger.Warn().Err(err).Str("key", recs[i].Key).Msg("Failed to delete expired record")
			continue
		}
		purged++
	}

	if purged > 0 {
		s.logger.Debug().Str("namespace", s.namespace).Int("purged", purged).Msg("Purged expired records")
	}

	return purged, nil
}
