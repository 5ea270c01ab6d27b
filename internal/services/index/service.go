// Package index caches full key listings of the content namespaces to
// avoid a listing scan on every request.
//
// The cached view may be stale by up to the configured TTL: content
// written after the cache was built does not appear until the cache
// lapses and a request triggers a refresh, or a caller refreshes
// deliberately. There is no invalidation-on-write.
package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/megadodo/guide/internal/common"
	"github.com/megadodo/guide/internal/interfaces"
	"github.com/megadodo/guide/internal/models"
)

// Service provides the lazily-refreshed key index for content namespaces.
type Service struct {
	indices interfaces.Namespace
	storage interfaces.StorageManager
	ttl     time.Duration
	logger  arbor.ILogger
}

// NewService creates an index cache over the indices namespace.
func NewService(storage interfaces.StorageManager, limits common.LimitsConfig, logger arbor.ILogger) (*Service, error) {
	ttl, err := limits.IndexTTLDuration()
	if err != nil {
		return nil, err
	}

	return &Service{
		indices: storage.IndexStorage(),
		storage: storage,
		ttl:     ttl,
		logger:  logger,
	}, nil
}

// GetIndex returns the cached listing for indexKey, refreshing it on a
// cache miss. An unknown or unavailable content namespace yields an
// empty listing, never an error.
func (s *Service) GetIndex(ctx context.Context, indexKey string) ([]models.IndexEntry, error) {
	var entries []models.IndexEntry
	err := s.indices.GetJSON(ctx, indexKey, &entries)
	if err == nil {
		return entries, nil
	}
	if !errors.Is(err, interfaces.ErrKeyNotFound) {
		return nil, fmt.Errorf("failed to read index %q: %w", indexKey, err)
	}

	return s.RefreshIndex(ctx, indexKey)
}

// RefreshIndex performs a full listing of the content namespace behind
// indexKey, stores the serialized result with the configured TTL, and
// returns it. An unknown namespace yields an empty listing with
// nothing written.
func (s *Service) RefreshIndex(ctx context.Context, indexKey string) ([]models.IndexEntry, error) {
	content := s.storage.ContentNamespace(indexKey)
	if content == nil {
		return []models.IndexEntry{}, nil
	}

	entries, err := content.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list namespace %q: %w", indexKey, err)
	}

	if err := s.indices.PutJSON(ctx, indexKey, entries, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store index %q: %w", indexKey, err)
	}

	s.logger.Debug().Str("index", indexKey).Int("keys", len(entries)).Msg("Refreshed index cache")

	return entries, nil
}
