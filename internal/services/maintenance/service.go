// Package maintenance runs optional scheduled housekeeping: deliberate
// index refreshes and purging of TTL-lapsed records. Badger records do
// not self-expire through badgerhold; expired rows are invisible to
// reads but occupy space until purged here.
package maintenance

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/megadodo/guide/internal/common"
	"github.com/megadodo/guide/internal/interfaces"
	"github.com/megadodo/guide/internal/services/index"
	"github.com/megadodo/guide/internal/storage/badger"
)

// Service schedules index refreshes and expired-record purges.
type Service struct {
	config  common.MaintenanceConfig
	cron    *cron.Cron
	idx     *index.Service
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewService creates the maintenance scheduler. It does nothing until
// Start is called, and Start is a no-op unless maintenance is enabled.
func NewService(config common.MaintenanceConfig, idx *index.Service, storage interfaces.StorageManager, logger arbor.ILogger) *Service {
	return &Service{
		config:  config,
		cron:    cron.New(),
		idx:     idx,
		storage: storage,
		logger:  logger,
	}
}

// Start registers the cron entry and begins scheduling.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.logger.Debug().Msg("Maintenance scheduler disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("Maintenance run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid maintenance schedule %q: %w", s.config.Schedule, err)
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", s.config.Schedule).Msg("Maintenance scheduler started")
	return nil
}

// Stop halts scheduling. Running jobs finish.
func (s *Service) Stop() {
	s.cron.Stop()
}

// RunOnce refreshes both content indices and purges expired usage and
// index records.
func (s *Service) RunOnce(ctx context.Context) error {
	for _, indexKey := range []string{badger.NamespaceArticles, badger.NamespaceSearches} {
		entries, err := s.idx.RefreshIndex(ctx, indexKey)
		if err != nil {
			return fmt.Errorf("failed to refresh index %q: %w", indexKey, err)
		}
		s.logger.Info().Str("index", indexKey).Int("keys", len(entries)).Msg("Index refreshed")
	}

	purged := 0
	for _, ns := range []interfaces.Namespace{s.storage.UsageStorage(), s.storage.IndexStorage()} {
		n, err := ns.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		purged += n
	}

	s.logger.Info().Int("purged", purged).Msg("Maintenance run completed")
	return nil
}
