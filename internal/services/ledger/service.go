// Package ledger tracks per-day token and image consumption against
// fixed daily caps. The UTC date string is the partition key: each
// day's counters start fresh because the day is a distinct key, and
// stale records lapse via TTL rather than a scheduled reset.
//
// Counter updates are read-modify-write with last-write-wins semantics.
// Two concurrent writers against the same day can lose an increment;
// the ledger is a soft limiter, not hard quota enforcement.
package ledger

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

// Service gates generation calls against the daily caps and records
// actual consumption after successful calls.
type Service struct {
	usage  interfaces.Namespace
	limits common.LimitsConfig
	ttl    time.Duration
	clock  common.Clock
	logger arbor.ILogger
}

// NewService creates a usage ledger over the usage namespace. Caps and
// the record TTL come from the injected limits config.
func NewService(usage interfaces.Namespace, limits common.LimitsConfig, clock common.Clock, logger arbor.ILogger) (*Service, error) {
	ttl, err := limits.UsageTTLDuration()
	if err != nil {
		return nil, err
	}

	return &Service{
		usage:  usage,
		limits: limits,
		ttl:    ttl,
		clock:  clock,
		logger: logger,
	}, nil
}

// Today returns the current UTC date key.
func (s *Service) Today() string {
	return common.DateKey(s.clock.Now())
}

// Limits returns the configured daily caps.
func (s *Service) Limits() common.LimitsConfig {
	return s.limits
}

// CurrentUsage returns the stored record for date, or a zero record if
// none exists. Absence is not an error.
func (s *Service) CurrentUsage(ctx context.Context, date string) (models.DailyUsage, error) {
	var usage models.DailyUsage
	err := s.usage.GetJSON(ctx, date, &usage)
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		return models.DailyUsage{LastUpdated: s.clock.Now()}, nil
	}
	if err != nil {
		return models.DailyUsage{}, fmt.Errorf("failed to read usage for %s: %w", date, err)
	}
	return usage, nil
}

// RecordUsage adds tokensDelta and imagesDelta to the day's counters
// and writes the record back with a fresh TTL. Not atomic across
// concurrent writers; the later write wins.
func (s *Service) RecordUsage(ctx context.Context, date string, tokensDelta, imagesDelta int) error {
	current, err := s.CurrentUsage(ctx, date)
	if err != nil {
		return err
	}

	updated := models.DailyUsage{
		TotalTokens:      current.TotalTokens + tokensDelta,
		ImageGenerations: current.ImageGenerations + imagesDelta,
		LastUpdated:      s.clock.Now(),
	}

	if err := s.usage.PutJSON(ctx, date, updated, s.ttl); err != nil {
		return fmt.Errorf("failed to record usage for %s: %w", date, err)
	}

	s.logger.Debug().
		Str("date", date).
		Int("tokens", updated.TotalTokens).
		Int("images", updated.ImageGenerations).
		Msg("Recorded usage")

	return nil
}

// ExceededTokenLimit reports whether the day's token spend has reached
// the daily cap. The boundary is inclusive: exactly at the cap counts
// as exceeded.
func (s *Service) ExceededTokenLimit(ctx context.Context, date string) (bool, error) {
	usage, err := s.CurrentUsage(ctx, date)
	if err != nil {
		return false, err
	}
	return usage.TotalTokens >= s.limits.MaxTokensPerDay, nil
}

// ExceededImageLimit reports whether the day's image count has reached
// the daily cap. Boundary inclusive.
func (s *Service) ExceededImageLimit(ctx context.Context, date string) (bool, error) {
	usage, err := s.CurrentUsage(ctx, date)
	if err != nil {
		return false, err
	}
	return usage.ImageGenerations >= s.limits.MaxImagesPerDay, nil
}
