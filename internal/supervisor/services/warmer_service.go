// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedcore/internal/warmer"
)

// WarmCycler runs one warm cycle. *warmer.Warmer implements it.
type WarmCycler interface {
	RunCycle(ctx context.Context) (warmer.CycleStats, error)
}

// CacheWarmerService runs the relationship cache warmer on a fixed interval.
type CacheWarmerService struct {
	warmer WarmCycler
	config warmer.Config
	logger zerolog.Logger
	name   string
}

// NewCacheWarmerService creates a warmer service. A zero WarmInterval means 5m.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCacheWarmerService(w WarmCycler, cfg warmer.Config, logger zerolog.Logger) *CacheWarmerService {
	if cfg.WarmInterval <= 0 {
		cfg.WarmInterval = warmer.DefaultConfig().WarmInterval
	}
	return &CacheWarmerService{
		warmer: w,
		config: cfg,
		logger: logger.With().Str("service", "cache-warmer").Logger(),
		name:   "cache-warmer",
	}
}

// Serve implements suture.Service. Cycle failures are logged; the service only
// returns when ctx ends.
func (s *CacheWarmerService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("startup_delay", s.config.StartupDelay).
		Dur("warm_interval", s.config.WarmInterval).
		Int("max_users", s.config.MaxUsersPerCycle).
		Msg("cache warmer starting")

	if s.config.StartupDelay > 0 {
		timer := time.NewTimer(s.config.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	s.cycle(ctx)

	ticker := time.NewTicker(s.config.WarmInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("cache warmer shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *CacheWarmerService) cycle(ctx context.Context) {
	// A cycle may not outlive the next tick.
	cycleCtx, cancel := context.WithTimeout(ctx, s.config.WarmInterval)
	defer cancel()

	stats, err := s.warmer.RunCycle(cycleCtx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn().Err(err).Int("warmed", stats.Warmed).Msg("warm cycle failed")
		}
		return
	}
	s.logger.Debug().
		Int("harvested", stats.Harvested).
		Int("warmed", stats.Warmed).
		Int("failed", stats.Failed).
		Dur("duration", stats.Duration).
		Msg("warm cycle complete")
}

// String implements fmt.Stringer.
func (s *CacheWarmerService) String() string {
	return s.name
}
