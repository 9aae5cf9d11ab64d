// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package warmer pre-populates the relationship cache for recently active users.
//
// Each cycle harvests up to MaxUsersPerCycle users from the activity source and
// reads their followee list through the read-through graph client, so the next
// feed request for those users skips the graph service. Feed payloads are not
// warmed. Users are paced by a token-bucket limiter.
package warmer

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/feedcore/internal/activity"
	"github.com/tomtom215/feedcore/internal/downstream"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/metrics"
	"github.com/tomtom215/feedcore/internal/models"
)

// Config controls the warmer schedule and pacing.
type Config struct {
	Enabled             bool          `koanf:"enabled"`
	WarmInterval        time.Duration `koanf:"warm_interval" validate:"min=0"`
	MaxUsersPerCycle    int           `koanf:"max_users_per_cycle" validate:"min=0,max=100000"`
	ActivityWindowHours int           `koanf:"activity_window_hours" validate:"min=0"`
	StartupDelay        time.Duration `koanf:"startup_delay" validate:"min=0"`
	InterUserDelay      time.Duration `koanf:"inter_user_delay" validate:"min=0"`
}

// DefaultConfig returns the production schedule.
func DefaultConfig() Config {
	return Config{
		Enabled:             true,
		WarmInterval:        5 * time.Minute,
		MaxUsersPerCycle:    500,
		ActivityWindowHours: 24,
		StartupDelay:        10 * time.Second,
		InterUserDelay:      10 * time.Millisecond,
	}
}

// ActivityWindow returns the harvest window as a duration.
func (c Config) ActivityWindow() time.Duration {
	return time.Duration(c.ActivityWindowHours) * time.Hour
}

// Trimmer drops stale activity entries. *activity.Tracker implements it.
type Trimmer interface {
	Trim(ctx context.Context, window time.Duration) (int64, error)
}

// Deps are the collaborators of a Warmer. Trimmer is optional.
type Deps struct {
	Activity activity.Source
	Trimmer  Trimmer
	// Graph should be the read-through cached client; warming an uncached client
	// only costs graph calls.
	Graph downstream.GraphService
}

// CycleStats summarizes one warm cycle.
type CycleStats struct {
	Harvested int
	Warmed    int
	Failed    int
	Duration  time.Duration
}

// Warmer runs warm cycles.
type Warmer struct {
	deps Deps
	cfg  Config
}

// New returns a Warmer.
func New(deps Deps, cfg Config) *Warmer {
	return &Warmer{deps: deps, cfg: cfg}
}

// Config returns the warmer configuration.
func (w *Warmer) Config() Config { return w.cfg }

// RunCycle warms one batch of recently active users. Per-user failures are logged
// and skipped; only harvest failure or cancellation is returned.
func (w *Warmer) RunCycle(ctx context.Context) (CycleStats, error) {
	start := time.Now()
	var stats CycleStats
	defer func() {
		stats.Duration = time.Since(start)
		metrics.WarmerCycleDuration.Observe(stats.Duration.Seconds())
	}()

	window := w.cfg.ActivityWindow()
	if w.deps.Trimmer != nil {
		if n, err := w.deps.Trimmer.Trim(ctx, window); err != nil {
			logging.Ctx(ctx).Debug().Err(err).Msg("Activity trim failed")
		} else if n > 0 {
			logging.Ctx(ctx).Debug().Int64("removed", n).Msg("Trimmed stale activity")
		}
	}

	users, err := w.deps.Activity.RecentlyActive(ctx, window, w.cfg.MaxUsersPerCycle)
	if err != nil {
		return stats, err
	}
	stats.Harvested = len(users)
	set := models.WarmCandidateSet{Users: users, HarvestedAt: start}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if w.cfg.InterUserDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(w.cfg.InterUserDelay), 1)
	}

	for i, user := range set.Users {
		if err := limiter.Wait(ctx); err != nil {
			for range set.Users[i:] {
				metrics.RecordWarm("skipped")
			}
			return stats, err
		}
		if _, err := w.deps.Graph.GetFollowing(ctx, user, downstream.RelationshipPage, 0); err != nil {
			stats.Failed++
			metrics.RecordWarm("failed")
			logging.Ctx(ctx).Debug().Err(err).Str("user_id", user.String()).Msg("Warm failed, skipping user")
			continue
		}
		stats.Warmed++
		metrics.RecordWarm("warmed")
	}

	logging.Ctx(ctx).Info().
		Int("harvested", stats.Harvested).
		Int("warmed", stats.Warmed).
		Int("failed", stats.Failed).
		Dur("duration", time.Since(start)).
		Msg("Warm cycle complete")
	return stats, nil
}
