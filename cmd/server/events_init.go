// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package main

import (
	"github.com/tomtom215/feedcore/internal/clock"
	"github.com/tomtom215/feedcore/internal/config"
	"github.com/tomtom215/feedcore/internal/downstream"
	"github.com/tomtom215/feedcore/internal/eventprocessor"
	"github.com/tomtom215/feedcore/internal/feedcache"
	"github.com/tomtom215/feedcore/internal/logging"
)

// initEvents builds the invalidation listener. It returns nil when events are
// disabled.
func initEvents(cfg *config.Config, feeds *feedcache.Cache, graph *downstream.CachedGraph, clk clock.Clock) (*eventprocessor.Listener, error) {
	if !cfg.Events.Enabled {
		logging.Info().Msg("Invalidation events disabled, feeds refresh on TTL only")
		return nil, nil
	}

	handler, err := eventprocessor.NewInvalidationHandler(eventprocessor.HandlerDeps{
		Feeds:     feeds,
		Graph:     graph,
		Followers: graph,
	}, cfg.Events.Handler)
	if err != nil {
		return nil, err
	}

	listener, err := eventprocessor.NewListener(cfg.Events, handler, clk)
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("url", listener.URL()).
		Bool("embedded", cfg.Events.Embedded).
		Str("stream", cfg.Events.Stream.Name).
		Msg("Invalidation listener configured")
	return listener, nil
}
