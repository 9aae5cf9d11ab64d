// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/feedcore/internal/config"
	"github.com/tomtom215/feedcore/internal/kv"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/supervisor"
)

// redisConnectTimeout bounds the startup ping against Redis.
const redisConnectTimeout = 10 * time.Second

// openStore opens the configured KV backend. Badger's value-log GC joins the
// data layer of tree.
func openStore(ctx context.Context, cfg *config.Config, tree *supervisor.SupervisorTree) (kv.Store, error) {
	switch cfg.KV.Backend {
	case config.BackendBadger:
		store, err := kv.OpenBadgerStore(cfg.KV.Badger)
		if err != nil {
			return nil, err
		}
		tree.AddDataService(store)
		logging.Info().
			Str("path", cfg.KV.Badger.Path).
			Bool("in_memory", cfg.KV.Badger.InMemory).
			Msg("Embedded Badger KV store opened")
		return store, nil

	case config.BackendRedis:
		connectCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
		defer cancel()
		store, err := kv.NewRedisStore(connectCtx, cfg.KV.Redis)
		if err != nil {
			return nil, err
		}
		logging.Info().
			Strs("addrs", cfg.KV.Redis.Addrs).
			Bool("cluster", len(cfg.KV.Redis.Addrs) > 1).
			Msg("Connected to Redis")
		return store, nil

	default:
		return nil, fmt.Errorf("unknown KV backend %q", cfg.KV.Backend)
	}
}
