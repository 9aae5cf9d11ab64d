// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/tomtom215/feedcore/internal/activity"
	"github.com/tomtom215/feedcore/internal/api"
	"github.com/tomtom215/feedcore/internal/assembler"
	"github.com/tomtom215/feedcore/internal/auth"
	"github.com/tomtom215/feedcore/internal/clock"
	"github.com/tomtom215/feedcore/internal/config"
	"github.com/tomtom215/feedcore/internal/downstream"
	"github.com/tomtom215/feedcore/internal/feedcache"
	"github.com/tomtom215/feedcore/internal/kv"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/metrics"
	"github.com/tomtom215/feedcore/internal/recall"
	"github.com/tomtom215/feedcore/internal/supervisor"
	"github.com/tomtom215/feedcore/internal/supervisor/services"
	"github.com/tomtom215/feedcore/internal/warmer"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.Logging)
	logging.Info().Str("version", version).Str("config", cfg.String()).Msg("Starting feedcore with supervisor tree")
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg.Supervisor)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// KV store
	store, err := openStore(ctx, cfg, tree)
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.KV.Backend).Msg("Failed to open KV store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing KV store")
		}
	}()

	clk := clock.Real{}
	kvClient := kv.NewClient(store, cfg.KV.Client, clock.RealEntropy{})
	feeds := feedcache.New(kvClient, clk)

	// Downstream services
	graph := downstream.NewCachedGraph(downstream.NewGraphClient(cfg.Downstream.Graph, nil), kvClient)
	content := downstream.NewContentClient(cfg.Downstream.Content, nil)
	var ranker downstream.Ranker
	if cfg.Downstream.RankingEnabled() {
		ranker = downstream.NewRankingClient(cfg.Downstream.Ranking, nil)
	} else {
		logging.Info().Msg("Ranking service not configured, algo=ch serves time order")
	}

	// Recall and assembly
	layer := recall.NewLayer(cfg.Recall.Limits,
		recall.NewGraphStrategy(graph, content, clk, cfg.Recall.Graph),
		recall.NewTrendingStrategy(kvClient, cfg.Recall.TrendingWindow),
		recall.NewPersonalizedStrategy(kvClient),
	)
	tracker := activity.NewTracker(kvClient, clk)
	asm := assembler.New(assembler.Deps{
		Cache:    feeds,
		Recall:   layer,
		Ranker:   ranker,
		Activity: tracker,
	}, cfg.Assembler)
	defer asm.Wait()

	// Cache warmer
	if cfg.Warmer.Enabled {
		w := warmer.New(warmer.Deps{Activity: tracker, Trimmer: tracker, Graph: graph}, cfg.Warmer)
		tree.AddDataService(services.NewCacheWarmerService(w, cfg.Warmer, logging.WithComponent("warmer")))
		logging.Info().Dur("interval", cfg.Warmer.WarmInterval).Msg("Cache warmer added to supervisor tree")
	}

	// Invalidation listener
	listener, err := initEvents(cfg, feeds, graph, clk)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize invalidation listener")
	}
	if listener != nil {
		tree.AddMessagingService(services.NewEventListenerService(listener))
		defer func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.Supervisor.ShutdownTimeout)
			defer closeCancel()
			if err := listener.Close(closeCtx); err != nil {
				logging.Error().Err(err).Msg("Error closing invalidation listener")
			}
		}()
	}

	// HTTP API
	authMW, err := auth.NewMiddleware(cfg.Auth)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}
	logging.Info().Str("mode", string(authMW.Mode())).Msg("Authentication configured")

	handler := api.NewHandler(api.HandlerDeps{
		Assembler: asm,
		Feeds:     feeds,
		Ready:     map[string]api.Pinger{"kv": feeds},
		Clock:     clk,
	})

	mwCfg := api.DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mwCfg.RateLimitRequests = cfg.Server.RateLimitRequests
	mwCfg.RateLimitWindow = cfg.Server.RateLimitWindow
	mwCfg.RateLimitDisabled = cfg.Server.RateLimitDisabled
	router := api.NewRouter(handler, authMW, api.NewChiMiddleware(mwCfg), nil)

	server := &http.Server{
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), cfg.Server.ShutdownTimeout, logging.WithComponent("http")))
	logging.Info().Str("addr", cfg.Server.Addr()).Msg("HTTP server added to supervisor tree")

	// Signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for layer, names := range tree.Services() {
		logging.Info().Str("layer", layer).Strs("services", names).Msg("Supervisor layer configured")
	}

	errCh := tree.ServeBackground(ctx)
	select {
	case sig := <-sigChan:
		logging.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree stopped with error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree stopped unexpectedly")
		}
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	logging.Info().Msg("Feedcore stopped")
}
