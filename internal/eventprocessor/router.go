// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package eventprocessor

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/feedcore/internal/cache"
	"github.com/tomtom215/feedcore/internal/clock"
	"github.com/tomtom215/feedcore/internal/metrics"
)

// DefaultPoisonTopic receives events that can never be processed.
const DefaultPoisonTopic = "feedcore.poison"

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration `koanf:"close_timeout"`

	RetryMaxRetries      int           `koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`
	RetryMultiplier      float64       `koanf:"retry_multiplier"`

	// ThrottlePerSecond caps processed messages per second; 0 disables.
	ThrottlePerSecond int64 `koanf:"throttle_per_second"`

	// PoisonQueueTopic is empty to disable the poison queue.
	PoisonQueueTopic string `koanf:"poison_queue_topic"`

	DeduplicationEnabled  bool          `koanf:"deduplication_enabled"`
	DeduplicationTTL      time.Duration `koanf:"deduplication_ttl"`
	DeduplicationCapacity int           `koanf:"deduplication_capacity"`
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:          30 * time.Second,
		RetryMaxRetries:       3,
		RetryInitialInterval:  100 * time.Millisecond,
		RetryMaxInterval:      5 * time.Second,
		RetryMultiplier:       2.0,
		ThrottlePerSecond:     0,
		PoisonQueueTopic:      DefaultPoisonTopic,
		DeduplicationEnabled:  true,
		DeduplicationTTL:      10 * time.Minute,
		DeduplicationCapacity: 10000,
	}
}

// Router wraps the Watermill Router with the listener's middleware stack.
type Router struct {
	router    *message.Router
	config    RouterConfig
	logger    watermill.LoggerAdapter
	poisonPub message.Publisher
	seen      *cache.LRU
	handlers  map[string]*message.Handler
}

// NewRouter creates a Router. poisonPublisher may be nil to disable the poison
// queue; logger may be nil for the zerolog adapter.
func NewRouter(cfg *RouterConfig, poisonPublisher message.Publisher, logger watermill.LoggerAdapter, clk clock.Clock) (*Router, error) {
	if logger == nil {
		logger = NewWatermillLogger("router")
	}
	if cfg == nil {
		def := DefaultRouterConfig()
		cfg = &def
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{
		router:    wmRouter,
		config:    *cfg,
		logger:    logger,
		poisonPub: poisonPublisher,
		handlers:  make(map[string]*message.Handler),
	}

	// Outermost first.
	wmRouter.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
		ShouldRetry: func(p middleware.RetryParams) bool {
			return !IsPermanentError(p.Err)
		},
	}
	wmRouter.AddMiddleware(retry.Middleware)

	if cfg.ThrottlePerSecond > 0 {
		throttle := middleware.NewThrottle(cfg.ThrottlePerSecond, time.Second)
		wmRouter.AddMiddleware(throttle.Middleware)
	}

	if cfg.DeduplicationEnabled {
		r.seen = cache.NewLRU(cfg.DeduplicationCapacity, cfg.DeduplicationTTL, clk)
		wmRouter.AddMiddleware(r.deduplicate)
	}

	if poisonPublisher != nil && cfg.PoisonQueueTopic != "" {
		poison, err := middleware.PoisonQueueWithFilter(poisonPublisher, cfg.PoisonQueueTopic, IsPermanentError)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poison)
	}

	return r, nil
}

// deduplicate skips events whose id was handled within the TTL. A failed attempt
// forgets the id so the retry and any redelivery are processed. Events without an
// id are always processed.
func (r *Router) deduplicate(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		id := eventID(msg.Payload)
		if id == "" {
			return h(msg)
		}
		if r.seen.SeenBefore(id) {
			metrics.EventsDeduplicated.Inc()
			r.logger.Debug("Duplicate event skipped", watermill.LogFields{"event_id": id})
			return nil, nil
		}
		out, err := h(msg)
		if err != nil {
			r.seen.Forget(id)
		}
		return out, err
	}
}

// AddConsumerHandler registers a handler that produces no output messages.
func (r *Router) AddConsumerHandler(
	name string,
	subscribeTopic string,
	subscriber message.Subscriber,
	handler message.NoPublishHandlerFunc,
) *message.Handler {
	h := r.router.AddConsumerHandler(name, subscribeTopic, subscriber, handler)
	r.handlers[name] = h
	return h
}

// RegisterInvalidation subscribes handler to every event topic.
func (r *Router) RegisterInvalidation(subscriber message.Subscriber, handler *InvalidationHandler) {
	for _, topic := range Topics {
		r.AddConsumerHandler("invalidate-"+topic, topic, subscriber, handler.Handle)
	}
}

// Run starts the router and blocks until ctx is canceled or Close is called.
// With deduplication enabled, expired event ids are swept once per TTL.
func (r *Router) Run(ctx context.Context) error {
	if r.seen != nil {
		sweepCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go r.sweepDedupLoop(sweepCtx, dedupSweepInterval(r.config.DeduplicationTTL))
	}
	return r.router.Run(ctx)
}

func dedupSweepInterval(ttl time.Duration) time.Duration {
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

func (r *Router) sweepDedupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.SweepDedup(); n > 0 {
				r.logger.Debug("Expired event ids swept", watermill.LogFields{"removed": n})
			}
		}
	}
}

// SweepDedup drops expired event ids from the dedup cache and returns how many
// were removed.
func (r *Router) SweepDedup() int {
	if r.seen == nil {
		return 0
	}
	return r.seen.CleanupExpired()
}

// Running returns a channel that closes once every handler is running.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// IsRunning reports whether the router is processing messages.
func (r *Router) IsRunning() bool {
	return r.router.IsRunning()
}

// Close stops the router, waiting up to CloseTimeout for in-flight messages.
func (r *Router) Close() error {
	return r.router.Close()
}

// Handlers returns the number of registered handlers.
func (r *Router) Handlers() int {
	return len(r.handlers)
}

// DedupStats returns the dedup cache counters; all zero when dedup is disabled.
func (r *Router) DedupStats() (hits, misses int64, size int) {
	if r.seen == nil {
		return 0, 0, 0
	}
	return r.seen.Stats()
}
