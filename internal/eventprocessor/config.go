// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package eventprocessor

import (
	"fmt"
	"time"
)

// Config holds the invalidation listener configuration.
type Config struct {
	// Enabled controls whether the listener runs at all.
	Enabled bool `koanf:"enabled"`

	// URL is the NATS server connection URL. Ignored when Embedded is set.
	URL string `koanf:"url"`

	// Embedded starts an in-process nats-server with JetStream.
	Embedded bool `koanf:"embedded"`

	Server     ServerConfig     `koanf:"server"`
	Stream     StreamConfig     `koanf:"stream"`
	Subscriber SubscriberConfig `koanf:"subscriber"`
	Router     RouterConfig     `koanf:"router"`
	Handler    HandlerConfig    `koanf:"handler"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:    false,
		URL:        "nats://127.0.0.1:4222",
		Embedded:   false,
		Server:     DefaultServerConfig(),
		Stream:     DefaultStreamConfig(),
		Subscriber: DefaultSubscriberConfig(),
		Router:     DefaultRouterConfig(),
		Handler:    DefaultHandlerConfig(),
	}
}

// Validate checks the values the listener cannot run without.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if !c.Embedded && c.URL == "" {
		return fmt.Errorf("%w: events.url is required unless events.embedded is set", ErrInvalidConfig)
	}
	if c.Stream.Name == "" {
		return fmt.Errorf("%w: events.stream.name is required", ErrInvalidConfig)
	}
	if c.Embedded && c.Server.JetStreamMaxStore > 0 && c.Stream.MaxBytes > c.Server.JetStreamMaxStore {
		return fmt.Errorf("%w: events.stream.max_bytes (%d) exceeds events.server.jetstream_max_store (%d)",
			ErrInvalidConfig, c.Stream.MaxBytes, c.Server.JetStreamMaxStore)
	}
	if c.Handler.FanoutCap < 0 {
		return fmt.Errorf("%w: events.handler.fanout_cap must be >= 0", ErrInvalidConfig)
	}
	if c.Handler.BatchSize <= 0 {
		return fmt.Errorf("%w: events.handler.batch_size must be positive", ErrInvalidConfig)
	}
	if c.Router.RetryMaxRetries < 0 {
		return fmt.Errorf("%w: events.router.retry_max_retries must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host string `koanf:"host"`
	// Port -1 picks a random free port.
	Port              int    `koanf:"port"`
	StoreDir          string `koanf:"store_dir"`
	JetStreamMaxMem   int64  `koanf:"jetstream_max_mem"`
	JetStreamMaxStore int64  `koanf:"jetstream_max_store"`
}

// DefaultServerConfig returns defaults for the embedded NATS server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   256 << 20, // 256MB
		JetStreamMaxStore: 1 << 30,   // 1GB
	}
}

// StreamConfig defines the event stream.
type StreamConfig struct {
	Name            string        `koanf:"name"`
	Subjects        []string      `koanf:"subjects"`
	MaxAge          time.Duration `koanf:"max_age"`
	MaxBytes        int64         `koanf:"max_bytes"`
	MaxMsgs         int64         `koanf:"max_msgs"`
	DuplicateWindow time.Duration `koanf:"duplicate_window"`
	Replicas        int           `koanf:"replicas"`
}

// DefaultStreamConfig returns the feed event stream configuration. Invalidation
// events are only useful for a short while, so retention is one day.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name: "FEED_EVENTS",
		Subjects: []string{
			TopicRelationships,
			TopicPosts,
			TopicBlocks,
			DefaultPoisonTopic,
		},
		MaxAge:          24 * time.Hour,
		MaxBytes:        1 << 30, // 1GB
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// SubscriberConfig holds JetStream subscriber configuration.
type SubscriberConfig struct {
	DurableName      string        `koanf:"durable_name"`
	QueueGroup       string        `koanf:"queue_group"`
	SubscribersCount int           `koanf:"subscribers_count"`
	AckWaitTimeout   time.Duration `koanf:"ack_wait_timeout"`
	MaxDeliver       int           `koanf:"max_deliver"`
	MaxAckPending    int           `koanf:"max_ack_pending"`
	CloseTimeout     time.Duration `koanf:"close_timeout"`
	MaxReconnects    int           `koanf:"max_reconnects"`
	ReconnectWait    time.Duration `koanf:"reconnect_wait"`
}

// DefaultSubscriberConfig returns production defaults for the subscriber.
// One subscriber per topic keeps events in arrival order.
func DefaultSubscriberConfig() SubscriberConfig {
	return SubscriberConfig{
		DurableName:      "feed-invalidator",
		QueueGroup:       "feed-invalidators",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		MaxDeliver:       10,
		MaxAckPending:    1000,
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
	}
}

// HandlerConfig bounds the work done per event.
type HandlerConfig struct {
	// FanoutCap is the maximum number of followers invalidated per post event.
	FanoutCap int `koanf:"fanout_cap"`

	// BatchSize is the number of feed keys per pipelined delete.
	BatchSize int `koanf:"batch_size"`

	// FollowerPage is the page size used when listing followers.
	FollowerPage int `koanf:"follower_page"`

	// Timeout bounds the handling of one event.
	Timeout time.Duration `koanf:"timeout"`
}

// DefaultHandlerConfig returns production defaults.
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		FanoutCap:    10000,
		BatchSize:    500,
		FollowerPage: 1000,
		Timeout:      30 * time.Second,
	}
}
