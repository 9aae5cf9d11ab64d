// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/feedcore/internal/assembler"
	"github.com/tomtom215/feedcore/internal/auth"
	"github.com/tomtom215/feedcore/internal/downstream"
	"github.com/tomtom215/feedcore/internal/eventprocessor"
	"github.com/tomtom215/feedcore/internal/keys"
	"github.com/tomtom215/feedcore/internal/kv"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/recall"
	"github.com/tomtom215/feedcore/internal/supervisor"
	"github.com/tomtom215/feedcore/internal/warmer"
)

// Config holds the whole service configuration. Each section is owned by the
// package that consumes it.
type Config struct {
	Server     ServerConfig          `koanf:"server"`
	Logging    logging.Config        `koanf:"logging"`
	Auth       auth.Config           `koanf:"auth"`
	KV         KVConfig              `koanf:"kv"`
	Downstream DownstreamConfig      `koanf:"downstream"`
	Recall     RecallConfig          `koanf:"recall"`
	Assembler  assembler.Config      `koanf:"assembler"`
	Warmer     warmer.Config         `koanf:"warmer"`
	Events     eventprocessor.Config `koanf:"events"`
	Supervisor supervisor.TreeConfig `koanf:"supervisor"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"min=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"min=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// KV backends.
const (
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// KVConfig selects and configures the KV backend.
type KVConfig struct {
	Backend string          `koanf:"backend" validate:"oneof=redis badger"`
	Redis   kv.RedisConfig  `koanf:"redis"`
	Badger  kv.BadgerConfig `koanf:"badger"`
	Client  kv.ClientConfig `koanf:"client"`
}

// DownstreamConfig configures the graph, content and ranking services.
// An empty ranking base URL disables the ranking service.
type DownstreamConfig struct {
	Graph   downstream.ServiceConfig `koanf:"graph"`
	Content downstream.ServiceConfig `koanf:"content"`
	Ranking downstream.ServiceConfig `koanf:"ranking"`
}

// RankingEnabled reports whether a ranking service is configured.
func (d DownstreamConfig) RankingEnabled() bool {
	return d.Ranking.BaseURL != ""
}

// RecallConfig configures the recall layer.
type RecallConfig struct {
	Limits         recall.Limits      `koanf:"limits"`
	Graph          recall.GraphConfig `koanf:"graph"`
	TrendingWindow string             `koanf:"trending_window" validate:"trendwindow"`
}

func defaultService(baseURL string) downstream.ServiceConfig {
	return downstream.ServiceConfig{
		BaseURL: baseURL,
		Timeout: 500 * time.Millisecond,
		Breaker: downstream.DefaultBreakerConfig(),
	}
}

// defaultConfig returns the built-in defaults, the lowest configuration layer.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       2 * time.Minute,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Logging: logging.DefaultConfig(),
		Auth:    auth.DefaultConfig(),
		KV: KVConfig{
			Backend: BackendRedis,
			Redis:   kv.DefaultRedisConfig(),
			Badger:  kv.DefaultBadgerConfig(),
			Client:  kv.DefaultClientConfig(),
		},
		Downstream: DownstreamConfig{
			Graph:   defaultService("http://127.0.0.1:8081"),
			Content: defaultService("http://127.0.0.1:8082"),
			Ranking: defaultService(""),
		},
		Recall: RecallConfig{
			Limits:         recall.DefaultLimits(),
			Graph:          recall.DefaultGraphConfig(),
			TrendingWindow: keys.TrendingWindowDay,
		},
		Assembler:  assembler.DefaultConfig(),
		Warmer:     warmer.DefaultConfig(),
		Events:     eventprocessor.DefaultConfig(),
		Supervisor: supervisor.DefaultTreeConfig(),
	}
}

// Default returns a copy of the built-in defaults.
func Default() *Config {
	return defaultConfig()
}

// String summarizes the configuration without secrets.
func (c *Config) String() string {
	return fmt.Sprintf("server=%s kv=%s auth=%s events=%t warmer=%t ranking=%t",
		c.Server.Addr(), c.KV.Backend, c.Auth.Mode, c.Events.Enabled, c.Warmer.Enabled, c.Downstream.RankingEnabled())
}
