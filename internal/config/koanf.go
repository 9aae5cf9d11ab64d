// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/feedcore/config.yaml",
	"/etc/feedcore/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// LoadWithKoanf loads configuration in layers, later layers winning:
//  1. Built-in defaults
//  2. Optional YAML file
//  3. Environment variables listed in envMappings
//
// The result is validated before it is returned.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns CONFIG_PATH when it exists, else the first existing
// default path, else "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a single string.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"kv.redis.addrs",
	"events.stream.subjects",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	// HTTP server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_requests",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	// Logging
	"log_level":     "logging.level",
	"log_format":    "logging.format",
	"log_caller":    "logging.caller",
	"log_timestamp": "logging.timestamp",

	// Auth
	"auth_mode":        "auth.mode",
	"jwt_secret":       "auth.jwt_secret",
	"jwt_issuer":       "auth.issuer",
	"jwt_leeway":       "auth.leeway",
	"auth_user_header": "auth.user_header",

	// KV
	"kv_backend":            "kv.backend",
	"kv_timeout":            "kv.client.timeout",
	"redis_addrs":           "kv.redis.addrs",
	"redis_username":        "kv.redis.username",
	"redis_password":        "kv.redis.password",
	"redis_db":              "kv.redis.db",
	"redis_pool_size":       "kv.redis.pool_size",
	"redis_dial_timeout":    "kv.redis.dial_timeout",
	"redis_read_timeout":    "kv.redis.read_timeout",
	"redis_write_timeout":   "kv.redis.write_timeout",
	"badger_path":           "kv.badger.path",
	"badger_in_memory":      "kv.badger.in_memory",
	"badger_sync_writes":    "kv.badger.sync_writes",
	"badger_gc_interval":    "kv.badger.gc_interval",
	"feed_cache_ttl":        "kv.client.ttl.feed",
	"feed_snapshot_ttl":     "kv.client.ttl.snapshot",
	"feed_seen_ttl":         "kv.client.ttl.seen",
	"graph_cache_ttl":       "kv.client.ttl.graph",
	"activity_ttl":          "kv.client.ttl.activity",
	"feed_cache_ttl_jitter": "kv.client.ttl.jitter",

	// Downstream services
	"graph_service_url":       "downstream.graph.base_url",
	"graph_service_timeout":   "downstream.graph.timeout",
	"content_service_url":     "downstream.content.base_url",
	"content_service_timeout": "downstream.content.timeout",
	"ranking_service_url":     "downstream.ranking.base_url",
	"ranking_service_timeout": "downstream.ranking.timeout",

	// Recall
	"recall_graph_limit":        "recall.limits.graph",
	"recall_trending_limit":     "recall.limits.trending",
	"recall_personalized_limit": "recall.limits.personalized",
	"recall_max_following":      "recall.graph.max_following",
	"recall_fanout_cap":         "recall.graph.fanout_cap",
	"recall_concurrency":        "recall.graph.concurrency",
	"trending_window":           "recall.trending_window",

	// Assembler
	"assembler_background_timeout": "assembler.background_timeout",

	// Cache warmer
	"warmer_enabled":               "warmer.enabled",
	"warmer_interval":              "warmer.warm_interval",
	"warmer_max_users":             "warmer.max_users_per_cycle",
	"warmer_activity_window_hours": "warmer.activity_window_hours",
	"warmer_startup_delay":         "warmer.startup_delay",
	"warmer_inter_user_delay":      "warmer.inter_user_delay",

	// Invalidation listener
	"nats_enabled":         "events.enabled",
	"nats_url":             "events.url",
	"nats_embedded":        "events.embedded",
	"nats_store_dir":       "events.server.store_dir",
	"nats_stream_name":     "events.stream.name",
	"nats_stream_subjects": "events.stream.subjects",
	"nats_durable_name":    "events.subscriber.durable_name",
	"nats_queue_group":     "events.subscriber.queue_group",
	"nats_subscribers":     "events.subscriber.subscribers_count",
	"events_retry_count":   "events.router.retry_max_retries",
	"events_poison_topic":  "events.router.poison_queue_topic",
	"events_dedup_enabled": "events.router.deduplication_enabled",
	"events_fanout_cap":    "events.handler.fanout_cap",
	"events_batch_size":    "events.handler.batch_size",

	// Supervisor
	"supervisor_shutdown_timeout": "supervisor.shutdown_timeout",
	"supervisor_listener_backoff": "supervisor.listener_backoff",
}

// envTransformFunc maps an environment variable to its koanf path, or "" to
// skip it.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
