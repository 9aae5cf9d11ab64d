// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package config

import (
	"fmt"

	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/validation"
)

// Validate checks cross-field rules first, then struct tags.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.Auth.Validate,
		c.validateKV,
		c.validateDownstream,
		c.Events.Validate,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}

	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitDisabled {
		return nil
	}
	if c.Server.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive unless DISABLE_RATE_LIMIT is set")
	}
	if c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive unless DISABLE_RATE_LIMIT is set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if c.Logging.Level != "" && !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic, disabled; got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateKV() error {
	switch c.KV.Backend {
	case BackendRedis:
		if len(c.KV.Redis.Addrs) == 0 {
			return fmt.Errorf("REDIS_ADDRS is required when KV_BACKEND=redis")
		}
	case BackendBadger:
		if c.KV.Badger.Path == "" && !c.KV.Badger.InMemory {
			return fmt.Errorf("BADGER_PATH is required when KV_BACKEND=badger unless BADGER_IN_MEMORY=true")
		}
	default:
		return fmt.Errorf("KV_BACKEND must be redis or badger, got %q", c.KV.Backend)
	}
	if c.KV.Client.Timeout <= 0 {
		return fmt.Errorf("KV_TIMEOUT must be positive")
	}
	if j := c.KV.Client.TTL.Jitter; j < 0 || j > 1 {
		return fmt.Errorf("FEED_CACHE_TTL_JITTER must be between 0 and 1, got %v", j)
	}
	return nil
}

func (c *Config) validateDownstream() error {
	if c.Downstream.Graph.BaseURL == "" {
		return fmt.Errorf("GRAPH_SERVICE_URL is required")
	}
	if c.Downstream.Content.BaseURL == "" {
		return fmt.Errorf("CONTENT_SERVICE_URL is required")
	}
	return nil
}
