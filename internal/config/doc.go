// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

/*
Package config loads the feedcore service configuration with koanf v2.

# Layers

Later layers override earlier ones:

 1. Built-in defaults (defaultConfig, loaded with the structs provider)
 2. An optional YAML file: CONFIG_PATH, else the first of DefaultConfigPaths that exists
 3. Environment variables listed in envMappings; anything else is ignored

Comma-separated environment values are split for the slice fields listed in
sliceConfigPaths (CORS_ORIGINS, REDIS_ADDRS, NATS_STREAM_SUBJECTS).

# Sections

Each section is the config type of the package that consumes it:

	server      HTTP listener, CORS and rate limiting
	logging     logging.Config
	auth        auth.Config (jwt or header mode)
	kv          backend selection, kv.RedisConfig, kv.BadgerConfig, kv.ClientConfig
	downstream  graph, content and ranking downstream.ServiceConfig
	recall      recall.Limits, recall.GraphConfig, trending window
	assembler   assembler.Config
	warmer      warmer.Config
	events      eventprocessor.Config
	supervisor  supervisor.TreeConfig

# Example

	server:
	  port: 8080
	auth:
	  mode: jwt
	kv:
	  backend: redis
	  redis:
	    addrs: [redis-0:6379, redis-1:6379]
	downstream:
	  graph:
	    base_url: http://graph:8080
	  content:
	    base_url: http://content:8080
	events:
	  enabled: true
	  embedded: true

Secrets such as JWT_SECRET and REDIS_PASSWORD are best left out of the file
and supplied through the environment.

# Validation

Validate runs hand-written checks for rules that span fields (backend specific
requirements, auth mode secrets) and then the validate struct tags through
internal/validation. The first failure is returned.
*/
package config
