// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// Layer names, also used as the suture supervisor names.
const (
	LayerData      = "data-layer"
	LayerMessaging = "messaging-layer"
	LayerAPI       = "api-layer"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	FailureThreshold float64 `koanf:"failure_threshold" validate:"min=0"`

	// FailureDecay is the rate at which failures decay, in seconds.
	FailureDecay float64 `koanf:"failure_decay" validate:"min=0"`

	// FailureBackoff is the wait once the threshold is exceeded.
	FailureBackoff time.Duration `koanf:"failure_backoff" validate:"min=0"`

	// ListenerBackoff replaces FailureBackoff in the messaging layer.
	ListenerBackoff time.Duration `koanf:"listener_backoff" validate:"min=0"`

	// ShutdownTimeout bounds how long each service gets to stop.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`
}

// DefaultTreeConfig returns suture's defaults plus a slower listener backoff.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ListenerBackoff:  time.Minute,
		ShutdownTimeout:  10 * time.Second,
	}
}

// withDefaults fills zero fields.
func (c TreeConfig) withDefaults() TreeConfig {
	def := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = def.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = def.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = def.FailureBackoff
	}
	if c.ListenerBackoff == 0 {
		c.ListenerBackoff = def.ListenerBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	return c
}

// SupervisorTree is the process supervision tree for feedcore.
//
// The tree has three layers:
//   - data: Badger value-log GC and the cache warmer
//   - messaging: the invalidation listener
//   - api: the HTTP server
//
// A crash in the listener therefore never takes down the feed read path.
type SupervisorTree struct {
	root   *suture.Supervisor
	layers map[string]*suture.Supervisor
	config TreeConfig

	mu       sync.Mutex
	services map[string][]string
}

// NewSupervisorTree creates the tree. Zero config fields take DefaultTreeConfig values.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	if logger == nil {
		return nil, fmt.Errorf("supervisor: logger is required")
	}
	config = config.withDefaults()

	// MustHook has a pointer receiver.
	handler := &sutureslog.Handler{Logger: logger}

	specFor := func(backoff time.Duration) suture.Spec {
		return suture.Spec{
			FailureThreshold: config.FailureThreshold,
			FailureDecay:     config.FailureDecay,
			FailureBackoff:   backoff,
			Timeout:          config.ShutdownTimeout,
		}
	}

	rootSpec := specFor(config.FailureBackoff)
	rootSpec.EventHook = handler.MustHook()
	root := suture.New("feedcore", rootSpec)

	// Children inherit the EventHook when added to the root.
	layers := map[string]*suture.Supervisor{
		LayerData:      suture.New(LayerData, specFor(config.FailureBackoff)),
		LayerMessaging: suture.New(LayerMessaging, specFor(config.ListenerBackoff)),
		LayerAPI:       suture.New(LayerAPI, specFor(config.FailureBackoff)),
	}
	for _, name := range []string{LayerData, LayerMessaging, LayerAPI} {
		root.Add(layers[name])
	}

	return &SupervisorTree{
		root:     root,
		layers:   layers,
		config:   config,
		services: make(map[string][]string),
	}, nil
}

// Root returns the root supervisor.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

func (t *SupervisorTree) add(layer string, svc suture.Service) suture.ServiceToken {
	t.mu.Lock()
	t.services[layer] = append(t.services[layer], serviceName(svc))
	t.mu.Unlock()
	return t.layers[layer].Add(svc)
}

func serviceName(svc suture.Service) string {
	if s, ok := svc.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", svc)
}

// AddDataService adds a service to the data layer.
func (t *SupervisorTree) AddDataService(svc suture.Service) suture.ServiceToken {
	return t.add(LayerData, svc)
}

// AddMessagingService adds a service to the messaging layer.
func (t *SupervisorTree) AddMessagingService(svc suture.Service) suture.ServiceToken {
	return t.add(LayerMessaging, svc)
}

// AddAPIService adds a service to the API layer.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.add(LayerAPI, svc)
}

// Services returns the names of the services added to each layer, in order.
// Layers without services are omitted.
func (t *SupervisorTree) Services() map[string][]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string][]string, len(t.services))
	for layer, names := range t.services {
		out[layer] = append([]string(nil), names...)
	}
	return out
}

// Serve starts the tree and blocks until ctx is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the tree in a goroutine. The returned channel receives
// the result when the tree stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
