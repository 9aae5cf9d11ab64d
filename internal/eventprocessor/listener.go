// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package eventprocessor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/feedcore/internal/clock"
	"github.com/tomtom215/feedcore/internal/logging"
)

// transport is what one Run needs from the broker. close releases it.
type transport struct {
	subscriber message.Subscriber
	poison     message.Publisher
	close      func()
}

// Listener owns the invalidation pipeline: the optional embedded server, and per
// Run the broker connection, subscriber, poison publisher and router. Run can be
// called again after it returns, which is how the supervisor restarts it.
type Listener struct {
	cfg     Config
	handler *InvalidationHandler
	clock   clock.Clock
	server  *EmbeddedServer
	url     string
	running atomic.Bool

	connect func(ctx context.Context) (*transport, error)
}

// NewListener creates a listener. With cfg.Embedded the NATS server is started
// here and lives until Close.
func NewListener(cfg Config, handler *InvalidationHandler, clk clock.Clock) (*Listener, error) {
	if handler == nil {
		return nil, fmt.Errorf("%w: invalidation handler required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Listener{cfg: cfg, handler: handler, clock: clk, url: cfg.URL}
	l.connect = l.connectNATS

	if cfg.Embedded {
		srv, err := NewEmbeddedServer(&cfg.Server, 30*time.Second)
		if err != nil {
			return nil, err
		}
		l.server = srv
		l.url = srv.ClientURL()
		logging.Info().Str("url", l.url).Msg("Embedded NATS server started")
	}
	return l, nil
}

// URL returns the NATS URL the listener connects to.
func (l *Listener) URL() string {
	return l.url
}

// Run connects, subscribes to every event topic and processes events until ctx
// is canceled. Broker resources are released before it returns.
func (l *Listener) Run(ctx context.Context) error {
	tr, err := l.connect(ctx)
	if err != nil {
		return err
	}
	defer tr.close()

	router, err := NewRouter(&l.cfg.Router, tr.poison, nil, l.clock)
	if err != nil {
		return err
	}
	router.RegisterInvalidation(tr.subscriber, l.handler)

	l.running.Store(true)
	defer l.running.Store(false)

	logging.Info().Int("handlers", router.Handlers()).Msg("Invalidation listener running")
	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	return ctx.Err()
}

// IsRunning reports whether Run is processing events.
func (l *Listener) IsRunning() bool {
	return l.running.Load()
}

// Close shuts down the embedded server, if any.
func (l *Listener) Close(ctx context.Context) error {
	if l.server == nil {
		return nil
	}
	return l.server.Shutdown(ctx)
}

func (l *Listener) connectNATS(ctx context.Context) (*transport, error) {
	nc, err := natsgo.Connect(l.url,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	streams, err := NewStreamInitializer(js, &l.cfg.Stream)
	if err != nil {
		nc.Close()
		return nil, err
	}
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := streams.EnsureStream(initCtx); err != nil {
		nc.Close()
		return nil, err
	}

	pub, err := NewPublisher(l.url, nil)
	if err != nil {
		nc.Close()
		return nil, err
	}
	sub, err := NewSubscriber(l.url, l.cfg.Stream.Name, l.cfg.Subscriber, nil)
	if err != nil {
		_ = pub.Close()
		nc.Close()
		return nil, err
	}

	return &transport{
		subscriber: sub,
		poison:     pub,
		close: func() {
			if err := sub.Close(); err != nil {
				logging.Warn().Err(err).Msg("Closing event subscriber failed")
			}
			if err := pub.Close(); err != nil {
				logging.Warn().Err(err).Msg("Closing poison publisher failed")
			}
			nc.Close()
		},
	}, nil
}
