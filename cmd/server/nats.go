// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/railpath/internal/config"
	"github.com/tomtom215/railpath/internal/eventprocessor"
	"github.com/tomtom215/railpath/internal/logging"
)

// natsComponents owns the NATS sink: the optional embedded server, the
// JetStream stream and the Watermill publisher. It is itself an
// EventPublisher so the processor can be wired before the broker starts;
// publishes fail until Start has succeeded.
//
// Start and Shutdown may be called repeatedly, which lets the supervisor
// restart the broker after a failure.
type natsComponents struct {
	cfg     config.NATSConfig
	subject string
	breaker *gobreaker.CircuitBreaker[interface{}]
	logger  watermill.LoggerAdapter

	mu        sync.RWMutex
	server    *eventprocessor.EmbeddedServer
	conn      *natsgo.Conn
	stream    *eventprocessor.StreamInitializer
	publisher *eventprocessor.Publisher
	running   bool
}

func newNATSComponents(cfg config.NATSConfig, subject string) *natsComponents {
	return &natsComponents{
		cfg:     cfg,
		subject: subject,
		breaker: eventprocessor.NewCircuitBreaker(breakerConfig(cfg)),
		logger:  watermill.NewSlogLogger(logging.NewSlogLogger()),
	}
}

// breakerConfig overlays the configured breaker settings on the defaults.
func breakerConfig(cfg config.NATSConfig) eventprocessor.CircuitBreakerConfig {
	bc := eventprocessor.DefaultCircuitBreakerConfig("nats-publisher")
	if cfg.BreakerMaxRequests > 0 {
		bc.MaxRequests = cfg.BreakerMaxRequests
	}
	if cfg.BreakerInterval > 0 {
		bc.Interval = cfg.BreakerInterval
	}
	if cfg.BreakerTimeout > 0 {
		bc.Timeout = cfg.BreakerTimeout
	}
	if cfg.BreakerFailureThreshold > 0 {
		bc.FailureThreshold = cfg.BreakerFailureThreshold
	}
	return bc
}

// serverConfig overlays the configured embedded server settings on the defaults.
func serverConfig(cfg config.NATSConfig) *eventprocessor.ServerConfig {
	sc := eventprocessor.DefaultServerConfig()
	if cfg.Host != "" {
		sc.Host = cfg.Host
	}
	if cfg.Port != 0 {
		sc.Port = cfg.Port
	}
	if cfg.StoreDir != "" {
		sc.StoreDir = cfg.StoreDir
	}
	if cfg.MaxMemory > 0 {
		sc.JetStreamMaxMem = cfg.MaxMemory
	}
	if cfg.MaxStore > 0 {
		sc.JetStreamMaxStore = cfg.MaxStore
	}
	return &sc
}

// streamConfig maps the nats config section onto the stream definition.
func (n *natsComponents) streamConfig() eventprocessor.StreamConfig {
	sc := eventprocessor.DefaultStreamConfig()
	sc.Name = n.cfg.StreamName
	sc.Subjects = []string{n.subject}
	sc.MaxAge = n.cfg.StreamRetention
	sc.DuplicateWindow = n.cfg.DuplicateWindow
	if n.cfg.MaxStore > 0 {
		sc.MaxBytes = n.cfg.MaxStore
	}
	return sc
}

// Start brings the broker up: embedded server, connection, stream, publisher.
func (n *natsComponents) Start(ctx context.Context) (err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.running {
		return nil
	}
	defer func() {
		if err != nil {
			n.teardown(context.Background())
		}
	}()

	url := n.cfg.URL
	if n.cfg.EmbeddedServer {
		n.server, err = eventprocessor.NewEmbeddedServer(serverConfig(n.cfg), 30*time.Second)
		if err != nil {
			return fmt.Errorf("start embedded NATS server: %w", err)
		}
		url = n.server.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	n.conn, err = natsgo.Connect(url,
		natsgo.Name("railpath-stream-init"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(n.conn)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	sc := n.streamConfig()
	n.stream, err = eventprocessor.NewStreamInitializer(js, &sc)
	if err != nil {
		return err
	}
	stream, err := n.stream.EnsureStream(ctx)
	if err != nil {
		return err
	}
	info := stream.CachedInfo()
	logging.Info().
		Str("stream", info.Config.Name).
		Strs("subjects", info.Config.Subjects).
		Dur("max_age", info.Config.MaxAge).
		Msg("JetStream stream ready")

	pubCfg := eventprocessor.DefaultPublisherConfig(url)
	pubCfg.Subject = n.subject
	n.publisher, err = eventprocessor.NewPublisher(pubCfg, n.logger)
	if err != nil {
		return err
	}
	n.publisher.SetCircuitBreaker(n.breaker)

	n.running = true
	logging.Info().Str("subject", n.subject).Msg("NATS publisher ready")
	return nil
}

// Shutdown closes everything Start opened. Safe to call when not running.
func (n *natsComponents) Shutdown(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.teardown(ctx)
	logging.Info().Msg("NATS components stopped")
}

// teardown must be called with mu held.
func (n *natsComponents) teardown(ctx context.Context) {
	n.running = false
	if n.publisher != nil {
		if err := n.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing NATS publisher")
		}
		n.publisher = nil
	}
	n.stream = nil
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
	if n.server != nil {
		if err := n.server.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Embedded NATS server did not stop cleanly")
		}
		n.server = nil
	}
}

// IsRunning reports whether Start succeeded and Shutdown has not run since.
func (n *natsComponents) IsRunning() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.running
}

// PublishEvent implements eventprocessor.EventPublisher.
func (n *natsComponents) PublishEvent(ctx context.Context, event *eventprocessor.PathwayConfirmedEvent) error {
	n.mu.RLock()
	pub := n.publisher
	n.mu.RUnlock()
	if pub == nil {
		return fmt.Errorf("nats broker not running: %w", eventprocessor.ErrPublisherClosed)
	}
	return pub.PublishEvent(ctx, event)
}

// HealthCheck implements eventprocessor.HealthCheckable.
func (n *natsComponents) HealthCheck(ctx context.Context) eventprocessor.ComponentHealth {
	n.mu.RLock()
	stream, running := n.stream, n.running
	n.mu.RUnlock()

	if !running || stream == nil {
		return eventprocessor.ComponentHealth{Healthy: false, Error: "nats broker not running"}
	}
	h := stream.HealthCheck(ctx)
	if h.Details == nil {
		h.Details = map[string]interface{}{}
	}
	state := eventprocessor.CircuitBreakerState(n.breaker)
	h.Details["circuit_breaker"] = state
	h.Details["subject"] = n.subject
	if h.Healthy && n.breaker.State() != gobreaker.StateClosed {
		h.Degraded = true
		h.Message = "circuit breaker " + state
	}
	return h
}
