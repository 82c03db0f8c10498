// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// EmbeddedServer wraps the NATS server with lifecycle management.
// It gives single-binary deployments a JetStream broker without
// an external dependency.
type EmbeddedServer struct {
	server    *server.Server
	config    ServerConfig
	clientURL string
}

// NewEmbeddedServer creates and starts an embedded NATS server.
// Returns an error if the server fails to start within readyTimeout.
func NewEmbeddedServer(cfg *ServerConfig, readyTimeout time.Duration) (*EmbeddedServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: server config required", ErrInvalidConfig)
	}
	if readyTimeout <= 0 {
		readyTimeout = 30 * time.Second
	}

	opts := &server.Options{
		ServerName:         "railpath-events",
		Host:               cfg.Host,
		Port:               cfg.Port,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.JetStreamMaxMem,
		JetStreamMaxStore:  cfg.JetStreamMaxStore,
		NoLog:              true,
		NoSigs:             true,
		MaxPayload:         8 * 1024 * 1024, // 8MB max message size
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return nil, errors.New("NATS server not ready within timeout")
	}

	return &EmbeddedServer{
		server:    ns,
		config:    *cfg,
		clientURL: ns.ClientURL(),
	}, nil
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the server and waits for it to exit, or for ctx to end.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// IsRunning returns server health status.
func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}

// JetStreamEnabled returns whether JetStream is enabled.
func (s *EmbeddedServer) JetStreamEnabled() bool {
	return s.server.JetStreamEnabled()
}

// HealthCheck implements HealthCheckable.
func (s *EmbeddedServer) HealthCheck(_ context.Context) ComponentHealth {
	details := map[string]interface{}{
		"client_url": s.clientURL,
		"jetstream":  s.JetStreamEnabled(),
	}
	if !s.IsRunning() {
		return ComponentHealth{Healthy: false, Error: "embedded NATS server is not running", Details: details}
	}
	return ComponentHealth{Healthy: true, Message: "embedded NATS server is running", Details: details}
}
