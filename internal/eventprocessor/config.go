// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package eventprocessor

import (
	"fmt"
	"time"
)

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns production defaults for embedded NATS server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   256 << 20, // 256MB
		JetStreamMaxStore: 4 << 30,   // 4GB
	}
}

// PublisherConfig holds publisher configuration.
type PublisherConfig struct {
	URL              string
	Subject          string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool // nolint:revive // ID is correct per Go conventions
}

// DefaultPublisherConfig returns production defaults for publisher.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		Subject:          DefaultSubject,
		MaxReconnects:    -1, // Unlimited
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024, // 8MB
		EnableTrackMsgID: true,
	}
}

// StreamConfig defines pathway event stream settings.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns production stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            "PATHWAY_EVENTS",
		Subjects:        []string{"pathway.>"},
		MaxAge:          7 * 24 * time.Hour,
		MaxBytes:        4 * 1024 * 1024 * 1024, // 4GB
		MaxMsgs:         -1,                     // Unlimited
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// Validate checks the stream settings before they reach JetStream.
func (c StreamConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: stream name required", ErrInvalidConfig)
	}
	if len(c.Subjects) == 0 {
		return fmt.Errorf("%w: at least one stream subject required", ErrInvalidConfig)
	}
	if c.Replicas < 1 {
		return fmt.Errorf("%w: replicas must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Allowed in half-open state
	Interval         time.Duration // Reset interval for counts
	Timeout          time.Duration // Time to stay open
	FailureThreshold uint32        // Failures before opening
}

// DefaultCircuitBreakerConfig returns production defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}
