// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package services

import (
	"context"
	"fmt"
	"time"
)

// BrokerComponents matches the NATS stack lifecycle.
//
// Satisfied by *natsComponents from cmd/server/nats.go:
//   - Start(ctx) ensures the stream exists on the connected broker
//   - Shutdown(ctx) closes the publisher and the embedded server, if any
//   - IsRunning() reports whether Start has succeeded and Shutdown not run
type BrokerComponents interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	IsRunning() bool
}

// BrokerService wraps the NATS components as a supervised service.
//
// It adapts the Start/Shutdown lifecycle to suture's Serve pattern:
//  1. Calls Start(ctx)
//  2. Waits for context cancellation
//  3. Calls Shutdown with a fresh timeout context
type BrokerService struct {
	components      BrokerComponents
	shutdownTimeout time.Duration
	name            string
}

// NewBrokerService creates a broker service wrapper.
// A non-positive shutdownTimeout defaults to 10 seconds.
func NewBrokerService(components BrokerComponents, shutdownTimeout time.Duration) *BrokerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &BrokerService{
		components:      components,
		shutdownTimeout: shutdownTimeout,
		name:            "nats-broker",
	}
}

// Serve implements suture.Service.
func (s *BrokerService) Serve(ctx context.Context) error {
	if err := s.components.Start(ctx); err != nil {
		return fmt.Errorf("nats components start failed: %w", err)
	}

	<-ctx.Done()

	// The original context is canceled.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.components.Shutdown(shutdownCtx)

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
func (s *BrokerService) String() string {
	return s.name
}
