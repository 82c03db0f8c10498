// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package eventprocessor

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamContext defines the subset of jetstream.JetStream used by StreamInitializer.
// This interface allows for testing with mock implementations.
type JetStreamContext interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// StreamInitializer creates or updates the pathway event stream before the
// publisher starts, so publishes never race stream provisioning.
type StreamInitializer struct {
	js     JetStreamContext
	config StreamConfig
}

// NewStreamInitializer creates a new stream initializer with the given configuration.
func NewStreamInitializer(js JetStreamContext, cfg *StreamConfig) (*StreamInitializer, error) {
	if js == nil {
		return nil, errors.New("JetStream context required")
	}
	if cfg == nil {
		return nil, errors.New("stream config required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &StreamInitializer{
		js:     js,
		config: *cfg,
	}, nil
}

// streamConfig translates the settings into a JetStream stream definition.
// The duplicate window is what makes Nats-Msg-Id retries idempotent.
func (s *StreamInitializer) streamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        s.config.Name,
		Subjects:    s.config.Subjects,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      s.config.MaxAge,
		MaxBytes:    s.config.MaxBytes,
		MaxMsgs:     s.config.MaxMsgs,
		Duplicates:  s.config.DuplicateWindow,
		Replicas:    s.config.Replicas,
		Storage:     jetstream.FileStorage,
		AllowDirect: true,
		Discard:     jetstream.DiscardOld,
	}
}

// EnsureStream creates or updates the stream with the configured settings.
// This operation is idempotent - calling it multiple times is safe.
func (s *StreamInitializer) EnsureStream(ctx context.Context) (jetstream.Stream, error) {
	streamCfg := s.streamConfig()

	_, err := s.js.Stream(ctx, s.config.Name)
	if err == nil {
		stream, err := s.js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", s.config.Name, err)
		}
		return stream, nil
	}

	if errors.Is(err, jetstream.ErrStreamNotFound) {
		stream, err := s.js.CreateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("create stream %s: %w", s.config.Name, err)
		}
		return stream, nil
	}

	return nil, fmt.Errorf("check stream %s: %w", s.config.Name, err)
}

// HealthCheck implements HealthCheckable by querying the stream.
func (s *StreamInitializer) HealthCheck(ctx context.Context) ComponentHealth {
	if _, err := s.js.Stream(ctx, s.config.Name); err != nil {
		return ComponentHealth{
			Healthy: false,
			Error:   err.Error(),
			Details: map[string]interface{}{"stream": s.config.Name},
		}
	}
	return ComponentHealth{
		Healthy: true,
		Message: "stream available",
		Details: map[string]interface{}{"stream": s.config.Name},
	}
}

// Config returns the current stream configuration.
func (s *StreamInitializer) Config() StreamConfig {
	return s.config
}
