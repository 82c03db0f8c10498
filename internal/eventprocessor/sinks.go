// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package eventprocessor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/railpath/internal/logging"
	"github.com/tomtom215/railpath/internal/metrics"
)

// LogPublisher writes each event as a structured log line.
// It is the default sink when no broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
	mu     sync.Mutex
	count  int64
}

// NewLogPublisher creates a log sink writing through the global logger.
func NewLogPublisher() *LogPublisher {
	return NewLogPublisherWithLogger(logging.WithComponent("publisher"))
}

// NewLogPublisherWithLogger creates a log sink writing through logger.
func NewLogPublisherWithLogger(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// PublishEvent implements EventPublisher.
func (p *LogPublisher) PublishEvent(ctx context.Context, event *PathwayConfirmedEvent) error {
	start := time.Now()
	defer func() { metrics.ObservePublish(SinkLog, time.Since(start)) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := SerializeEvent(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.count++
	p.mu.Unlock()

	p.logger.Info().
		Str("event_id", event.Metadata.EventID).
		Str("correlation_id", event.Metadata.CorrelationID).
		Str("train_uid", event.TrainServiceNumber).
		Str("origin", event.Origin).
		Str("destination", event.Destination).
		RawJSON("event", data).
		Msg(EventNamePathwayConfirmed)
	return nil
}

// Count returns the number of events written.
func (p *LogPublisher) Count() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// HealthCheck implements HealthCheckable.
func (p *LogPublisher) HealthCheck(_ context.Context) ComponentHealth {
	return ComponentHealth{
		Healthy: true,
		Message: "log sink is operational",
		Details: map[string]interface{}{"events_written": p.Count()},
	}
}

// MemoryPublisher keeps published events in memory.
// It backs the "memory" sink and is the standard publisher in tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []*PathwayConfirmedEvent
	// failWith, when set, decides per event whether PublishEvent fails.
	failWith func(*PathwayConfirmedEvent) error
	closed   bool
}

// NewMemoryPublisher creates an empty in-memory sink.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// FailWhen installs a hook that decides per event whether publishing fails.
// A nil hook restores normal behaviour.
func (p *MemoryPublisher) FailWhen(fn func(*PathwayConfirmedEvent) error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failWith = fn
}

// PublishEvent implements EventPublisher.
func (p *MemoryPublisher) PublishEvent(ctx context.Context, event *PathwayConfirmedEvent) error {
	start := time.Now()
	defer func() { metrics.ObservePublish(SinkMemory, time.Since(start)) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := event.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}
	if p.failWith != nil {
		if err := p.failWith(event); err != nil {
			return err
		}
	}
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of the published events in publish order.
func (p *MemoryPublisher) Events() []*PathwayConfirmedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*PathwayConfirmedEvent, len(p.events))
	copy(out, p.events)
	return out
}

// Len returns the number of published events.
func (p *MemoryPublisher) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// Reset drops all stored events.
func (p *MemoryPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

// Close marks the sink closed; further publishes fail.
func (p *MemoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// HealthCheck implements HealthCheckable.
func (p *MemoryPublisher) HealthCheck(_ context.Context) ComponentHealth {
	p.mu.Lock()
	defer p.mu.Unlock()
	details := map[string]interface{}{"events_stored": len(p.events)}
	if p.closed {
		return ComponentHealth{Healthy: false, Error: "publisher is closed", Details: details}
	}
	return ComponentHealth{Healthy: true, Message: "memory sink is operational", Details: details}
}
