// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/railpath/internal/metrics"
)

// EventPublisher emits pathway confirmed events to a downstream sink.
//
// PublishEvent reports failure synchronously so the caller can count the
// event as lost rather than recording it as delivered.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *PathwayConfirmedEvent) error
}

// Sink names accepted by configuration.
const (
	SinkLog    = "log"
	SinkMemory = "memory"
	SinkNATS   = "nats"
)

// Publisher wraps Watermill publisher with resilience patterns.
// It provides circuit breaker protection and automatic reconnection handling.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
	subject        string
	mu             sync.RWMutex
	closed         bool
	logger         watermill.LoggerAdapter
}

// NewPublisher creates a resilient Watermill NATS publisher.
// The publisher is configured for JetStream with message ID tracking for deduplication.
func NewPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // Stream is pre-created by StreamInitializer
			TrackMsgId:    cfg.EnableTrackMsgID,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return newPublisher(pub, cfg.Subject, logger), nil
}

// newPublisher wraps any Watermill publisher; tests use the in-process gochannel pub/sub.
func newPublisher(pub message.Publisher, subject string, logger watermill.LoggerAdapter) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{
		publisher: pub,
		subject:   subject,
		logger:    logger,
	}
}

// SetCircuitBreaker configures the circuit breaker for publish operations.
func (p *Publisher) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[interface{}]) {
	p.circuitBreaker = cb
}

// Publish sends a message to the specified topic with circuit breaker protection.
// The message UUID is used as Nats-Msg-Id for deduplication if not already set.
func (p *Publisher) Publish(ctx context.Context, topic string, msg *message.Message) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPublisherClosed
	}
	p.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
		msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	}
	msg.SetContext(ctx)

	var err error
	if p.circuitBreaker != nil {
		_, err = p.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, p.publisher.Publish(topic, msg)
		})
		recordBreakerResult(p.circuitBreaker.Name(), err)
	} else {
		err = p.publisher.Publish(topic, msg)
	}

	return err
}

// PublishEvent serializes and publishes a pathway confirmed event.
func (p *Publisher) PublishEvent(ctx context.Context, event *PathwayConfirmedEvent) error {
	start := time.Now()
	defer func() { metrics.ObservePublish(SinkNATS, time.Since(start)) }()

	data, err := SerializeEvent(event)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(event.Metadata.EventID, data)
	msg.Metadata.Set("train_uid", event.TrainServiceNumber)
	msg.Metadata.Set("travel_date", event.TravelDate)
	msg.Metadata.Set("correlation_id", event.Metadata.CorrelationID)
	msg.Metadata.Set("schema_version", fmt.Sprintf("%d", event.Metadata.SchemaVersion))

	if err := p.Publish(ctx, p.subject, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.DedupKey(), err)
	}
	return nil
}

// Subject returns the subject events are published on.
func (p *Publisher) Subject() string {
	return p.subject
}

// Close gracefully shuts down the publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	return p.publisher.Close()
}

func recordBreakerResult(name string, err error) {
	switch {
	case err == nil:
		metrics.RecordCircuitBreakerRequest(name, "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordCircuitBreakerRequest(name, "rejected")
	default:
		metrics.RecordCircuitBreakerRequest(name, "failure")
	}
}
