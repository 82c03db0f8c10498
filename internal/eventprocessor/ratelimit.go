// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package eventprocessor

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedPublisher throttles another EventPublisher with a token bucket.
// A full extract can emit tens of thousands of events; this keeps the
// downstream sink from being flooded.
type RateLimitedPublisher struct {
	next    EventPublisher
	limiter *rate.Limiter
}

// NewRateLimitedPublisher wraps next, allowing perSecond events per second
// with the given burst. A non-positive perSecond returns next unchanged.
func NewRateLimitedPublisher(next EventPublisher, perSecond float64, burst int) (EventPublisher, error) {
	if next == nil {
		return nil, ErrNilPublisher
	}
	if perSecond <= 0 {
		return next, nil
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedPublisher{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}, nil
}

// PublishEvent waits for a token, then delegates. When ctx ends while
// waiting the error wraps ctx.Err(); when the next token is due after ctx's
// deadline it wraps ErrDeadlineTooSoon without waiting.
func (p *RateLimitedPublisher) PublishEvent(ctx context.Context, event *PathwayConfirmedEvent) error {
	if err := p.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("rate limit wait: %w", ctxErr)
		}
		return fmt.Errorf("rate limit wait: %w: %v", ErrDeadlineTooSoon, err)
	}
	return p.next.PublishEvent(ctx, event)
}

// HealthCheck forwards to the wrapped publisher when it supports health checks.
func (p *RateLimitedPublisher) HealthCheck(ctx context.Context) ComponentHealth {
	if hc, ok := p.next.(HealthCheckable); ok {
		h := hc.HealthCheck(ctx)
		if h.Details == nil {
			h.Details = map[string]interface{}{}
		}
		h.Details["rate_limit_per_second"] = float64(p.limiter.Limit())
		h.Details["rate_limit_burst"] = p.limiter.Burst()
		return h
	}
	return ComponentHealth{Healthy: true, Message: "rate limited publisher"}
}

// Unwrap returns the wrapped publisher.
func (p *RateLimitedPublisher) Unwrap() EventPublisher {
	return p.next
}
