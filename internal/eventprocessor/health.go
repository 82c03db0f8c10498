// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package eventprocessor

import (
	"context"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// HealthStatusType is the aggregated status reported by GET /api/v1/health.
type HealthStatusType string

const (
	HealthStatusHealthy   HealthStatusType = "healthy"
	HealthStatusDegraded  HealthStatusType = "degraded"  // every component up, at least one degraded
	HealthStatusUnhealthy HealthStatusType = "unhealthy" // at least one component down
)

// HealthConfig holds configuration for health checking.
type HealthConfig struct {
	// Timeout bounds each component check. A check that overruns is
	// reported unhealthy.
	Timeout time.Duration
}

// DefaultHealthConfig returns the defaults used by the server.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{Timeout: 5 * time.Second}
}

// ComponentHealth is one component's health report.
type ComponentHealth struct {
	Healthy   bool                   `json:"healthy"`
	Degraded  bool                   `json:"degraded,omitempty"`
	Name      string                 `json:"name"`
	Message   string                 `json:"message,omitempty"`
	Error     string                 `json:"error,omitempty"`
	LastCheck time.Time              `json:"last_check"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// HealthCheckable is implemented by the station holder, the dedup stores
// and every event sink.
type HealthCheckable interface {
	HealthCheck(ctx context.Context) ComponentHealth
}

// OverallHealth aggregates every registered component.
type OverallHealth struct {
	Healthy    bool                       `json:"healthy"`
	Status     HealthStatusType           `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthChecker runs HealthCheck on registered components, each under its
// own timeout.
type HealthChecker struct {
	config     HealthConfig
	mu         sync.RWMutex
	components map[string]HealthCheckable
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker(cfg HealthConfig) *HealthChecker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHealthConfig().Timeout
	}
	return &HealthChecker{
		config:     cfg,
		components: make(map[string]HealthCheckable),
	}
}

// RegisterComponent adds or replaces the component checked under name.
func (h *HealthChecker) RegisterComponent(name string, component HealthCheckable) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[name] = component
}

// check runs one component's HealthCheck under the configured timeout. A
// check that ignores its context is abandoned, not awaited.
func (h *HealthChecker) check(ctx context.Context, name string, component HealthCheckable) ComponentHealth {
	checkCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	resultCh := make(chan ComponentHealth, 1)
	go func() {
		resultCh <- component.HealthCheck(checkCtx)
	}()

	var result ComponentHealth
	select {
	case result = <-resultCh:
	case <-checkCtx.Done():
		result = ComponentHealth{Healthy: false, Error: "health check timeout"}
	}
	result.Name = name
	result.LastCheck = time.Now()
	return result
}

// CheckAll checks every registered component concurrently.
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	h.mu.RLock()
	components := make(map[string]HealthCheckable, len(h.components))
	for name, c := range h.components {
		components[name] = c
	}
	h.mu.RUnlock()

	results := make(chan ComponentHealth, len(components))
	var wg sync.WaitGroup
	for name, c := range components {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- h.check(ctx, name, c)
		}()
	}
	wg.Wait()
	close(results)

	overall := OverallHealth{
		Healthy:    true,
		Status:     HealthStatusHealthy,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth, len(components)),
	}
	for r := range results {
		overall.Components[r.Name] = r
		switch {
		case !r.Healthy:
			overall.Healthy = false
			overall.Status = HealthStatusUnhealthy
		case r.Degraded && overall.Status == HealthStatusHealthy:
			overall.Status = HealthStatusDegraded
		}
	}
	return overall
}

// CheckComponent checks a single registered component. The bool is false
// when no component is registered under name.
func (h *HealthChecker) CheckComponent(ctx context.Context, name string) (ComponentHealth, bool) {
	h.mu.RLock()
	component, ok := h.components[name]
	h.mu.RUnlock()
	if !ok {
		return ComponentHealth{}, false
	}
	return h.check(ctx, name, component), true
}

// HealthCheck implements HealthCheckable for Publisher.
func (p *Publisher) HealthCheck(ctx context.Context) ComponentHealth {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()

	if closed {
		return ComponentHealth{
			Healthy: false,
			Error:   "publisher is closed",
		}
	}

	details := map[string]interface{}{"subject": p.subject}
	if p.circuitBreaker != nil {
		state := p.circuitBreaker.State()
		details["circuit_breaker_state"] = state.String()

		switch state {
		case gobreaker.StateOpen:
			return ComponentHealth{
				Healthy: false,
				Error:   "circuit breaker is open",
				Details: details,
			}
		case gobreaker.StateHalfOpen:
			return ComponentHealth{
				Healthy:  true,
				Degraded: true,
				Message:  "circuit breaker is half-open",
				Details:  details,
			}
		}
	}

	return ComponentHealth{
		Healthy: true,
		Message: "publisher is operational",
		Details: details,
	}
}
