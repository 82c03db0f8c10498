// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package eventprocessor

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/railpath/internal/metrics"
)

func TestNewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test-breaker"))

	if cb == nil {
		t.Fatal("Expected non-nil circuit breaker")
	}
	if cb.Name() != "test-breaker" {
		t.Errorf("Expected name=test-breaker, got %s", cb.Name())
	}
	if state := CircuitBreakerState(cb); state != "closed" {
		t.Errorf("Expected initial state=closed, got %s", state)
	}
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "open-test",
		MaxRequests:      1,
		Interval:         time.Second,
		Timeout:          time.Second,
		FailureThreshold: 2,
	})

	testErr := errors.New("fail")
	for i := 0; i < 2; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, testErr })
	}

	_, err := cb.Execute(func() (interface{}, error) { return "should not execute", nil })
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Expected ErrOpenState, got %v", err)
	}

	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("open-test")); got != 2 {
		t.Errorf("Expected circuit_breaker_state=2, got %v", got)
	}
}

func TestCircuitBreakerRecovery(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "recovery-test",
		MaxRequests:      1,
		Interval:         100 * time.Millisecond,
		Timeout:          100 * time.Millisecond,
		FailureThreshold: 1,
	})

	_, _ = cb.Execute(func() (interface{}, error) { return nil, errors.New("fail") })

	if _, err := cb.Execute(func() (interface{}, error) { return "test", nil }); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Expected ErrOpenState, got %v", err)
	}

	time.Sleep(150 * time.Millisecond)

	result, err := cb.Execute(func() (interface{}, error) { return "recovered", nil })
	if err != nil {
		t.Errorf("Unexpected error after recovery: %v", err)
	}
	if result != "recovered" {
		t.Errorf("Expected 'recovered', got %v", result)
	}
	if state := CircuitBreakerState(cb); state != "closed" {
		t.Errorf("Expected state=closed after recovery, got %s", state)
	}
}
