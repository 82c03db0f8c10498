// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package eventprocessor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestMemoryPublisher(t *testing.T) {
	t.Parallel()

	pub := NewMemoryPublisher()
	first, second := validEvent(), validEvent()
	second.TrainServiceNumber = "W99999"

	for _, e := range []*PathwayConfirmedEvent{first, second} {
		if err := pub.PublishEvent(context.Background(), e); err != nil {
			t.Fatalf("PublishEvent: %v", err)
		}
	}

	events := pub.Events()
	if len(events) != 2 || pub.Len() != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0] != first || events[1] != second {
		t.Error("Expected publish order to be preserved")
	}

	pub.Reset()
	if pub.Len() != 0 {
		t.Errorf("Expected empty sink after Reset, got %d", pub.Len())
	}
}

func TestMemoryPublisher_FailWhen(t *testing.T) {
	t.Parallel()

	pub := NewMemoryPublisher()
	boom := errors.New("sink unavailable")
	pub.FailWhen(func(e *PathwayConfirmedEvent) error {
		if e.TrainServiceNumber == "W12345" {
			return boom
		}
		return nil
	})

	if err := pub.PublishEvent(context.Background(), validEvent()); !errors.Is(err, boom) {
		t.Errorf("Expected injected error, got %v", err)
	}
	other := validEvent()
	other.TrainServiceNumber = "C00001"
	if err := pub.PublishEvent(context.Background(), other); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if pub.Len() != 1 {
		t.Errorf("Expected 1 stored event, got %d", pub.Len())
	}

	pub.FailWhen(nil)
	if err := pub.PublishEvent(context.Background(), validEvent()); err != nil {
		t.Errorf("Expected hook removal to restore publishing, got %v", err)
	}
}

func TestMemoryPublisher_RejectsInvalid(t *testing.T) {
	t.Parallel()

	pub := NewMemoryPublisher()
	if err := pub.PublishEvent(context.Background(), &PathwayConfirmedEvent{}); err == nil {
		t.Error("Expected validation error")
	}
	_ = pub.Close()
	if err := pub.PublishEvent(context.Background(), validEvent()); !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("Expected ErrPublisherClosed, got %v", err)
	}
}

func TestMemoryPublisher_Concurrent(t *testing.T) {
	t.Parallel()

	pub := NewMemoryPublisher()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pub.PublishEvent(context.Background(), validEvent())
		}()
	}
	wg.Wait()

	if pub.Len() != 20 {
		t.Errorf("Expected 20 events, got %d", pub.Len())
	}
}

func TestLogPublisher(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	pub := NewLogPublisherWithLogger(zerolog.New(&buf))

	if err := pub.PublishEvent(context.Background(), validEvent()); err != nil {
		t.Fatalf("PublishEvent: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"train_uid":"W12345"`, `"correlation_id":"run-1"`, `"trainServiceNumber":"W12345"`, EventNamePathwayConfirmed} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log output to contain %s, got %s", want, out)
		}
	}
	if pub.Count() != 1 {
		t.Errorf("Expected Count=1, got %d", pub.Count())
	}

	if err := pub.PublishEvent(context.Background(), &PathwayConfirmedEvent{}); err == nil {
		t.Error("Expected validation error for empty event")
	}
}

func TestRateLimitedPublisher(t *testing.T) {
	t.Parallel()

	if _, err := NewRateLimitedPublisher(nil, 1, 1); !errors.Is(err, ErrNilPublisher) {
		t.Errorf("Expected ErrNilPublisher, got %v", err)
	}

	mem := NewMemoryPublisher()
	unlimited, err := NewRateLimitedPublisher(mem, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if unlimited != EventPublisher(mem) {
		t.Error("Expected zero rate to return the wrapped publisher")
	}

	limited, err := NewRateLimitedPublisher(mem, 20, 1)
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limited.PublishEvent(context.Background(), validEvent()); err != nil {
			t.Fatalf("PublishEvent: %v", err)
		}
	}
	// burst 1 at 20/s: the 2nd and 3rd events wait ~50ms each
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("Expected throttling, 3 events took %v", elapsed)
	}
	if mem.Len() != 3 {
		t.Errorf("Expected 3 delivered events, got %d", mem.Len())
	}
}

func TestRateLimitedPublisher_CancelWhileWaiting(t *testing.T) {
	t.Parallel()

	mem := NewMemoryPublisher()
	limited, err := NewRateLimitedPublisher(mem, 0.1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := limited.PublishEvent(context.Background(), validEvent()); err != nil {
		t.Fatalf("first publish should use the burst token: %v", err)
	}

	// The next token is ten seconds away, past the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = limited.PublishEvent(ctx, validEvent())
	if !errors.Is(err, ErrDeadlineTooSoon) {
		t.Errorf("Expected ErrDeadlineTooSoon, got %v", err)
	}
	if waited := time.Since(start); waited > time.Second {
		t.Errorf("Expected an early return, waited %v", waited)
	}

	canceled, stop := context.WithCancel(context.Background())
	stop()
	err = limited.PublishEvent(canceled, validEvent())
	if !errors.Is(err, context.Canceled) || errors.Is(err, ErrDeadlineTooSoon) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if mem.Len() != 1 {
		t.Errorf("Expected only the first event delivered, got %d", mem.Len())
	}
}
