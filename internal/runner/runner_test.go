// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/railpath/internal/dedup"
	"github.com/tomtom215/railpath/internal/eventprocessor"
	"github.com/tomtom215/railpath/internal/logging"
	"github.com/tomtom215/railpath/internal/pipeline"
	"github.com/tomtom215/railpath/internal/source"
	"github.com/tomtom215/railpath/internal/stations"
)

// mockProcessor records calls and returns a completed result unless block is set.
type mockProcessor struct {
	mu      sync.Mutex
	calls   []pipeline.RunOptions
	bodies  []string
	ctxs    []context.Context
	block   chan struct{}
	started chan struct{}
}

func (m *mockProcessor) Process(ctx context.Context, r io.Reader, opts pipeline.RunOptions) *pipeline.Result {
	b, _ := io.ReadAll(r)
	m.mu.Lock()
	m.calls = append(m.calls, opts)
	m.bodies = append(m.bodies, string(b))
	m.ctxs = append(m.ctxs, ctx)
	block, started := m.block, m.started
	m.mu.Unlock()

	if started != nil {
		close(started)
	}
	status := pipeline.StatusCompleted
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			status = pipeline.StatusPartial
		}
	}
	return &pipeline.Result{RunID: opts.RunID, FeedType: opts.FeedType, Status: status, Statistics: &pipeline.Statistics{}}
}

func (m *mockProcessor) lastCall() (pipeline.RunOptions, string, context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.calls) - 1
	return m.calls[n], m.bodies[n], m.ctxs[n]
}

// mockOpener serves locations from a map.
type mockOpener struct {
	mu     sync.Mutex
	feeds  map[string]string
	opened []string
}

func (m *mockOpener) Open(_ context.Context, location string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = append(m.opened, location)
	body, ok := m.feeds[location]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

type mockClearer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockClearer) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.err
}

func (m *mockClearer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newOpener() *mockOpener {
	return &mockOpener{feeds: map[string]string{
		"/feeds/update.ndjson": "update-body",
		"/feeds/full.ndjson":   "full-body",
		"/tmp/override.ndjson": "override-body",
	}}
}

func defaultConfig() Config {
	return Config{
		UpdateSource: "/feeds/update.ndjson",
		FullSource:   "/feeds/full.ndjson",
		HistorySize:  10,
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New(defaultConfig(), nil, newOpener(), nil); err == nil {
		t.Error("Expected error for nil processor")
	}
	if _, err := New(defaultConfig(), &mockProcessor{}, nil, nil); err == nil {
		t.Error("Expected error for nil opener")
	}
	cfg := defaultConfig()
	cfg.ClearBeforeFull = true
	if _, err := New(cfg, &mockProcessor{}, newOpener(), nil); err == nil {
		t.Error("Expected error for clear-before-full without a store")
	}
}

func TestRun_SourceSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		req      Request
		wantBody string
	}{
		{name: "update", req: Request{FeedType: pipeline.FeedUpdate}, wantBody: "update-body"},
		{name: "full", req: Request{FeedType: pipeline.FeedFull}, wantBody: "full-body"},
		{name: "override", req: Request{FeedType: pipeline.FeedFull, SourceOverride: "/tmp/override.ndjson"}, wantBody: "override-body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			proc := &mockProcessor{}
			r, err := New(defaultConfig(), proc, newOpener(), nil)
			if err != nil {
				t.Fatal(err)
			}

			result := r.Run(context.Background(), tt.req)
			if result.Status != pipeline.StatusCompleted {
				t.Fatalf("Expected completed, got %s %v", result.Status, result.Errors)
			}
			opts, body, ctx := proc.lastCall()
			if body != tt.wantBody {
				t.Errorf("Expected body %q, got %q", tt.wantBody, body)
			}
			if opts.FeedType != tt.req.FeedType || opts.RunID != result.RunID {
				t.Errorf("Unexpected options %+v", opts)
			}
			if got := logging.CorrelationIDFromContext(ctx); got != result.RunID {
				t.Errorf("Expected correlation ID %s, got %s", result.RunID, got)
			}
		})
	}
}

func TestRun_ForceRefreshPassedThrough(t *testing.T) {
	t.Parallel()

	proc := &mockProcessor{}
	r, _ := New(defaultConfig(), proc, newOpener(), nil)
	r.Run(context.Background(), Request{FeedType: pipeline.FeedUpdate, ForceRefresh: true})

	opts, _, _ := proc.lastCall()
	if !opts.ForceRefresh {
		t.Error("Expected ForceRefresh to reach the processor")
	}
}

func TestRun_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     Request
		wantMsg string
	}{
		{name: "unknown feed type", req: Request{FeedType: "weekly"}, wantMsg: "feedType must be one of"},
		{name: "missing feed type", req: Request{}, wantMsg: "feedType is required"},
		{name: "bad override", req: Request{FeedType: pipeline.FeedUpdate, SourceOverride: "ftp://x/y"}, wantMsg: "sourceOverride"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			proc := &mockProcessor{}
			r, _ := New(defaultConfig(), proc, newOpener(), nil)

			result := r.Run(context.Background(), tt.req)
			if result.Status != pipeline.StatusFailed || result.Statistics != nil {
				t.Fatalf("Expected failed with nil statistics, got %s %+v", result.Status, result.Statistics)
			}
			if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], tt.wantMsg) {
				t.Errorf("Expected error containing %q, got %v", tt.wantMsg, result.Errors)
			}
			if len(proc.calls) != 0 {
				t.Error("Expected processor not to be called")
			}
			if _, ok := r.Get(result.RunID); !ok {
				t.Error("Expected rejected run in history")
			}
		})
	}
}

func TestRun_SourceFailures(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.FullSource = ""
	r, _ := New(cfg, &mockProcessor{}, newOpener(), nil)

	result := r.Run(context.Background(), Request{FeedType: pipeline.FeedFull})
	if result.Status != pipeline.StatusFailed || !strings.Contains(result.Errors[0], ErrNoSource.Error()) {
		t.Errorf("Expected no-source failure, got %s %v", result.Status, result.Errors)
	}

	result = r.Run(context.Background(), Request{FeedType: pipeline.FeedUpdate, SourceOverride: "/missing.ndjson"})
	if result.Status != pipeline.StatusFailed || result.Statistics != nil {
		t.Errorf("Expected failed with nil statistics, got %s", result.Status)
	}
	if !strings.Contains(result.Errors[0], "open source") {
		t.Errorf("Expected open error, got %v", result.Errors)
	}
}

func TestRun_ClearBeforeFull(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.ClearBeforeFull = true
	clearer := &mockClearer{}
	r, _ := New(cfg, &mockProcessor{}, newOpener(), clearer)

	r.Run(context.Background(), Request{FeedType: pipeline.FeedUpdate})
	if clearer.count() != 0 {
		t.Error("Expected update run not to clear")
	}
	r.Run(context.Background(), Request{FeedType: pipeline.FeedFull})
	if clearer.count() != 1 {
		t.Errorf("Expected full run to clear once, got %d", clearer.count())
	}

	clearer.err = errors.New("disk full")
	result := r.Run(context.Background(), Request{FeedType: pipeline.FeedFull})
	if result.Status != pipeline.StatusFailed || !strings.Contains(result.Errors[0], "disk full") {
		t.Errorf("Expected clear failure to fail the run, got %s %v", result.Status, result.Errors)
	}
}

func TestRun_NoClearByDefault(t *testing.T) {
	t.Parallel()

	clearer := &mockClearer{}
	r, _ := New(defaultConfig(), &mockProcessor{}, newOpener(), clearer)
	r.Run(context.Background(), Request{FeedType: pipeline.FeedFull})
	if clearer.count() != 0 {
		t.Error("Expected no clear when ClearBeforeFull is off")
	}
}

func TestRun_Timeout(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.RunTimeout = 30 * time.Millisecond
	proc := &mockProcessor{block: make(chan struct{})}
	r, _ := New(cfg, proc, newOpener(), nil)

	result := r.Run(context.Background(), Request{FeedType: pipeline.FeedUpdate})
	if result.Status != pipeline.StatusPartial {
		t.Errorf("Expected partial after timeout, got %s", result.Status)
	}
	_, _, ctx := proc.lastCall()
	if _, ok := ctx.Deadline(); !ok {
		t.Error("Expected run context to carry a deadline")
	}
}

func TestStart_Background(t *testing.T) {
	t.Parallel()

	proc := &mockProcessor{block: make(chan struct{}), started: make(chan struct{})}
	r, _ := New(defaultConfig(), proc, newOpener(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	runID, rejected := r.Start(ctx, Request{FeedType: pipeline.FeedUpdate})
	if rejected != nil {
		t.Fatalf("Unexpected rejection %v", rejected.Errors)
	}
	<-proc.started

	got, ok := r.Get(runID)
	if !ok || got.Status != pipeline.StatusRunning {
		t.Fatalf("Expected running entry, got %+v", got)
	}

	// Canceling the trigger's context does not stop a background run.
	cancel()
	time.Sleep(10 * time.Millisecond)
	close(proc.block)
	r.Wait()

	got, _ = r.Get(runID)
	if got.Status != pipeline.StatusCompleted {
		t.Errorf("Expected completed, got %s", got.Status)
	}
}

func TestShutdown_InterruptsBackgroundRun(t *testing.T) {
	t.Parallel()

	proc := &mockProcessor{block: make(chan struct{}), started: make(chan struct{})}
	r, _ := New(defaultConfig(), proc, newOpener(), nil)

	runID, rejected := r.Start(context.Background(), Request{FeedType: pipeline.FeedFull})
	if rejected != nil {
		t.Fatalf("Unexpected rejection %v", rejected.Errors)
	}
	<-proc.started

	done := make(chan struct{})
	go func() {
		r.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not interrupt the background run")
	}

	got, ok := r.Get(runID)
	if !ok || got.Status != pipeline.StatusPartial {
		t.Fatalf("Expected partial after shutdown, got %+v", got)
	}

	// Runs triggered after shutdown are interrupted at once.
	proc.mu.Lock()
	proc.started = nil
	proc.mu.Unlock()
	result := r.Run(context.Background(), Request{FeedType: pipeline.FeedUpdate})
	if result.Status != pipeline.StatusPartial {
		t.Errorf("Expected partial for a run after shutdown, got %s", result.Status)
	}
}

func TestStart_Rejected(t *testing.T) {
	t.Parallel()

	r, _ := New(defaultConfig(), &mockProcessor{}, newOpener(), nil)
	runID, rejected := r.Start(context.Background(), Request{FeedType: "hourly"})
	if rejected == nil || rejected.Status != pipeline.StatusFailed {
		t.Fatalf("Expected rejection, got %+v", rejected)
	}
	if rejected.RunID != runID {
		t.Errorf("Expected run ID %s, got %s", runID, rejected.RunID)
	}
}

func TestHistory_Bounded(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.HistorySize = 2
	r, _ := New(cfg, &mockProcessor{}, newOpener(), nil)

	ids := make([]string, 3)
	for i := range ids {
		ids[i] = r.Run(context.Background(), Request{FeedType: pipeline.FeedUpdate}).RunID
	}

	recent := r.Recent()
	if len(recent) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(recent))
	}
	if recent[0].RunID != ids[2] || recent[1].RunID != ids[1] {
		t.Errorf("Expected newest first, got %s, %s", recent[0].RunID, recent[1].RunID)
	}
	if _, ok := r.Get(ids[0]); ok {
		t.Error("Expected oldest run to be evicted")
	}
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	feed := `{"JsonTimetableV1":{"owner":"Network Rail","Metadata":{"type":"update","sequence":1}}}` + "\n" +
		`{"JsonScheduleV1":{"CIF_train_uid":"W12345","CIF_stp_indicator":"N","schedule_start_date":"2024-01-08","schedule_days_runs":"1111100","schedule_segment":{"schedule_location":[{"tiploc_code":"EUSTON","departure":"0800"},{"tiploc_code":"MNCRPIC","arrival":"1005"}]}}}` + "\n"
	path := filepath.Join(t.TempDir(), "update.ndjson")
	if err := os.WriteFile(path, []byte(feed), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := stations.NewTable([]stations.Entry{
		{TIPLOC: "EUSTON", StationMapping: stations.StationMapping{StationCode: "EUS", Name: "London Euston"}},
		{TIPLOC: "MNCRPIC", StationMapping: stations.StationMapping{StationCode: "MAN", Name: "Manchester Piccadilly"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	pub := eventprocessor.NewMemoryPublisher()
	store := dedup.NewMemoryStore(24 * time.Hour)
	proc, err := pipeline.NewProcessor(pipeline.Config{}, stations.NewStaticHolder(table), store, pub)
	if err != nil {
		t.Fatal(err)
	}

	r, err := New(Config{UpdateSource: path}, proc, source.NewOpener(time.Second), store)
	if err != nil {
		t.Fatal(err)
	}

	first := r.Run(context.Background(), Request{FeedType: pipeline.FeedUpdate})
	if first.Status != pipeline.StatusCompleted || first.Statistics.EventsPublished != 1 {
		t.Fatalf("Unexpected first run %s %+v", first.Status, first.Statistics)
	}
	second := r.Run(context.Background(), Request{FeedType: pipeline.FeedUpdate})
	if second.Statistics.DuplicatesSkipped != 1 || second.Statistics.EventsPublished != 0 {
		t.Errorf("Expected rerun to be deduplicated, got %+v", second.Statistics)
	}
	if e := pub.Events()[0]; e.Metadata.CorrelationID != first.RunID {
		t.Errorf("Expected event correlation ID %s, got %s", first.RunID, e.Metadata.CorrelationID)
	}
}
