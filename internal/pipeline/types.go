// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package pipeline

import (
	"errors"
	"time"

	"github.com/tomtom215/railpath/internal/filter"
)

// FeedType names the feed variant being processed.
type FeedType string

const (
	// FeedUpdate is the small, frequent incremental feed.
	FeedUpdate FeedType = "update"
	// FeedFull is the large, infrequent full extract.
	FeedFull FeedType = "full"
)

// ErrInvalidFeedType is returned for a feed type other than update or full.
var ErrInvalidFeedType = errors.New("invalid feed type")

// Valid reports whether f is a known feed type.
func (f FeedType) Valid() bool {
	return f == FeedUpdate || f == FeedFull
}

// Status is the outcome of one run.
type Status string

const (
	// StatusCompleted means the stream was read to the end. Dropped
	// lines do not change it.
	StatusCompleted Status = "completed"
	// StatusPartial means the run was canceled or timed out between lines.
	StatusPartial Status = "partial"
	// StatusFailed means the request was invalid or the stream broke.
	StatusFailed Status = "failed"
	// StatusRunning marks a run a trigger has started but not finished.
	// Process never returns it.
	StatusRunning Status = "running"
)

// RunOptions parameterise one Process call.
type RunOptions struct {
	// RunID becomes the correlation ID of every emitted event.
	RunID string
	// FeedType labels metrics and the result.
	FeedType FeedType
	// ForceRefresh bypasses the dedup check. Keys are still recorded.
	ForceRefresh bool
}

// Duration marshals as a Go duration string ("1.5s").
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Statistics accumulates counts for one run. It is owned by a single
// Process call and frozen into its Result.
type Statistics struct {
	TotalLines         int64 `json:"totalLines"`
	SchedulesProcessed int64 `json:"schedulesProcessed"`
	SchedulesFiltered  int64 `json:"schedulesFiltered"`
	EventsPublished    int64 `json:"eventsPublished"`
	DuplicatesSkipped  int64 `json:"duplicatesSkipped"`
	ParseErrors        int64 `json:"parseErrors"`
	PublishFailures    int64 `json:"publishFailures"`
	DedupErrors        int64 `json:"dedupErrors"`

	BlankLines          int64 `json:"blankLines"`
	TimetableRecords    int64 `json:"timetableRecords"`
	AssociationRecords  int64 `json:"associationRecords"`
	UnrecognizedRecords int64 `json:"unrecognizedRecords"`

	FilteredByReason map[filter.Reason]int64 `json:"filteredByReason"`
	Compressed       bool                    `json:"compressed"`
	Elapsed          Duration                `json:"elapsed"`
}

func newStatistics() *Statistics {
	return &Statistics{FilteredByReason: make(map[filter.Reason]int64)}
}

func (s *Statistics) filtered(reason filter.Reason) {
	s.SchedulesFiltered++
	s.FilteredByReason[reason]++
}

// Result is what a run reports back to its trigger.
type Result struct {
	RunID    string   `json:"runId"`
	FeedType FeedType `json:"feedType"`
	Status   Status   `json:"status"`
	// Statistics is nil when the run failed before reading any input.
	Statistics *Statistics `json:"statistics"`
	// Errors is a bounded sample of the most recent error messages.
	Errors     []string  `json:"errors"`
	ErrorCount int64     `json:"errorCount"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Failed builds a failed Result with no statistics, for runs rejected
// before the stream is touched.
func Failed(runID string, feedType FeedType, startedAt time.Time, err error) *Result {
	return &Result{
		RunID:      runID,
		FeedType:   feedType,
		Status:     StatusFailed,
		Errors:     []string{err.Error()},
		ErrorCount: 1,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
	}
}
