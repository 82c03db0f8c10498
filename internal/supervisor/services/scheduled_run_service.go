// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/railpath/internal/logging"
	"github.com/tomtom215/railpath/internal/pipeline"
	"github.com/tomtom215/railpath/internal/runner"
)

// RunTrigger matches the synchronous invocation entry point.
//
// Satisfied by *runner.Runner from internal/runner/runner.go.
type RunTrigger interface {
	Run(ctx context.Context, req runner.Request) *pipeline.Result
}

// ScheduledRunService triggers a pipeline invocation of one feed type on a
// fixed interval.
//
// Runs are executed inline, so a run that outlasts the interval delays the
// next one instead of overlapping it. Update and full schedules are
// separate services.
type ScheduledRunService struct {
	trigger  RunTrigger
	feedType pipeline.FeedType
	interval time.Duration
	name     string
}

// NewScheduledRunService creates a schedule for feedType.
// A non-positive interval disables the schedule: Serve returns
// suture.ErrDoNotRestart immediately.
func NewScheduledRunService(trigger RunTrigger, feedType pipeline.FeedType, interval time.Duration) *ScheduledRunService {
	return &ScheduledRunService{
		trigger:  trigger,
		feedType: feedType,
		interval: interval,
		name:     fmt.Sprintf("scheduled-%s-run", feedType),
	}
}

// Serve implements suture.Service.
func (s *ScheduledRunService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		return suture.ErrDoNotRestart
	}

	logger := logging.WithComponent(s.name)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			res := s.trigger.Run(ctx, runner.Request{FeedType: s.feedType})
			event := logger.Info()
			if res.Status == pipeline.StatusFailed {
				event = logger.Warn()
			}
			event.
				Str("run_id", res.RunID).
				Str("status", string(res.Status)).
				Int64("error_count", res.ErrorCount).
				Msg("Scheduled run finished")
		}
	}
}

// String implements fmt.Stringer for logging.
func (s *ScheduledRunService) String() string {
	return s.name
}
