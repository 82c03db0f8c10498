// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/railpath/internal/logging"
	"github.com/tomtom215/railpath/internal/pipeline"
	"github.com/tomtom215/railpath/internal/validation"
)

// ErrNoSource is returned when neither the request nor the config names a source.
var ErrNoSource = errors.New("no source configured for feed type")

// Request is one invocation of the pipeline.
type Request struct {
	FeedType       pipeline.FeedType `json:"feedType" validate:"required,oneof=update full"`
	ForceRefresh   bool              `json:"forceRefresh"`
	SourceOverride string            `json:"sourceOverride,omitempty" validate:"omitempty,feedsource"`
}

// Opener opens a feed location. *source.Opener implements it.
type Opener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// Processor runs a feed through the pipeline. *pipeline.Processor implements it.
type Processor interface {
	Process(ctx context.Context, r io.Reader, opts pipeline.RunOptions) *pipeline.Result
}

// Clearer empties the dedup store before a full refresh. dedup.Manager implements it.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Config controls run coordination.
type Config struct {
	UpdateSource string
	FullSource   string
	// RunTimeout bounds a single run; the run ends partial when it expires.
	// Zero means no limit.
	RunTimeout time.Duration
	// HistorySize is how many results Get and Recent can return.
	HistorySize int
	// ClearBeforeFull empties the dedup store before every full run.
	ClearBeforeFull bool
}

// Runner validates requests, opens sources and drives the processor.
// Runs may execute concurrently. Shutdown interrupts every run in flight.
type Runner struct {
	cfg     Config
	proc    Processor
	opener  Opener
	clearer Clearer
	history *history
	newID   func() string
	wg      sync.WaitGroup

	base context.Context
	stop context.CancelFunc
}

// New creates a Runner. clearer may be nil when ClearBeforeFull is off.
func New(cfg Config, proc Processor, opener Opener, clearer Clearer) (*Runner, error) {
	if proc == nil {
		return nil, errors.New("processor required")
	}
	if opener == nil {
		return nil, errors.New("source opener required")
	}
	if cfg.ClearBeforeFull && clearer == nil {
		return nil, errors.New("clear before full requires a dedup store")
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 50
	}
	base, stop := context.WithCancel(context.Background())
	return &Runner{
		cfg:     cfg,
		proc:    proc,
		opener:  opener,
		clearer: clearer,
		history: newHistory(cfg.HistorySize),
		newID:   uuid.NewString,
		base:    base,
		stop:    stop,
	}, nil
}

// Run executes req to completion and returns its Result. It never returns
// nil; rejected requests come back as failed results with no statistics.
func (r *Runner) Run(ctx context.Context, req Request) *pipeline.Result {
	runID := r.newID()
	if result := r.reject(runID, req); result != nil {
		return result
	}
	r.history.start(runID, req.FeedType)
	return r.execute(ctx, runID, req)
}

// Start validates req and runs it in the background. The returned run ID
// can be looked up with Get; until the run ends its status is running.
// The run is detached from ctx's cancellation but keeps its values; only
// its timeout or Shutdown ends it early.
func (r *Runner) Start(ctx context.Context, req Request) (string, *pipeline.Result) {
	runID := r.newID()
	if result := r.reject(runID, req); result != nil {
		return runID, result
	}
	r.history.start(runID, req.FeedType)

	bg := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.execute(bg, runID, req)
	}()
	return runID, nil
}

// Wait blocks until every background run has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown cancels every run in flight, so each ends partial, and waits
// for background runs to return. Runs started afterwards are canceled
// immediately.
func (r *Runner) Shutdown() {
	r.stop()
	r.wg.Wait()
}

// Get returns the result for runID, if it is still in history.
func (r *Runner) Get(runID string) (*pipeline.Result, bool) {
	return r.history.get(runID)
}

// Recent returns results newest first.
func (r *Runner) Recent() []*pipeline.Result {
	return r.history.recent()
}

// reject validates req and returns a failed, recorded result when it is invalid.
func (r *Runner) reject(runID string, req Request) *pipeline.Result {
	verr := validation.ValidateStruct(&req)
	if verr == nil {
		return nil
	}
	result := pipeline.Failed(runID, req.FeedType, time.Now().UTC(), verr)
	r.history.finish(result)
	logging.Warn().
		Err(verr).
		Str("run_id", runID).
		Str("feed_type", string(req.FeedType)).
		Msg("run request rejected")
	return result
}

func (r *Runner) execute(ctx context.Context, runID string, req Request) *pipeline.Result {
	started := time.Now().UTC()
	ctx, interrupt := context.WithCancel(ctx)
	defer interrupt()
	release := context.AfterFunc(r.base, interrupt)
	defer release()

	ctx = logging.ContextWithCorrelationID(ctx, runID)
	logger := logging.Ctx(ctx).With().
		Str("component", "runner").
		Str("run_id", runID).
		Str("feed_type", string(req.FeedType)).
		Logger()

	if r.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.RunTimeout)
		defer cancel()
	}

	location := req.SourceOverride
	if location == "" {
		location = r.sourceFor(req.FeedType)
	}
	if location == "" {
		return r.fail(runID, req, started, fmt.Errorf("%w: %s", ErrNoSource, req.FeedType))
	}

	if req.FeedType == pipeline.FeedFull && r.cfg.ClearBeforeFull {
		if err := r.clearer.Clear(ctx); err != nil {
			return r.fail(runID, req, started, fmt.Errorf("clear dedup store: %w", err))
		}
		logger.Info().Msg("dedup store cleared before full refresh")
	}

	body, err := r.opener.Open(ctx, location)
	if err != nil {
		return r.fail(runID, req, started, fmt.Errorf("open source: %w", err))
	}
	defer body.Close()

	logger.Info().Str("source", logging.RedactURL(location)).Bool("force_refresh", req.ForceRefresh).Msg("run started")

	result := r.proc.Process(ctx, body, pipeline.RunOptions{
		RunID:        runID,
		FeedType:     req.FeedType,
		ForceRefresh: req.ForceRefresh,
	})
	r.history.finish(result)
	return result
}

func (r *Runner) fail(runID string, req Request, started time.Time, err error) *pipeline.Result {
	result := pipeline.Failed(runID, req.FeedType, started, err)
	r.history.finish(result)
	logging.Error().Err(err).Str("run_id", runID).Str("feed_type", string(req.FeedType)).Msg("run failed before processing")
	return result
}

func (r *Runner) sourceFor(ft pipeline.FeedType) string {
	switch ft {
	case pipeline.FeedUpdate:
		return r.cfg.UpdateSource
	case pipeline.FeedFull:
		return r.cfg.FullSource
	default:
		return ""
	}
}
