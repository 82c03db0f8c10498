// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/railpath/internal/dedup"
	"github.com/tomtom215/railpath/internal/eventprocessor"
	"github.com/tomtom215/railpath/internal/filter"
	"github.com/tomtom215/railpath/internal/logging"
	"github.com/tomtom215/railpath/internal/metrics"
	"github.com/tomtom215/railpath/internal/schedule"
	"github.com/tomtom215/railpath/internal/stations"
	"github.com/tomtom215/railpath/internal/transform"
)

// Defaults for Config fields left at zero.
const (
	DefaultMaxLineBytes    = 4 * 1024 * 1024
	DefaultMaxErrorSamples = 50
)

// Config bounds per-run resource use.
type Config struct {
	// MaxLineBytes is the longest line decoded; longer lines are parse errors.
	MaxLineBytes int
	// MaxErrorSamples is how many recent error messages a Result keeps.
	MaxErrorSamples int
}

// StationSource supplies the station table a run resolves against.
// *stations.Holder implements it.
type StationSource interface {
	Snapshot() *stations.Table
}

// Processor streams a feed through decode, filter, dedup, transform and
// publish. One Processor serves any number of concurrent runs; each Process
// call owns its own statistics and reader.
type Processor struct {
	cfg         Config
	stations    StationSource
	dedup       dedup.Store
	publisher   eventprocessor.EventPublisher
	transformer *transform.Transformer
	now         func() time.Time
}

// Option customises a Processor.
type Option func(*Processor)

// WithTransformer replaces the default event transformer.
func WithTransformer(t *transform.Transformer) Option {
	return func(p *Processor) { p.transformer = t }
}

// WithClock sets the clock used for timing and dedup timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// NewProcessor wires a Processor. All collaborators are required.
func NewProcessor(cfg Config, src StationSource, store dedup.Store, pub eventprocessor.EventPublisher, opts ...Option) (*Processor, error) {
	if src == nil {
		return nil, errors.New("station source required")
	}
	if store == nil {
		return nil, errors.New("dedup store required")
	}
	if pub == nil {
		return nil, eventprocessor.ErrNilPublisher
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = DefaultMaxLineBytes
	}
	if cfg.MaxErrorSamples <= 0 {
		cfg.MaxErrorSamples = DefaultMaxErrorSamples
	}

	p := &Processor{
		cfg:         cfg,
		stations:    src,
		dedup:       store,
		publisher:   pub,
		transformer: transform.New(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	// Export a zero series per reason so rate() works before the first drop.
	for _, reason := range filter.AllReasons() {
		metrics.SchedulesFiltered.WithLabelValues(string(reason))
	}
	return p, nil
}

// run is the state of one Process call.
type run struct {
	opts   RunOptions
	table  *stations.Table
	engine *filter.Engine
	stats  *Statistics
	errs   *errorSample
	logger zerolog.Logger
}

// Process reads r to the end and returns the run's Result. It never
// returns an error: per-line problems are counted, and a broken stream or
// canceled context is reported through Result.Status.
func (p *Processor) Process(ctx context.Context, r io.Reader, opts RunOptions) *Result {
	start := p.now()
	if !opts.FeedType.Valid() {
		err := fmt.Errorf("%w: %q", ErrInvalidFeedType, opts.FeedType)
		metrics.RecordRun(string(opts.FeedType), string(StatusFailed), 0)
		return Failed(opts.RunID, opts.FeedType, start.UTC(), err)
	}
	metrics.TrackRunInFlight(true)
	defer metrics.TrackRunInFlight(false)

	ctx = logging.ContextWithCorrelationID(ctx, opts.RunID)
	table := p.stations.Snapshot()
	st := &run{
		opts:   opts,
		table:  table,
		engine: filter.NewEngine(table),
		stats:  newStatistics(),
		errs:   newErrorSample(p.cfg.MaxErrorSamples),
		logger: logging.Ctx(ctx).With().
			Str("component", "pipeline").
			Str("run_id", opts.RunID).
			Str("feed_type", string(opts.FeedType)).
			Bool("force_refresh", opts.ForceRefresh).
			Logger(),
	}
	if table.Len() == 0 {
		st.logger.Warn().Msg("station table is empty; every schedule will be filtered")
	}

	status := p.stream(ctx, r, st)

	st.stats.Elapsed = Duration(p.now().Sub(start))
	result := &Result{
		RunID:      opts.RunID,
		FeedType:   opts.FeedType,
		Status:     status,
		Statistics: st.stats,
		Errors:     st.errs.messages(),
		ErrorCount: st.errs.count,
		StartedAt:  start.UTC(),
		FinishedAt: p.now().UTC(),
	}

	metrics.RecordRun(string(opts.FeedType), string(status), time.Duration(st.stats.Elapsed))
	metrics.RecordLines(string(opts.FeedType), int(st.stats.TotalLines))

	st.logger.Info().
		Str("status", string(status)).
		Int64("total_lines", st.stats.TotalLines).
		Int64("schedules_processed", st.stats.SchedulesProcessed).
		Int64("schedules_filtered", st.stats.SchedulesFiltered).
		Int64("events_published", st.stats.EventsPublished).
		Int64("duplicates_skipped", st.stats.DuplicatesSkipped).
		Int64("parse_errors", st.stats.ParseErrors).
		Int64("publish_failures", st.stats.PublishFailures).
		Dur("elapsed", time.Duration(st.stats.Elapsed)).
		Msg("run finished")

	return result
}

// stream runs the line loop and returns the final status.
func (p *Processor) stream(ctx context.Context, r io.Reader, st *run) Status {
	src, compressed, err := decompress(r)
	st.stats.Compressed = compressed
	if err != nil {
		if ctx.Err() != nil {
			return p.interrupted(st, 0, ctx.Err())
		}
		st.errs.fail(err.Error())
		st.logger.Error().Err(err).Msg("cannot read feed")
		return StatusFailed
	}

	lines := newLineReader(src, p.cfg.MaxLineBytes)
	lineNo := 0
	for {
		if err := ctx.Err(); err != nil {
			return p.interrupted(st, lineNo, err)
		}

		line, err := lines.next()
		if errors.Is(err, io.EOF) {
			return StatusCompleted
		}

		if errors.Is(err, ErrLineTooLong) {
			lineNo++
			st.stats.TotalLines++
			p.parseError(st, &schedule.DecodeError{Line: lineNo, Err: err})
			continue
		}
		if err != nil {
			// A body bound to ctx fails its read once ctx ends.
			if ctx.Err() != nil {
				return p.interrupted(st, lineNo, ctx.Err())
			}
			err = fmt.Errorf("read line %d: %w", lineNo+1, err)
			st.errs.fail(err.Error())
			st.logger.Error().Err(err).Msg("feed stream failed")
			return StatusFailed
		}

		lineNo++
		st.stats.TotalLines++
		if err := p.processLine(ctx, st, lineNo, line); err != nil {
			return p.interrupted(st, lineNo, err)
		}
	}
}

// interrupted records a canceled or timed-out run. Statistics gathered so
// far are kept.
func (p *Processor) interrupted(st *run, lineNo int, cause error) Status {
	st.errs.fail(fmt.Sprintf("run interrupted after %d lines: %v", lineNo, cause))
	st.logger.Warn().Err(cause).Int("line", lineNo).Msg("run interrupted")
	return StatusPartial
}

// isInterruption reports whether a publish error means the run must stop
// rather than count a failure: ctx has ended, or the sink cannot finish
// before ctx's deadline.
func isInterruption(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, eventprocessor.ErrDeadlineTooSoon)
}

// processLine handles one line. It returns an error only when the run was
// interrupted while publishing.
func (p *Processor) processLine(ctx context.Context, st *run, lineNo int, line []byte) error {
	if schedule.IsBlank(line) {
		st.stats.BlankLines++
		return nil
	}

	rec, err := schedule.Decode(lineNo, line)
	if err != nil {
		p.parseError(st, err)
		return nil
	}

	switch r := rec.(type) {
	case *schedule.ScheduleRecord:
		return p.processSchedule(ctx, st, lineNo, r)
	case *schedule.TimetableHeader:
		st.stats.TimetableRecords++
		st.logger.Info().
			Str("owner", r.Owner).
			Str("header_type", r.FeedType).
			Int64("sequence", r.Sequence).
			Int64("timestamp", r.Timestamp).
			Msg("timetable header")
	case *schedule.AssociationRecord:
		st.stats.AssociationRecords++
	case schedule.Unrecognized:
		st.stats.UnrecognizedRecords++
	}
	return nil
}

func (p *Processor) parseError(st *run, err error) {
	st.stats.ParseErrors++
	st.errs.add(err.Error())
	metrics.RecordParseError()
	st.logger.Debug().Err(err).Msg("line skipped")
}

func (p *Processor) processSchedule(ctx context.Context, st *run, lineNo int, rec *schedule.ScheduleRecord) error {
	st.stats.SchedulesProcessed++

	if ok, reason := st.engine.IsEligible(rec); !ok {
		st.stats.filtered(reason)
		metrics.RecordFiltered(string(reason))
		return nil
	}

	key := rec.DedupKey()
	if !st.opts.ForceRefresh {
		seen, err := p.dedup.Exists(ctx, key)
		switch {
		case err != nil:
			// Treated as unseen: a possible duplicate beats a lost event.
			st.stats.DedupErrors++
			st.errs.add(fmt.Sprintf("line %d: dedup lookup %s: %v", lineNo, key, err))
			st.logger.Warn().Err(err).Str("dedup_key", key).Int("line", lineNo).Msg("dedup lookup failed")
		case seen:
			st.stats.DuplicatesSkipped++
			metrics.RecordDuplicateSkipped()
			return nil
		}
	}

	event, err := p.transformer.Transform(rec, st.table, st.opts.RunID)
	if err != nil {
		st.stats.filtered(filter.ReasonNoResolvedPassagePoints)
		metrics.RecordFiltered(string(filter.ReasonNoResolvedPassagePoints))
		st.logger.Warn().Err(err).Str("train_uid", rec.TrainUID).Int("line", lineNo).Msg("schedule has no resolvable passage points")
		return nil
	}

	if err := p.publisher.PublishEvent(ctx, event); err != nil {
		if isInterruption(ctx, err) {
			// Not recorded, so the next run publishes it.
			return err
		}
		st.stats.PublishFailures++
		st.errs.add(fmt.Sprintf("line %d: publish %s: %v", lineNo, key, err))
		metrics.RecordPublishFailure()
		st.logger.Error().Err(err).Str("train_uid", rec.TrainUID).Str("event_id", event.Metadata.EventID).Int("line", lineNo).Msg("publish failed")
		return nil
	}
	st.stats.EventsPublished++
	metrics.RecordEventPublished()

	// The event is out; record it even if the run is being canceled.
	if err := p.dedup.Record(context.WithoutCancel(ctx), key, p.now(), st.opts.RunID); err != nil {
		st.stats.DedupErrors++
		st.errs.add(fmt.Sprintf("line %d: dedup record %s: %v", lineNo, key, err))
		st.logger.Warn().Err(err).Str("dedup_key", key).Msg("dedup record failed after publish")
	}
	return nil
}
