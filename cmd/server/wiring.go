// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package main

import (
	"fmt"
	"net/http"

	"github.com/tomtom215/railpath/internal/api"
	"github.com/tomtom215/railpath/internal/config"
	"github.com/tomtom215/railpath/internal/dedup"
	"github.com/tomtom215/railpath/internal/eventprocessor"
	"github.com/tomtom215/railpath/internal/logging"
	"github.com/tomtom215/railpath/internal/pipeline"
	"github.com/tomtom215/railpath/internal/runner"
	"github.com/tomtom215/railpath/internal/source"
	"github.com/tomtom215/railpath/internal/stations"
)

// app is everything main builds before the supervisor tree starts.
type app struct {
	cfg      *config.Config
	stations *stations.Holder
	store    dedup.Manager
	sink     eventprocessor.EventPublisher
	broker   *natsComponents // nil unless the nats sink is selected
	runner   *runner.Runner
	health   *eventprocessor.HealthChecker
}

// dedupConfig maps the dedup config section onto the store config.
func dedupConfig(cfg *config.Config) dedup.Config {
	dc := dedup.DefaultConfig()
	dc.Backend = cfg.Dedup.Backend
	dc.Path = cfg.Dedup.Path
	dc.Retention = cfg.Dedup.Retention
	dc.SyncWrites = cfg.Dedup.SyncWrites
	dc.GCInterval = cfg.Dedup.GCInterval
	dc.GCRatio = cfg.Dedup.GCRatio
	dc.ClearBeforeFull = cfg.Dedup.ClearBeforeFull
	return dc
}

// buildSink selects the event sink and applies the optional rate limit.
// The returned broker is non-nil only for the nats sink.
func buildSink(cfg *config.Config) (eventprocessor.EventPublisher, *natsComponents, error) {
	var (
		sink   eventprocessor.EventPublisher
		broker *natsComponents
	)
	switch cfg.Publisher.Sink {
	case eventprocessor.SinkLog:
		sink = eventprocessor.NewLogPublisherWithLogger(logging.WithComponent("sink"))
	case eventprocessor.SinkMemory:
		sink = eventprocessor.NewMemoryPublisher()
	case eventprocessor.SinkNATS:
		broker = newNATSComponents(cfg.NATS, cfg.Publisher.Subject)
		sink = broker
	default:
		return nil, nil, fmt.Errorf("%w: %q", eventprocessor.ErrUnknownSink, cfg.Publisher.Sink)
	}

	limited, err := eventprocessor.NewRateLimitedPublisher(sink, cfg.Publisher.RateLimit, cfg.Publisher.RateBurst)
	if err != nil {
		return nil, nil, err
	}
	return limited, broker, nil
}

// buildApp wires stations, dedup store, sink, processor and runner.
// The station table is loaded once here; a missing file is fatal because
// no schedule can pass the filter without it.
func buildApp(cfg *config.Config) (*app, error) {
	holder := stations.NewHolder(cfg.Stations.Path)
	if err := holder.Reload(); err != nil {
		return nil, fmt.Errorf("load station table: %w", err)
	}

	dc := dedupConfig(cfg)
	store, err := dedup.Open(&dc)
	if err != nil {
		return nil, fmt.Errorf("open dedup store: %w", err)
	}

	sink, broker, err := buildSink(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	proc, err := pipeline.NewProcessor(pipeline.Config{
		MaxLineBytes:    cfg.Feed.MaxLineBytes,
		MaxErrorSamples: cfg.Feed.MaxErrorSamples,
	}, holder, store, sink)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	run, err := runner.New(runner.Config{
		UpdateSource:    cfg.Feed.UpdateSource,
		FullSource:      cfg.Feed.FullSource,
		RunTimeout:      cfg.Feed.RunTimeout,
		HistorySize:     cfg.Feed.HistorySize,
		ClearBeforeFull: cfg.Dedup.ClearBeforeFull,
	}, proc, source.NewOpener(cfg.Feed.FetchTimeout), store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	health := eventprocessor.NewHealthChecker(eventprocessor.DefaultHealthConfig())
	health.RegisterComponent("stations", holder)
	health.RegisterComponent("dedup", store)
	if hc, ok := sink.(eventprocessor.HealthCheckable); ok {
		health.RegisterComponent("publisher", hc)
	}

	return &app{
		cfg:      cfg,
		stations: holder,
		store:    store,
		sink:     sink,
		broker:   broker,
		runner:   run,
		health:   health,
	}, nil
}

// httpServer builds the trigger API server.
func (a *app) httpServer() *http.Server {
	sec := a.cfg.Security
	mw := api.NewChiMiddleware(api.NewChiMiddlewareConfig(
		sec.CORSOrigins, sec.RateLimitReqs, sec.RateLimitWindow, sec.RateLimitDisabled,
	))
	router := api.NewRouter(api.NewHandler(a.runner, a.store, a.health), mw)

	return &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
	}
}

// close interrupts remaining runs and releases the dedup store. The broker
// is stopped by its service.
func (a *app) close() {
	a.runner.Shutdown()
	if err := a.store.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing dedup store")
	}
}
