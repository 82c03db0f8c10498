// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/tomtom215/railpath/internal/config"
	"github.com/tomtom215/railpath/internal/dedup"
	"github.com/tomtom215/railpath/internal/logging"
	"github.com/tomtom215/railpath/internal/metrics"
	"github.com/tomtom215/railpath/internal/pipeline"
	"github.com/tomtom215/railpath/internal/runner"
	"github.com/tomtom215/railpath/internal/supervisor"
	"github.com/tomtom215/railpath/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	once := flag.String("once", "", "run a single `update|full` invocation, print the result and exit")
	sourceOverride := flag.String("source", "", "feed location for -once, overriding the configured source")
	force := flag.Bool("force", false, "with -once, publish even if already deduplicated")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("railpath %s (%s)\n", version, runtime.Version())
		return
	}

	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	metrics.SetAppInfo(version, runtime.Version())

	a, err := buildApp(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize pipeline")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once != "" {
		req := runner.Request{
			FeedType:       pipeline.FeedType(*once),
			ForceRefresh:   *force,
			SourceOverride: *sourceOverride,
		}
		code := runOnce(ctx, a, req, os.Stdout)
		a.close()
		stop()
		os.Exit(code)
	}

	serve(ctx, a)
	a.close()
	logging.Info().Msg("Application stopped gracefully")
}

// runOnce executes a single invocation outside the supervisor tree and
// writes its Result as JSON. It returns the process exit code.
func runOnce(ctx context.Context, a *app, req runner.Request, out io.Writer) int {
	if a.broker != nil {
		if err := a.broker.Start(ctx); err != nil {
			logging.Error().Err(err).Msg("Failed to start NATS components")
			return 1
		}
		defer a.broker.Shutdown(context.Background())
	}

	result := a.runner.Run(ctx, req)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logging.Error().Err(err).Msg("Failed to write result")
		return 1
	}
	if result.Status == pipeline.StatusFailed {
		return 1
	}
	return 0
}

// serve runs the supervisor tree until ctx is canceled.
func serve(ctx context.Context, a *app) {
	cfg := a.cfg
	logging.Info().
		Str("version", version).
		Str("dedup_backend", cfg.Dedup.Backend).
		Str("sink", cfg.Publisher.Sink).
		Int("stations", a.stations.Snapshot().Len()).
		Msg("Starting Railpath with supervisor tree")

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Data layer
	tree.AddDataService(services.NewDedupGCService(dedup.NewCompactor(a.store, cfg.Dedup.GCInterval)))
	tree.AddDataService(services.NewStationRefreshService(a.stations, cfg.Stations.RefreshInterval))

	// Messaging layer
	if a.broker != nil {
		tree.AddMessagingService(services.NewBrokerService(a.broker, cfg.Server.ShutdownTimeout))
	}
	tree.AddMessagingService(services.NewScheduledRunService(a.runner, pipeline.FeedUpdate, cfg.Scheduler.UpdateInterval))
	tree.AddMessagingService(services.NewScheduledRunService(a.runner, pipeline.FeedFull, cfg.Scheduler.FullInterval))

	// API layer
	server := a.httpServer()
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// The tree outlives the signal until in-flight runs are interrupted,
	// so they end partial while the broker is still up.
	treeCtx, stopTree := context.WithCancel(context.WithoutCancel(ctx))
	defer stopTree()
	errCh := tree.ServeBackground(treeCtx)

	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, interrupting runs...")
		a.runner.Shutdown()
		logging.Info().Msg("Runs stopped, waiting for supervisor to finish...")
		stopTree()
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
}
