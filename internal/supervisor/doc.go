// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

/*
Package supervisor provides process supervision for Railpath using suture v4.

All long-running services run under a hierarchical supervisor tree with
automatic restart, failure isolation and graceful shutdown.

# Overview

	RootSupervisor ("railpath")
	├── DataSupervisor ("data-layer")
	│   ├── DedupGCService
	│   └── StationRefreshService
	├── MessagingSupervisor ("messaging-layer")
	│   ├── BrokerService (sink "nats" only)
	│   ├── ScheduledRunService (update)
	│   └── ScheduledRunService (full)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashing scheduler or broker does not take the HTTP trigger surface
down with it, and each layer counts failures on its own.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewDedupGCService(compactor))
	tree.AddMessagingService(services.NewScheduledRunService(r, pipeline.FeedUpdate, cfg.Scheduler.UpdateInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, 30*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

# Failure Handling

suture keeps a failure counter per supervisor that decays over
FailureDecay seconds. Past FailureThreshold the supervisor waits
FailureBackoff before the next restart. A service that returns
suture.ErrDoNotRestart (a disabled schedule, for example) stays stopped.

Supervisor events are logged through sutureslog onto the slog bridge in
internal/logging, so they share the zerolog output with everything else.

# Debugging Shutdown Issues

	report, err := tree.UnstoppedServiceReport()

lists services that ignored context cancellation for longer than
ShutdownTimeout. A pipeline run that is mid-publish is the usual cause.
*/
package supervisor
