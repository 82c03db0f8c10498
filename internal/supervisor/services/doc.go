// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

/*
Package services provides suture.Service wrappers for Railpath components.

Each wrapper translates a component lifecycle (Start/Stop, ListenAndServe,
a ticker loop) into suture's context-aware Serve pattern:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Configurable shutdown timeout for draining in-flight runs

Scheduled Runs (ScheduledRunService):
  - Triggers runner.Run for one feed type on a fixed interval
  - Runs execute inline, so a slow run delays the next tick
  - A zero interval returns suture.ErrDoNotRestart

Dedup GC (DedupGCService):
  - Wraps dedup.Compactor with its Start/Stop lifecycle

Station Refresh (StationRefreshService):
  - Calls stations.Holder.Reload on an interval
  - A failed reload keeps the previous table

NATS Broker (BrokerService):
  - Wraps the embedded server, JetStream stream and publisher
  - Shutdown gets a fresh timeout context

# Error Handling

Services return errors to signal failure to the supervisor:
  - nil or ctx.Err(): normal shutdown, no restart needed
  - suture.ErrDoNotRestart: the service is disabled
  - Other errors: service crashed, supervisor will restart

# Thread Safety

All wrappers are safe to Serve again after a restart; they hold no state
between Serve calls beyond what the wrapped component keeps.
*/
package services
