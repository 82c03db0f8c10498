// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

/*
Package main is the entry point for the Railpath server.

Railpath ingests rail schedule extracts (newline-delimited JSON, optionally
gzip-compressed), keeps the permanent schedules that call at known
stations, and publishes one pathway-confirmed event per new schedule.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("railpath")
	├── DataSupervisor ("data-layer")
	│   ├── dedup-gc            (expired key purge)
	│   └── station-refresh     (periodic station file reload)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── nats-broker         (only with publisher.sink=nats)
	│   ├── scheduled-update-run
	│   └── scheduled-full-run
	└── APISupervisor ("api-layer")
	    └── http-server         (trigger API, health, /metrics)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, optional YAML file and environment
 2. Logging: zerolog, configured from the logging section
 3. Station table: loaded once at startup; a missing file is fatal
 4. Dedup store: memory or BadgerDB
 5. Event sink: log, memory or NATS JetStream, optionally rate limited
 6. Processor and runner
 7. Supervisor tree with the services above

# One-shot Mode

	railpath -once update
	railpath -once full -source https://feeds.example.com/full.json.gz -force

runs one invocation without the tree or the HTTP server, prints the Result
as JSON on stdout and exits 1 when the run failed.

# Signal Handling

SIGINT and SIGTERM first interrupt every run in flight, including
background runs, which end with status partial while the broker is still
connected. The supervisor tree is then stopped: the HTTP server drains
in-flight requests for server.shutdown_timeout and the broker shuts down.
Finally the dedup store is closed.
*/
package main
