// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

// Package eventprocessor defines the PathwayConfirmed event and the sinks
// that deliver it downstream.
//
// # Event
//
// A PathwayConfirmedEvent describes one train service on one travel date
// as an ordered list of passage points. Every event carries metadata with a
// unique event ID and the correlation ID of the ingestion run that
// produced it. Events are validated before any sink accepts them.
//
// # Sinks
//
// All sinks implement EventPublisher:
//
//   - LogPublisher: writes each event as a structured zerolog line (default)
//   - MemoryPublisher: keeps events in memory; used by tests and dry runs
//   - Publisher: publishes to NATS JetStream through Watermill
//
// The NATS publisher sets Nats-Msg-Id to the event ID, so a retried publish
// inside the stream's duplicate window is stored once. Publishes run
// through a gobreaker circuit breaker when one is configured, and any sink
// can be throttled with NewRateLimitedPublisher.
//
// # Embedded Broker
//
// For single-binary deployments NewEmbeddedServer starts an in-process
// NATS server with JetStream enabled. StreamInitializer creates or updates
// the PATHWAY_EVENTS stream before the publisher is used:
//
//	srv, err := eventprocessor.NewEmbeddedServer(&serverCfg, 30*time.Second)
//	if err != nil {
//	    return err
//	}
//	nc, _ := nats.Connect(srv.ClientURL())
//	js, _ := jetstream.New(nc)
//	si, _ := eventprocessor.NewStreamInitializer(js, &streamCfg)
//	if _, err := si.EnsureStream(ctx); err != nil {
//	    return err
//	}
//	pub, err := eventprocessor.NewPublisher(eventprocessor.DefaultPublisherConfig(srv.ClientURL()), logger)
//
// # Health
//
// Sinks, the embedded server and the stream initializer implement
// HealthCheckable. HealthChecker aggregates them for the /health endpoint.
package eventprocessor
