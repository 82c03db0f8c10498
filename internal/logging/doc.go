// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

// Package logging provides centralized zerolog-based structured logging for Railpath.
//
// JSON output is the default; the console format uses zerolog.ConsoleWriter
// for local runs. A single global logger is configured once at startup and
// reached through package-level helpers.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("feed_type", "update").Msg("Run started")
//	logging.Error().Err(err).Int("line", n).Msg("Publish failed")
//
// Always terminate a chain with .Msg() or .Send(); an unterminated event is
// never written.
//
// # Configuration
//
// The logging section of the config file, or the environment:
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//
// # Correlation
//
// Every pipeline run stores its run ID as the correlation ID, and the API
// middleware stores the request ID. Ctx adds both to each line:
//
//	ctx = logging.ContextWithCorrelationID(ctx, runID)
//	logging.Ctx(ctx).Info().Str("train_uid", uid).Msg("Schedule filtered")
//
// Component loggers carry a fixed component field:
//
//	logger := logging.WithComponent("dedup")
//
// # slog Adapter
//
// sutureslog and watermill take a *slog.Logger; NewSlogLogger returns one
// that writes through the global zerolog logger.
//
// # Redaction
//
// Feed locations can carry credentials. Log them through RedactURL, and cap
// untrusted text with Truncate.
package logging
