// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	Level     string    // trace, debug, info, warn, error; default info
	Format    string    // json or console; default json
	Caller    bool      // add file:line to every line
	Timestamp bool      // add the time field
	Output    io.Writer // default os.Stderr
}

// DefaultConfig returns the configuration used before Init is called.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

//nolint:gochecknoinits // init ensures logging works before explicit Init() call
func init() {
	initLogger(DefaultConfig())
}

// Init configures the global logger. Call it from main once the config is
// loaded; calling it again reconfigures the logger.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

// initLogger must be called with mu held.
func initLogger(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"
	zerolog.ErrorFieldName = "error"
	zerolog.CallerFieldName = "caller"

	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zctx := zerolog.New(out).With()
	if cfg.Timestamp {
		zctx = zctx.Timestamp()
	}
	if cfg.Caller {
		zctx = zctx.Caller()
	}
	log = zctx.Logger()
}

// parseLevel maps a configured level name onto zerolog. Unknown or empty
// names fall back to info.
func parseLevel(level string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	return *current()
}

// With starts a child logger context from the global logger.
func With() zerolog.Context {
	return current().With()
}

// Debug starts a debug level message.
func Debug() *zerolog.Event { return current().Debug() }

// Info starts an info level message.
//
//	logging.Info().Str("addr", addr).Msg("HTTP server listening")
func Info() *zerolog.Event { return current().Info() }

// Warn starts a warn level message.
func Warn() *zerolog.Event { return current().Warn() }

// Error starts an error level message.
//
//	logging.Error().Err(err).Str("run_id", id).Msg("Run failed")
func Error() *zerolog.Event { return current().Error() }

// Fatal starts a fatal level message; os.Exit(1) follows Msg.
func Fatal() *zerolog.Event { return current().Fatal() }
