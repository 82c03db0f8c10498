// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package stations

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/railpath/internal/eventprocessor"
	"github.com/tomtom215/railpath/internal/logging"
	"github.com/tomtom215/railpath/internal/metrics"
)

// ErrNotLoaded is reported by health checks before the first successful load.
var ErrNotLoaded = errors.New("station table not loaded")

// Holder owns the current Table and swaps it atomically on reload.
//
// Runs take a Snapshot at start and use it throughout, so a reload in the
// middle of a run never changes which stations that run resolves.
type Holder struct {
	path    string
	current atomic.Pointer[Table]

	// reloadMu serialises reloads; readers never take it.
	reloadMu   sync.Mutex
	lastErr    error
	reloads    int64
	lastReload time.Time
}

// NewHolder creates a Holder for the file at path. Call Reload to load it.
func NewHolder(path string) *Holder {
	return &Holder{path: path}
}

// NewStaticHolder wraps an already-built table. Reload is a no-op for it.
func NewStaticHolder(t *Table) *Holder {
	h := &Holder{}
	h.current.Store(t)
	metrics.SetStationTableSize(t.Len())
	return h
}

// Snapshot returns the current table. It may be nil before the first load.
func (h *Holder) Snapshot() *Table {
	return h.current.Load()
}

// Reload reads the file again and swaps the table in on success.
// On failure the previous table stays in place.
func (h *Holder) Reload() error {
	if h.path == "" {
		return nil
	}

	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	logger := logging.WithComponent("stations")
	t, err := LoadFile(h.path)
	h.lastReload = time.Now()
	if err != nil {
		h.lastErr = err
		logger.Error().Err(err).Str("path", h.path).Msg("station table reload failed")
		return err
	}

	h.current.Store(t)
	h.lastErr = nil
	h.reloads++
	metrics.SetStationTableSize(t.Len())
	logger.Info().
		Str("path", h.path).
		Int("stations", t.Len()).
		Int64("reloads", h.reloads).
		Msg("station table loaded")
	return nil
}

// HealthCheck implements eventprocessor.HealthCheckable. A failed reload
// over a loaded table is reported as degraded, since runs keep using the
// previous table.
func (h *Holder) HealthCheck(_ context.Context) eventprocessor.ComponentHealth {
	t := h.Snapshot()
	if t == nil || t.Len() == 0 {
		return eventprocessor.ComponentHealth{
			Name:      "stations",
			Healthy:   false,
			Error:     ErrNotLoaded.Error(),
			LastCheck: time.Now(),
		}
	}

	h.reloadMu.Lock()
	lastErr := h.lastErr
	lastReload := h.lastReload
	h.reloadMu.Unlock()

	health := eventprocessor.ComponentHealth{
		Name:      "stations",
		Healthy:   true,
		Message:   "station table loaded",
		LastCheck: time.Now(),
		Details: map[string]interface{}{
			"stations":  t.Len(),
			"source":    t.Source(),
			"loaded_at": t.LoadedAt(),
		},
	}
	if lastErr != nil {
		health.Degraded = true
		health.Error = lastErr.Error()
		health.Details["last_attempt"] = lastReload
	}
	return health
}
