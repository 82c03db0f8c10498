// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/railpath/internal/dedup"
	"github.com/tomtom215/railpath/internal/eventprocessor"
	"github.com/tomtom215/railpath/internal/logging"
	"github.com/tomtom215/railpath/internal/pipeline"
	"github.com/tomtom215/railpath/internal/runner"
	"github.com/tomtom215/railpath/internal/validation"
)

// maxRequestBody bounds a run request body.
const maxRequestBody = 64 << 10

// RunService is the invocation surface the API drives.
// Satisfied by *runner.Runner.
type RunService interface {
	Run(ctx context.Context, req runner.Request) *pipeline.Result
	Start(ctx context.Context, req runner.Request) (string, *pipeline.Result)
	Get(runID string) (*pipeline.Result, bool)
	Recent() []*pipeline.Result
}

// DedupReader looks up dedup entries.
// Satisfied by every dedup.Manager.
type DedupReader interface {
	Get(ctx context.Context, key string) (dedup.Entry, bool, error)
}

// HealthReporter aggregates component health.
// Satisfied by *eventprocessor.HealthChecker.
type HealthReporter interface {
	CheckAll(ctx context.Context) eventprocessor.OverallHealth
	CheckComponent(ctx context.Context, name string) (eventprocessor.ComponentHealth, bool)
}

// Handler serves the trigger API.
type Handler struct {
	runs      RunService
	dedup     DedupReader
	health    HealthReporter
	startTime time.Time
}

// NewHandler creates a Handler.
func NewHandler(runs RunService, store DedupReader, health HealthReporter) *Handler {
	return &Handler{
		runs:      runs,
		dedup:     store,
		health:    health,
		startTime: time.Now(),
	}
}

// startedRun is the 202 body for a background run.
type startedRun struct {
	RunID  string          `json:"runId"`
	Status pipeline.Status `json:"status"`
}

// TriggerRun handles POST /api/v1/runs.
//
// The body is a runner.Request. By default the run executes synchronously
// and the Result is returned with 200 whatever its status. With
// ?wait=false the run is started in the background and 202 carries its ID.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	wait := true
	if v := r.URL.Query().Get("wait"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			rw.BadRequest("wait must be true or false")
			return
		}
		wait = b
	}

	var req runner.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			rw.BadRequest("Request body is required")
			return
		}
		rw.BadRequest("Invalid request body: " + err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	logger := logging.Ctx(r.Context())
	if !wait {
		runID, rejected := h.runs.Start(r.Context(), req)
		if rejected != nil {
			rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeBadRequest, "Run rejected", rejected)
			return
		}
		logger.Info().Str("run_id", runID).Str("feed_type", string(req.FeedType)).Msg("Background run started")
		rw.SuccessWithStatus(http.StatusAccepted, startedRun{RunID: runID, Status: pipeline.StatusRunning})
		return
	}

	rw.Success(h.runs.Run(r.Context(), req))
}

// ListRuns handles GET /api/v1/runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	results := h.runs.Recent()
	NewResponseWriter(w, r).List(results, len(results))
}

// GetRun handles GET /api/v1/runs/{id}.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	res, ok := h.runs.Get(id)
	if !ok {
		rw.NotFound("Run not found")
		return
	}
	rw.Success(res)
}

// GetDedupEntry handles GET /api/v1/dedup/{key}.
func (h *Handler) GetDedupEntry(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	key := chi.URLParam(r, "key")

	if verr := validation.ValidateVar("key", key, "required,dedupkey"); verr != nil {
		rw.ValidationError(verr)
		return
	}

	entry, found, err := h.dedup.Get(r.Context(), key)
	if err != nil {
		rw.StoreError(err)
		return
	}
	if !found {
		rw.NotFound("No dedup entry for key")
		return
	}
	rw.Success(entry)
}

// healthReport is the body of GET /api/v1/health.
type healthReport struct {
	eventprocessor.OverallHealth
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Health handles GET /api/v1/health. A healthy or degraded system answers
// 200, an unhealthy one 503; the body is the same either way.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	overall := h.health.CheckAll(r.Context())

	status := http.StatusOK
	if overall.Status == eventprocessor.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	NewResponseWriter(w, r).SuccessWithStatus(status, healthReport{
		OverallHealth: overall,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}

// ComponentHealth handles GET /api/v1/health/{component}: 404 for an
// unregistered name, 503 when the component is unhealthy.
func (h *Handler) ComponentHealth(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	result, ok := h.health.CheckComponent(r.Context(), chi.URLParam(r, "component"))
	if !ok {
		rw.NotFound("Unknown health component")
		return
	}
	status := http.StatusOK
	if !result.Healthy {
		status = http.StatusServiceUnavailable
	}
	rw.SuccessWithStatus(status, result)
}

// HealthLive handles GET /api/v1/health/live. It reports process liveness
// only and never touches dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}
