// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package runner

import (
	"sync"
	"time"

	"github.com/tomtom215/railpath/internal/pipeline"
)

// history keeps the last size runs, in-flight ones included.
type history struct {
	mu    sync.RWMutex
	size  int
	order []string // oldest first
	byID  map[string]*pipeline.Result
}

func newHistory(size int) *history {
	return &history{
		size:  size,
		order: make([]string, 0, size),
		byID:  make(map[string]*pipeline.Result, size),
	}
}

// start records a placeholder for a run that has not finished.
func (h *history) start(runID string, ft pipeline.FeedType) {
	h.put(&pipeline.Result{
		RunID:     runID,
		FeedType:  ft,
		Status:    pipeline.StatusRunning,
		StartedAt: time.Now().UTC(),
	})
}

// finish stores or replaces the result for its run.
func (h *history) finish(result *pipeline.Result) {
	h.put(result)
}

func (h *history) put(result *pipeline.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.byID[result.RunID]; ok {
		h.byID[result.RunID] = result
		return
	}
	if len(h.order) == h.size {
		delete(h.byID, h.order[0])
		h.order = h.order[1:]
	}
	h.order = append(h.order, result.RunID)
	h.byID[result.RunID] = result
}

func (h *history) get(runID string) (*pipeline.Result, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.byID[runID]
	return r, ok
}

// recent returns results newest first.
func (h *history) recent() []*pipeline.Result {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*pipeline.Result, 0, len(h.order))
	for i := len(h.order) - 1; i >= 0; i-- {
		out = append(out, h.byID[h.order[i]])
	}
	return out
}
