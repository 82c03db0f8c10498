// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/railpath/internal/logging"
)

// Collector is the part of a store the GC loop drives.
type Collector interface {
	RunGC() error
	Stats() Stats
}

// Compactor runs periodic garbage collection on a store.
type Compactor struct {
	store    Collector
	interval time.Duration

	// Control
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// State
	mu      sync.Mutex
	running bool
	lastRun time.Time
	runs    int64
}

// NewCompactor creates a GC loop for store.
func NewCompactor(store Collector, interval time.Duration) *Compactor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Compactor{store: store, interval: interval}
}

// Start begins the background loop.
func (c *Compactor) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(loopCtx)

	logging.Info().Dur("interval", c.interval).Msg("dedup compactor started")
	return nil
}

// Stop cancels the loop and waits for it to exit.
func (c *Compactor) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.cancel()
	c.running = false
	c.mu.Unlock()

	c.wg.Wait()
	logging.Info().Msg("dedup compactor stopped")
}

// IsRunning returns whether the loop is active.
func (c *Compactor) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Runs returns how many GC passes have completed.
func (c *Compactor) Runs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

func (c *Compactor) run(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Compact()
		}
	}
}

// Compact runs one GC pass immediately.
func (c *Compactor) Compact() {
	start := time.Now()
	if err := c.store.RunGC(); err != nil {
		logging.Error().Err(err).Msg("dedup GC failed")
		return
	}
	stats := c.store.Stats()

	c.mu.Lock()
	c.lastRun = time.Now()
	c.runs++
	c.mu.Unlock()

	logging.Debug().
		Int64("keys", stats.Keys).
		Int64("size_bytes", stats.SizeBytes).
		Dur("duration", time.Since(start)).
		Msg("dedup GC completed")
}
