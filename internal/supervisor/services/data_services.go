// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/railpath/internal/logging"
)

// StartStopper matches background loops with a Start/Stop lifecycle.
//
// Satisfied by *dedup.Compactor from internal/dedup/gc.go.
type StartStopper interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
}

// DedupGCService wraps the dedup store compactor as a supervised service.
//
// It adapts the Start/Stop lifecycle to suture's Serve pattern:
//  1. Calls Start(ctx) to begin the GC loop
//  2. Waits for context cancellation
//  3. Calls Stop(), which waits for the loop goroutine to exit
//
// Example usage:
//
//	compactor := dedup.NewCompactor(store, cfg.Dedup.GCInterval)
//	tree.AddDataService(services.NewDedupGCService(compactor))
type DedupGCService struct {
	compactor StartStopper
	name      string
}

// NewDedupGCService creates a new dedup GC service wrapper.
func NewDedupGCService(compactor StartStopper) *DedupGCService {
	return &DedupGCService{
		compactor: compactor,
		name:      "dedup-gc",
	}
}

// Serve implements suture.Service.
//
// If Start fails the error is returned immediately and suture restarts the
// service according to its backoff policy.
func (s *DedupGCService) Serve(ctx context.Context) error {
	if err := s.compactor.Start(ctx); err != nil {
		return fmt.Errorf("dedup gc start failed: %w", err)
	}

	<-ctx.Done()
	s.compactor.Stop()

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
func (s *DedupGCService) String() string {
	return s.name
}

// Reloader matches a component that can rebuild its state from disk.
//
// Satisfied by *stations.Holder from internal/stations/holder.go.
type Reloader interface {
	Reload() error
}

// StationRefreshService reloads the station table on a fixed interval.
//
// A failed reload keeps the previous table in place and is logged; it does
// not fail the service, since the pipeline can keep running on the last
// good snapshot.
type StationRefreshService struct {
	reloader Reloader
	interval time.Duration
	name     string
}

// NewStationRefreshService creates a station refresh service.
// A non-positive interval disables refreshing.
func NewStationRefreshService(reloader Reloader, interval time.Duration) *StationRefreshService {
	return &StationRefreshService{
		reloader: reloader,
		interval: interval,
		name:     "station-refresh",
	}
}

// Serve implements suture.Service.
func (s *StationRefreshService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		return suture.ErrDoNotRestart
	}

	logger := logging.WithComponent(s.name)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.reloader.Reload(); err != nil {
				logger.Warn().Err(err).Msg("Station table reload failed, keeping previous table")
				continue
			}
			logger.Debug().Msg("Station table reloaded")
		}
	}
}

// String implements fmt.Stringer for logging.
func (s *StationRefreshService) String() string {
	return s.name
}
