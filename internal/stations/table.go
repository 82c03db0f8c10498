// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package stations

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrEmptyTable is returned when a reference file yields no stations.
var ErrEmptyTable = errors.New("station table is empty")

// StationMapping is the station identity a TIPLOC resolves to.
type StationMapping struct {
	StationCode string   `json:"stationCode" yaml:"stationCode"`
	Name        string   `json:"name" yaml:"name"`
	Latitude    *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	// IsConnectionPoint marks stations on the network of interest.
	IsConnectionPoint bool `json:"connectionPoint" yaml:"connectionPoint"`
}

// Entry is one row of a reference file: a TIPLOC and what it maps to.
type Entry struct {
	TIPLOC         string `json:"tiploc" yaml:"tiploc"`
	StationMapping `yaml:",inline"`
}

// Lookup resolves TIPLOC codes to stations.
// The transformer and filter depend on this rather than on *Table.
type Lookup interface {
	Lookup(tiploc string) (StationMapping, bool)
	Contains(tiploc string) bool
}

// Table is an immutable TIPLOC to station map. It is safe for concurrent
// reads; a refresh builds a new Table instead of mutating this one.
type Table struct {
	byTIPLOC map[string]StationMapping
	loadedAt time.Time
	source   string
}

// NewTable builds a Table from entries.
// Every entry needs a TIPLOC and a station code; duplicate TIPLOCs are rejected.
func NewTable(entries []Entry) (*Table, error) {
	m := make(map[string]StationMapping, len(entries))
	for i, e := range entries {
		if e.TIPLOC == "" {
			return nil, fmt.Errorf("entry %d: missing tiploc", i)
		}
		if e.StationCode == "" {
			return nil, fmt.Errorf("entry %d (%s): missing station code", i, e.TIPLOC)
		}
		if _, dup := m[e.TIPLOC]; dup {
			return nil, fmt.Errorf("entry %d: duplicate tiploc %s", i, e.TIPLOC)
		}
		m[e.TIPLOC] = e.StationMapping
	}
	return &Table{byTIPLOC: m, loadedAt: time.Now().UTC()}, nil
}

// Lookup returns the station mapped to tiploc.
func (t *Table) Lookup(tiploc string) (StationMapping, bool) {
	if t == nil {
		return StationMapping{}, false
	}
	s, ok := t.byTIPLOC[tiploc]
	return s, ok
}

// Contains reports whether tiploc is mapped.
func (t *Table) Contains(tiploc string) bool {
	_, ok := t.Lookup(tiploc)
	return ok
}

// Len returns the number of mapped TIPLOCs.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byTIPLOC)
}

// LoadedAt returns when the table was built.
func (t *Table) LoadedAt() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.loadedAt
}

// Source returns the file the table was loaded from, if any.
func (t *Table) Source() string {
	if t == nil {
		return ""
	}
	return t.source
}

// TIPLOCs returns the mapped codes in sorted order.
func (t *Table) TIPLOCs() []string {
	if t == nil {
		return nil
	}
	codes := make([]string, 0, len(t.byTIPLOC))
	for code := range t.byTIPLOC {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
