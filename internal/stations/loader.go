// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package stations

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// fileDocument is the YAML/JSON layout of a reference file.
type fileDocument struct {
	Stations []Entry `json:"stations" yaml:"stations"`
}

// LoadFile reads a station reference file. The format is chosen by
// extension: .yaml/.yml, .json or .csv.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open station file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		entries, err = decodeYAML(f)
	case ".json":
		entries, err = decodeJSON(f)
	case ".csv":
		entries, err = decodeCSV(f)
	default:
		return nil, fmt.Errorf("unsupported station file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyTable)
	}

	t, err := NewTable(entries)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.source = path
	return t, nil
}

func decodeYAML(r io.Reader) ([]Entry, error) {
	var doc fileDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return doc.Stations, nil
}

func decodeJSON(r io.Reader) ([]Entry, error) {
	var doc fileDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Stations, nil
}

// CSV columns, matched by header name.
const (
	colTIPLOC     = "tiploc"
	colCode       = "station_code"
	colName       = "name"
	colLatitude   = "latitude"
	colLongitude  = "longitude"
	colConnection = "connection_point"
)

func decodeCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colTIPLOC, colCode} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	field := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var entries []Entry
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		e := Entry{
			TIPLOC: field(row, colTIPLOC),
			StationMapping: StationMapping{
				StationCode: field(row, colCode),
				Name:        field(row, colName),
			},
		}
		if e.Latitude, err = optionalFloat(field(row, colLatitude)); err != nil {
			return nil, fmt.Errorf("line %d: latitude: %w", line, err)
		}
		if e.Longitude, err = optionalFloat(field(row, colLongitude)); err != nil {
			return nil, fmt.Errorf("line %d: longitude: %w", line, err)
		}
		if v := field(row, colConnection); v != "" {
			if e.IsConnectionPoint, err = strconv.ParseBool(v); err != nil {
				return nil, fmt.Errorf("line %d: connection_point: %w", line, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
