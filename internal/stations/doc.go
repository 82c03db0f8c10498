// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

// Package stations holds the station reference table: the read-only mapping
// from TIPLOC location codes to the stations downstream consumers understand.
//
// The table is loaded from a reference file maintained outside the pipeline:
//
//	stations:
//	  - tiploc: EUSTON
//	    stationCode: EUS
//	    name: London Euston
//	    latitude: 51.5282
//	    longitude: -0.1337
//	    connectionPoint: true
//
// JSON files use the same layout. CSV files need a header row with at least
// tiploc and station_code columns; name, latitude, longitude and
// connection_point are optional.
//
// A Holder publishes the current *Table through an atomic pointer. Reload
// swaps in a freshly built table; in-flight runs keep the snapshot they
// started with.
package stations
