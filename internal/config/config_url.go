// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validateSource accepts an empty value, a path, a file:// URL or an
// http(s):// URL with a host.
func validateSource(raw, fieldName string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parsedURL, err := url.Parse(raw)
	if err != nil || parsedURL.Scheme == "" || len(parsedURL.Scheme) == 1 {
		return nil // plain path
	}

	switch parsedURL.Scheme {
	case "file":
		if parsedURL.Path == "" {
			return fmt.Errorf("%s file URL has no path", fieldName)
		}
	case "http", "https":
		if parsedURL.Host == "" {
			return fmt.Errorf("%s host is required", fieldName)
		}
	default:
		return fmt.Errorf("%s scheme must be file, http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	return nil
}

// validateNATSURL validates that the NATS URL is properly formatted
// Supports: nats://, tls://, and ws:// schemes with IP addresses/hostnames and optional ports
func validateNATSURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}

	validSchemes := map[string]bool{"nats": true, "tls": true, "ws": true, "wss": true}
	if !validSchemes[parsedURL.Scheme] {
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("host is required (e.g., localhost:4222, nats.example.com)")
	}

	return nil
}
