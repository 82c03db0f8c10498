// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package logging

import (
	"net/url"
	"strings"
)

// sensitiveParams are query parameters whose values never reach a log line.
var sensitiveParams = map[string]bool{
	"access_token": true,
	"token":        true,
	"api_key":      true,
	"apikey":       true,
	"key":          true,
	"password":     true,
	"secret":       true,
	"signature":    true,
	"sig":          true,
}

// RedactURL masks credentials in a feed location before it is logged.
// User info is dropped and sensitive query values are masked. Values that
// are not URLs (plain paths) are returned unchanged.
//
// Example: "https://u:p@feeds.example.com/f.gz?token=abc123def456xyz" ->
// "https://feeds.example.com/f.gz?token=abc1...6xyz"
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	u.User = nil
	if u.RawQuery != "" {
		q := u.Query()
		for k, vals := range q {
			if sensitiveParams[strings.ToLower(k)] {
				for i := range vals {
					vals[i] = maskSecret(vals[i])
				}
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// maskSecret shows only the first and last 4 characters of a secret.
// Example: "abc123def456xyz" -> "abc1...6xyz"
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 12 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Truncate shortens s to maxLen bytes, marking the cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
