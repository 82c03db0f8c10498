// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

// Package source opens feed locations for reading. A location is a local
// path, a file:// URL or an http(s):// URL.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultFetchTimeout bounds connecting and waiting for response headers.
const DefaultFetchTimeout = 60 * time.Second

// maxErrorBody is how much of a non-200 body is kept for the error.
const maxErrorBody = 512

var (
	// ErrEmptyLocation is returned when no location is given.
	ErrEmptyLocation = errors.New("empty source location")
	// ErrUnsupportedScheme is returned for URL schemes other than file, http and https.
	ErrUnsupportedScheme = errors.New("unsupported source scheme")
)

// StatusError reports an HTTP response other than 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Opener opens feed locations. The zero value is not usable; use NewOpener.
type Opener struct {
	client *http.Client
}

// NewOpener creates an Opener whose HTTP fetches fail if the server has
// not answered within fetchTimeout. The body itself is streamed and is
// bounded only by the caller's context.
func NewOpener(fetchTimeout time.Duration) *Opener {
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   fetchTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   fetchTimeout,
		ResponseHeaderTimeout: fetchTimeout,
		MaxIdleConns:          4,
		IdleConnTimeout:       90 * time.Second,
		// Feeds are usually gzip already; let the pipeline see the raw bytes.
		DisableCompression: true,
	}
	return &Opener{client: &http.Client{Transport: transport}}
}

// NewOpenerWithClient creates an Opener that fetches with client.
func NewOpenerWithClient(client *http.Client) *Opener {
	return &Opener{client: client}
}

// Open returns a reader over location. The caller must close it.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrEmptyLocation
	}

	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || isWindowsDrive(u.Scheme) {
		return openFile(location)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		path := u.Path
		if u.Host != "" && u.Host != "localhost" {
			path = "//" + u.Host + u.Path
		}
		return openFile(path)
	case "http", "https":
		return o.fetch(ctx, u.String())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}

func (o *Opener) fetch(ctx context.Context, reqURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/x-ndjson, application/gzip, */*")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", redact(req.URL), err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			URL:        redact(req.URL),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return resp.Body, nil
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	return f, nil
}

// redact drops credentials and the query string, which may hold tokens.
func redact(u *url.URL) string {
	c := *u
	c.User = nil
	c.RawQuery = ""
	return c.String()
}

func isWindowsDrive(scheme string) bool {
	return len(scheme) == 1
}
