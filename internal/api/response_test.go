// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/railpath/internal/logging"
	"github.com/tomtom215/railpath/internal/validation"
)

func TestResponseWriter_Success(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	NewResponseWriter(w, r).Success(map[string]string{"message": "hello"})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Expected JSON content type, got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Expected Cache-Control no-store, got %q", cc)
	}

	var response APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if !response.Success {
		t.Error("Expected Success to be true")
	}
	if response.Error != nil {
		t.Error("Expected Error to be nil")
	}
	if response.Meta == nil || response.Meta.Timestamp.IsZero() {
		t.Error("Expected Meta with a timestamp")
	}
}

func TestResponseWriter_List(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	NewResponseWriter(w, r).List([]string{}, 0)

	var response APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Meta.Count == nil {
		t.Fatal("Expected Count to be present for an empty list")
	}
	if *response.Meta.Count != 0 {
		t.Errorf("Expected Count 0, got %d", *response.Meta.Count)
	}
}

func TestResponseWriter_ErrorCarriesRequestID(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	r = r.WithContext(logging.ContextWithRequestID(r.Context(), "req-123"))

	NewResponseWriter(w, r).NotFound("Run not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	var response APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Success {
		t.Error("Expected Success to be false")
	}
	if response.Error.Code != ErrCodeNotFound {
		t.Errorf("Expected code %s, got %s", ErrCodeNotFound, response.Error.Code)
	}
	if response.Error.RequestID != "req-123" || response.Meta.RequestID != "req-123" {
		t.Errorf("Expected request ID req-123, got %q / %q", response.Error.RequestID, response.Meta.RequestID)
	}
}

func TestResponseWriter_ErrorStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		write      func(rw *ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(rw *ResponseWriter) { rw.BadRequest("nope") }, http.StatusBadRequest, ErrCodeBadRequest},
		{"store", func(rw *ResponseWriter) { rw.StoreError(errors.New("disk full")) }, http.StatusInternalServerError, ErrCodeStoreError},
		{"unavailable", func(rw *ResponseWriter) {
			rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "later")
		}, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			tt.write(NewResponseWriter(w, httptest.NewRequest(http.MethodGet, "/test", nil)))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var response APIResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}
			if response.Error == nil || response.Error.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %+v", tt.wantCode, response.Error)
			}
		})
	}
}

func TestResponseWriter_ValidationError(t *testing.T) {
	t.Parallel()

	verr := validation.ValidateVar("key", "not-a-key", "dedupkey")
	if verr == nil {
		t.Fatal("Expected validation to fail")
	}

	w := httptest.NewRecorder()
	NewResponseWriter(w, httptest.NewRequest(http.MethodGet, "/test", nil)).ValidationError(verr)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	var response struct {
		Error struct {
			Code    string                 `json:"code"`
			Details map[string]interface{} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected VALIDATION_ERROR, got %s", response.Error.Code)
	}
	if response.Error.Details["field"] != "key" {
		t.Errorf("Expected field detail 'key', got %v", response.Error.Details["field"])
	}
}
