// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package party

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/gala/services/party/dataset"
)

func init() {
	// Set Gin to test mode to reduce noise
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(svc *Service) *gin.Engine {
	router := gin.New()
	handlers := NewHandlers(svc)
	v1 := router.Group("/v1")
	RegisterRoutes(v1, handlers)
	return router
}

// postJSON marshals v and posts it to path.
func postJSON(t *testing.T, router *gin.Engine, path string, v interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlers_HandleHealth(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	router := setupTestRouter(svc)

	req, _ := http.NewRequest("GET", "/v1/party/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("expected status 'healthy', got %q", resp.Status)
	}
	if resp.Version != ServiceVersion {
		t.Errorf("expected version %q, got %q", ServiceVersion, resp.Version)
	}
}

func TestHandlers_HandleReady(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	router := setupTestRouter(svc)

	req, _ := http.NewRequest("GET", "/v1/party/ready", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp ReadyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if !resp.Ready {
		t.Error("expected Ready=true")
	}
	if resp.ArchiveConfigured {
		t.Error("expected ArchiveConfigured=false without a store")
	}
}

func TestHandlers_HandleAnalyze(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	router := setupTestRouter(svc)

	w := postJSON(t, router, "/v1/party/analyze", AnalyzeRequest{
		Name:   "demo",
		People: dataset.DemoEntries,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if !resp.Found {
		t.Fatal("expected a celebrity clique")
	}
	if want := []uint64{1, 2, 3}; !reflect.DeepEqual(resp.CliqueIDs, want) {
		t.Errorf("expected clique %v, got %v", want, resp.CliqueIDs)
	}
	if resp.PartySize != 7 {
		t.Errorf("expected party size 7, got %d", resp.PartySize)
	}
}

func TestHandlers_HandleAnalyze_NotFoundIsOK(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	router := setupTestRouter(svc)

	w := postJSON(t, router, "/v1/party/analyze", AnalyzeRequest{
		People: strangers(3),
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d for a cliqueless party, got %d", http.StatusOK, w.Code)
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Found {
		t.Error("expected Found=false")
	}
}

func TestHandlers_HandleAnalyze_InvalidRequest(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	router := setupTestRouter(svc)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed json",
			body:       `{"people": [`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "empty body",
			body:       "{}",
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "zero guest id",
			body:       `{"people": [{"id": 0}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "duplicate guest",
			body:       `{"people": [{"id": 1}, {"id": 1}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "DUPLICATE_GUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("POST", "/v1/party/analyze",
				bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var errResp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}

			if errResp.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, errResp.Code)
			}
		})
	}
}

func TestHandlers_HandleAnalyze_PartyTooLarge(t *testing.T) {
	svc := NewService(ServiceConfig{MaxPartySize: 2})
	router := setupTestRouter(svc)

	w := postJSON(t, router, "/v1/party/analyze", AnalyzeRequest{
		People: strangers(3),
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if errResp.Code != "PARTY_TOO_LARGE" {
		t.Errorf("expected code PARTY_TOO_LARGE, got %q", errResp.Code)
	}
}

func TestHandlers_HandleDemo(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	router := setupTestRouter(svc)

	req, _ := http.NewRequest("GET", "/v1/party/demo", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if !resp.Found {
		t.Fatal("expected the demo roster to have a clique")
	}
	if want := []uint64{1, 2, 3}; !reflect.DeepEqual(resp.CliqueIDs, want) {
		t.Errorf("expected clique %v, got %v", want, resp.CliqueIDs)
	}
}

func TestHandlers_HandleDemo_BadQuery(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	router := setupTestRouter(svc)

	req, _ := http.NewRequest("GET", "/v1/party/demo?parallel=maybe", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if errResp.Code != "INVALID_QUERY" {
		t.Errorf("expected code INVALID_QUERY, got %q", errResp.Code)
	}
}

func TestHandlers_HandleGraph(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	router := setupTestRouter(svc)

	w := postJSON(t, router, "/v1/party/graph", GraphRequest{
		People:    dataset.DemoEntries,
		Highlight: true,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp GraphResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Format != "dot" {
		t.Errorf("expected format 'dot', got %q", resp.Format)
	}
	if !strings.Contains(resp.Graph, "digraph party {") {
		t.Error("expected DOT output")
	}
	if want := []uint64{1, 2, 3}; !reflect.DeepEqual(resp.CliqueIDs, want) {
		t.Errorf("expected highlighted clique %v, got %v", want, resp.CliqueIDs)
	}
}

func TestHandlers_HandleGraph_RejectsUnknownFormat(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	router := setupTestRouter(svc)

	w := postJSON(t, router, "/v1/party/graph", map[string]interface{}{
		"people": []map[string]interface{}{{"id": 1}},
		"format": "svg",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if errResp.Code != "VALIDATION_FAILED" {
		t.Errorf("expected code VALIDATION_FAILED, got %q", errResp.Code)
	}
}

func TestHandlers_Runs_NotConfigured(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	router := setupTestRouter(svc)

	req, _ := http.NewRequest("GET", "/v1/party/runs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if errResp.Code != "ARCHIVE_NOT_CONFIGURED" {
		t.Errorf("expected code ARCHIVE_NOT_CONFIGURED, got %q", errResp.Code)
	}
}

func TestHandlers_Runs_WithArchive(t *testing.T) {
	svc, _ := newArchiveService(t, DefaultServiceConfig())
	router := setupTestRouter(svc)

	w := postJSON(t, router, "/v1/party/analyze", AnalyzeRequest{
		Name:   "demo",
		People: dataset.DemoEntries,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("analyze failed with status %d: %s", w.Code, w.Body.String())
	}
	var analyzed AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &analyzed); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	// List the archive.
	req, _ := http.NewRequest("GET", "/v1/party/runs", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list failed with status %d", w.Code)
	}
	var list ListRunsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if list.Count != 1 {
		t.Fatalf("expected 1 archived run, got %d", list.Count)
	}

	// Fetch the single run.
	req, _ = http.NewRequest("GET", "/v1/party/runs/"+analyzed.RunID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get failed with status %d", w.Code)
	}

	// A missing run is a 404.
	req, _ = http.NewRequest("GET", "/v1/party/runs/no-such-run", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d for a missing run, got %d", http.StatusNotFound, w.Code)
	}

	// Clear the archive.
	req, _ = http.NewRequest("DELETE", "/v1/party/runs", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("clear failed with status %d", w.Code)
	}
	var cleared ClearRunsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &cleared); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if cleared.Deleted != 1 {
		t.Errorf("expected 1 run deleted, got %d", cleared.Deleted)
	}
}

func TestHandlers_HandleListRuns_InvalidLimit(t *testing.T) {
	svc, _ := newArchiveService(t, DefaultServiceConfig())
	router := setupTestRouter(svc)

	req, _ := http.NewRequest("GET", "/v1/party/runs?limit=many", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestHandlers_RequestIDPropagation(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	router := setupTestRouter(svc)

	t.Run("echoes provided request ID", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/v1/party/demo", nil)
		req.Header.Set("X-Request-ID", "test-request-42")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("X-Request-ID"); got != "test-request-42" {
			t.Errorf("expected request ID echoed back, got %q", got)
		}
	})

	t.Run("generates request ID when absent", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/v1/party/demo", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Header().Get("X-Request-ID") == "" {
			t.Error("expected a generated request ID")
		}
	})
}
