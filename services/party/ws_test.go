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
	"encoding/json"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AleutianAI/gala/services/party/dataset"
)

// wsMessage is the envelope for every server-to-client frame.
type wsMessage struct {
	Action      string          `json:"action"`
	SessionID   string          `json:"session_id"`
	Cardinality int             `json:"cardinality"`
	Evaluated   int             `json:"evaluated"`
	Error       string          `json:"error"`
	Code        string          `json:"code"`
	Result      json.RawMessage `json:"result"`
}

// dialTestSocket connects to the analyze socket of a fresh test server.
func dialTestSocket(t *testing.T, svc *Service) *websocket.Conn {
	t.Helper()

	router := setupTestRouter(svc)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/party/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { ws.Close() })

	if err := ws.SetReadDeadline(time.Now().Add(10 * time.Second)); err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}
	return ws
}

func readMessage(t *testing.T, ws *websocket.Conn) wsMessage {
	t.Helper()

	var msg wsMessage
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("failed to read websocket message: %v", err)
	}
	return msg
}

func TestHandleAnalyzeWebSocket_StreamsLevelsAndResult(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	ws := dialTestSocket(t, svc)

	hello := readMessage(t, ws)
	if hello.Action != "session_created" {
		t.Fatalf("expected session_created, got %q", hello.Action)
	}
	if hello.SessionID == "" {
		t.Fatal("expected a session ID")
	}

	if err := ws.WriteJSON(AnalyzeRequest{Name: "demo", People: dataset.DemoEntries}); err != nil {
		t.Fatalf("failed to send request: %v", err)
	}

	// The demo clique sits at cardinality 3, so levels 1 and 2 complete
	// and report before the result arrives.
	var levels []wsMessage
	var result wsMessage
	for {
		msg := readMessage(t, ws)
		if msg.Action == "level_complete" {
			levels = append(levels, msg)
			continue
		}
		result = msg
		break
	}

	if result.Action != "result" {
		t.Fatalf("expected a result message, got %q: %s", result.Action, result.Error)
	}
	if len(levels) != 2 {
		t.Errorf("expected 2 level_complete messages, got %d", len(levels))
	}
	for i, lvl := range levels {
		if lvl.Cardinality != i+1 {
			t.Errorf("level %d: expected cardinality %d, got %d", i, i+1, lvl.Cardinality)
		}
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(result.Result, &resp); err != nil {
		t.Fatalf("failed to unmarshal result payload: %v", err)
	}
	if !resp.Found {
		t.Fatal("expected the demo roster to have a clique")
	}
	if want := []uint64{1, 2, 3}; !reflect.DeepEqual(resp.CliqueIDs, want) {
		t.Errorf("expected clique %v, got %v", want, resp.CliqueIDs)
	}
}

func TestHandleAnalyzeWebSocket_ValidationErrorKeepsSession(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	ws := dialTestSocket(t, svc)

	if hello := readMessage(t, ws); hello.Action != "session_created" {
		t.Fatalf("expected session_created, got %q", hello.Action)
	}

	// An empty roster fails validation but must not end the session.
	if err := ws.WriteJSON(AnalyzeRequest{}); err != nil {
		t.Fatalf("failed to send request: %v", err)
	}
	errMsg := readMessage(t, ws)
	if errMsg.Action != "error" {
		t.Fatalf("expected an error message, got %q", errMsg.Action)
	}
	if errMsg.Code != "VALIDATION_FAILED" {
		t.Errorf("expected code VALIDATION_FAILED, got %q", errMsg.Code)
	}

	// The session is still usable.
	if err := ws.WriteJSON(AnalyzeRequest{People: strangers(2)}); err != nil {
		t.Fatalf("failed to send request: %v", err)
	}
	for {
		msg := readMessage(t, ws)
		if msg.Action == "level_complete" {
			continue
		}
		if msg.Action != "result" {
			t.Fatalf("expected a result message, got %q: %s", msg.Action, msg.Error)
		}
		var resp AnalyzeResponse
		if err := json.Unmarshal(msg.Result, &resp); err != nil {
			t.Fatalf("failed to unmarshal result payload: %v", err)
		}
		if resp.Found {
			t.Error("expected no clique among strangers")
		}
		break
	}
}
