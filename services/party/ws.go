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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/gala/services/party/clique"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
	ReadBufferSize:  1024 * 1024,
	WriteBufferSize: 1024 * 1024,
}

// sendJSON writes v to the socket, logging on failure.
func sendJSON(ws *websocket.Conn, v interface{}) error {
	if err := ws.WriteJSON(v); err != nil {
		slog.Warn("failed to send websocket message", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// HandleAnalyzeWebSocket runs celebrity clique searches over a WebSocket,
// streaming per-level progress as the power set is walked.
//
// GET /party/ws
//
// The server sends a session_created message on connect, then accepts
// AnalyzeRequest payloads. Each request produces zero or more
// level_complete messages followed by a single result or error message.
// The session stays open for further requests until the client closes it.
func (h *Handlers) HandleAnalyzeWebSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	sessionID := uuid.New().String()
	slog.Info("websocket session started", slog.String("session_id", sessionID))

	if err := sendJSON(ws, map[string]interface{}{
		"action":     "session_created",
		"session_id": sessionID,
	}); err != nil {
		return
	}

	for {
		var req AnalyzeRequest
		if err := ws.ReadJSON(&req); err != nil {
			slog.Info("websocket session closed",
				slog.String("session_id", sessionID),
				slog.String("reason", err.Error()),
			)
			break
		}

		if err := req.Validate(); err != nil {
			if sendJSON(ws, map[string]interface{}{
				"action": "error",
				"error":  "validation failed: " + err.Error(),
				"code":   "VALIDATION_FAILED",
			}) != nil {
				return
			}
			continue
		}

		// Progress messages are sent from the search goroutine itself, so
		// writes never interleave with the final result below.
		sendFailed := false
		onLevel := func(p clique.LevelProgress) {
			if sendFailed {
				return
			}
			if sendJSON(ws, map[string]interface{}{
				"action":      "level_complete",
				"cardinality": p.Cardinality,
				"subsets":     p.Subsets,
				"evaluated":   p.Evaluated,
				"elapsed_ms":  p.Elapsed.Milliseconds(),
			}) != nil {
				sendFailed = true
			}
		}

		resp, err := h.svc.AnalyzeWithProgress(c.Request.Context(), &req, onLevel)
		if sendFailed {
			return
		}
		if err != nil {
			_, code := classifyAnalyzeError(err)
			if sendJSON(ws, map[string]interface{}{
				"action": "error",
				"error":  err.Error(),
				"code":   code,
			}) != nil {
				return
			}
			continue
		}

		if sendJSON(ws, map[string]interface{}{
			"action": "result",
			"result": resp,
		}) != nil {
			return
		}
	}
}
