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
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/gala/services/party/clique"
	"github.com/AleutianAI/gala/services/party/dataset"
	"github.com/AleutianAI/gala/services/party/storage/badger"
)

// Handlers holds the HTTP handlers for the party service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates the handler set for a service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// getOrCreateRequestID returns the request ID from the X-Request-ID header,
// generating one when absent, and echoes it back on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}

// classifyAnalyzeError maps an analysis error to an HTTP status and a
// stable error code.
func classifyAnalyzeError(err error) (int, string) {
	switch {
	case errors.Is(err, dataset.ErrEmptyDataset):
		return http.StatusBadRequest, "EMPTY_ROSTER"
	case errors.Is(err, dataset.ErrDuplicateID):
		return http.StatusBadRequest, "DUPLICATE_GUEST"
	case errors.Is(err, ErrPartyTooLarge):
		return http.StatusBadRequest, "PARTY_TOO_LARGE"
	case errors.Is(err, clique.ErrInvalidOptions):
		return http.StatusBadRequest, "INVALID_OPTIONS"
	case errors.Is(err, ErrAnalyzeTimeout):
		return http.StatusGatewayTimeout, "ANALYZE_TIMEOUT"
	case errors.Is(err, context.Canceled):
		return http.StatusInternalServerError, "ANALYZE_CANCELLED"
	default:
		return http.StatusInternalServerError, "ANALYZE_FAILED"
	}
}

// HandleAnalyze runs the celebrity clique search over a posted roster.
//
// POST /party/analyze
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAnalyze")

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("request validation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "validation failed: " + err.Error(),
			Code:  "VALIDATION_FAILED",
		})
		return
	}

	resp, err := h.svc.Analyze(c.Request.Context(), &req)
	if err != nil {
		status, code := classifyAnalyzeError(err)
		logger.Error("analysis failed",
			slog.String("party", req.Name),
			slog.String("error", err.Error()),
			slog.String("code", code),
		)
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	logger.Info("analysis succeeded",
		slog.String("party", req.Name),
		slog.Bool("found", resp.Found),
		slog.Bool("cached", resp.Cached),
	)
	c.JSON(http.StatusOK, resp)
}

// HandleDemo runs the search over the built-in demo roster.
//
// GET /party/demo?parallel=false
func (h *Handlers) HandleDemo(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleDemo")

	parallel, err := strconv.ParseBool(c.DefaultQuery("parallel", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "parallel must be a boolean",
			Code:  "INVALID_QUERY",
		})
		return
	}

	req := &AnalyzeRequest{
		Name:     "demo",
		People:   dataset.DemoEntries,
		Parallel: parallel,
	}
	resp, err := h.svc.Analyze(c.Request.Context(), req)
	if err != nil {
		status, code := classifyAnalyzeError(err)
		logger.Error("demo analysis failed",
			slog.String("error", err.Error()),
			slog.String("code", code),
		)
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGraph renders the acquaintance graph for a posted roster.
//
// POST /party/graph
func (h *Handlers) HandleGraph(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGraph")

	var req GraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("request validation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "validation failed: " + err.Error(),
			Code:  "VALIDATION_FAILED",
		})
		return
	}

	resp, err := h.svc.Graph(c.Request.Context(), &req)
	if err != nil {
		status, code := classifyAnalyzeError(err)
		logger.Error("graph rendering failed",
			slog.String("party", req.Name),
			slog.String("error", err.Error()),
			slog.String("code", code),
		)
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleListRuns lists archived runs, newest first.
//
// GET /party/runs?limit=20
func (h *Handlers) HandleListRuns(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleListRuns")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "limit must be a non-negative integer",
				Code:  "INVALID_QUERY",
			})
			return
		}
		limit = parsed
	}

	resp, err := h.svc.Runs(c.Request.Context(), limit)
	if err != nil {
		if errors.Is(err, ErrStoreNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error: err.Error(),
				Code:  "ARCHIVE_NOT_CONFIGURED",
			})
			return
		}
		logger.Error("failed to list runs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "ARCHIVE_FAILED",
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGetRun fetches one archived run.
//
// GET /party/runs/:id
func (h *Handlers) HandleGetRun(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGetRun")

	id := c.Param("id")
	rec, err := h.svc.Run(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrStoreNotConfigured):
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error: err.Error(),
				Code:  "ARCHIVE_NOT_CONFIGURED",
			})
		case errors.Is(err, badger.ErrRunNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: err.Error(),
				Code:  "RUN_NOT_FOUND",
			})
		default:
			logger.Error("failed to fetch run",
				slog.String("run_id", id),
				slog.String("error", err.Error()),
			)
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error: err.Error(),
				Code:  "ARCHIVE_FAILED",
			})
		}
		return
	}
	c.JSON(http.StatusOK, rec)
}

// HandleClearRuns deletes every archived run.
//
// DELETE /party/runs
func (h *Handlers) HandleClearRuns(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleClearRuns")

	deleted, err := h.svc.ClearRuns(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrStoreNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error: err.Error(),
				Code:  "ARCHIVE_NOT_CONFIGURED",
			})
			return
		}
		logger.Error("failed to clear runs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "ARCHIVE_FAILED",
		})
		return
	}

	logger.Info("run archive cleared", slog.Int("deleted", deleted))
	c.JSON(http.StatusOK, ClearRunsResponse{Deleted: deleted})
}

// HandleHealth reports process liveness.
//
// GET /party/health
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

// HandleReady reports whether the service can accept work.
//
// GET /party/ready
func (h *Handlers) HandleReady(c *gin.Context) {
	resp := h.svc.Ready(c.Request.Context())
	if !resp.Ready {
		c.Header("Retry-After", "30")
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
