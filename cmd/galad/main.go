// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command galad starts the Gala party analysis API server.
//
// Gala finds the celebrity clique of a party: the unique group where every
// guest at the party knows every clique member, and clique members know
// only each other.
//
// Usage:
//
//	go run ./cmd/galad
//	go run ./cmd/galad -port 9090
//	go run ./cmd/galad -in-memory
//
// With run history (optional):
//
//	INFLUXDB_URL=http://localhost:8086 INFLUXDB_TOKEN=secret go run ./cmd/galad
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/party/health
//
//	# Analyze the built-in demo roster
//	curl http://localhost:8080/v1/party/demo | jq
//
//	# Analyze a custom roster
//	curl -X POST http://localhost:8080/v1/party/analyze \
//	  -H "Content-Type: application/json" \
//	  -d '{"people": [{"id": 1, "knows": [2]}, {"id": 2, "knows": [1]}]}'
//
//	# List archived runs
//	curl http://localhost:8080/v1/party/runs | jq
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/gala/services/party"
	"github.com/AleutianAI/gala/services/party/storage/badger"
	"github.com/AleutianAI/gala/services/party/telemetry"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	dataDir := flag.String("data-dir", "", "Run archive directory (default $GALA_DATA_DIR or ~/.gala/runs)")
	inMemory := flag.Bool("in-memory", false, "Keep the run archive in memory only")
	rps := flag.Float64("rps", 20, "Requests per second allowed before throttling")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Set Gin mode
	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Init tracing and metrics ---
	telemetryCfg := telemetry.DefaultConfig()
	telemetryCfg.ServiceVersion = party.ServiceVersion
	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetryCfg)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}

	// --- Open the run archive ---
	storeCfg := badger.DefaultConfig()
	if *inMemory {
		storeCfg = badger.InMemoryConfig()
	} else {
		storeCfg.Path = resolveDataDir(*dataDir)
	}
	db, err := badger.OpenDB(storeCfg)
	if err != nil {
		log.Fatalf("failed to open run archive: %v", err)
	}
	store, err := badger.NewRunStore(db)
	if err != nil {
		log.Fatalf("failed to create run store: %v", err)
	}

	// --- Optional run history sink ---
	sink, err := telemetry.NewRunSinkFromEnv(logger)
	if err != nil {
		slog.Warn("run history sink disabled", slog.String("error", err.Error()))
		sink = nil
	}

	svc := party.NewService(party.DefaultServiceConfig()).
		WithStore(store).
		WithSink(sink)
	handlers := party.NewHandlers(svc)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	if *debug {
		router.Use(gin.Logger())
	}
	router.Use(otelgin.Middleware("gala-party"))
	if *rps > 0 {
		router.Use(rateLimitMiddleware(*rps))
	}

	v1 := router.Group("/v1")
	party.RegisterRoutes(v1, handlers)

	// Prometheus scrape endpoint, present when the exporter is enabled.
	if metricsHandler := telemetry.MetricsHandler(); metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	printBanner(*port, storeCfg, sink != nil)

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down Gala server")
		if sink != nil {
			sink.Close()
		}
		if err := db.Close(); err != nil {
			slog.Error("failed to close run archive", slog.String("error", err.Error()))
		}
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Error("failed to shutdown telemetry", slog.String("error", err.Error()))
		}
		os.Exit(0)
	}()

	// Start server
	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Starting Gala server", slog.String("address", addr))
	if err := router.Run(addr); err != nil {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// resolveDataDir picks the archive directory from the flag, the
// GALA_DATA_DIR environment variable, or the home directory, in that order.
func resolveDataDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("GALA_DATA_DIR"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Warn("could not resolve home directory, archiving under ./data",
			slog.String("error", err.Error()))
		return filepath.Join("data", "gala-runs")
	}
	return filepath.Join(home, ".gala", "runs")
}

// rateLimitMiddleware throttles the whole API with a shared token bucket.
func rateLimitMiddleware(rps float64) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), int(rps)*2)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, party.ErrorResponse{
				Error: "rate limit exceeded",
				Code:  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}

func printBanner(port int, storeCfg badger.Config, sinkEnabled bool) {
	archive := storeCfg.Path
	if storeCfg.InMemory {
		archive = "in-memory"
	}
	history := "DISABLED (set INFLUXDB_URL to enable)"
	if sinkEnabled {
		history = "ENABLED (InfluxDB connected)"
	}

	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                         GALA PARTY SERVER                         ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Celebrity clique analysis for party rosters.                     ║
║  Run Archive:  %-50s ║
║  Run History:  %-50s ║
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ # Health check                                              │  ║
║  │ curl http://localhost:%d/v1/party/health                  │  ║
║  │                                                             │  ║
║  │ # Analyze the built-in demo roster                          │  ║
║  │ curl http://localhost:%d/v1/party/demo | jq               │  ║
║  │                                                             │  ║
║  │ # Analyze a custom roster                                   │  ║
║  │ curl -X POST http://localhost:%d/v1/party/analyze \       │  ║
║  │   -H "Content-Type: application/json" \                     │  ║
║  │   -d '{"people": [{"id": 1, "knows": [2]}]}'                │  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
║  Endpoints:                                                       ║
║  ├── Analyze: POST /analyze, GET /demo, GET /ws (progress)        ║
║  ├── Graphs:  POST /graph (DOT or Mermaid)                        ║
║  ├── Archive: GET /runs, GET /runs/:id, DELETE /runs              ║
║  └── Probes:  GET /health, GET /ready, GET /metrics               ║
║                                                                   ║
║  Press Ctrl+C to stop                                             ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, archive, history, port, port, port)
}
