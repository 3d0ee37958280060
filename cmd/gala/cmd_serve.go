// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/gala/cmd/gala/config"
	"github.com/AleutianAI/gala/pkg/ux"
	"github.com/AleutianAI/gala/services/party"
	"github.com/AleutianAI/gala/services/party/storage/badger"
	"github.com/AleutianAI/gala/services/party/telemetry"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	servePort     int     // Listen port, 0 means use the config value
	serveDebug    bool    // Gin debug mode plus request logging
	serveDataDir  string  // Run archive directory override
	serveInMemory bool    // Keep the run archive in memory only
	serveRPS      float64 // Requests per second, negative means use the config value
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// serveCmd runs the Gala API server in-process.
//
// # Description
//
// Same wiring as the galad daemon: gin router under /v1, OpenTelemetry
// middleware, a shared token-bucket rate limit, BadgerDB run archive,
// and the optional InfluxDB run history sink. Defaults come from the
// server section of gala.yaml; flags override.
//
// # Examples
//
//	gala serve
//	gala serve --port 9090 --debug
//	gala serve --in-memory --rps 100
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Gala party analysis API server",
	Long: `Run the Gala API server in-process.

Serves the same API as the galad daemon: analysis, graph export, the
run archive, and health probes under /v1/party. Configuration comes
from the server section of gala.yaml; flags override.

Examples:
  gala serve
  gala serve --port 9090 --debug
  gala serve --in-memory`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0,
		"Port to listen on (default from config)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false,
		"Enable gin debug mode and request logging")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "",
		"Run archive directory (default from config, $GALA_DATA_DIR, or ~/.gala/runs)")
	serveCmd.Flags().BoolVar(&serveInMemory, "in-memory", false,
		"Keep the run archive in memory only")
	serveCmd.Flags().Float64Var(&serveRPS, "rps", -1,
		"Requests per second allowed before throttling (default from config)")

	rootCmd.AddCommand(serveCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runServe assembles and runs the API server.
func runServe(cmd *cobra.Command, args []string) {
	port := servePort
	if port == 0 {
		port = config.Global.Server.GetPort()
	}
	rps := serveRPS
	if rps < 0 {
		rps = config.Global.Server.GetRPS()
	}

	if serveDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	telemetryCfg := telemetry.DefaultConfig()
	telemetryCfg.ServiceVersion = party.ServiceVersion
	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetryCfg)
	if err != nil {
		ux.Error(fmt.Sprintf("Failed to initialize telemetry: %v", err))
		os.Exit(ExitError)
	}

	storeCfg := badger.DefaultConfig()
	if serveInMemory || config.Global.Storage.InMemory {
		storeCfg = badger.InMemoryConfig()
	} else if serveDataDir != "" {
		storeCfg.Path = serveDataDir
	} else {
		storeCfg.Path = resolveDataDir()
	}
	storeCfg.Logger = cliLogger.Slog()
	db, err := badger.OpenDB(storeCfg)
	if err != nil {
		ux.Error(fmt.Sprintf("Failed to open run archive: %v", err))
		os.Exit(ExitError)
	}
	store, err := badger.NewRunStore(db)
	if err != nil {
		ux.Error(fmt.Sprintf("Failed to create run store: %v", err))
		os.Exit(ExitError)
	}

	sink, err := telemetry.NewRunSinkFromEnv(cliLogger.Slog())
	if err != nil {
		cliLogger.Warn("run history sink disabled", "error", err)
		sink = nil
	}

	svc := party.NewService(party.DefaultServiceConfig()).
		WithStore(store).
		WithSink(sink)
	handlers := party.NewHandlers(svc)

	router := gin.New()
	router.Use(gin.Recovery())
	if serveDebug {
		router.Use(gin.Logger())
	}
	router.Use(otelgin.Middleware("gala-party"))
	if rps > 0 {
		router.Use(serveRateLimit(rps))
	}

	v1 := router.Group("/v1")
	party.RegisterRoutes(v1, handlers)

	if metricsHandler := telemetry.MetricsHandler(); metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	printServeSummary(port, storeCfg, sink != nil)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		fmt.Println()
		ux.Muted("Shutting down.")
		if sink != nil {
			sink.Close()
		}
		if err := db.Close(); err != nil {
			cliLogger.Error("failed to close run archive", "error", err)
		}
		if err := shutdownTelemetry(context.Background()); err != nil {
			cliLogger.Error("failed to shutdown telemetry", "error", err)
		}
		os.Exit(ExitSuccess)
	}()

	addr := fmt.Sprintf(":%d", port)
	if err := router.Run(addr); err != nil {
		ux.Error(fmt.Sprintf("Server stopped: %v", err))
		os.Exit(ExitError)
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// serveRateLimit throttles the whole API with a shared token bucket.
func serveRateLimit(rps float64) gin.HandlerFunc {
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

// printServeSummary prints the startup card. The galad daemon prints a
// full box banner; the CLI keeps it to a few styled lines.
func printServeSummary(port int, storeCfg badger.Config, sinkEnabled bool) {
	archive := storeCfg.Path
	if storeCfg.InMemory {
		archive = "in-memory"
	}
	history := "disabled (set INFLUXDB_URL to enable)"
	if sinkEnabled {
		history = "enabled"
	}

	ux.Title("Gala party server")
	ux.Info(fmt.Sprintf("Listening on :%d", port))
	ux.Info(fmt.Sprintf("Run archive: %s", archive))
	ux.Info(fmt.Sprintf("Run history: %s", history))
	ux.Muted(fmt.Sprintf("Try: curl http://localhost:%d/v1/party/demo | jq", port))
	ux.Muted("Press Ctrl-C to stop.")
}
