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

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the party service endpoints on a router group.
//
// Routes:
//
//	POST   /party/analyze   - Run the celebrity clique search over a roster
//	POST   /party/graph     - Render the acquaintance graph for a roster
//	GET    /party/demo      - Run the search over the built-in demo roster
//	GET    /party/runs      - List archived runs, newest first
//	GET    /party/runs/:id  - Fetch one archived run
//	DELETE /party/runs      - Clear the run archive
//	GET    /party/ws        - Analyze over WebSocket with level progress
//	GET    /party/health    - Liveness probe
//	GET    /party/ready     - Readiness probe
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	party := rg.Group("/party")
	{
		party.POST("/analyze", handlers.HandleAnalyze)
		party.POST("/graph", handlers.HandleGraph)
		party.GET("/demo", handlers.HandleDemo)

		party.GET("/runs", handlers.HandleListRuns)
		party.GET("/runs/:id", handlers.HandleGetRun)
		party.DELETE("/runs", handlers.HandleClearRuns)

		party.GET("/ws", handlers.HandleAnalyzeWebSocket)

		party.GET("/health", handlers.HandleHealth)
		party.GET("/ready", handlers.HandleReady)
	}
}
