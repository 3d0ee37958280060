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
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/gala/cmd/gala/config"
	"github.com/AleutianAI/gala/pkg/ux"
	"github.com/AleutianAI/gala/services/party/clique"
	"github.com/AleutianAI/gala/services/party/visualization"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	graphExportFormat string // dot or mermaid
	graphOutDir       string // Directory for graph files ("" = stdout)
	graphRender       bool   // Convert DOT to PNG with Graphviz
	graphHighlight    bool   // Run the search and style the clique
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// graphCmd exports the acquaintance graph of a roster.
//
// # Description
//
// Renders each guest as a node and each directed "knows" pair as an
// edge; the reflexive self acquaintance stays implicit. With --highlight
// the clique search runs first and its members get the highlight color.
//
// PNG rendering shells out to Graphviz; a missing or failing `dot`
// binary downgrades to a warning and the DOT file is kept.
//
// # Examples
//
//	gala graph party.yaml                      # DOT on stdout
//	gala graph party.yaml --format mermaid     # Mermaid on stdout
//	gala graph party.yaml --out ./viz          # Write ./viz/graph.dot
//	gala graph party.yaml --out ./viz --render # Also render graph.png
//	gala graph party.yaml --highlight          # Style the clique members
var graphCmd = &cobra.Command{
	Use:   "graph DATASET",
	Short: "Export a roster's acquaintance graph",
	Long: `Export the acquaintance graph of a party roster.

Formats:
  dot      - Graphviz DOT (default)
  mermaid  - Mermaid flowchart for markdown embedding

Without --out the graph text goes to stdout. With --out DIR the file is
written as graph.dot or graph.mmd; --render without --out writes under
output/. --render additionally converts the DOT file to PNG when
Graphviz is installed; when it is not, the command warns and leaves the
DOT file in place.

Examples:
  gala graph party.yaml
  gala graph party.yaml --format mermaid
  gala graph party.yaml --out ./viz --render --highlight`,
	Args: cobra.ExactArgs(1),
	Run:  runGraphExport,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	graphCmd.Flags().StringVar(&graphExportFormat, "format", "",
		"Output format: dot or mermaid. Defaults to the configured format")
	graphCmd.Flags().StringVar(&graphOutDir, "out", "",
		"Directory for the graph file (default: stdout, or output/ with --render)")
	graphCmd.Flags().BoolVar(&graphRender, "render", false,
		"Render the DOT file to PNG with Graphviz (implies file output)")
	graphCmd.Flags().BoolVar(&graphHighlight, "highlight", false,
		"Run the clique search and highlight the members found")

	rootCmd.AddCommand(graphCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runGraphExport renders a roster's graph.
func runGraphExport(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p, name, err := loadRoster(args[0])
	if err != nil {
		outputError(false, "Failed to load roster", err)
		os.Exit(ExitError)
	}

	formatName := graphExportFormat
	if formatName == "" {
		formatName = config.Global.Graph.GetFormat()
	}
	format := visualization.OutputFormat(formatName)
	if format != visualization.FormatDOT && format != visualization.FormatMermaid {
		outputError(false, "Invalid format",
			fmt.Errorf("%q is not supported, use dot or mermaid", formatName))
		os.Exit(ExitError)
	}

	gen := visualization.NewGraphGenerator(graphOptionsFromConfig(name))

	var highlight []uint64
	if graphHighlight {
		result, err := clique.FindCelebrityClique(ctx, p, nil)
		switch {
		case err == nil:
			highlight = result.CliqueIDs
		case errors.Is(err, clique.ErrNoCelebrityClique):
			ux.Muted("No celebrity clique to highlight.")
		default:
			ux.Warning(fmt.Sprintf("Highlight search failed: %v", err))
		}
	}

	// Stdout mode: no files, no rendering.
	if graphOutDir == "" && !graphRender {
		text, err := gen.Generate(ctx, p, highlight, format)
		if err != nil {
			outputError(false, "Failed to generate graph", err)
			os.Exit(ExitError)
		}
		fmt.Println(text)
		os.Exit(ExitSuccess)
	}

	path, err := gen.WriteGraph(ctx, p, highlight, format, graphOutDir)
	if err != nil {
		outputError(false, "Failed to write graph", err)
		os.Exit(ExitError)
	}
	ux.Success(fmt.Sprintf("Graph written to %s", path))

	if graphRender {
		if format != visualization.FormatDOT {
			ux.Warning("PNG rendering needs the dot format; skipping.")
			os.Exit(ExitSuccess)
		}
		pngPath, err := gen.RenderPNG(ctx, path)
		if err != nil {
			// Graphviz being absent is routine; the DOT file stands alone.
			ux.Warning(fmt.Sprintf("PNG rendering skipped: %v", err))
		} else {
			ux.Success(fmt.Sprintf("PNG rendered to %s", pngPath))
		}
	}

	os.Exit(ExitSuccess)
}

// graphOptionsFromConfig merges configured colors and layout over the
// defaults, naming the digraph after the party.
func graphOptionsFromConfig(graphName string) *visualization.GraphOptions {
	opts := visualization.DefaultGraphOptions()
	if graphName != "" {
		opts.GraphName = dotIdent(graphName)
	}
	cfg := config.Global.Graph
	if cfg.Direction != "" {
		opts.Direction = cfg.Direction
	}
	if cfg.NodeColor != "" {
		opts.NodeColor = cfg.NodeColor
	}
	if cfg.HighlightColor != "" {
		opts.HighlightColor = cfg.HighlightColor
	}
	opts.DotBinary = cfg.GetDotBinary()
	return &opts
}

// dotIdent squeezes a party name into a bare DOT identifier. Roster
// names may carry dots and hyphens, which DOT only accepts quoted.
func dotIdent(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := b.String()
	if s == "" {
		return "party"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "p" + s
	}
	return s
}
