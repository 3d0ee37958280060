// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package visualization renders parties as acquaintance graphs.
package visualization

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/gala/services/party/clique"
)

// OutputFormat specifies the visualization output format.
type OutputFormat string

const (
	FormatDOT     OutputFormat = "dot"
	FormatMermaid OutputFormat = "mermaid"
)

// GraphGenerator renders a party's acquaintance relation as a directed
// graph, optionally highlighting the celebrity clique.
//
// # Description
//
// Each guest becomes one node and each "a knows b" pair becomes one
// directed edge. Every guest knows themselves, but that reflexive edge
// is implicit and never drawn. Acquaintances who are not at the party
// are silently dropped, so an entry like "4 knows 42" draws no dangling
// edge. Nodes and edges are emitted in ascending ID order, which keeps
// output stable across runs.
//
// # Thread Safety
//
// Safe for concurrent use.
type GraphGenerator struct {
	options GraphOptions
}

// GraphOptions configures graph generation.
type GraphOptions struct {
	// Direction is the layout direction (TB, LR, BT, RL).
	// Default: "TB"
	Direction string

	// GraphName names the DOT digraph.
	// Default: "party"
	GraphName string

	// NodeColor is the fill for ordinary guests.
	// Default: "#74b9ff"
	NodeColor string

	// HighlightColor is the fill for celebrity clique members.
	// Default: "#ffd93d"
	HighlightColor string

	// DotBinary is the Graphviz executable used by RenderPNG.
	// Default: "dot"
	DotBinary string
}

// DefaultGraphOptions returns sensible defaults.
func DefaultGraphOptions() GraphOptions {
	return GraphOptions{
		Direction:      "TB",
		GraphName:      "party",
		NodeColor:      "#74b9ff",
		HighlightColor: "#ffd93d",
		DotBinary:      "dot",
	}
}

// NewGraphGenerator creates a new graph generator.
func NewGraphGenerator(opts *GraphOptions) *GraphGenerator {
	if opts == nil {
		defaults := DefaultGraphOptions()
		opts = &defaults
	}
	return &GraphGenerator{options: *opts}
}

// Generate renders the party in the requested format.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - p: The party to render.
//   - highlight: Guest IDs to mark as the celebrity clique. May be empty.
//   - format: The output format.
//
// # Outputs
//
//   - string: The graph text in the requested format.
//   - error: Non-nil on nil inputs or an unsupported format.
func (g *GraphGenerator) Generate(ctx context.Context, p *clique.Party, highlight []uint64, format OutputFormat) (string, error) {
	if ctx == nil {
		return "", fmt.Errorf("context is required")
	}
	if p == nil {
		return "", clique.ErrNilParty
	}

	switch format {
	case FormatDOT:
		return g.generateDOT(p, highlight), nil
	case FormatMermaid:
		return g.generateMermaid(p, highlight), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// generateDOT creates a Graphviz DOT digraph.
func (g *GraphGenerator) generateDOT(p *clique.Party, highlight []uint64) string {
	var sb strings.Builder

	members := p.Members()
	marked := idSet(highlight)

	sb.WriteString(fmt.Sprintf("digraph %s {\n", g.options.GraphName))
	sb.WriteString(fmt.Sprintf("    rankdir=%s;\n", g.options.Direction))
	sb.WriteString(fmt.Sprintf("    node [shape=circle, style=filled, fillcolor=\"%s\"];\n", g.options.NodeColor))
	sb.WriteString("\n")

	for _, m := range members {
		if _, ok := marked[m.ID]; ok {
			sb.WriteString(fmt.Sprintf("    g%d [label=\"%d\", fillcolor=\"%s\"];\n",
				m.ID, m.ID, g.options.HighlightColor))
		} else {
			sb.WriteString(fmt.Sprintf("    g%d [label=\"%d\"];\n", m.ID, m.ID))
		}
	}

	sb.WriteString("\n")
	for _, m := range members {
		for _, known := range m.Acquaintances() {
			if !p.Contains(known) {
				continue
			}
			sb.WriteString(fmt.Sprintf("    g%d -> g%d;\n", m.ID, known))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// generateMermaid creates a Mermaid flowchart.
func (g *GraphGenerator) generateMermaid(p *clique.Party, highlight []uint64) string {
	var sb strings.Builder

	members := p.Members()
	marked := idSet(highlight)

	sb.WriteString(fmt.Sprintf("flowchart %s\n", g.options.Direction))

	for _, m := range members {
		if _, ok := marked[m.ID]; ok {
			sb.WriteString(fmt.Sprintf("    g%d((\"%d\")):::celebrity\n", m.ID, m.ID))
		} else {
			sb.WriteString(fmt.Sprintf("    g%d((\"%d\"))\n", m.ID, m.ID))
		}
	}

	sb.WriteString("\n")
	for _, m := range members {
		for _, known := range m.Acquaintances() {
			if !p.Contains(known) {
				continue
			}
			sb.WriteString(fmt.Sprintf("    g%d --> g%d\n", m.ID, known))
		}
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("    classDef celebrity fill:%s,stroke:#333,stroke-width:2px\n",
		g.options.HighlightColor))

	return sb.String()
}

// WriteGraph renders the party and writes the result under dir.
//
// # Description
//
// Creates dir when missing and writes graph.dot or graph.mmd depending
// on the format. An empty dir falls back to "output".
//
// # Outputs
//
//   - string: Path of the written file.
//   - error: Non-nil on render or write failure.
func (g *GraphGenerator) WriteGraph(ctx context.Context, p *clique.Party, highlight []uint64, format OutputFormat, dir string) (string, error) {
	text, err := g.Generate(ctx, p, highlight, format)
	if err != nil {
		return "", err
	}

	if dir == "" {
		dir = "output"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory %s: %w", dir, err)
	}

	name := "graph.dot"
	if format == FormatMermaid {
		name = "graph.mmd"
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("write graph file %s: %w", path, err)
	}
	return path, nil
}

// RenderPNG converts a DOT file to PNG with Graphviz.
//
// # Description
//
// Shells out to the configured Graphviz binary. Graphviz being absent
// or failing is an expected condition on minimal installs; callers
// usually log the returned error as a warning and keep the DOT file.
//
// # Inputs
//
//   - ctx: Context for cancellation of the external process.
//   - dotPath: Path of the DOT file to convert.
//
// # Outputs
//
//   - string: Path of the written PNG.
//   - error: Non-nil when the conversion fails, with Graphviz's stderr.
func (g *GraphGenerator) RenderPNG(ctx context.Context, dotPath string) (string, error) {
	pngPath := strings.TrimSuffix(dotPath, filepath.Ext(dotPath)) + ".png"

	cmd := exec.CommandContext(ctx, g.options.DotBinary, "-Tpng", dotPath, "-o", pngPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("graphviz conversion failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return pngPath, nil
}

// idSet turns an ID list into a set for membership tests.
func idSet(ids []uint64) map[uint64]struct{} {
	set := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
