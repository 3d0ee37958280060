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
	"testing"

	"github.com/AleutianAI/gala/cmd/gala/config"
)

// =============================================================================
// DOT IDENTIFIER TESTS
// =============================================================================

// TestDotIdent verifies party names become legal bare DOT identifiers.
func TestDotIdent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain word", "party", "party"},
		{"hyphenated", "launch-party", "launch_party"},
		{"dotted", "q3.launch", "q3_launch"},
		{"spaces", "office bash", "office_bash"},
		{"empty", "", "party"},
		{"leading digit", "2024-gala", "p2024_gala"},
		{"underscores kept", "winter_ball", "winter_ball"},
		{"non-ascii", "réunion", "r_union"},
		{"only punctuation", "...", "___"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dotIdent(tt.input); got != tt.expected {
				t.Errorf("dotIdent(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

// =============================================================================
// OPTION MERGING TESTS
// =============================================================================

// TestGraphOptionsFromConfig_Defaults verifies an unset config leaves the
// generator defaults alone.
func TestGraphOptionsFromConfig_Defaults(t *testing.T) {
	oldGraph := config.Global.Graph
	defer func() { config.Global.Graph = oldGraph }()
	config.Global.Graph = config.GraphConfig{}

	opts := graphOptionsFromConfig("launch-party")

	if opts.GraphName != "launch_party" {
		t.Errorf("GraphName = %q, want %q", opts.GraphName, "launch_party")
	}
	if opts.Direction != "TB" {
		t.Errorf("Direction = %q, want %q", opts.Direction, "TB")
	}
	if opts.NodeColor != "#74b9ff" {
		t.Errorf("NodeColor = %q, want %q", opts.NodeColor, "#74b9ff")
	}
	if opts.HighlightColor != "#ffd93d" {
		t.Errorf("HighlightColor = %q, want %q", opts.HighlightColor, "#ffd93d")
	}
	if opts.DotBinary != "dot" {
		t.Errorf("DotBinary = %q, want %q", opts.DotBinary, "dot")
	}
}

// TestGraphOptionsFromConfig_Overrides verifies configured values win.
func TestGraphOptionsFromConfig_Overrides(t *testing.T) {
	oldGraph := config.Global.Graph
	defer func() { config.Global.Graph = oldGraph }()
	config.Global.Graph = config.GraphConfig{
		Direction:      "LR",
		NodeColor:      "#ff0000",
		HighlightColor: "#00ff00",
		DotBinary:      "/opt/graphviz/bin/dot",
	}

	opts := graphOptionsFromConfig("gala")

	if opts.Direction != "LR" {
		t.Errorf("Direction = %q, want %q", opts.Direction, "LR")
	}
	if opts.NodeColor != "#ff0000" {
		t.Errorf("NodeColor = %q, want %q", opts.NodeColor, "#ff0000")
	}
	if opts.HighlightColor != "#00ff00" {
		t.Errorf("HighlightColor = %q, want %q", opts.HighlightColor, "#00ff00")
	}
	if opts.DotBinary != "/opt/graphviz/bin/dot" {
		t.Errorf("DotBinary = %q, want %q", opts.DotBinary, "/opt/graphviz/bin/dot")
	}
}

// TestGraphOptionsFromConfig_EmptyName verifies the default graph name
// survives an unnamed roster.
func TestGraphOptionsFromConfig_EmptyName(t *testing.T) {
	oldGraph := config.Global.Graph
	defer func() { config.Global.Graph = oldGraph }()
	config.Global.Graph = config.GraphConfig{}

	opts := graphOptionsFromConfig("")
	if opts.GraphName != "party" {
		t.Errorf("GraphName = %q, want %q", opts.GraphName, "party")
	}
}
