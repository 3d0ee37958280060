// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"time"
)

const (
	// CurrentConfigVersion tracks the config schema for future migrations.
	CurrentConfigVersion = "1.0.0"

	// DefaultSearchTimeoutSeconds bounds a single search run.
	DefaultSearchTimeoutSeconds = 30

	// DefaultMaxPartySize guards against accidental 2^n blowups.
	DefaultMaxPartySize = 20

	// DefaultGraphFormat is the export format when none is configured.
	DefaultGraphFormat = "dot"

	// DefaultDotBinary is the Graphviz executable probed for PNG rendering.
	DefaultDotBinary = "dot"

	// DefaultServerPort is where `gala serve` listens.
	DefaultServerPort = 8080

	// DefaultServerRPS throttles the embedded server.
	DefaultServerRPS = 20
)

// ConfigMeta records provenance for the config file itself.
type ConfigMeta struct {
	Version    string `yaml:"version"`
	CreatedAt  int64  `yaml:"created_at"`  // unix millis
	ModifiedAt int64  `yaml:"modified_at"` // unix millis
	ModifiedBy string `yaml:"modified_by"`
}

func newConfigMeta() ConfigMeta {
	now := time.Now().UnixMilli()
	return ConfigMeta{
		Version:    CurrentConfigVersion,
		CreatedAt:  now,
		ModifiedAt: now,
		ModifiedBy: "gala-cli",
	}
}

// CreatedAtTime returns CreatedAt as a time.Time.
func (m ConfigMeta) CreatedAtTime() time.Time {
	return time.UnixMilli(m.CreatedAt)
}

// ModifiedAtTime returns ModifiedAt as a time.Time.
func (m ConfigMeta) ModifiedAtTime() time.Time {
	return time.UnixMilli(m.ModifiedAt)
}

type GalaConfig struct {
	// Meta: config file provenance and schema version
	Meta ConfigMeta `yaml:"meta"`

	// Search: celebrity-clique search behavior
	Search SearchConfig `yaml:"search"`

	// Storage: where run records are archived
	Storage StorageConfig `yaml:"storage"`

	// Graph: visualization defaults
	Graph GraphConfig `yaml:"graph"`

	// Server: embedded `gala serve` settings
	Server ServerConfig `yaml:"server"`

	// UX: terminal output behavior
	UX UXConfig `yaml:"ux"`
}

type SearchConfig struct {
	Parallel       bool `yaml:"parallel"`        // fan levels out across workers
	TimeoutSeconds int  `yaml:"timeout_seconds"` // e.g. 30
	MaxPartySize   int  `yaml:"max_party_size"`  // e.g. 20
}

// GetTimeout returns the configured timeout, falling back to the default.
func (c SearchConfig) GetTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultSearchTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetMaxPartySize returns the configured cap, falling back to the default.
func (c SearchConfig) GetMaxPartySize() int {
	if c.MaxPartySize <= 0 {
		return DefaultMaxPartySize
	}
	return c.MaxPartySize
}

type StorageConfig struct {
	DataDir  string `yaml:"data_dir"`  // empty resolves to $GALA_DATA_DIR or ~/.gala/runs
	InMemory bool   `yaml:"in_memory"` // keep the archive in memory only
}

type GraphConfig struct {
	Format         string `yaml:"format"`          // "dot" or "mermaid"
	Direction      string `yaml:"direction"`       // e.g. TB, LR
	NodeColor      string `yaml:"node_color"`      // hex, e.g. "#74b9ff"
	HighlightColor string `yaml:"highlight_color"` // hex, e.g. "#ffd93d"
	DotBinary      string `yaml:"dot_binary"`      // Graphviz executable
}

// GetFormat returns the configured format, falling back to the default.
func (c GraphConfig) GetFormat() string {
	if c.Format == "" {
		return DefaultGraphFormat
	}
	return c.Format
}

// GetDotBinary returns the configured Graphviz binary, falling back to the default.
func (c GraphConfig) GetDotBinary() string {
	if c.DotBinary == "" {
		return DefaultDotBinary
	}
	return c.DotBinary
}

type ServerConfig struct {
	Port int     `yaml:"port"` // e.g. 8080
	RPS  float64 `yaml:"rps"`  // requests per second before throttling
}

// GetPort returns the configured port, falling back to the default.
func (c ServerConfig) GetPort() int {
	if c.Port <= 0 || c.Port > 65535 {
		return DefaultServerPort
	}
	return c.Port
}

// GetRPS returns the configured rate limit, falling back to the default.
func (c ServerConfig) GetRPS() float64 {
	if c.RPS <= 0 {
		return DefaultServerRPS
	}
	return c.RPS
}

type UXConfig struct {
	// Personality can be "full", "standard", "minimal", or "machine".
	// Empty defers to GALA_PERSONALITY and TTY detection.
	Personality string `yaml:"personality"`
}

func DefaultConfig() GalaConfig {
	return GalaConfig{
		Meta: newConfigMeta(),
		Search: SearchConfig{
			Parallel:       false,
			TimeoutSeconds: DefaultSearchTimeoutSeconds,
			MaxPartySize:   DefaultMaxPartySize,
		},
		Storage: StorageConfig{
			DataDir:  "",
			InMemory: false,
		},
		Graph: GraphConfig{
			Format:         DefaultGraphFormat,
			Direction:      "TB",
			NodeColor:      "#74b9ff",
			HighlightColor: "#ffd93d",
			DotBinary:      DefaultDotBinary,
		},
		Server: ServerConfig{
			Port: DefaultServerPort,
			RPS:  DefaultServerRPS,
		},
		UX: UXConfig{
			Personality: "",
		},
	}
}
