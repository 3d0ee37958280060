// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that are used in
// archive queries, file paths, or output filenames. Using these validators
// prevents injection attacks (key injection, path traversal).
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// partyNamePattern matches valid party names.
// Allows: letters, digits, dots, underscores, hyphens after an alphanumeric start
// Max length: 64 characters
var partyNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._\-]{0,63}$`)

// runIDPattern matches archive run identifiers (UUID format).
var runIDPattern = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)

// ValidatePartyName validates a party name used in archive keys and filenames.
//
// Valid names:
//   - 1-64 characters
//   - Letters a-z, A-Z and digits 0-9
//   - Dots (.), underscores (_), and hyphens (-) after the first character
//
// Returns an error if the name is invalid.
//
// Example:
//
//	if err := validation.ValidatePartyName(name); err != nil {
//	    return nil, fmt.Errorf("invalid party name: %w", err)
//	}
//	// Safe to use in archive keys and output paths
func ValidatePartyName(name string) error {
	if name == "" {
		return fmt.Errorf("party name cannot be empty")
	}

	if !partyNamePattern.MatchString(name) {
		return fmt.Errorf("invalid party name: %q (must be 1-64 alphanumeric chars, dots, underscores, or hyphens)", name)
	}

	return nil
}

// SanitizePartyName normalizes and validates a party name.
// Returns the trimmed name if valid, or an error if invalid.
//
// Use this when you need both validation and normalization:
//
//	safeName, err := validation.SanitizePartyName(userInput)
//	if err != nil {
//	    return err
//	}
func SanitizePartyName(name string) (string, error) {
	normalized := strings.TrimSpace(name)
	if err := ValidatePartyName(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ValidateRunID validates an archive run identifier before lookup.
//
// Run IDs are UUIDs assigned when a run is archived. Rejecting
// malformed IDs before the store query keeps arbitrary bytes out
// of archive key construction.
func ValidateRunID(id string) error {
	if id == "" {
		return fmt.Errorf("run ID cannot be empty")
	}

	if !runIDPattern.MatchString(id) {
		return fmt.Errorf("invalid run ID format: %q (must be a UUID)", id)
	}

	return nil
}
