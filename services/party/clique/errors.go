// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package clique

import "errors"

// Sentinel errors for party construction and clique search.
var (
	// ErrNilParty indicates a nil party was passed to an operation.
	ErrNilParty = errors.New("party must not be nil")

	// ErrNoCelebrityClique indicates the party has no celebrity clique.
	// Absence is a legitimate outcome, not a failure of the search itself.
	ErrNoCelebrityClique = errors.New("no celebrity clique exists")

	// ErrPartyTooLarge indicates the party exceeds the enumerable size.
	// The power set has 2^n subsets; beyond 63 members the subset index
	// space no longer fits a uint64.
	ErrPartyTooLarge = errors.New("party too large to enumerate")

	// ErrInvalidOptions indicates search options failed validation.
	ErrInvalidOptions = errors.New("invalid search options")
)
