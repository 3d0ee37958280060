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

import "errors"

// Sentinel errors for the party service.
var (
	// ErrPartyTooLarge indicates the roster exceeds the configured size limit.
	// The search materializes 2^n subsets, so the service refuses rosters
	// the library would technically accept but the host could not survive.
	ErrPartyTooLarge = errors.New("party exceeds the configured size limit")

	// ErrAnalyzeTimeout indicates the search ran past its deadline.
	ErrAnalyzeTimeout = errors.New("analysis timed out")

	// ErrStoreNotConfigured indicates a run archive operation was requested
	// without a configured archive.
	ErrStoreNotConfigured = errors.New("run archive not configured")
)
