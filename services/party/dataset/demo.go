// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dataset

import "github.com/AleutianAI/gala/services/party/clique"

// DemoEntries is the built-in seven-guest roster. Guests 1, 2, and 3 form
// the celebrity clique: everyone knows all three, and they know nobody
// outside their circle. Guest 4 also knows 42, who never shows up.
var DemoEntries = []Entry{
	{ID: 1, Knows: []uint64{1, 2, 3}},
	{ID: 2, Knows: []uint64{1, 3}},
	{ID: 3, Knows: []uint64{1, 2}},
	{ID: 4, Knows: []uint64{1, 2, 3, 42}},
	{ID: 5, Knows: []uint64{1, 2, 3, 4, 5}},
	{ID: 6, Knows: []uint64{1, 2, 3, 7}},
	{ID: 7, Knows: []uint64{1, 2, 3, 5, 6}},
}

// Demo returns a fresh copy of the built-in demo party.
func Demo() *clique.Party {
	p, err := FromEntries(DemoEntries)
	if err != nil {
		// The roster above is static and valid; this cannot happen.
		panic(err)
	}
	return p
}
