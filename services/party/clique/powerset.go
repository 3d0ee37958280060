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

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

// maxEnumerableParty bounds the party size for power set construction.
// Subset indexes live in a uint64, so 63 members is the hard ceiling;
// memory gives out long before that and callers should guard far lower.
const maxEnumerableParty = 63

// Subset is one element of the party's power set.
type Subset []Actor

// IDs returns the subset's member IDs in ascending order.
func (s Subset) IDs() []uint64 {
	ids := make([]uint64, len(s))
	for i, a := range s {
		ids[i] = a.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Contains reports whether the subset holds the given ID.
func (s Subset) Contains(id uint64) bool {
	for _, a := range s {
		if a.ID == id {
			return true
		}
	}
	return false
}

// idSet returns the subset's IDs as a set for repeated membership tests.
func (s Subset) idSet() map[uint64]struct{} {
	set := make(map[uint64]struct{}, len(s))
	for _, a := range s {
		set[a.ID] = struct{}{}
	}
	return set
}

// String renders the subset as "{1 2 3}" in ascending ID order.
func (s Subset) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range s.IDs() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", id)
	}
	b.WriteByte('}')
	return b.String()
}

// Binomial returns the binomial coefficient C(n, k).
//
// Description:
//
//	Computed with the multiplicative formula, dividing at every step so
//	intermediate values stay exact: after i steps the accumulator holds
//	C(n-k+i, i), always an integer. The symmetric argument is reduced
//	first (C(n, k) == C(n, n-k)) to shorten the loop.
//
// Edge cases:
//
//	k > n (or negative input) yields 0; k == 0 and k == n yield 1.
//
// Complexity: O(min(k, n-k)) multiplications.
func Binomial(n, k int) uint64 {
	if n < 0 || k < 0 || k > n {
		return 0
	}
	if k == 0 || k == n {
		return 1
	}
	if k > n-k {
		k = n - k
	}
	result := uint64(1)
	for i := 1; i <= k; i++ {
		result = result * uint64(n-k+i) / uint64(i)
	}
	return result
}

// SubsetsByCardinality returns the party's full power set grouped by size.
//
// Description:
//
//	Element c of the result holds every subset of exactly c members, so
//	the result always has Size+1 levels: level 0 is the single empty
//	subset and the last level is the whole party. Each level is
//	preallocated to Binomial(n, c) capacity and the 2^n subset indexes
//	are walked in ascending order, decoding each index by scanning the
//	member positions from n-1 down to 0. Positions are ascending-ID
//	party order, which makes the layout reproducible across runs.
//
// Inputs:
//
//	p - The party. Must not be nil.
//
// Outputs:
//
//	[][]Subset - Levels indexed by cardinality.
//	error - ErrNilParty, or ErrPartyTooLarge beyond 63 members.
//
// Complexity:
//
//	| Aspect | Cost        |
//	|--------|-------------|
//	| Time   | O(n * 2^n)  |
//	| Memory | O(n * 2^n)  |
//
//	The full power set is materialized. Callers that cannot afford that
//	must bound the party size before calling.
func SubsetsByCardinality(p *Party) ([][]Subset, error) {
	if p == nil {
		return nil, ErrNilParty
	}
	members := p.Members()
	n := len(members)
	if n > maxEnumerableParty {
		return nil, fmt.Errorf("%w: %d members", ErrPartyTooLarge, n)
	}

	levels := make([][]Subset, n+1)
	for c := 0; c <= n; c++ {
		levels[c] = make([]Subset, 0, Binomial(n, c))
	}

	total := uint64(1) << uint(n)
	for idx := uint64(0); idx < total; idx++ {
		card := bits.OnesCount64(idx)
		subset := make(Subset, 0, card)
		for pos := n - 1; pos >= 0; pos-- {
			if idx&(uint64(1)<<uint(pos)) != 0 {
				subset = append(subset, members[pos])
			}
		}
		levels[card] = append(levels[card], subset)
	}
	return levels, nil
}
