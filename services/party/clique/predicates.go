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

// IsClique reports whether every subset member knows every other member.
//
// Description:
//
//	A subset is a clique when, for each member, the rest of the subset
//	is contained in that member's acquaintance set. The empty subset and
//	singletons are cliques trivially (there is nothing to check; each
//	actor knows itself by reflexivity).
//
// Complexity: O(k^2) for a subset of k members.
func IsClique(subset Subset) bool {
	if len(subset) < 2 {
		return true
	}
	for _, m := range subset {
		for _, other := range subset {
			if other.ID == m.ID {
				continue
			}
			if !m.KnowsID(other.ID) {
				return false
			}
		}
	}
	return true
}

// IsCelebrityClique reports whether the subset is the party's celebrity
// clique.
//
// Description:
//
//	Checks both directions of the defining property in one pass over
//	party x subset pairs:
//
//	  1. every person at the party knows every subset member, and
//	  2. whenever a subset member knows a person, that person is in the
//	     subset (members know only each other, within the party).
//
//	Evaluation short-circuits on the first violated pair. A subset that
//	passes is necessarily a clique, so no separate IsClique check is
//	performed. Acquaintance IDs that are not party members never come
//	into play: the scan ranges over party members only.
//
// Inputs:
//
//	p - The party. Must not be nil.
//	subset - The candidate subset, normally drawn from p's power set.
//
// Complexity: O(n * k) for a party of n and subset of k.
func IsCelebrityClique(p *Party, subset Subset) bool {
	if p == nil {
		return false
	}
	in := subset.idSet()
	for _, person := range p.Members() {
		_, member := in[person.ID]
		for _, celeb := range subset {
			if !person.KnowsActor(celeb) {
				return false
			}
			if celeb.KnowsActor(person) && !member {
				return false
			}
		}
	}
	return true
}
