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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Party is a set of actors keyed by ID.
//
// Description:
//
//	Party has set semantics over actor identity: adding a second actor
//	with an ID already present is a no-op that keeps the first actor,
//	whatever its acquaintance set. Map iteration order is unspecified;
//	the ordered accessors (IDs, Members) sort ascending by ID so that
//	every derived artifact - power set levels, graph output, digests -
//	is deterministic.
//
// Thread Safety:
//
//	NOT safe for concurrent mutation. Build the party first, then share
//	it freely: every read accessor and every search in this package
//	treats the party as immutable.
type Party struct {
	members map[uint64]Actor
}

// NewParty creates a party from the given actors.
//
// Duplicate IDs follow Add semantics: the first actor wins.
func NewParty(actors ...Actor) *Party {
	p := &Party{members: make(map[uint64]Actor, len(actors))}
	for _, a := range actors {
		p.Add(a)
	}
	return p
}

// Add inserts an actor into the party.
//
// Outputs:
//
//	bool - true if the actor was inserted, false if the ID was already
//	present (the existing actor is kept).
func (p *Party) Add(a Actor) bool {
	if _, exists := p.members[a.ID]; exists {
		return false
	}
	p.members[a.ID] = a
	return true
}

// Size returns the number of actors at the party.
func (p *Party) Size() int {
	return len(p.members)
}

// Contains reports whether an actor with the given ID is at the party.
func (p *Party) Contains(id uint64) bool {
	_, ok := p.members[id]
	return ok
}

// Actor returns the party member with the given ID.
func (p *Party) Actor(id uint64) (Actor, bool) {
	a, ok := p.members[id]
	return a, ok
}

// IDs returns all member IDs in ascending order.
func (p *Party) IDs() []uint64 {
	ids := make([]uint64, 0, len(p.members))
	for id := range p.members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Members returns all actors in ascending ID order.
//
// The slice is freshly allocated; the actors themselves are shared
// (they are immutable).
func (p *Party) Members() []Actor {
	out := make([]Actor, 0, len(p.members))
	for _, id := range p.IDs() {
		out = append(out, p.members[id])
	}
	return out
}

// Digest returns a stable hex digest of the party's full contents.
//
// Description:
//
//	Two parties with the same members and the same acquaintance sets
//	produce the same digest regardless of insertion order. Used by
//	callers to key caches and to correlate stored runs with inputs.
func (p *Party) Digest() string {
	var b strings.Builder
	for _, a := range p.Members() {
		fmt.Fprintf(&b, "%d:", a.ID)
		for i, k := range a.Acquaintances() {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%d", k)
		}
		b.WriteByte('\n')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// String renders the party as "party{a b c}" in ascending ID order.
func (p *Party) String() string {
	var b strings.Builder
	b.WriteString("party{")
	for i, a := range p.Members() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(a.String())
	}
	b.WriteByte('}')
	return b.String()
}
