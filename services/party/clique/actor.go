// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package clique models a party of actors and finds its celebrity clique.
//
// A celebrity clique is the non-empty subset C of a party such that every
// person at the party knows every member of C, while members of C know
// only each other. The acquaintance relation is reflexive (everyone knows
// themselves) but deliberately not symmetric. At most one celebrity clique
// can exist for a given party, so the search returns the first subset that
// satisfies the predicate when the power set is walked in ascending
// cardinality order.
//
// The package is pure computation: no network, no persistence, no
// environment access. Callers own cancellation via context and own any
// guard against large parties (the power set has 2^n subsets).
package clique

import (
	"fmt"
	"sort"
	"strings"
)

// Actor is one person at the party.
//
// Description:
//
//	An Actor carries an identity and the set of IDs it claims to know.
//	Identity is the ID alone: two actors with equal IDs are the same
//	actor no matter what their acquaintance sets say, and containers in
//	this package key actors by ID accordingly.
//
//	The acquaintance set never stores the actor's own ID. Construction
//	strips it; reflexivity is supplied by the relation (KnowsActor), not
//	by the data.
//
// Thread Safety:
//
//	Actors are immutable after construction and safe to share.
type Actor struct {
	// ID is the actor's identity. Uniqueness within a party is enforced
	// by Party, not here.
	ID uint64

	knows map[uint64]struct{}
}

// NewActor creates an actor with the given identity and acquaintance IDs.
//
// Description:
//
//	Duplicates in knownIDs collapse, and the actor's own ID is dropped
//	if present. IDs that never correspond to a party member are legal;
//	they simply never influence a search over that party.
//
// Inputs:
//
//	id - The actor's identity.
//	knownIDs - IDs the actor claims to know. May be nil or empty.
//
// Outputs:
//
//	Actor - The constructed actor.
//
// Example:
//
//	a := clique.NewActor(4, []uint64{1, 2, 3, 42})
//	a.KnowsID(42) // true, even if 42 never shows up at the party
//	a.KnowsID(4)  // true via reflexivity, though 4 is not stored
func NewActor(id uint64, knownIDs []uint64) Actor {
	knows := make(map[uint64]struct{}, len(knownIDs))
	for _, k := range knownIDs {
		if k == id {
			continue
		}
		knows[k] = struct{}{}
	}
	return Actor{ID: id, knows: knows}
}

// KnowsID reports whether the actor knows the given ID.
//
// The relation is reflexive: an actor always knows its own ID. It is not
// symmetric: a.KnowsID(b.ID) says nothing about b.KnowsID(a.ID).
func (a Actor) KnowsID(id uint64) bool {
	if id == a.ID {
		return true
	}
	_, ok := a.knows[id]
	return ok
}

// KnowsActor reports whether the actor knows another actor.
//
// Equivalent to KnowsID(b.ID); provided so call sites read like the
// relation they encode.
func (a Actor) KnowsActor(b Actor) bool {
	return a.KnowsID(b.ID)
}

// Acquaintances returns the stored acquaintance IDs in ascending order.
//
// The actor's own ID is never included. The returned slice is a copy.
func (a Actor) Acquaintances() []uint64 {
	ids := make([]uint64, 0, len(a.knows))
	for id := range a.knows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AcquaintanceCount returns the number of stored acquaintance IDs.
func (a Actor) AcquaintanceCount() int {
	return len(a.knows)
}

// String renders the actor as "id[k1 k2 ...]" for logs and debugging.
func (a Actor) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d[", a.ID)
	for i, id := range a.Acquaintances() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", id)
	}
	b.WriteByte(']')
	return b.String()
}
