// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// generate_roster emits a synthetic party roster in the YAML format
// `gala find` consumes.
//
// Usage:
//
//	go run scripts/generate_roster.go -guests 12 -clique 3 > party.yaml
//	go run scripts/generate_roster.go -guests 15 -clique 0 -seed 7 > chaos.yaml
//
// With -clique K > 0 the roster is built around a planted celebrity
// clique of the first K guests: everyone knows all K of them, and they
// know nobody outside their circle, so the search is guaranteed to find
// exactly that group. With -clique 0 the acquaintance graph is pure
// noise and the party usually has no celebrity clique at all.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// rosterEntry matches the dataset document schema.
type rosterEntry struct {
	ID    uint64   `yaml:"id"`
	Knows []uint64 `yaml:"knows,flow"`
}

// rosterFile is the emitted document root.
type rosterFile struct {
	Name   string        `yaml:"name"`
	People []rosterEntry `yaml:"people"`
}

func main() {
	guests := flag.Int("guests", 10, "number of guests at the party")
	cliqueSize := flag.Int("clique", 2, "planted celebrity clique size (0 = none)")
	density := flag.Float64("density", 0.3, "chance of each extra acquaintance edge")
	seed := flag.Int64("seed", 0, "random seed (0 = time-based)")
	name := flag.String("name", "generated", "party name recorded in the roster")
	flag.Parse()

	if *guests < 1 {
		fmt.Fprintln(os.Stderr, "Error: -guests must be at least 1")
		os.Exit(1)
	}
	if *cliqueSize < 0 || *cliqueSize > *guests {
		fmt.Fprintf(os.Stderr, "Error: -clique must be between 0 and %d\n", *guests)
		os.Exit(1)
	}
	if *density < 0 || *density > 1 {
		fmt.Fprintln(os.Stderr, "Error: -density must be between 0 and 1")
		os.Exit(1)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	doc := rosterFile{
		Name:   *name,
		People: buildRoster(rng, *guests, *cliqueSize, *density),
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to marshal roster: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("# %d guests, planted clique size %d, seed %d\n", *guests, *cliqueSize, *seed)
	os.Stdout.Write(out)
}

// buildRoster assembles the guest list. Guest IDs run 1..n; the planted
// clique, when any, is guests 1..k.
func buildRoster(rng *rand.Rand, n, k int, density float64) []rosterEntry {
	people := make([]rosterEntry, 0, n)

	for id := 1; id <= n; id++ {
		// Non-nil so lone guests marshal as [] rather than null.
		knows := make([]uint64, 0, n)

		if id <= k {
			// Clique members know exactly the other members.
			for other := 1; other <= k; other++ {
				if other != id {
					knows = append(knows, uint64(other))
				}
			}
		} else {
			// Ordinary guests know the whole clique...
			for other := 1; other <= k; other++ {
				knows = append(knows, uint64(other))
			}
			// ...plus random acquaintances among the rest. Edges into
			// the clique beyond membership would break nothing, but
			// edges OUT of the clique would, so only non-members roll.
			for other := k + 1; other <= n; other++ {
				if other != id && rng.Float64() < density {
					knows = append(knows, uint64(other))
				}
			}
		}

		people = append(people, rosterEntry{ID: uint64(id), Knows: knows})
	}

	return people
}
