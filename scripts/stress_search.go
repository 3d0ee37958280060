//go:build ignore

// Stress script for the celebrity clique search.
// Run with: go run scripts/stress_search.go
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/AleutianAI/gala/services/party/clique"
	"github.com/AleutianAI/gala/services/party/dataset"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	fmt.Println("╔══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║              CELEBRITY CLIQUE SEARCH STRESS RUN                   ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("%-8s %-10s %-14s %-12s %-12s\n", "GUESTS", "CLIQUE", "SUBSETS", "SEQUENTIAL", "PARALLEL")

	// The search walks the power set, so each extra guest doubles the
	// worst case. Plant the clique high so most levels are exhausted.
	for guests := 10; guests <= 22; guests += 2 {
		cliqueSize := guests / 2

		p, err := dataset.FromEntries(plantedParty(guests, cliqueSize))
		if err != nil {
			log.Fatalf("failed to build the %d-guest party: %v", guests, err)
		}

		seq, seqElapsed := run(ctx, p, &clique.SearchOptions{Parallel: false})
		par, parElapsed := run(ctx, p, &clique.SearchOptions{Parallel: true})

		if seq.Cardinality != cliqueSize || par.Cardinality != cliqueSize {
			log.Fatalf("wrong verdict at %d guests: sequential %d, parallel %d, want %d",
				guests, seq.Cardinality, par.Cardinality, cliqueSize)
		}

		fmt.Printf("%-8d %-10d %-14d %-12s %-12s\n",
			guests, cliqueSize, seq.SubsetsEvaluated, seqElapsed.Round(time.Millisecond), parElapsed.Round(time.Millisecond))
	}

	fmt.Println()
	fmt.Println("All verdicts agree. Done.")
}

// run executes one search and dies on anything but a clean verdict.
func run(ctx context.Context, p *clique.Party, opts *clique.SearchOptions) (*clique.SearchResult, time.Duration) {
	start := time.Now()
	result, err := clique.FindCelebrityClique(ctx, p, opts)
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}
	return result, time.Since(start)
}

// plantedParty builds n guests whose first k form the celebrity clique.
func plantedParty(n, k int) []dataset.Entry {
	entries := make([]dataset.Entry, 0, n)
	for id := 1; id <= n; id++ {
		var knows []uint64
		if id <= k {
			for other := 1; other <= k; other++ {
				if other != id {
					knows = append(knows, uint64(other))
				}
			}
		} else {
			for other := 1; other <= k; other++ {
				knows = append(knows, uint64(other))
			}
		}
		entries = append(entries, dataset.Entry{ID: uint64(id), Knows: knows})
	}
	return entries
}
