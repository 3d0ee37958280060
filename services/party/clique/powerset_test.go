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
	"errors"
	"testing"
)

func TestBinomial(t *testing.T) {
	tests := []struct {
		n, k     int
		expected uint64
	}{
		{0, 0, 1},
		{1, 0, 1},
		{1, 1, 1},
		{4, 2, 6},
		{5, 2, 10},
		{7, 3, 35},
		{10, 5, 252},
		{63, 1, 63},
		{63, 62, 63},
		{52, 5, 2598960},
		{3, 4, 0},  // k > n
		{-1, 0, 0}, // negative n
		{2, -1, 0}, // negative k
	}

	for _, tc := range tests {
		if got := Binomial(tc.n, tc.k); got != tc.expected {
			t.Errorf("Binomial(%d, %d) = %d, expected %d", tc.n, tc.k, got, tc.expected)
		}
	}
}

func TestBinomial_RowSumsToPowerOfTwo(t *testing.T) {
	for n := 0; n <= 20; n++ {
		var sum uint64
		for k := 0; k <= n; k++ {
			sum += Binomial(n, k)
		}
		if sum != uint64(1)<<uint(n) {
			t.Errorf("sum of C(%d, k) = %d, expected 2^%d", n, sum, n)
		}
	}
}

func TestSubsetsByCardinality_LevelShape(t *testing.T) {
	p := NewParty(
		NewActor(1, nil),
		NewActor(2, nil),
		NewActor(3, nil),
		NewActor(4, nil),
	)

	levels, err := SubsetsByCardinality(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(levels) != 5 {
		t.Fatalf("levels = %d, expected n+1 = 5", len(levels))
	}

	expectedSizes := []int{1, 4, 6, 4, 1}
	total := 0
	for c, level := range levels {
		if len(level) != expectedSizes[c] {
			t.Errorf("level %d has %d subsets, expected %d", c, len(level), expectedSizes[c])
		}
		for _, s := range level {
			if len(s) != c {
				t.Errorf("subset %v in level %d has cardinality %d", s, c, len(s))
			}
		}
		total += len(level)
	}
	if total != 16 {
		t.Errorf("total subsets = %d, expected 2^4 = 16", total)
	}

	if len(levels[0]) != 1 || len(levels[0][0]) != 0 {
		t.Error("level 0 must hold exactly the empty subset")
	}
	if got := levels[4][0]; len(got) != 4 {
		t.Errorf("top level must hold the full party, got %v", got)
	}
}

func TestSubsetsByCardinality_AllDistinct(t *testing.T) {
	p := NewParty(
		NewActor(1, nil),
		NewActor(2, nil),
		NewActor(3, nil),
		NewActor(4, nil),
		NewActor(5, nil),
	)

	levels, err := SubsetsByCardinality(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]bool)
	count := 0
	for _, level := range levels {
		for _, s := range level {
			key := s.String()
			if seen[key] {
				t.Errorf("duplicate subset %s", key)
			}
			seen[key] = true
			count++
		}
	}
	if count != 32 {
		t.Errorf("total subsets = %d, expected 2^5 = 32", count)
	}
}

func TestSubsetsByCardinality_EmptyParty(t *testing.T) {
	levels, err := SubsetsByCardinality(NewParty())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 1 {
		t.Fatalf("levels = %d, expected 1", len(levels))
	}
	if len(levels[0]) != 1 || len(levels[0][0]) != 0 {
		t.Error("empty party's power set is the single empty subset")
	}
}

func TestSubsetsByCardinality_NilParty(t *testing.T) {
	_, err := SubsetsByCardinality(nil)
	if !errors.Is(err, ErrNilParty) {
		t.Errorf("expected ErrNilParty, got %v", err)
	}
}

func TestSubset_Accessors(t *testing.T) {
	s := Subset{NewActor(3, nil), NewActor(1, nil), NewActor(2, nil)}

	ids := s.IDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Errorf("IDs not ascending: %v", ids)
		}
	}

	if !s.Contains(2) {
		t.Error("Contains(2) should be true")
	}
	if s.Contains(9) {
		t.Error("Contains(9) should be false")
	}
	if got := s.String(); got != "{1 2 3}" {
		t.Errorf("String = %q, expected {1 2 3}", got)
	}
	if got := (Subset{}).String(); got != "{}" {
		t.Errorf("empty String = %q, expected {}", got)
	}
}
