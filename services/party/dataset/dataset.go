// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dataset loads party rosters from YAML or JSON files.
//
// A roster file lists guests and who each guest knows. Acquaintance is
// directional, so "1 knows 2" says nothing about whether 2 knows 1.
// Entries may reference IDs that never appear as guests; those references
// are kept on the actor and simply never match anyone at the party.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/gala/services/party/clique"
)

// ====== ERRORS ======

var (
	// ErrEmptyDataset indicates a roster with no guests.
	ErrEmptyDataset = errors.New("dataset has no guests")

	// ErrDuplicateID indicates two entries claiming the same guest ID.
	ErrDuplicateID = errors.New("duplicate guest id")

	// ErrUnsupportedFormat indicates a file extension the loader does not parse.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// ====== TYPES ======

// Entry is one guest line in a roster file.
type Entry struct {
	ID    uint64   `yaml:"id" json:"id" validate:"required,gt=0"`
	Knows []uint64 `yaml:"knows" json:"knows"`
}

// File is the on-disk roster document.
//
// Description:
//
//	Name labels the party for logs and graph titles and may be empty.
//	People holds one Entry per guest; at least one is required and each
//	entry is validated individually.
type File struct {
	Name   string  `yaml:"name,omitempty" json:"name,omitempty"`
	People []Entry `yaml:"people" json:"people" validate:"required,min=1,dive"`
}

// datasetValidate is the shared validator for roster documents.
var datasetValidate = validator.New()

// Validate checks the roster document against its field constraints.
func (f *File) Validate() error {
	if err := datasetValidate.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrEmptyDataset, err)
	}
	return nil
}

// ====== LOADING ======

// FromEntries builds a party from roster entries.
//
// Description:
//
//	Each entry becomes one actor carrying its acquaintance list. The
//	party refuses rosters that name the same guest twice, since the
//	second entry would silently vanish behind the first.
//
// Inputs:
//
//	entries - Guest entries. Must be non-empty.
//
// Outputs:
//
//	*clique.Party - The assembled party.
//	error - ErrEmptyDataset or ErrDuplicateID.
func FromEntries(entries []Entry) (*clique.Party, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyDataset
	}
	p := clique.NewParty()
	for _, e := range entries {
		if !p.Add(clique.NewActor(e.ID, e.Knows)) {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, e.ID)
		}
	}
	return p, nil
}

// Load reads a roster file and assembles the party it describes.
//
// Description:
//
//	The format is chosen by file extension: .yaml and .yml parse as
//	YAML, .json as JSON. The document is validated before assembly, so
//	an empty people list or a zero guest ID fails here rather than
//	surfacing later as a puzzling empty search.
//
// Inputs:
//
//	path - Roster file path.
//
// Outputs:
//
//	*clique.Party - The assembled party.
//	*File - The parsed document, for callers that want the name.
//	error - Read, parse, or validation failure.
func Load(path string) (*clique.Party, *File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read the roster file: %w", err)
	}

	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, nil, fmt.Errorf("failed to parse YAML roster %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, nil, fmt.Errorf("failed to parse JSON roster %s: %w", path, err)
		}
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err := f.Validate(); err != nil {
		return nil, nil, err
	}
	p, err := FromEntries(f.People)
	if err != nil {
		return nil, nil, err
	}
	return p, &f, nil
}
