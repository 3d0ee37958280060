// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// runKeyPrefix namespaces archived runs inside the database.
const runKeyPrefix = "run:"

// ErrRunNotFound indicates the requested run ID is not in the archive.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is one archived clique search.
//
// Description:
//
//	Records enough to answer "what did we search and what came back"
//	without the original roster file: the party fingerprint, the outcome,
//	and how much work the search did. Found is false for the legitimate
//	no-clique outcome; CliqueIDs and Cardinality are then absent.
type RunRecord struct {
	ID               string    `json:"id"`
	PartyName        string    `json:"party_name,omitempty"`
	PartySize        int       `json:"party_size"`
	PartyDigest      string    `json:"party_digest"`
	Found            bool      `json:"found"`
	CliqueIDs        []uint64  `json:"clique_ids,omitempty"`
	Cardinality      int       `json:"cardinality,omitempty"`
	SubsetsEvaluated int64     `json:"subsets_evaluated"`
	Parallel         bool      `json:"parallel"`
	ElapsedMs        int64     `json:"elapsed_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// RunStore archives clique searches in the local database.
type RunStore struct {
	db *DB
}

// NewRunStore creates a run archive over an open database.
func NewRunStore(db *DB) (*RunStore, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	return &RunStore{db: db}, nil
}

// Save archives a run, assigning ID and CreatedAt when unset.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	rec - The run to archive. Mutated in place with ID and CreatedAt.
//
// Outputs:
//
//	error - Non-nil on marshal or write failure.
//
// Thread Safety: Safe for concurrent use.
func (s *RunStore) Save(ctx context.Context, rec *RunRecord) error {
	if rec == nil {
		return errors.New("record must not be nil")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", rec.ID, err)
	}
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte(runKeyPrefix+rec.ID), data)
	})
}

// Get fetches one archived run by ID.
//
// Outputs:
//
//	*RunRecord - The archived run.
//	error - ErrRunNotFound if the ID is unknown.
func (s *RunStore) Get(ctx context.Context, id string) (*RunRecord, error) {
	var rec RunRecord
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(runKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("get run %s: %w", id, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns archived runs, newest first.
//
// Description:
//
//	Scans the run keyspace, decodes every record, and sorts by CreatedAt
//	descending. A positive limit caps the result after sorting, so the
//	cap always keeps the most recent runs.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	limit - Maximum records to return. Zero or negative means all.
//
// Outputs:
//
//	[]*RunRecord - Archived runs, newest first.
//	error - Non-nil on read or decode failure.
func (s *RunStore) List(ctx context.Context, limit int) ([]*RunRecord, error) {
	var runs []*RunRecord
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(runKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("context cancelled: %w", err)
			}
			var rec RunRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				key := string(it.Item().Key())
				return fmt.Errorf("decode %s: %w", key, err)
			}
			runs = append(runs, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return strings.Compare(runs[i].ID, runs[j].ID) < 0
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Count returns the number of archived runs.
func (s *RunStore) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(runKeyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Clear deletes every archived run and returns how many were removed.
func (s *RunStore) Clear(ctx context.Context) (int, error) {
	var keys [][]byte
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(runKeyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	// Delete in batches so large archives stay under the transaction size cap.
	const batchSize = 1000
	for start := 0; start < len(keys); start += batchSize {
		end := start + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[start:end]
		err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
			for _, key := range batch {
				if err := txn.Delete(key); err != nil {
					return fmt.Errorf("delete %s: %w", key, err)
				}
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}
