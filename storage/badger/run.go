// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/storage"
)

// RunRepository implements storage.RunRepository for BadgerDB.
type RunRepository struct {
	backend *Backend
}

var _ storage.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository.
func NewRunRepository(backend *Backend) *RunRepository {
	return &RunRepository{
		backend: backend,
	}
}

// SaveRun stores a run record and its time index entry.
func (r *RunRepository) SaveRun(ctx context.Context, record *core.RunRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if record.GeneratedAt.IsZero() {
			record.GeneratedAt = time.Now().UTC()
		}
		key := makeRunKey(record.RunID)

		old, ok, err := getValue(tx, key, storage.UnmarshalRunRecord)
		if err != nil {
			return err
		}
		if ok {
			if err := tx.Delete(makeRunTimeKey(old.GeneratedAt, old.RunID)); err != nil {
				return err
			}
		}

		if err := tx.Set(key, storage.MarshalRunRecord(record)); err != nil {
			return err
		}
		if err := tx.Set(makeRunTimeKey(record.GeneratedAt, record.RunID), []byte(record.RunID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetRun retrieves a run by ID.
func (r *RunRepository) GetRun(ctx context.Context, runID string) (*core.RunRecord, error) {
	var result *core.RunRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		record, ok, err := getValue(tx, makeRunKey(runID), storage.UnmarshalRunRecord)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrNotFound
		}
		result = record
		return nil
	}, false)
	return result, err
}

// RecentRuns returns up to limit runs, most recent first.
func (r *RunRepository) RecentRuns(ctx context.Context, limit int) ([]*core.RunRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.RunRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(runTimePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the largest possible key under the prefix.
		seek := append([]byte(runTimePrefix), 0xff)
		for iter.Seek(seek); iter.Valid() && len(results) < limit; iter.Next() {
			var runID string
			if err := iter.Item().Value(func(val []byte) error {
				runID = string(val)
				return nil
			}); err != nil {
				return err
			}

			record, ok, err := getValue(tx, makeRunKey(runID), storage.UnmarshalRunRecord)
			if err != nil {
				return err
			}
			if ok {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}
