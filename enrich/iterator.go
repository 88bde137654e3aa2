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


package enrich

import (
	"context"

	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/storage"
)

// CandidateIterator iterates over stored candidates in batches, ordered by ID.
type CandidateIterator struct {
	repo      storage.ProfileRepository
	batchSize int
}

// NewCandidateIterator creates a new candidate iterator.
// batchSize: number of candidates per batch; values <= 0 use DefaultBatchSize
func NewCandidateIterator(repo storage.ProfileRepository, batchSize int) *CandidateIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &CandidateIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of candidates.
// Iteration stops on the first error from fn. Context cancellation is
// checked between batches.
func (it *CandidateIterator) ForEach(ctx context.Context, fn func([]*core.Candidate) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	candidates, err := it.repo.ListCandidates(ctx)
	if err != nil {
		return err
	}

	for start := 0; start < len(candidates); start += it.batchSize {
		end := min(start+it.batchSize, len(candidates))
		if err := fn(candidates[start:end]); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
