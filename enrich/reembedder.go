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
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/resilience"
	"github.com/poiesic/rankwell/storage"
)

// ReembedConfig holds configuration for the re-embedding operation.
type ReembedConfig struct {
	// BatchSize is the number of candidates to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of candidates)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each storage write
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultReembedConfig returns a ReembedConfig with sensible defaults.
func DefaultReembedConfig() *ReembedConfig {
	return &ReembedConfig{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder recomputes the embeddings of every stored candidate and
// requester, typically after switching embedding models. The enricher should
// be created with WithOverwrite(true) so stale vectors are replaced.
type Reembedder struct {
	repo     storage.ProfileRepository
	enricher *Enricher
	config   *ReembedConfig
	progress io.Writer
	iterator *CandidateIterator
}

// NewReembedder creates a new re-embedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.ProfileRepository, enricher *Enricher, config *ReembedConfig, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if enricher == nil {
		return nil, ErrEnricherRequired
	}
	if config == nil {
		config = DefaultReembedConfig()
	}
	cfg := *config
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		repo:     repo,
		enricher: enricher,
		config:   &cfg,
		progress: progress,
		iterator: NewCandidateIterator(repo, cfg.BatchSize),
	}, nil
}

// Run re-embeds every stored candidate, then every stored requester, and
// writes them back batch by batch. A batch with any embedding failure aborts
// the run with ErrEmbeddingFailed before it is written, so stored vectors are
// never replaced by empty ones. Batches written before the failure already
// carry the new model's vectors; running again completes the migration.
func (r *Reembedder) Run(ctx context.Context) (Stats, error) {
	var total Stats

	count, err := r.repo.CountCandidates(ctx)
	if err != nil {
		return total, fmt.Errorf("failed to count candidates: %w", err)
	}
	requesters, err := r.repo.ListRequesters(ctx)
	if err != nil {
		return total, fmt.Errorf("failed to list requesters: %w", err)
	}
	if count == 0 && len(requesters) == 0 {
		fmt.Fprintf(r.progress, "No profiles found in database (0 candidates, 0 requesters)\n")
		return total, nil
	}

	fmt.Fprintf(r.progress, "Starting re-embedding of %d candidates and %d requesters with %s (batch size: %d)\n",
		count, len(requesters), r.enricher.Model(), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, count, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(batch []*core.Candidate) error {
		values := make([]core.Candidate, len(batch))
		for i, c := range batch {
			values[i] = *c
		}

		enriched, stats, err := r.enricher.EnrichCandidates(ctx, values)
		total.Add(stats)
		if err != nil {
			return fmt.Errorf("failed to embed batch: %w", err)
		}
		if err := batchFailure(stats); err != nil {
			return err
		}

		updated := make([]*core.Candidate, len(enriched))
		for i := range enriched {
			updated[i] = &enriched[i]
		}
		err = resilience.RetryWithBackoff(ctx, func() error {
			return r.repo.PutCandidates(ctx, updated...)
		}, r.config.MaxRetries, r.config.RetryDelay)
		if err != nil {
			return fmt.Errorf("failed to store batch: %w", err)
		}

		tracker.Increment(len(batch))
		return nil
	})
	if err != nil {
		return total, err
	}
	if count > 0 {
		tracker.Finish()
	}

	if err := r.reembedRequesters(ctx, requesters, &total); err != nil {
		return total, err
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Re-embedding complete. Processed %d candidates and %d requesters in %v (%d embedded, %d cached, %d failed)\n",
		count, len(requesters), elapsed.Round(time.Millisecond), total.Embedded, total.CacheHits, total.Failed)

	return total, nil
}

func (r *Reembedder) reembedRequesters(ctx context.Context, requesters []*core.Requester, total *Stats) error {
	for batch := range slices.Chunk(requesters, r.config.BatchSize) {
		updated := make([]*core.Requester, len(batch))
		for i, requester := range batch {
			enriched, stats, err := r.enricher.EnrichRequester(ctx, requester)
			total.Add(stats)
			if err != nil {
				return fmt.Errorf("failed to embed requester %s: %w", requester.ID, err)
			}
			if err := batchFailure(stats); err != nil {
				return fmt.Errorf("requester %s: %w", requester.ID, err)
			}
			updated[i] = enriched
		}

		err := resilience.RetryWithBackoff(ctx, func() error {
			return r.repo.PutRequesters(ctx, updated...)
		}, r.config.MaxRetries, r.config.RetryDelay)
		if err != nil {
			return fmt.Errorf("failed to store requesters: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func batchFailure(stats Stats) error {
	if stats.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d texts", ErrEmbeddingFailed, stats.Failed, stats.Requested)
}
