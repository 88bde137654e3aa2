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


package rankwell

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/rankwell/ai"
	"github.com/poiesic/rankwell/ai/openai"
	"github.com/poiesic/rankwell/config"
	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/enrich"
	"github.com/poiesic/rankwell/ranking"
	"github.com/poiesic/rankwell/resilience"
	"github.com/poiesic/rankwell/storage"
	"github.com/poiesic/rankwell/storage/badger"
	"go.opentelemetry.io/otel/attribute"
)

// Engine ties a profile store, an embedding provider and a ranker together
// behind one handle.
type Engine struct {
	backend  *badger.Backend
	repos    *badger.Repositories
	provider ai.AIProvider
	executor *resilience.Executor
	enricher *enrich.Enricher
	ranker   *ranking.Ranker
	config   *config.Config
	embed    bool
	record   bool
	base     *slog.Logger
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	config   *config.Config
	provider ai.AIProvider
	monitor  ranking.Monitor
	logger   *slog.Logger
	inMemory bool
	embed    bool
	record   bool
}

// WithConfig sets the ranking configuration. Its AI settings are used to
// build the embedding provider unless WithProvider is also given.
func WithConfig(cfg *config.Config) EngineOption {
	return func(o *engineOptions) {
		o.config = cfg
	}
}

// WithProvider supplies the embedding provider directly.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithMonitor attaches a ranking monitor, such as metrics.RankingMetrics.
func WithMonitor(monitor ranking.Monitor) EngineOption {
	return func(o *engineOptions) {
		o.monitor = monitor
	}
}

// WithLogger sets the logger used by the engine and its components.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithInMemory keeps all data in memory; the path is ignored.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithAutoEmbed fills missing embeddings from text responses before each
// ranking run.
func WithAutoEmbed(embed bool) EngineOption {
	return func(o *engineOptions) {
		o.embed = embed
	}
}

// WithRunRecording saves an audit record of every ranking run.
func WithRunRecording(record bool) EngineOption {
	return func(o *engineOptions) {
		o.record = record
	}
}

func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger.With("component", "engine")
	cfg := options.config
	if cfg == nil {
		cfg = &config.Config{
			Version: config.SupportedVersion,
			Scoring: ranking.DefaultScoringParams(),
			AI:      ai.DefaultConfig(),
		}
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}
	repos := badger.NewRepositories(backend)

	provider := options.provider
	if provider == nil {
		aiConfig := cfg.AI
		if aiConfig == nil {
			aiConfig = ai.DefaultConfig()
		}
		provider, err = openai.NewProvider(aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), options.logger)
	enricher, err := newEnricher(provider, repos.Embeddings, executor, cfg, options.logger, false)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	rankerOpts := []ranking.Option{ranking.WithLogger(options.logger), ranking.WithParallelism(cfg.Parallelism)}
	if options.monitor != nil {
		rankerOpts = append(rankerOpts, ranking.WithMonitor(options.monitor))
	}
	ranker, err := ranking.NewRanker(rankerOpts...)
	if err != nil {
		enricher.Release()
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:  backend,
		repos:    repos,
		provider: provider,
		executor: executor,
		enricher: enricher,
		ranker:   ranker,
		config:   cfg,
		embed:    options.embed,
		record:   options.record,
		base:     options.logger,
		logger:   logger,
	}, nil
}

func newEnricher(provider ai.AIProvider, cache storage.EmbeddingCache, executor *resilience.Executor, cfg *config.Config, logger *slog.Logger, overwrite bool) (*enrich.Enricher, error) {
	opts := []enrich.Option{
		enrich.WithCache(cache),
		enrich.WithExecutor(executor),
		enrich.WithLogger(logger),
		enrich.WithOverwrite(overwrite),
	}
	if fields := ranking.GovernedFields(cfg.WeightClasses); len(fields) > 0 {
		opts = append(opts, enrich.WithFields(fields...))
	}
	if cfg.AI != nil && cfg.AI.BatchSize > 0 {
		opts = append(opts, enrich.WithBatchSize(cfg.AI.BatchSize))
	}
	return enrich.NewEnricher(provider, opts...)
}

func (e *Engine) Close() error {
	e.ranker.Release()
	e.enricher.Release()

	// Close AI provider first
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.repos.Profiles.Close(); err != nil {
		e.logger.Error("error closing profile repository", "err", err)
		return err
	}

	// Close backend
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) ProfileRepository() storage.ProfileRepository {
	return e.repos.Profiles
}

func (e *Engine) RunRepository() storage.RunRepository {
	return e.repos.Runs
}

func (e *Engine) EmbeddingCache() storage.EmbeddingCache {
	return e.repos.Embeddings
}

func (e *Engine) Config() *config.Config {
	return e.config
}

// Import stores requesters and candidates, optionally embedding their text
// responses first. Profiles with the same ID are replaced.
func (e *Engine) Import(ctx context.Context, requesters []core.Requester, candidates []core.Candidate, embed bool) (stats enrich.Stats, err error) {
	ctx, endSpan := startSpan(ctx, "rankwell.Import",
		attribute.Int("rankwell.requesters", len(requesters)),
		attribute.Int("rankwell.candidates", len(candidates)),
	)
	defer func() { endSpan(err) }()

	if embed {
		if candidates, stats, err = e.enrichCandidates(ctx, candidates); err != nil {
			return stats, err
		}
	}

	reqPtrs := make([]*core.Requester, 0, len(requesters))
	for i := range requesters {
		r := &requesters[i]
		if embed {
			enriched, s, err := e.enricher.EnrichRequester(ctx, r)
			stats.Add(s)
			if err != nil {
				return stats, err
			}
			r = enriched
		}
		reqPtrs = append(reqPtrs, r)
	}

	candPtrs := make([]*core.Candidate, len(candidates))
	for i := range candidates {
		candPtrs[i] = &candidates[i]
	}

	err = e.repos.Profiles.WithTransaction(ctx, func(ctx context.Context) error {
		if err := e.repos.Profiles.PutRequesters(ctx, reqPtrs...); err != nil {
			return err
		}
		return e.repos.Profiles.PutCandidates(ctx, candPtrs...)
	})
	if err != nil {
		return stats, err
	}
	e.logger.Info("imported profiles", "requesters", len(reqPtrs), "candidates", len(candPtrs), "embedded", stats.Embedded)
	return stats, nil
}

// Rank ranks every stored candidate for the stored requester with the given
// ID, using the engine's configuration.
func (e *Engine) Rank(ctx context.Context, requesterID string) (*Run, error) {
	requester, err := e.repos.Profiles.GetRequester(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("loading requester %q: %w", requesterID, err)
	}
	stored, err := e.repos.Profiles.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}
	candidates := make([]core.Candidate, len(stored))
	for i, c := range stored {
		candidates[i] = *c
	}
	return e.RankCandidates(ctx, *requester, candidates)
}

// RankCandidates ranks the given candidates for requester using the engine's
// configuration. Nothing is read from the profile store.
func (e *Engine) RankCandidates(ctx context.Context, requester core.Requester, candidates []core.Candidate) (run *Run, err error) {
	ctx, endSpan := startSpan(ctx, "rankwell.Rank",
		attribute.String("rankwell.requester_id", requester.ID),
		attribute.Int("rankwell.candidates", len(candidates)),
	)
	defer func() { endSpan(err) }()

	if e.embed {
		enriched, _, err := e.enricher.EnrichRequester(ctx, &requester)
		if err != nil {
			return nil, err
		}
		requester = *enriched
		if candidates, _, err = e.enrichCandidates(ctx, candidates); err != nil {
			return nil, err
		}
	}

	params := e.config.Scoring
	req := ranking.Request{
		Requester:     requester,
		Candidates:    candidates,
		Rules:         e.config.HardFilters,
		WeightClasses: e.config.WeightClasses,
		Params:        &params,
	}
	outcome, err := e.ranker.Rank(req)
	if err != nil {
		return nil, err
	}

	run = &Run{
		RunID:       RunID(req),
		RequesterID: requester.ID,
		GeneratedAt: time.Now().UTC(),
		Outcome:     outcome,
	}
	addSpanAttributes(ctx,
		attribute.String("rankwell.run_id", run.RunID),
		attribute.Int("rankwell.ranked", outcome.Metadata.RankedCount),
		attribute.Int("rankwell.filtered", outcome.Metadata.FilteredCount),
		attribute.String("rankwell.confidence", string(outcome.Metadata.ConfidenceLevel)),
	)

	if e.record {
		if err := e.repos.Runs.SaveRun(ctx, run.Record()); err != nil {
			return nil, fmt.Errorf("recording run: %w", err)
		}
	}
	return run, nil
}

func (e *Engine) enrichCandidates(ctx context.Context, candidates []core.Candidate) ([]core.Candidate, enrich.Stats, error) {
	ctx, endSpan := startSpan(ctx, "rankwell.EnrichCandidates", attribute.Int("rankwell.candidates", len(candidates)))
	out, stats, err := e.enricher.EnrichCandidates(ctx, candidates)
	addSpanAttributes(ctx,
		attribute.Int("rankwell.embedded", stats.Embedded),
		attribute.Int("rankwell.cache_hits", stats.CacheHits),
		attribute.Int("rankwell.failed", stats.Failed),
	)
	endSpan(err)
	return out, stats, err
}

// Reembed recomputes the embeddings of every stored candidate and requester
// with provider, typically after switching embedding models. The provider is
// not closed. The engine keeps embedding new profiles with its own provider,
// so ai.embedding_model in the configuration must be changed to the new
// model before the store is opened again.
func (e *Engine) Reembed(ctx context.Context, provider ai.AIProvider, cfg *enrich.ReembedConfig, progress io.Writer) (stats enrich.Stats, err error) {
	ctx, endSpan := startSpan(ctx, "rankwell.Reembed", attribute.String("rankwell.model", provider.Model()))
	defer func() { endSpan(err) }()

	enricher, err := newEnricher(provider, e.repos.Embeddings, e.executor, e.config, e.base, true)
	if err != nil {
		return enrich.Stats{}, err
	}
	defer enricher.Release()

	reembedder, err := enrich.NewReembedder(e.repos.Profiles, enricher, cfg, progress)
	if err != nil {
		return enrich.Stats{}, err
	}
	return reembedder.Run(ctx)
}

// RecentRuns returns up to limit audit records, most recent first.
func (e *Engine) RecentRuns(ctx context.Context, limit int) ([]*core.RunRecord, error) {
	return e.repos.Runs.RecentRuns(ctx, limit)
}
