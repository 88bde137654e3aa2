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
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/rankwell/ai"
	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/ranking"
	"github.com/poiesic/rankwell/resilience"
	"github.com/poiesic/rankwell/storage"
	"golang.org/x/time/rate"
)

const (
	// DefaultBatchSize is the number of texts sent per embedding call.
	DefaultBatchSize = 32

	embedOperation = "embed"
)

// Stats counts what one enrichment call did.
type Stats struct {
	// Requested is the number of distinct texts that needed a vector.
	Requested int
	// CacheHits were served from the embedding cache.
	CacheHits int
	// Embedded were computed by the embedding service.
	Embedded int
	// Failed could not be embedded; their fields stay without a vector.
	Failed int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Requested += o.Requested
	s.CacheHits += o.CacheHits
	s.Embedded += o.Embedded
	s.Failed += o.Failed
}

// Enricher fills in missing embeddings on profiles from their text responses.
// Failures never abort enrichment: a field whose text could not be embedded
// is left without a vector and the ranker treats it as missing.
type Enricher struct {
	embedder  ai.Embedder
	model     string
	cache     storage.EmbeddingCache
	pool      *ants.Pool
	limiter   *rate.Limiter
	executor  *resilience.Executor
	fields    []string
	overwrite bool
	batchSize int
	logger    *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher) error

// WithPoolSize sets the worker pool size for concurrent embedding calls.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(e *Enricher) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if e.pool != nil {
			e.pool.Release()
		}
		e.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enricher) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithCache stores and reuses vectors keyed by model and text.
func WithCache(cache storage.EmbeddingCache) Option {
	return func(e *Enricher) error {
		e.cache = cache
		return nil
	}
}

// WithRateLimit caps embedding calls per second. A burst below 1 is raised to 1.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(e *Enricher) error {
		if perSecond <= 0 {
			return fmt.Errorf("rate limit must be positive, got %v", perSecond)
		}
		e.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
		return nil
	}
}

// WithExecutor replaces the default retry and circuit-breaker executor.
func WithExecutor(executor *resilience.Executor) Option {
	return func(e *Enricher) error {
		if executor != nil {
			e.executor = executor
		}
		return nil
	}
}

// WithFields restricts enrichment to the given fields. By default every
// text response is embedded.
func WithFields(fields ...string) Option {
	return func(e *Enricher) error {
		e.fields = slices.Clone(fields)
		return nil
	}
}

// WithOverwrite recomputes every embedding instead of only missing ones.
// Existing vectors for fields without text are dropped, since they came from
// a different model.
func WithOverwrite(overwrite bool) Option {
	return func(e *Enricher) error {
		e.overwrite = overwrite
		return nil
	}
}

// WithBatchSize sets the number of texts sent per embedding call.
func WithBatchSize(size int) Option {
	return func(e *Enricher) error {
		if size < 1 {
			size = DefaultBatchSize
		}
		e.batchSize = size
		return nil
	}
}

// NewEnricher creates an Enricher using provider's embedder and model name.
func NewEnricher(provider ai.AIProvider, opts ...Option) (*Enricher, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	e := &Enricher{
		embedder:  provider.Embedder(),
		model:     provider.Model(),
		pool:      pool,
		limiter:   rate.NewLimiter(rate.Inf, 1),
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(e); optErr != nil {
			e.Release()
			return nil, optErr
		}
	}

	e.logger = e.logger.With("component", "enricher", "model", e.model)
	if e.executor == nil {
		e.executor = resilience.NewExecutor(resilience.DefaultConfig(), e.logger)
	}
	return e, nil
}

// Release releases the worker pool. The enricher should not be used afterwards.
func (e *Enricher) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// Model returns the embedding model name.
func (e *Enricher) Model() string {
	return e.model
}

// CacheKey derives the embedding cache key for text under model.
func CacheKey(model, text string) core.ID {
	return core.IDFromContent(model + "\x00" + text)
}

// job is one field on one profile that needs a vector.
type job struct {
	profile int
	field   string
	text    string
}

// EnrichRequester returns a copy of requester with missing embeddings filled.
// The input is not modified.
func (e *Enricher) EnrichRequester(ctx context.Context, requester *core.Requester) (*core.Requester, Stats, error) {
	if err := core.ValidateRequester(requester); err != nil {
		return nil, Stats{}, err
	}

	var jobs []job
	for _, field := range e.targetFields(slices.Collect(maps.Keys(requester.Responses))) {
		text := strings.TrimSpace(requester.Responses[field])
		if text == "" {
			continue
		}
		if !e.overwrite && ranking.UsableEmbedding(requester.Embeddings[field]) {
			continue
		}
		jobs = append(jobs, job{field: field, text: text})
	}

	vectors, stats, err := e.resolve(ctx, jobs)
	if err != nil {
		return nil, stats, err
	}

	out := *requester
	out.Responses = maps.Clone(requester.Responses)
	out.Embeddings = e.merge(requester.Embeddings, jobs, vectors)
	return &out, stats, nil
}

// EnrichCandidates returns copies of candidates with missing embeddings
// filled. Only text and list responses are embedded.
func (e *Enricher) EnrichCandidates(ctx context.Context, candidates []core.Candidate) ([]core.Candidate, Stats, error) {
	var jobs []job
	perCandidate := make([][]job, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		for _, field := range e.targetFields(slices.Collect(maps.Keys(c.Responses))) {
			text := embeddableText(c.Responses[field])
			if text == "" {
				continue
			}
			if !e.overwrite && ranking.UsableEmbedding(c.Embeddings[field]) {
				continue
			}
			j := job{profile: i, field: field, text: text}
			jobs = append(jobs, j)
			perCandidate[i] = append(perCandidate[i], j)
		}
	}

	vectors, stats, err := e.resolve(ctx, jobs)
	if err != nil {
		return nil, stats, err
	}

	out := make([]core.Candidate, len(candidates))
	for i, c := range candidates {
		c.Responses = maps.Clone(c.Responses)
		c.RequiredFields = slices.Clone(c.RequiredFields)
		c.Embeddings = e.merge(c.Embeddings, perCandidate[i], vectors)
		out[i] = c
	}
	return out, stats, nil
}

func embeddableText(v core.Value) string {
	switch v.Kind {
	case core.ValueKindText, core.ValueKindList:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}

// targetFields returns the configured fields, or the profile's own response
// fields in sorted order when none are configured.
func (e *Enricher) targetFields(responseFields []string) []string {
	if len(e.fields) > 0 {
		return e.fields
	}
	slices.Sort(responseFields)
	return responseFields
}

// merge builds a new embedding map from existing plus the resolved vectors
// for jobs. In overwrite mode existing vectors are discarded.
func (e *Enricher) merge(existing map[string][]float32, jobs []job, vectors map[string][]float32) map[string][]float32 {
	var out map[string][]float32
	if e.overwrite {
		out = make(map[string][]float32, len(jobs))
	} else {
		out = make(map[string][]float32, len(existing)+len(jobs))
		for field, v := range existing {
			out[field] = slices.Clone(v)
		}
	}
	for _, j := range jobs {
		if v, ok := vectors[j.text]; ok {
			out[j.field] = slices.Clone(v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// resolve returns a vector for every distinct job text it could obtain,
// from the cache first and then the embedding service in pooled batches.
func (e *Enricher) resolve(ctx context.Context, jobs []job) (map[string][]float32, Stats, error) {
	texts := make([]string, 0, len(jobs))
	seen := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		if _, ok := seen[j.text]; ok {
			continue
		}
		seen[j.text] = struct{}{}
		texts = append(texts, j.text)
	}

	stats := Stats{Requested: len(texts)}
	resolved := make(map[string][]float32, len(texts))
	if len(texts) == 0 {
		return resolved, stats, nil
	}

	var pending []string
	for _, text := range texts {
		if v, ok := e.cached(ctx, text); ok {
			resolved[text] = v
			stats.CacheHits++
			continue
		}
		pending = append(pending, text)
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for batch := range slices.Chunk(pending, e.batchSize) {
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			vectors, err := e.embedBatch(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed += len(batch)
				return
			}
			for i, text := range batch {
				resolved[text] = vectors[i]
			}
			stats.Embedded += len(batch)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, stats, fmt.Errorf("submitting embedding batch: %w", err)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	e.logger.Debug("enrichment resolved",
		"requested", stats.Requested,
		"cache_hits", stats.CacheHits,
		"embedded", stats.Embedded,
		"failed", stats.Failed,
	)
	return resolved, stats, nil
}

func (e *Enricher) cached(ctx context.Context, text string) ([]float32, bool) {
	if e.cache == nil || e.overwrite {
		return nil, false
	}
	v, found, err := e.cache.GetEmbedding(ctx, CacheKey(e.model, text))
	if err != nil {
		e.logger.Warn("embedding cache read failed", "err", err)
		return nil, false
	}
	return v, found
}

// embedBatch embeds texts through the rate limiter and executor, normalizes
// the vectors and writes them to the cache.
func (e *Enricher) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var vectors [][]float32
	err := e.executor.Execute(ctx, embedOperation, func(ctx context.Context) error {
		out, err := e.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(out) != len(texts) {
			return fmt.Errorf("%w: got %d for %d texts", ai.ErrEmbeddingCount, len(out), len(texts))
		}
		vectors = out
		return nil
	}, classifyEmbeddingError)
	if err != nil {
		if resilience.IsCircuitOpen(err) {
			e.logger.Error("embedding service unavailable, circuit open", "texts", len(texts))
		} else {
			e.logger.Error("failed to generate embeddings", "texts", len(texts), "err", err)
		}
		return nil, err
	}

	for i := range vectors {
		vectors[i] = NormalizeVector(vectors[i])
		if e.cache != nil {
			if err := e.cache.PutEmbedding(ctx, CacheKey(e.model, texts[i]), vectors[i]); err != nil {
				e.logger.Warn("embedding cache write failed", "err", err)
			}
		}
	}
	return vectors, nil
}
