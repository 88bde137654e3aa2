package rankwell

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/rankwell/ai/mock"
	"github.com/poiesic/rankwell/config"
	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/enrich"
	"github.com/poiesic/rankwell/ranking"
	"github.com/poiesic/rankwell/storage"
	"github.com/poiesic/rankwell/visibility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Version: config.SupportedVersion,
		WeightClasses: []core.WeightClass{
			{Tag: core.WeightPrimary, Weight: 1, Fields: []string{"goals"}},
			{Tag: core.WeightSecondary, Weight: 0.5, Fields: []string{"style"}},
		},
		HardFilters: []core.HardFilterRule{
			core.NewHardFilterRule("format", "not-equals", core.TextValue("in-person"), "Requires remote sessions"),
		},
		Scoring: ranking.DefaultScoringParams(),
	}
}

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	opts = append([]EngineOption{WithInMemory(), WithProvider(mock.NewMockProvider()), WithConfig(testConfig())}, opts...)
	engine, err := NewEngine("", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func testProfiles() ([]core.Requester, []core.Candidate) {
	requesters := []core.Requester{{
		ID: "req-1",
		Responses: map[string]string{
			"goals": "Grow into a staff engineering role",
			"style": "Direct and structured feedback",
		},
	}}
	candidates := []core.Candidate{
		{
			ID:        "cand-match",
			Available: true,
			Responses: map[string]core.Value{
				"goals":  core.TextValue("Grow into a staff engineering role"),
				"style":  core.TextValue("Direct and structured feedback"),
				"format": core.TextValue("remote"),
			},
		},
		{
			ID:        "cand-other",
			Available: true,
			Responses: map[string]core.Value{
				"goals":  core.TextValue("Learn watercolor painting on weekends"),
				"format": core.TextValue("remote"),
			},
		},
		{
			ID:        "cand-onsite",
			Available: true,
			Responses: map[string]core.Value{
				"goals":  core.TextValue("Grow into a staff engineering role"),
				"format": core.TextValue("in-person"),
			},
		},
		{
			ID:        "cand-away",
			Available: false,
			Responses: map[string]core.Value{"goals": core.TextValue("Anything at all")},
		},
	}
	return requesters, candidates
}

func TestNewEngine(t *testing.T) {
	t.Run("create new engine", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		engine, err := NewEngine(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, engine)
		defer engine.Close()

		// Verify components are initialized
		assert.NotNil(t, engine.ProfileRepository())
		assert.NotNil(t, engine.RunRepository())
		assert.NotNil(t, engine.EmbeddingCache())
		assert.NotNil(t, engine.Config())
		assert.NotNil(t, engine.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to create an engine at a file path instead of directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		engine, err := NewEngine(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, engine)
	})
}

func TestEngine_Close(t *testing.T) {
	engine, err := NewEngine(t.TempDir(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NotNil(t, engine)

	assert.NoError(t, engine.Close())
}

func TestEngine_ImportAndRank(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, WithRunRecording(true))

	requesters, candidates := testProfiles()
	stats, err := engine.Import(ctx, requesters, candidates, true)
	require.NoError(t, err)
	assert.Positive(t, stats.Embedded)
	assert.Positive(t, stats.CacheHits, "repeated texts should hit the cache")

	stored, err := engine.ProfileRepository().GetCandidate(ctx, "cand-match")
	require.NoError(t, err)
	assert.Len(t, stored.Embeddings["goals"], mock.DefaultDimensions)

	run, err := engine.Rank(ctx, "req-1")
	require.NoError(t, err)

	require.Len(t, run.Outcome.Ranked, 2)
	assert.Equal(t, "cand-match", run.Outcome.Ranked[0].CandidateID)
	assert.Equal(t, "cand-other", run.Outcome.Ranked[1].CandidateID)
	assert.Equal(t, 2, run.Outcome.Metadata.FilteredCount)
	assert.Equal(t, 2, run.Outcome.Metadata.RankedCount)
	assert.NotEmpty(t, run.RunID)
	assert.False(t, run.GeneratedAt.IsZero())

	runs, err := engine.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.RunID, runs[0].RunID)
	assert.Equal(t, []string{"cand-match", "cand-other"}, runs[0].RankedIDs)
	assert.Equal(t, run.Outcome.Ranked[0].TotalScore, runs[0].TopScore)
}

func TestEngine_RankUnknownRequester(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Rank(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEngine_RankCandidatesAutoEmbed(t *testing.T) {
	engine := newTestEngine(t, WithAutoEmbed(true))

	requesters, candidates := testProfiles()
	run, err := engine.RankCandidates(context.Background(), requesters[0], candidates)
	require.NoError(t, err)
	require.NotEmpty(t, run.Outcome.Ranked)
	assert.Equal(t, "cand-match", run.Outcome.Ranked[0].CandidateID)

	// Nothing recorded without WithRunRecording.
	runs, err := engine.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestEngine_RankWithoutEmbeddings(t *testing.T) {
	engine := newTestEngine(t)

	requesters, candidates := testProfiles()
	run, err := engine.RankCandidates(context.Background(), requesters[0], candidates)
	require.NoError(t, err)
	require.Len(t, run.Outcome.Ranked, 2)
	for _, result := range run.Outcome.Ranked {
		assert.Zero(t, result.Breakdown.Primary)
		assert.Positive(t, result.Breakdown.Penalties)
	}
	assert.Equal(t, core.ConfidenceLow, run.Outcome.Metadata.ConfidenceLevel)
}

func TestEngine_Reembed(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	requesters, candidates := testProfiles()
	_, err := engine.Import(ctx, requesters, candidates, false)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = 8
	provider := mock.NewMockProviderWithEmbedder(embedder, "mock-small")

	var progress bytes.Buffer
	stats, err := engine.Reembed(ctx, provider, enrich.DefaultReembedConfig(), &progress)
	require.NoError(t, err)
	assert.Positive(t, stats.Embedded)
	assert.Contains(t, progress.String(), "Re-embedding complete")

	stored, err := engine.ProfileRepository().GetCandidate(ctx, "cand-match")
	require.NoError(t, err)
	assert.Len(t, stored.Embeddings["goals"], 8)
	assert.Len(t, stored.Embeddings["style"], 8)

	requester, err := engine.ProfileRepository().GetRequester(ctx, "req-1")
	require.NoError(t, err)
	assert.Len(t, requester.Embeddings["goals"], 8)
	assert.Len(t, requester.Embeddings["style"], 8)
}

func TestEngine_ReembedLogsComponentOnce(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	engine := newTestEngine(t, WithLogger(logger))

	requesters, candidates := testProfiles()
	_, err := engine.Import(ctx, requesters, candidates, false)
	require.NoError(t, err)

	_, err = engine.Reembed(ctx, mock.NewMockProvider(), nil, nil)
	require.NoError(t, err)

	var enricherLines int
	for line := range strings.Lines(logs.String()) {
		if strings.Contains(line, "component=enricher") {
			enricherLines++
			assert.NotContains(t, line, "component=engine")
		}
	}
	assert.Positive(t, enricherLines)
}

func TestEngine_RankAfterReembed(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	requesters, candidates := testProfiles()
	_, err := engine.Import(ctx, requesters, candidates, true)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = 8
	_, err = engine.Reembed(ctx, mock.NewMockProviderWithEmbedder(embedder, "mock-small"), nil, nil)
	require.NoError(t, err)

	run, err := engine.Rank(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, run.Outcome.Ranked, 2)
	for _, result := range run.Outcome.Ranked {
		assert.Empty(t, result.Mismatches, result.CandidateID)
	}

	top := run.Outcome.Ranked[0]
	assert.Equal(t, "cand-match", top.CandidateID)
	assert.Positive(t, top.Confidence)
	assert.Positive(t, top.Breakdown.Primary)
}

func TestEngine_ReembedFailureKeepsEmbeddings(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	requesters, candidates := testProfiles()
	_, err := engine.Import(ctx, requesters, candidates, true)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, errors.New("connection refused")
	}
	_, err = engine.Reembed(ctx, mock.NewMockProviderWithEmbedder(embedder, "mock-down"), nil, nil)
	require.ErrorIs(t, err, enrich.ErrEmbeddingFailed)

	stored, err := engine.ProfileRepository().GetCandidate(ctx, "cand-match")
	require.NoError(t, err)
	assert.Len(t, stored.Embeddings["goals"], mock.DefaultDimensions)
	assert.Len(t, stored.Embeddings["style"], mock.DefaultDimensions)
}

func TestRunID(t *testing.T) {
	requesters, candidates := testProfiles()
	cfg := testConfig()
	req := ranking.Request{
		Requester:     requesters[0],
		Candidates:    candidates,
		Rules:         cfg.HardFilters,
		WeightClasses: cfg.WeightClasses,
	}

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, RunID(req), RunID(req))
	})

	t.Run("nil params match defaults", func(t *testing.T) {
		params := ranking.DefaultScoringParams()
		withParams := req
		withParams.Params = &params
		assert.Equal(t, RunID(req), RunID(withParams))
	})

	t.Run("changes with candidates", func(t *testing.T) {
		changed := req
		changed.Candidates = candidates[:2]
		assert.NotEqual(t, RunID(req), RunID(changed))
	})

	t.Run("changes with rules", func(t *testing.T) {
		changed := req
		changed.Rules = nil
		assert.NotEqual(t, RunID(req), RunID(changed))
	})

	t.Run("distinguishes list items from joined text", func(t *testing.T) {
		joined := req
		joined.Rules = []core.HardFilterRule{
			core.NewHardFilterRule("tags", "contains", core.ListValue("a, b"), "Needs tags"),
		}
		split := req
		split.Rules = []core.HardFilterRule{
			core.NewHardFilterRule("tags", "contains", core.ListValue("a", "b"), "Needs tags"),
		}
		assert.NotEqual(t, RunID(joined), RunID(split))
	})
}

func TestRun_Disclose(t *testing.T) {
	engine := newTestEngine(t, WithAutoEmbed(true))

	requesters, candidates := testProfiles()
	run, err := engine.RankCandidates(context.Background(), requesters[0], candidates)
	require.NoError(t, err)

	t.Run("operator sees privileged fields", func(t *testing.T) {
		disclosures, err := run.Disclose(visibility.RoleOperator)
		require.NoError(t, err)
		require.Len(t, disclosures, len(run.Outcome.Ranked))
		require.NotNil(t, disclosures[0].Explanation.RankPosition)
		assert.Equal(t, 1, *disclosures[0].Explanation.RankPosition)
		assert.NotNil(t, disclosures[0].Explanation.TotalScore)
	})

	t.Run("candidate does not", func(t *testing.T) {
		disclosures, err := run.Disclose(visibility.RoleCandidate)
		require.NoError(t, err)
		for _, d := range disclosures {
			assert.Nil(t, d.Explanation.TotalScore)
			assert.Nil(t, d.Explanation.RankPosition)
			assert.Nil(t, d.Explanation.Breakdown)
			assert.NotEmpty(t, d.Summary)
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := run.Disclose(visibility.Role("auditor"))
		assert.ErrorIs(t, err, visibility.ErrUnknownRole)
	})

	t.Run("record mirrors outcome", func(t *testing.T) {
		record := run.Record()
		assert.Equal(t, run.RunID, record.RunID)
		assert.Equal(t, "req-1", record.RequesterID)
		assert.Equal(t, run.Outcome.Metadata.RankedCount, record.RankedCount)
		assert.Len(t, record.RankedIDs, len(run.Outcome.Ranked))
	})
}

func TestRun_Report(t *testing.T) {
	engine := newTestEngine(t)

	requesters, candidates := testProfiles()
	run, err := engine.RankCandidates(context.Background(), requesters[0], candidates)
	require.NoError(t, err)

	report, err := run.Report(visibility.RoleRequester)
	require.NoError(t, err)
	assert.Equal(t, run.RunID, report.RunID)
	assert.Equal(t, 2, report.Metadata.FilteredCount)
	assert.Zero(t, report.Metadata.DroppedAtAssembly)
	assert.Nil(t, report.Metadata.FailedFilters)
	assert.Len(t, report.Explanations, 2)

	report, err = run.Report(visibility.RoleOperator)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Metadata.DroppedAtAssembly)
	require.Len(t, report.Metadata.FailedFilters, 1)
	assert.Equal(t, "cand-onsite", report.Metadata.FailedFilters[0].CandidateID)
}
