package enrich

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/rankwell/ai/mock"
	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepos(t *testing.T) *badger.Repositories {
	t.Helper()
	repos, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return repos
}

func storeCandidates(t *testing.T, repos *badger.Repositories, n int) {
	t.Helper()
	candidates := make([]*core.Candidate, n)
	for i := range candidates {
		candidates[i] = &core.Candidate{
			ID:         fmt.Sprintf("c%02d", i),
			Available:  true,
			Responses:  map[string]core.Value{"bio": core.TextValue(fmt.Sprintf("bio number %d", i))},
			Embeddings: map[string][]float32{"bio": {1, 2, 3}},
		}
	}
	require.NoError(t, repos.Profiles.PutCandidates(context.Background(), candidates...))
}

func TestCandidateIterator_Batches(t *testing.T) {
	repos := setupTestRepos(t)
	storeCandidates(t, repos, 5)

	var sizes []int
	var ids []string
	err := NewCandidateIterator(repos.Profiles, 2).ForEach(context.Background(), func(batch []*core.Candidate) error {
		sizes = append(sizes, len(batch))
		for _, c := range batch {
			ids = append(ids, c.ID)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, []string{"c00", "c01", "c02", "c03", "c04"}, ids)
}

func TestCandidateIterator_StopsOnError(t *testing.T) {
	repos := setupTestRepos(t)
	storeCandidates(t, repos, 5)

	boom := errors.New("boom")
	calls := 0
	err := NewCandidateIterator(repos.Profiles, 2).ForEach(context.Background(), func([]*core.Candidate) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestNewReembedder_Requirements(t *testing.T) {
	_, err := NewReembedder(nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	repos := setupTestRepos(t)
	_, err = NewReembedder(repos.Profiles, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEnricherRequired)
}

func TestReembedder_Run(t *testing.T) {
	repos := setupTestRepos(t)
	storeCandidates(t, repos, 7)
	requester := &core.Requester{
		ID:         "r1",
		Responses:  map[string]string{"bio": "likes long walks"},
		Embeddings: map[string][]float32{"bio": {1, 2, 3}},
	}
	require.NoError(t, repos.Profiles.PutRequesters(context.Background(), requester))

	embedder := smallEmbedder()
	enricher := newTestEnricher(t, embedder, WithOverwrite(true))

	var buf bytes.Buffer
	reembedder, err := NewReembedder(repos.Profiles, enricher, &ReembedConfig{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     2,
	}, &buf)
	require.NoError(t, err)

	stats, err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, stats.Embedded)
	assert.Zero(t, stats.Failed)

	stored, err := repos.Profiles.ListCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 7)
	for _, c := range stored {
		want := mock.DeterministicVector(c.Responses["bio"].Text, 8)
		got := c.Embeddings["bio"]
		require.Len(t, got, 8, c.ID)
		for i := range want {
			assert.InDelta(t, want[i], got[i], 1e-5)
		}
	}

	storedRequester, err := repos.Profiles.GetRequester(context.Background(), "r1")
	require.NoError(t, err)
	want := mock.DeterministicVector("likes long walks", 8)
	require.Len(t, storedRequester.Embeddings["bio"], 8)
	for i := range want {
		assert.InDelta(t, want[i], storedRequester.Embeddings["bio"][i], 1e-5)
	}

	output := buf.String()
	assert.Contains(t, output, "Starting re-embedding of 7 candidates and 1 requesters with test-model")
	assert.Contains(t, output, "7/7")
	assert.Contains(t, output, "Re-embedding complete")
}

func TestReembedder_Empty(t *testing.T) {
	repos := setupTestRepos(t)
	var buf bytes.Buffer
	reembedder, err := NewReembedder(repos.Profiles, newTestEnricher(t, smallEmbedder()), nil, &buf)
	require.NoError(t, err)

	stats, err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Requested)
	assert.Contains(t, buf.String(), "No profiles found")
}

func TestReembedder_RequestersOnly(t *testing.T) {
	repos := setupTestRepos(t)
	require.NoError(t, repos.Profiles.PutRequesters(context.Background(), &core.Requester{
		ID:        "r1",
		Responses: map[string]string{"bio": "quiet evenings"},
	}))

	reembedder, err := NewReembedder(repos.Profiles, newTestEnricher(t, smallEmbedder(), WithOverwrite(true)), nil, nil)
	require.NoError(t, err)

	stats, err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Embedded)

	stored, err := repos.Profiles.GetRequester(context.Background(), "r1")
	require.NoError(t, err)
	assert.Len(t, stored.Embeddings["bio"], 8)
}

func TestReembedder_EmbeddingFailureKeepsStoredVectors(t *testing.T) {
	repos := setupTestRepos(t)
	storeCandidates(t, repos, 3)
	require.NoError(t, repos.Profiles.PutRequesters(context.Background(), &core.Requester{
		ID:         "r1",
		Responses:  map[string]string{"bio": "quiet evenings"},
		Embeddings: map[string][]float32{"bio": {1, 2, 3}},
	}))

	embedder := smallEmbedder()
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, errors.New("service unavailable")
	}
	reembedder, err := NewReembedder(repos.Profiles, newTestEnricher(t, embedder, WithOverwrite(true)), nil, nil)
	require.NoError(t, err)

	stats, err := reembedder.Run(context.Background())
	require.ErrorIs(t, err, ErrEmbeddingFailed)
	assert.Equal(t, 3, stats.Failed)
	assert.Zero(t, stats.Embedded)

	stored, err := repos.Profiles.ListCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for _, c := range stored {
		assert.Equal(t, []float32{1, 2, 3}, c.Embeddings["bio"], c.ID)
	}

	requester, err := repos.Profiles.GetRequester(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, requester.Embeddings["bio"])
}
