package badger

import (
	"context"
	"testing"

	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepositories(t *testing.T) *Repositories {
	t.Helper()
	repos, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repos.Profiles.Close()
		backend.Close()
	})
	return repos
}

func TestProfileRepository_Candidates(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	candidates := []*core.Candidate{
		{ID: "c2", Available: true, Responses: map[string]core.Value{"age": core.NumberValue(30)}},
		{ID: "c1", Available: false},
		{ID: "c3", Available: true, Embeddings: map[string][]float32{"bio": {1, 0}}},
	}
	require.NoError(t, repos.Profiles.PutCandidates(ctx, candidates...))

	count, err := repos.Profiles.CountCandidates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	listed, err := repos.Profiles.ListCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "c1", listed[0].ID)
	assert.Equal(t, "c2", listed[1].ID)
	assert.Equal(t, "c3", listed[2].ID)

	got, err := repos.Profiles.GetCandidate(ctx, "c2")
	require.NoError(t, err)
	assert.True(t, got.Available)
	assert.True(t, got.Responses["age"].Equal(core.NumberValue(30)))

	_, err = repos.Profiles.GetCandidate(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProfileRepository_PutReplaces(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	require.NoError(t, repos.Profiles.PutCandidates(ctx, &core.Candidate{ID: "c1", Available: false}))
	require.NoError(t, repos.Profiles.PutCandidates(ctx, &core.Candidate{ID: "c1", Available: true}))

	count, err := repos.Profiles.CountCandidates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repos.Profiles.GetCandidate(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, got.Available)
}

func TestProfileRepository_RejectsInvalid(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	err := repos.Profiles.PutCandidates(ctx, &core.Candidate{ID: ""})
	assert.ErrorIs(t, err, core.ErrEmptyID)

	err = repos.Profiles.PutRequesters(ctx, &core.Requester{ID: ""})
	assert.ErrorIs(t, err, core.ErrEmptyID)
}

func TestProfileRepository_DeleteCandidates(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	require.NoError(t, repos.Profiles.PutCandidates(ctx,
		&core.Candidate{ID: "c1"}, &core.Candidate{ID: "c2"}))
	require.NoError(t, repos.Profiles.DeleteCandidates(ctx, "c1"))

	_, err := repos.Profiles.GetCandidate(ctx, "c1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = repos.Profiles.DeleteCandidates(ctx, "c1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	count, err := repos.Profiles.CountCandidates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProfileRepository_Requesters(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	requester := &core.Requester{
		ID:         "r1",
		Responses:  map[string]string{"bio": "outdoorsy"},
		Embeddings: map[string][]float32{"bio": {0.6, 0.8}},
	}
	require.NoError(t, repos.Profiles.PutRequesters(ctx, requester))

	got, err := repos.Profiles.GetRequester(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, requester, got)

	_, err = repos.Profiles.GetRequester(ctx, "r2")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, repos.Profiles.PutRequesters(ctx, &core.Requester{ID: "r0"}))
	listed, err := repos.Profiles.ListRequesters(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "r0", listed[0].ID)
	assert.Equal(t, requester, listed[1])

	// Requesters and candidates live under separate prefixes.
	count, err := repos.Profiles.CountCandidates(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
