package storage

import (
	"context"

	"github.com/poiesic/rankwell/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases repository resources. The backend is closed separately.
	Close() error
}

// ProfileRepository stores requester and candidate profiles.
// Profiles are replaced wholesale on write; stored values are never patched.
type ProfileRepository interface {
	Repository

	// PutRequesters inserts or replaces requesters by ID.
	PutRequesters(ctx context.Context, requesters ...*core.Requester) error

	// PutCandidates inserts or replaces candidates by ID.
	PutCandidates(ctx context.Context, candidates ...*core.Candidate) error

	// GetRequester retrieves a requester by ID.
	// Returns ErrNotFound if the requester doesn't exist.
	GetRequester(ctx context.Context, id string) (*core.Requester, error)

	// GetCandidate retrieves a candidate by ID.
	// Returns ErrNotFound if the candidate doesn't exist.
	GetCandidate(ctx context.Context, id string) (*core.Candidate, error)

	// ListRequesters returns every stored requester ordered by ID.
	ListRequesters(ctx context.Context) ([]*core.Requester, error)

	// ListCandidates returns every stored candidate ordered by ID.
	ListCandidates(ctx context.Context) ([]*core.Candidate, error)

	// CountCandidates returns the number of stored candidates.
	CountCandidates(ctx context.Context) (int, error)

	// DeleteCandidates removes candidates by ID.
	// Returns ErrNotFound if any candidate doesn't exist.
	DeleteCandidates(ctx context.Context, ids ...string) error
}

// EmbeddingCache stores embedding vectors keyed by a content hash of
// model and text.
type EmbeddingCache interface {
	// GetEmbedding returns the cached vector, or ok=false on a miss.
	GetEmbedding(ctx context.Context, key core.ID) (vector []float32, ok bool, err error)

	// PutEmbedding stores a vector under key.
	PutEmbedding(ctx context.Context, key core.ID, vector []float32) error
}

// RunRepository keeps the operator audit trail of ranking runs.
type RunRepository interface {
	// SaveRun stores a run record. Saving an existing RunID replaces it.
	SaveRun(ctx context.Context, record *core.RunRecord) error

	// GetRun retrieves a run by ID.
	// Returns ErrNotFound if the run doesn't exist.
	GetRun(ctx context.Context, runID string) (*core.RunRecord, error)

	// RecentRuns returns up to limit runs, most recent first.
	RecentRuns(ctx context.Context, limit int) ([]*core.RunRecord, error)
}
