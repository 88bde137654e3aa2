package enrich

import "errors"

var (
	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrRepositoryRequired is returned when a profile repository is not provided.
	ErrRepositoryRequired = errors.New("profile repository required")

	// ErrEnricherRequired is returned when a re-embedder has no enricher.
	ErrEnricherRequired = errors.New("enricher required")

	// ErrEmbeddingFailed is returned by a re-embedding run when a batch could
	// not be fully embedded. The batch is not written.
	ErrEmbeddingFailed = errors.New("embedding failed")
)
