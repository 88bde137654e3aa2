package ai

import "errors"

var (
	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("ai config")

	// ErrEmbeddingCount is returned when a service answers a batch with the
	// wrong number of vectors.
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)
