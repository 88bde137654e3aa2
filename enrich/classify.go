package enrich

import (
	"context"
	"errors"

	"github.com/poiesic/rankwell/ai"
	"github.com/poiesic/rankwell/resilience"
)

// classifyEmbeddingError decides how the executor treats a failed embedding call.
// Cancellation is neither retried nor counted against the service; a
// malformed answer is counted but not retried; anything else is transient.
func classifyEmbeddingError(err error) resilience.ErrorClassification {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	case errors.Is(err, ai.ErrEmbeddingCount):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	default:
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
}
