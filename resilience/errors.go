package resilience

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrNilOperation is returned when Execute is given no callback.
	ErrNilOperation = errors.New("resilience: operation callback is nil")
)
