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


package resilience

import (
	"context"
	"log/slog"
	"time"
)

// maxBackoffShift keeps baseDelay<<n from overflowing.
const maxBackoffShift = 16

// RetryWithBackoff calls operation until it succeeds or maxAttempts calls
// have failed, waiting baseDelay, 2*baseDelay, 4*baseDelay and so on between
// calls. It returns the last operation error, or the context error if ctx
// ends first.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var err error
	for attempt := range maxAttempts {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = operation(); err == nil {
			return nil
		}
		if attempt == maxAttempts-1 {
			break
		}

		wait := baseDelay << min(attempt, maxBackoffShift)
		slog.Debug("storage operation failed, backing off",
			"attempt", attempt+1,
			"max_attempts", maxAttempts,
			"backoff", wait,
			"err", err,
		)
		if ctxErr := sleep(ctx, wait); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
