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

package ingest

import (
	"context"
	"log/slog"
	"time"
)

// RetryWithBackoff calls operation until it succeeds or maxAttempts calls
// have failed, sleeping baseDelay before the second call and doubling the
// sleep each time after. The last failure is returned; a cancelled ctx
// stops the loop with ctx.Err().
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	wait := baseDelay
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := operation()
		switch {
		case err == nil && attempt > 1:
			slog.Debug("embedding call recovered", "attempt", attempt)
			return nil
		case err == nil:
			return nil
		case attempt >= maxAttempts:
			slog.Debug("embedding call gave up", "attempts", attempt, "err", err)
			return err
		}
		slog.Debug("embedding call failed, backing off", "attempt", attempt, "wait", wait, "err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}
