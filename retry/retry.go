// Package retry runs an operation with exponential backoff. The dashboard
// GETs and the notification adapters share it.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Permanent marks err as non-retriable for Do.
type Permanent struct {
	Err error
}

func (e *Permanent) Error() string { return e.Err.Error() }

func (e *Permanent) Unwrap() error { return e.Err }

// Do calls fn up to 1+retries times. The wait before retry n is
// backoff * 2^(n-1). It stops early when fn succeeds, returns a *Permanent
// error, or ctx is done. name prefixes returned errors; the last error from
// fn stays reachable with errors.As.
func Do(ctx context.Context, name string, retries int, backoff time.Duration, fn func(ctx context.Context) error) error {
	var lastErr error
	attempts := 1 + max(retries, 0)

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: context canceled: %w", name, err)
		}

		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: context canceled during backoff: %w", name, ctx.Err())
			case <-time.After(time.Duration(1<<uint(i-1)) * backoff):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *Permanent
		if errors.As(lastErr, &perm) {
			return fmt.Errorf("%s: %w", name, perm.Err)
		}
	}

	if attempts == 1 {
		return fmt.Errorf("%s: %w", name, lastErr)
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", name, attempts, lastErr)
}
