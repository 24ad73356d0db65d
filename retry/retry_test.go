package retry

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDo(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		var calls atomic.Int32
		err := Do(t.Context(), "test", 2, time.Millisecond, func(context.Context) error {
			if calls.Add(1) < 2 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil || calls.Load() != 2 {
			t.Errorf("err = %v, calls = %d", err, calls.Load())
		}
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		var calls atomic.Int32
		cause := errors.New("bad request")
		err := Do(t.Context(), "test", 3, time.Millisecond, func(context.Context) error {
			calls.Add(1)
			return &Permanent{Err: cause}
		})
		if !errors.Is(err, cause) || calls.Load() != 1 {
			t.Errorf("err = %v, calls = %d", err, calls.Load())
		}
		var perm *Permanent
		if errors.As(err, &perm) {
			t.Error("Permanent wrapper leaked into the returned error")
		}
	})

	t.Run("wrapped permanent error", func(t *testing.T) {
		var calls atomic.Int32
		err := Do(t.Context(), "test", 3, time.Millisecond, func(context.Context) error {
			calls.Add(1)
			return errors.Join(&Permanent{Err: errors.New("gone")})
		})
		if err == nil || calls.Load() != 1 {
			t.Errorf("err = %v, calls = %d", err, calls.Load())
		}
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		var calls atomic.Int32
		err := Do(t.Context(), "test", 1, time.Millisecond, func(context.Context) error {
			calls.Add(1)
			return errors.New("down")
		})
		if err == nil || !strings.Contains(err.Error(), "failed after 2 attempts") || calls.Load() != 2 {
			t.Errorf("err = %v, calls = %d", err, calls.Load())
		}
	})

	t.Run("no retries", func(t *testing.T) {
		var calls atomic.Int32
		err := Do(t.Context(), "test", 0, time.Millisecond, func(context.Context) error {
			calls.Add(1)
			return errors.New("down")
		})
		if err == nil || err.Error() != "test: down" || calls.Load() != 1 {
			t.Errorf("err = %v, calls = %d", err, calls.Load())
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		err := Do(ctx, "test", 3, time.Millisecond, func(context.Context) error { return nil })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("canceled during backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		var calls atomic.Int32
		err := Do(ctx, "test", 3, time.Hour, func(context.Context) error {
			calls.Add(1)
			cancel()
			return errors.New("down")
		})
		if !errors.Is(err, context.Canceled) || calls.Load() != 1 {
			t.Errorf("err = %v, calls = %d", err, calls.Load())
		}
	})
}
