package embeddings

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"
)

// Retry defaults for provider calls.
const (
	DefaultMaxAttempts = 5
	DefaultBaseBackoff = time.Second
	DefaultMaxBackoff  = 8 * time.Second
)

// RetryPolicy bounds attempts and backoff for a provider call. The delay before attempt n+1
// is min(BaseBackoff * 2^n, MaxBackoff), optionally jittered to 50-100% of that.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Jitter      bool

	// Sleep waits between attempts. Nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy is five attempts with 1s, 2s, 4s and 8s between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseBackoff: DefaultBaseBackoff,
		MaxBackoff:  DefaultMaxBackoff,
	}
}

// Backoff returns the un-jittered delay after the given zero-based failed attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.BaseBackoff
	if d <= 0 {
		d = DefaultBaseBackoff
	}

	for range attempt {
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			break
		}

		d *= 2
	}

	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}

	return d
}

// Do runs op until it succeeds, attempts run out or ctx is done. onRetry, when set, is called
// before each wait. The last error is returned when every attempt fails.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error, onRetry func(attempt int, err error)) error {
	attempts := max(p.MaxAttempts, 1)

	var lastErr error

	for attempt := range attempts {
		err := op(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt == attempts-1 {
			break
		}

		if onRetry != nil {
			onRetry(attempt, err)
		}

		delay := p.Backoff(attempt)
		if p.Jitter {
			delay = jitter(delay)
		}

		slog.Debug("embedding call failed, retrying after backoff",
			"attempt", attempt+1,
			"max_attempts", attempts,
			"backoff", delay,
			"error", err,
		)

		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// jitter returns a duration between 50% and 100% of d.
func jitter(d time.Duration) time.Duration {
	half := d / 2
	if half <= 0 {
		return d
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return half
	}

	//nolint:gosec // G115: modulo result is in [0, half), safe to convert to int64
	return half + time.Duration(int64(binary.BigEndian.Uint64(buf[:])%uint64(half.Nanoseconds())))
}
