package marketapi

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// RetryPolicy decides how many times a request is attempted and how long
// to wait between attempts.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, 1 disables retries
	BackoffMin  time.Duration // wait before the first retry
	BackoffMax  time.Duration // cap on any single wait
}

// NoRetry attempts every request exactly once.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// backoff returns the wait before retry number attempt (0-based).
// A Retry-After value from the server wins over the computed curve.
func (p RetryPolicy) backoff(attempt int, retryAfter string) time.Duration {
	if d, ok := parseRetryAfter(retryAfter); ok {
		if p.BackoffMax > 0 && d > p.BackoffMax {
			return p.BackoffMax
		}
		return d
	}
	if p.BackoffMin <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}

	back := p.BackoffMin << attempt
	if p.BackoffMax > 0 && (back > p.BackoffMax || back <= 0) {
		back = p.BackoffMax
	}
	// Jitter: back/2 up to back
	return back/2 + time.Duration(rand.Int64N(int64(back/2)+1))
}

func parseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if sec, err := strconv.Atoi(v); err == nil && sec >= 0 {
		return time.Duration(sec) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

// shouldRetry reports whether a failed attempt is worth repeating.
func shouldRetry(ctx context.Context, status int, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return status == http.StatusTooManyRequests || status >= 500
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
