package shared

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	"google.golang.org/api/googleapi"
)

// RetryPolicy retries an operation with exponential backoff while it fails with a transient error.
//
// The delay before attempt n+1 is min(BaseDelay * 2^(n-1), MaxDelay).
// MaxAttempts of 1 runs the operation once.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// sleep waits for d or until ctx is done. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NoRetry runs operations exactly once.
var NoRetry = RetryPolicy{MaxAttempts: 1}

// Backoff returns the delay after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, returns a non-transient error, or the attempts are exhausted.
//
// The last error is returned wrapped with the attempt count when retries were made.
func (p RetryPolicy) Do(ctx context.Context, logger *log.Logger, op string, fn func() error) error {
	attempts := max(p.MaxAttempts, 1)
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !IsTransient(err) || attempt == attempts {
			break
		}

		delay := p.Backoff(attempt)
		if logger != nil {
			logger.Warn("transient error, retrying", "op", op, "attempt", attempt, "delay", delay, "error", err)
		}
		if serr := sleep(ctx, delay); serr != nil {
			return serr
		}
	}

	if attempts > 1 && IsTransient(err) {
		return fmt.Errorf("%s: giving up after %d attempts: %w", op, attempts, err)
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// IsTransient reports whether err is worth retrying: rate limiting, server errors and network timeouts.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return retryableStatus(gerr.Code)
	}

	var serr spotify.Error
	if errors.As(err, &serr) {
		return retryableStatus(serr.Status)
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}

	// Only the innermost error's text is checked, so wrapping context such as a
	// track title cannot make a permanent failure look like rate limiting.
	root := err
	for next := errors.Unwrap(root); next != nil; next = errors.Unwrap(root) {
		root = next
	}
	msg := strings.ToLower(root.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
