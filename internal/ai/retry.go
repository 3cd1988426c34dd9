package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Gopikaa27/Rag-Agent/internal/apperr"
)

const (
	maxAttempts  = 3
	retryBackoff = 200 * time.Millisecond
)

// withRetry re-runs fn on transient failures, at most maxAttempts times
// total, doubling the backoff between attempts. Context cancellation and
// non-transient errors stop immediately; an open breaker is not retried
// because the breaker window outlasts the backoff.
func withRetry(ctx context.Context, fn func() ([]byte, error)) ([]byte, error) {
	var lastErr error
	backoff := retryBackoff
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		raw, err := fn()
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", apperr.ErrServiceUnavailable)
		}
		if !apperr.Transient(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// classifyStatus maps an HTTP status to the error taxonomy; nil for 2xx.
func classifyStatus(status int, body []byte) error {
	switch {
	case status < 300:
		return nil
	case status == 429:
		return fmt.Errorf("%w: status %d: %s", apperr.ErrRateLimited, status, truncate(body))
	case status >= 500:
		return fmt.Errorf("%w: status %d: %s", apperr.ErrServiceUnavailable, status, truncate(body))
	default:
		return fmt.Errorf("model request rejected: status %d: %s", status, truncate(body))
	}
}

// classifyTransportError distinguishes caller cancellation from a broken
// service.
func classifyTransportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", apperr.ErrServiceUnavailable, err)
}

func truncate(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
