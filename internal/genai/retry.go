// Package genai provides integration with LLM APIs (Gemini, Groq, and Cerebras).
// This file contains retry logic with exponential backoff and jitter.
package genai

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"
)

// CalculateBackoff calculates the delay before the next retry attempt
// using Full Jitter:
//
//	delay = random(0, min(maxDelay, initialDelay * 2^(attempt-1)))
//
// Reference: https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
func CalculateBackoff(attempt int, initial, maxDelay time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}

	exp := math.Pow(2, float64(attempt-1))
	delay := time.Duration(float64(initial) * exp)
	if delay > maxDelay {
		delay = maxDelay
	}
	if delay <= 0 {
		return 0
	}

	jitter, err := rand.Int(rand.Reader, big.NewInt(int64(delay)))
	if err != nil {
		return delay / 2
	}
	return time.Duration(jitter.Int64())
}

// Sleep waits for d, returning ctx.Err() if the context ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HasSufficientBudget checks if there's enough time remaining for an operation.
func HasSufficientBudget(ctx context.Context, required time.Duration) bool {
	deadline, ok := ctx.Deadline()
	if !ok {
		return true
	}
	return time.Until(deadline) >= required
}

// WithRetry calls fn until it succeeds, returns a non-retryable error, or
// cfg.MaxAttempts is reached. onRetry, if set, runs before each backoff.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, onRetry func(attempt int, err error), fn func(context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := range attempts {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ClassifyError(err) != ActionRetry || attempt == attempts-1 {
			break
		}

		backoff := CalculateBackoff(attempt+1, cfg.InitialDelay, cfg.MaxDelay)
		if !HasSufficientBudget(ctx, backoff) {
			return zero, fmt.Errorf("timeout during retry: %w", lastErr)
		}
		if onRetry != nil {
			onRetry(attempt+1, err)
		}
		if err := Sleep(ctx, backoff); err != nil {
			return zero, err
		}
	}

	return zero, lastErr
}
