// Package genai provides integration with LLM APIs (Gemini, Groq, and Cerebras).
// This file contains the fallback chain for cross-model and cross-provider failover.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domerrors "github.com/genocem/Edumond-AI-portal/internal/errors"
	"github.com/genocem/Edumond-AI-portal/internal/metrics"
)

// FallbackProducer tries an ordered chain of producers:
// 1. Each producer is retried with backoff on transient errors
// 2. On failure the next producer in the chain is tried
// 3. Permanent caller errors (cancellation) stop the chain
type FallbackProducer struct {
	chain       []Producer
	retryConfig RetryConfig
	metrics     *metrics.Metrics
}

// NewFallbackProducer creates a producer over chain. Nil entries are skipped.
func NewFallbackProducer(cfg RetryConfig, m *metrics.Metrics, chain ...Producer) *FallbackProducer {
	f := &FallbackProducer{retryConfig: cfg, metrics: m}
	for _, p := range chain {
		if p != nil {
			f.chain = append(f.chain, p)
		}
	}
	return f
}

// Greet returns the first successful greeting in the chain.
func (f *FallbackProducer) Greet(ctx context.Context) (string, error) {
	return f.run(ctx, "greet", func(ctx context.Context, p Producer) (string, error) {
		return p.Greet(ctx)
	})
}

// Reply returns the first successful reply in the chain.
func (f *FallbackProducer) Reply(ctx context.Context, req TurnRequest) (string, error) {
	return f.run(ctx, "reply", func(ctx context.Context, p Producer) (string, error) {
		return p.Reply(ctx, req)
	})
}

func (f *FallbackProducer) run(ctx context.Context, operation string, call func(context.Context, Producer) (string, error)) (string, error) {
	if f == nil || len(f.chain) == 0 {
		return "", fmt.Errorf("%w: no producer configured", domerrors.ErrProviderUnavailable)
	}

	start := time.Now()
	first := f.chain[0].Provider()
	var lastErr error

	for i, p := range f.chain {
		provider := p.Provider()
		attemptStart := time.Now()

		text, err := WithRetry(ctx, f.retryConfig,
			func(attempt int, err error) {
				slog.DebugContext(ctx, "retrying LLM call",
					"provider", provider,
					"operation", operation,
					"attempt", attempt,
					"error", err)
			},
			func(ctx context.Context) (string, error) { return call(ctx, p) })
		if err == nil {
			f.metrics.RecordLLMSuccess(string(provider), operation, time.Since(attemptStart).Seconds())
			if i > 0 {
				f.metrics.RecordLLMFallback(string(first), string(provider), operation, time.Since(start).Seconds())
				slog.InfoContext(ctx, "LLM fallback succeeded",
					"from", first,
					"to", provider,
					"operation", operation)
			}
			return text, nil
		}

		lastErr = err
		f.metrics.RecordLLMError(string(provider), operation, ErrorStatus(err))
		slog.WarnContext(ctx, "LLM producer failed",
			"provider", provider,
			"operation", operation,
			"error", err,
			"action", ClassifyError(err),
			"duration", time.Since(attemptStart))

		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			break
		}
	}

	return "", fmt.Errorf("%w: all providers failed: %w", domerrors.ErrProviderUnavailable, lastErr)
}

// Provider returns the first provider in the chain.
func (f *FallbackProducer) Provider() Provider {
	if f == nil || len(f.chain) == 0 {
		return ""
	}
	return f.chain[0].Provider()
}

// Len returns the number of producers in the chain.
func (f *FallbackProducer) Len() int {
	if f == nil {
		return 0
	}
	return len(f.chain)
}

// Close closes every producer in the chain.
func (f *FallbackProducer) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, p := range f.chain {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
