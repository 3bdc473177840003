// Package genai provides integration with LLM APIs (Gemini, Groq, and Cerebras).
// This file contains the factory for the producer chain.
package genai

import (
	"context"
	"log/slog"

	"github.com/genocem/Edumond-AI-portal/internal/metrics"
)

// CreateProducer builds a FallbackProducer from cfg.
//
// Chain order:
//  1. Providers in cfg.Providers order, skipping those without an API key.
//  2. Within a provider, models in configuration order.
//
// Returns nil when no provider is configured; callers then rely on the local
// fallback turn generator.
func CreateProducer(ctx context.Context, cfg LLMConfig, m *metrics.Metrics) (*FallbackProducer, error) {
	var chain []Producer

	for _, provider := range cfg.ConfiguredProviders() {
		pc := cfg.ProviderConfig(provider)
		models := pc.Models
		if len(models) == 0 {
			models = []string{""} // provider default
		}

		for _, model := range models {
			var (
				p   Producer
				err error
			)
			switch provider {
			case ProviderGemini:
				var gp *geminiProducer
				gp, err = newGeminiProducer(ctx, pc.APIKey, model)
				if gp != nil {
					p = gp
				}
			default:
				var op *openaiProducer
				op, err = newOpenAIProducer(provider, pc.APIKey, model, pc.Endpoint)
				if op != nil {
					p = op
				}
			}
			if err != nil {
				slog.WarnContext(ctx, "failed to create LLM producer",
					"provider", provider,
					"model", model,
					"error", err)
				continue
			}
			if p != nil {
				chain = append(chain, p)
			}
		}
	}

	if len(chain) == 0 {
		slog.InfoContext(ctx, "no LLM provider configured, using local fallback replies")
		return nil, nil //nolint:nilnil // Intentional: no provider configured
	}

	slog.InfoContext(ctx, "LLM producer configured",
		"primary", chain[0].Provider(),
		"chainSize", len(chain))

	return NewFallbackProducer(cfg.RetryConfig, m, chain...), nil
}
