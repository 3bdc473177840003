// Package genai provides integration with LLM APIs (Gemini, Groq, and Cerebras).
// This file contains the OpenAI-compatible implementation of Producer.
// It works with any OpenAI-compatible provider (Groq, Cerebras, custom) via BaseURL.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiProducer produces chat turns with an OpenAI-compatible API.
type openaiProducer struct {
	client   openai.Client
	model    string
	provider Provider
}

// newOpenAIProducer creates an OpenAI-compatible producer.
// Returns nil if apiKey is empty (provider disabled).
//
// endpoint overrides the predefined base URL and is required for ProviderOpenAI.
func newOpenAIProducer(provider Provider, apiKey, model, endpoint string, opts ...option.RequestOption) (*openaiProducer, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}

	baseURL := endpoint
	if baseURL == "" {
		var ok bool
		baseURL, ok = ProviderEndpoint[provider]
		if !ok {
			return nil, fmt.Errorf("unsupported OpenAI-compatible provider without endpoint: %s", provider)
		}
	}

	if model == "" {
		switch provider {
		case ProviderGroq:
			model = DefaultGroqModels[0]
		case ProviderCerebras:
			model = DefaultCerebrasModels[0]
		default:
			return nil, fmt.Errorf("model is required for provider %s", provider)
		}
	}

	opts = append([]option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		// Retries are handled by FallbackProducer
		option.WithMaxRetries(0),
	}, opts...)

	return &openaiProducer{
		client:   openai.NewClient(opts...),
		model:    model,
		provider: provider,
	}, nil
}

// Greet generates the opening message.
func (p *openaiProducer) Greet(ctx context.Context) (string, error) {
	if p == nil {
		return "", errors.New("openai producer is nil")
	}

	params := openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(GreetingPrompt),
		},
		Temperature: openai.Float(greetingTemperature),
		MaxTokens:   openai.Int(greetingMaxTokens),
	}
	return p.complete(ctx, "greet", params)
}

// Reply answers the last user message with the rest of req.Messages as history.
func (p *openaiProducer) Reply(ctx context.Context, req TurnRequest) (string, error) {
	if p == nil {
		return "", errors.New("openai producer is nil")
	}
	if len(req.Messages) == 0 {
		return "", errors.New("no messages to reply to")
	}

	params := openai.ChatCompletionNewParams{
		Model:       p.model,
		Messages:    openaiMessages(SystemInstruction(req.Collected), req.Messages),
		Temperature: openai.Float(replyTemperature),
		MaxTokens:   openai.Int(replyMaxTokens),
	}
	return p.complete(ctx, "reply", params)
}

func (p *openaiProducer) complete(ctx context.Context, operation string, params openai.ChatCompletionNewParams) (string, error) {
	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "chat completion API call failed",
			"provider", p.provider,
			"model", p.model,
			"operation", operation,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", WrapError(fmt.Errorf("chat completion failed: %w", err), p.provider)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", WrapError(errEmptyReply, p.provider)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", WrapError(errEmptyReply, p.provider)
	}

	slog.DebugContext(ctx, "chat completion completed",
		"provider", p.provider,
		"model", p.model,
		"operation", operation,
		"input_tokens", resp.Usage.PromptTokens,
		"output_tokens", resp.Usage.CompletionTokens,
		"duration_ms", duration.Milliseconds())
	return text, nil
}

func openaiMessages(system string, messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	out = append(out, openai.SystemMessage(system))
	for _, msg := range messages {
		if msg.Role == RoleAssistant {
			out = append(out, openai.AssistantMessage(msg.Content))
			continue
		}
		out = append(out, openai.UserMessage(msg.Content))
	}
	return out
}

// Provider returns the provider type for this producer.
func (p *openaiProducer) Provider() Provider {
	if p == nil {
		return ""
	}
	return p.provider
}

// Close releases resources held by the producer.
// Safe to call on nil receiver.
func (p *openaiProducer) Close() error {
	// openai-go client doesn't require cleanup
	return nil
}
