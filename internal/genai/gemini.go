// Package genai provides integration with LLM APIs (Gemini, Groq, and Cerebras).
// This file contains the Gemini implementation of Producer.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiProducer produces chat turns with the Gemini API.
type geminiProducer struct {
	client *genai.Client
	model  string
}

// newGeminiProducer creates a Gemini producer.
// Returns nil if apiKey is empty (provider disabled).
func newGeminiProducer(ctx context.Context, apiKey, model string) (*geminiProducer, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}
	if model == "" {
		model = DefaultGeminiModels[0]
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiProducer{client: client, model: model}, nil
}

// Greet generates the opening message.
func (p *geminiProducer) Greet(ctx context.Context) (string, error) {
	if p == nil {
		return "", errors.New("gemini producer is nil")
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](greetingTemperature),
		MaxOutputTokens:   greetingMaxTokens,
	}
	return p.generate(ctx, "greet", genai.Text(GreetingPrompt), config)
}

// Reply answers the last user message with the rest of req.Messages as history.
func (p *geminiProducer) Reply(ctx context.Context, req TurnRequest) (string, error) {
	if p == nil {
		return "", errors.New("gemini producer is nil")
	}
	if len(req.Messages) == 0 {
		return "", errors.New("no messages to reply to")
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction(req.Collected), genai.RoleUser),
		Temperature:       genai.Ptr[float32](replyTemperature),
		MaxOutputTokens:   replyMaxTokens,
	}
	return p.generate(ctx, "reply", geminiContents(req.Messages), config)
}

func (p *geminiProducer) generate(ctx context.Context, operation string, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	start := time.Now()
	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "gemini API call failed",
			"model", p.model,
			"operation", operation,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", WrapError(fmt.Errorf("generate content failed: %w", err), ProviderGemini)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", WrapError(errEmptyReply, ProviderGemini)
	}

	if result.UsageMetadata != nil {
		slog.DebugContext(ctx, "gemini turn completed",
			"model", p.model,
			"operation", operation,
			"input_tokens", result.UsageMetadata.PromptTokenCount,
			"output_tokens", result.UsageMetadata.CandidatesTokenCount,
			"duration_ms", duration.Milliseconds())
	}
	return text, nil
}

// geminiContents maps chat messages to Gemini contents. Assistant messages
// use the "model" role.
func geminiContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleAssistant {
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
			continue
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
	}
	return contents
}

// Provider returns the provider type for this producer.
func (p *geminiProducer) Provider() Provider {
	return ProviderGemini
}

// Close releases resources held by the producer.
// Safe to call on nil receiver.
func (p *geminiProducer) Close() error {
	// genai.Client does not require explicit cleanup
	return nil
}
