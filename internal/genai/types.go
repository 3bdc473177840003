// Package genai provides integration with LLM APIs (Gemini, Groq, Cerebras
// and any OpenAI-compatible endpoint) for producing orientation chat turns.
//
// Architecture:
// - Gemini: Uses google.golang.org/genai (official SDK)
// - Groq/Cerebras/custom: Uses github.com/openai/openai-go/v3 (OpenAI-compatible API)
//
// Fallback Strategy (3-layer):
// 1. Model Retry: Same model retried with exponential backoff
// 2. Model Chain: Next model in same provider's model list
// 3. Provider Chain: Next provider in LLM_PROVIDERS list
package genai

import (
	"context"
	"time"
)

// Provider represents an LLM provider.
type Provider string

const (
	// ProviderGemini represents Google's Gemini API (non-OpenAI-compatible).
	ProviderGemini Provider = "gemini"
	// ProviderGroq represents Groq's API (OpenAI-compatible, fast inference).
	ProviderGroq Provider = "groq"
	// ProviderCerebras represents Cerebras's API (OpenAI-compatible, ultra-fast inference).
	ProviderCerebras Provider = "cerebras"
	// ProviderOpenAI represents any OpenAI-compatible endpoint configured by URL.
	ProviderOpenAI Provider = "openai"
)

// ProviderEndpoint defines the base URL for OpenAI-compatible providers.
// Gemini is not included as it uses a different SDK; ProviderOpenAI takes
// its endpoint from configuration.
var ProviderEndpoint = map[Provider]string{
	ProviderGroq:     "https://api.groq.com/openai/v1/",
	ProviderCerebras: "https://api.cerebras.ai/v1/",
}

// ParseProvider converts a configuration token to a Provider.
func ParseProvider(s string) (Provider, bool) {
	switch p := Provider(s); p {
	case ProviderGemini, ProviderGroq, ProviderCerebras, ProviderOpenAI:
		return p, true
	default:
		return "", false
	}
}

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Role identifies the author of a chat message.
type Role string

// Chat roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message sent to a provider.
type Message struct {
	Role    Role
	Content string
}

// Collected holds the profile fields already known, so the model does not
// ask for them again. Empty strings are unknown.
type Collected struct {
	Goal         string
	Country      string
	EnglishLevel string
	NativeLevel  string
}

// TurnRequest is the input of one conversation turn. The last message is
// the user's latest input; earlier messages are history.
type TurnRequest struct {
	Messages  []Message
	Collected Collected
}

// Producer generates assistant replies for the orientation conversation.
// Replies are raw text that should end with a fenced json data block.
type Producer interface {
	// Greet returns the opening message of a new conversation.
	Greet(ctx context.Context) (string, error)
	// Reply answers the latest user message in req.
	Reply(ctx context.Context, req TurnRequest) (string, error)
	// Provider returns the provider type for metrics.
	Provider() Provider
	// Close releases any resources held by the producer.
	Close() error
}

// Generation settings for chat replies and greetings.
const (
	replyTemperature    = 0.7
	replyMaxTokens      = 600
	greetingTemperature = 0.8
	greetingMaxTokens   = 300
)

// RetryConfig defines retry behavior for LLM API calls.
// Uses AWS-recommended Full Jitter exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 2 (1 initial + 1 retry)
	MaxAttempts int

	// InitialDelay is the base delay before first retry.
	// Default: 500ms
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	// Default: 3s
	MaxDelay time.Duration
}

// ProviderConfig holds configuration for a single LLM provider.
type ProviderConfig struct {
	// APIKey is the API key for the provider.
	APIKey string

	// Models is the ordered list of chat models.
	// First model is primary, rest are fallbacks tried in order.
	Models []string

	// Endpoint is the base URL, used by ProviderOpenAI only.
	Endpoint string
}

// LLMConfig holds configuration for all LLM providers.
type LLMConfig struct {
	// Providers is the ordered list of providers to try.
	// Fallback happens in order: first provider's models, then second, etc.
	Providers []Provider

	Gemini   ProviderConfig
	Groq     ProviderConfig
	Cerebras ProviderConfig
	OpenAI   ProviderConfig

	RetryConfig RetryConfig
}

// Default model configurations.
// First element is primary model, subsequent elements are fallbacks.
var (
	DefaultGeminiModels   = []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}
	DefaultGroqModels     = []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"}
	DefaultCerebrasModels = []string{"llama-3.3-70b", "llama-3.1-8b"}

	// DefaultProviders is the default provider order for fallback.
	DefaultProviders = []Provider{ProviderGemini, ProviderGroq, ProviderCerebras}
)

// Retry configuration defaults
const (
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
)

// HasProvider returns true if the specified provider is configured with an API key.
func (c *LLMConfig) HasProvider(p Provider) bool {
	pc := c.ProviderConfig(p)
	if pc == nil || pc.APIKey == "" {
		return false
	}
	if p == ProviderOpenAI {
		return pc.Endpoint != "" && len(pc.Models) > 0
	}
	return true
}

// ProviderConfig returns the configuration for a specific provider.
func (c *LLMConfig) ProviderConfig(p Provider) *ProviderConfig {
	switch p {
	case ProviderGemini:
		return &c.Gemini
	case ProviderGroq:
		return &c.Groq
	case ProviderCerebras:
		return &c.Cerebras
	case ProviderOpenAI:
		return &c.OpenAI
	default:
		return nil
	}
}

// ConfiguredProviders returns the list of providers with configured API keys,
// in the order specified by c.Providers.
func (c *LLMConfig) ConfiguredProviders() []Provider {
	result := make([]Provider, 0, len(c.Providers))
	for _, p := range c.Providers {
		if c.HasProvider(p) {
			result = append(result, p)
		}
	}
	return result
}

// DefaultLLMConfig returns a default LLM configuration.
// API keys must be provided separately.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Providers:   DefaultProviders,
		Gemini:      ProviderConfig{Models: DefaultGeminiModels},
		Groq:        ProviderConfig{Models: DefaultGroqModels},
		Cerebras:    ProviderConfig{Models: DefaultCerebrasModels},
		RetryConfig: DefaultRetryConfig(),
	}
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}
