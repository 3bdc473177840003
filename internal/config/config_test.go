package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genocem/Edumond-AI-portal/internal/genai"
)

// clearEnv blanks every key Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvPort, EnvLogLevel, EnvShutdownTimeout, EnvDataDir, EnvSessionTTL,
		EnvSessionCleanupInterval, EnvCatalogPath, EnvCatalogR2Key, EnvMatchOnlineMarker,
		EnvMatchTopK, EnvMaxMessageLength, EnvMaxHistory, EnvR2AccountID, EnvR2AccessKeyID,
		EnvR2SecretAccessKey, EnvR2BucketName, EnvHTTPRateBurst, EnvHTTPRateRefill,
		EnvLLMRateBurst, EnvLLMRateRefill, EnvLLMRateDaily, EnvLLMProviders, EnvLLMTimeout,
		EnvGeminiAPIKey, EnvGroqAPIKey, EnvCerebrasAPIKey, EnvOpenAIAPIKey, EnvOpenAIEndpoint,
		EnvGeminiModels, EnvGroqModels, EnvCerebrasModels, EnvOpenAIModels, EnvSentryToken,
		EnvSentryHost, EnvSentryEnvironment, EnvSentryRelease, EnvSentrySampleRate,
		EnvBetterStackToken, EnvBetterStackEndpoint, EnvMetricsUsername, EnvMetricsPassword,
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDataDir, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, GracefulShutdown, cfg.ShutdownTimeout)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.MatchTopK)
	assert.Equal(t, 2000, cfg.MaxMessageLength)
	assert.Equal(t, 20, cfg.MaxHistory)
	assert.Equal(t, 150, cfg.LLMRateDaily)
	assert.Equal(t, "prometheus", cfg.MetricsUsername)
	assert.Empty(t, cfg.LLMProviders)
	assert.Equal(t, genai.DefaultGeminiModels, cfg.GeminiModels)
	assert.False(t, cfg.HasLLMProvider())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)
	t.Setenv(EnvPort, "8080")
	t.Setenv(EnvSessionTTL, "48h")
	t.Setenv(EnvMatchTopK, "3")
	t.Setenv(EnvLLMProviders, "groq, Gemini")
	t.Setenv(EnvGroqAPIKey, "groq-key")
	t.Setenv(EnvGroqModels, "model-a, model-b")
	t.Setenv(EnvMatchOnlineMarker, "Online")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 48*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.MatchTopK)
	assert.Equal(t, "Online", cfg.MatchOnlineMarker)
	assert.Equal(t, []genai.Provider{genai.ProviderGroq, genai.ProviderGemini}, cfg.LLMProviders)
	assert.Equal(t, []string{"model-a", "model-b"}, cfg.GroqModels)
	assert.Equal(t, dir+"/edumond.db", cfg.SQLitePath())
	assert.True(t, cfg.HasLLMProvider())
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDataDir, t.TempDir())
	t.Setenv(EnvMatchTopK, "many")
	t.Setenv(EnvSessionTTL, "a week")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MatchTopK)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
}

func TestLoad_UnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDataDir, t.TempDir())
	t.Setenv(EnvLLMProviders, "gemini,anthropic")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "anthropic"`)
}

func validConfig() *Config {
	return &Config{
		Port:                   "10000",
		DataDir:                "/data",
		ShutdownTimeout:        time.Second,
		SessionTTL:             time.Hour,
		SessionCleanupInterval: time.Minute,
		MatchTopK:              5,
		MaxMessageLength:       2000,
		MaxHistory:             20,
		HTTPRateBurst:          10,
		HTTPRateRefill:         1,
		LLMRateBurst:           10,
		LLMRateRefill:          10,
		LLMTimeout:             time.Second,
		SentrySampleRate:       1,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains []string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:        "missing port",
			mutate:      func(c *Config) { c.Port = "" },
			errContains: []string{"PORT is required"},
		},
		{
			name: "reports every problem",
			mutate: func(c *Config) {
				c.MatchTopK = 0
				c.SessionTTL = 0
			},
			errContains: []string{"MATCH_TOP_K", "SESSION_TTL"},
		},
		{
			name:        "sample rate out of range",
			mutate:      func(c *Config) { c.SentrySampleRate = 1.5 },
			errContains: []string{"SENTRY_SAMPLE_RATE"},
		},
		{
			name:        "r2 catalog without credentials",
			mutate:      func(c *Config) { c.CatalogR2Key = "catalog.json" },
			errContains: []string{"CATALOG_R2_KEY"},
		},
		{
			name:        "openai key without endpoint",
			mutate:      func(c *Config) { c.OpenAIAPIKey = "k" },
			errContains: []string{"OPENAI_ENDPOINT"},
		},
		{
			name:        "negative daily limit",
			mutate:      func(c *Config) { c.LLMRateDaily = -1 },
			errContains: []string{"LLM_RATE_DAILY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if len(tt.errContains) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, s := range tt.errContains {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func TestR2Config(t *testing.T) {
	cfg := validConfig()
	cfg.R2AccountID = "acct"
	cfg.R2AccessKeyID = "id"
	cfg.R2SecretAccessKey = "secret"
	cfg.R2BucketName = "bucket"

	r2 := cfg.R2Config()
	assert.Equal(t, "https://acct.r2.cloudflarestorage.com", r2.Endpoint)
	assert.Equal(t, "bucket", r2.BucketName)
	assert.NoError(t, r2.Validate())

	cfg.CatalogR2Key = "catalog.json.zst"
	assert.NoError(t, cfg.Validate())
}

func TestLLMConfig(t *testing.T) {
	cfg := validConfig()
	cfg.GeminiAPIKey = "g"
	cfg.GeminiModels = genai.DefaultGeminiModels
	cfg.OpenAIAPIKey = "o"
	cfg.OpenAIEndpoint = "http://localhost:11434/v1/"
	cfg.OpenAIModels = []string{"llama3"}

	llm := cfg.LLMConfig()
	assert.Equal(t, []genai.Provider{genai.ProviderGemini, genai.ProviderOpenAI}, llm.ConfiguredProviders())
	assert.Equal(t, "http://localhost:11434/v1/", llm.OpenAI.Endpoint)

	cfg.LLMProviders = []genai.Provider{genai.ProviderOpenAI}
	llm = cfg.LLMConfig()
	assert.Equal(t, []genai.Provider{genai.ProviderOpenAI}, llm.ConfiguredProviders())
}

func TestHTTPWriteTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.LLMTimeout = 30 * time.Second
	assert.Equal(t, 40*time.Second, cfg.HTTPWriteTimeout())
}
