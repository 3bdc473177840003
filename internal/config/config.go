// Package config provides application configuration management.
// It loads settings from a .env file and environment variables, applies
// defaults and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/genocem/Edumond-AI-portal/internal/genai"
	"github.com/genocem/Edumond-AI-portal/internal/r2client"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir                string        // Data directory for the SQLite database
	SessionTTL             time.Duration // Idle time after which a session is purged
	SessionCleanupInterval time.Duration

	// Catalog Configuration. CatalogR2Key wins over CatalogPath; with neither
	// set the embedded catalog is used.
	CatalogPath       string
	CatalogR2Key      string
	MatchOnlineMarker string
	MatchTopK         int

	// Conversation limits
	MaxMessageLength int
	MaxHistory       int

	// R2 Configuration
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string

	// Rate Limits
	HTTPRateBurst  float64 // Burst of requests per client IP
	HTTPRateRefill float64 // Requests per second per client IP
	LLMRateBurst   float64 // Burst of producer calls per session
	LLMRateRefill  float64 // Producer calls refilled per hour per session
	LLMRateDaily   int     // Rolling daily producer calls per session (0 = disabled)

	// LLM Configuration
	LLMProviders   []genai.Provider
	LLMTimeout     time.Duration
	GeminiAPIKey   string
	GroqAPIKey     string
	CerebrasAPIKey string
	OpenAIAPIKey   string
	OpenAIEndpoint string
	GeminiModels   []string
	GroqModels     []string
	CerebrasModels []string
	OpenAIModels   []string

	// Sentry Configuration
	SentryToken       string
	SentryHost        string
	SentryEnvironment string
	SentryRelease     string
	SentrySampleRate  float64

	// Better Stack Configuration
	BetterStackToken    string
	BetterStackEndpoint string

	// Metrics Authentication
	MetricsUsername string // Username for /metrics Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics Basic Auth (empty = no auth)
}

// Load reads configuration from environment variables.
// It attempts to load a .env file first; a missing file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv(EnvPort, DefaultPort),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		DataDir:                getEnv(EnvDataDir, getDefaultDataDir()),
		SessionTTL:             getDurationEnv(EnvSessionTTL, 7*24*time.Hour),
		SessionCleanupInterval: getDurationEnv(EnvSessionCleanupInterval, SessionCleanupInterval),

		CatalogPath:       getEnv(EnvCatalogPath, ""),
		CatalogR2Key:      getEnv(EnvCatalogR2Key, ""),
		MatchOnlineMarker: getEnv(EnvMatchOnlineMarker, ""),
		MatchTopK:         getIntEnv(EnvMatchTopK, 5),

		MaxMessageLength: getIntEnv(EnvMaxMessageLength, 2000),
		MaxHistory:       getIntEnv(EnvMaxHistory, 20),

		R2AccountID:       getEnv(EnvR2AccountID, ""),
		R2AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
		R2BucketName:      getEnv(EnvR2BucketName, ""),

		HTTPRateBurst:  getFloatEnv(EnvHTTPRateBurst, 30),
		HTTPRateRefill: getFloatEnv(EnvHTTPRateRefill, 1),
		LLMRateBurst:   getFloatEnv(EnvLLMRateBurst, 30),
		LLMRateRefill:  getFloatEnv(EnvLLMRateRefill, 30),
		LLMRateDaily:   getIntEnv(EnvLLMRateDaily, 150),

		LLMTimeout:     getDurationEnv(EnvLLMTimeout, LLMTurn),
		GeminiAPIKey:   getEnv(EnvGeminiAPIKey, ""),
		GroqAPIKey:     getEnv(EnvGroqAPIKey, ""),
		CerebrasAPIKey: getEnv(EnvCerebrasAPIKey, ""),
		OpenAIAPIKey:   getEnv(EnvOpenAIAPIKey, ""),
		OpenAIEndpoint: getEnv(EnvOpenAIEndpoint, ""),
		GeminiModels:   getListEnv(EnvGeminiModels, genai.DefaultGeminiModels),
		GroqModels:     getListEnv(EnvGroqModels, genai.DefaultGroqModels),
		CerebrasModels: getListEnv(EnvCerebrasModels, genai.DefaultCerebrasModels),
		OpenAIModels:   getListEnv(EnvOpenAIModels, nil),

		SentryToken:       getEnv(EnvSentryToken, ""),
		SentryHost:        getEnv(EnvSentryHost, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentryRelease:     getEnv(EnvSentryRelease, ""),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),
	}

	providers, err := parseProviders(getEnv(EnvLLMProviders, ""))
	cfg.LLMProviders = providers

	if verr := cfg.Validate(); verr != nil || err != nil {
		return nil, fmt.Errorf("config validation failed: %w", errors.Join(err, verr))
	}
	return cfg, nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", c.ShutdownTimeout))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be positive, got %v", c.SessionTTL))
	}
	if c.SessionCleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_CLEANUP_INTERVAL must be positive, got %v", c.SessionCleanupInterval))
	}
	if c.MatchTopK <= 0 {
		errs = append(errs, fmt.Errorf("MATCH_TOP_K must be positive, got %d", c.MatchTopK))
	}
	if c.MaxMessageLength <= 0 {
		errs = append(errs, fmt.Errorf("MAX_MESSAGE_LENGTH must be positive, got %d", c.MaxMessageLength))
	}
	if c.MaxHistory <= 0 {
		errs = append(errs, fmt.Errorf("MAX_HISTORY must be positive, got %d", c.MaxHistory))
	}
	if c.HTTPRateBurst < 1 || c.HTTPRateRefill <= 0 {
		errs = append(errs, fmt.Errorf("HTTP rate limit needs burst >= 1 and positive refill, got %v/%v", c.HTTPRateBurst, c.HTTPRateRefill))
	}
	if c.LLMRateBurst < 1 || c.LLMRateRefill <= 0 {
		errs = append(errs, fmt.Errorf("LLM rate limit needs burst >= 1 and positive refill, got %v/%v", c.LLMRateBurst, c.LLMRateRefill))
	}
	if c.LLMRateDaily < 0 {
		errs = append(errs, fmt.Errorf("LLM_RATE_DAILY cannot be negative, got %d", c.LLMRateDaily))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, fmt.Errorf("LLM_TIMEOUT must be positive, got %v", c.LLMTimeout))
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("SENTRY_SAMPLE_RATE must be within [0,1], got %v", c.SentrySampleRate))
	}
	if c.CatalogR2Key != "" {
		if err := c.R2Config().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("CATALOG_R2_KEY is set but R2 is not configured: %w", err))
		}
	}
	if c.OpenAIAPIKey != "" && c.OpenAIEndpoint == "" {
		errs = append(errs, errors.New("OPENAI_ENDPOINT is required when OPENAI_API_KEY is set"))
	}

	return errors.Join(errs...)
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "edumond.db")
}

// HTTPWriteTimeout is the server write timeout for a turn-producing request.
func (c *Config) HTTPWriteTimeout() time.Duration {
	return c.LLMTimeout + HTTPWriteMargin
}

// HasLLMProvider returns true if at least one LLM provider is configured.
func (c *Config) HasLLMProvider() bool {
	llm := c.LLMConfig()
	return len(llm.ConfiguredProviders()) > 0
}

// LLMConfig builds the provider chain configuration.
func (c *Config) LLMConfig() genai.LLMConfig {
	llm := genai.DefaultLLMConfig()
	if len(c.LLMProviders) > 0 {
		llm.Providers = c.LLMProviders
	} else if c.OpenAIAPIKey != "" {
		llm.Providers = append(append([]genai.Provider{}, genai.DefaultProviders...), genai.ProviderOpenAI)
	}
	llm.Gemini = genai.ProviderConfig{APIKey: c.GeminiAPIKey, Models: c.GeminiModels}
	llm.Groq = genai.ProviderConfig{APIKey: c.GroqAPIKey, Models: c.GroqModels}
	llm.Cerebras = genai.ProviderConfig{APIKey: c.CerebrasAPIKey, Models: c.CerebrasModels}
	llm.OpenAI = genai.ProviderConfig{APIKey: c.OpenAIAPIKey, Models: c.OpenAIModels, Endpoint: c.OpenAIEndpoint}
	return llm
}

// R2Config returns the R2 client configuration.
func (c *Config) R2Config() r2client.Config {
	endpoint := ""
	if c.R2AccountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2AccountID)
	}
	return r2client.Config{
		Endpoint:    endpoint,
		AccessKeyID: c.R2AccessKeyID,
		SecretKey:   c.R2SecretAccessKey,
		BucketName:  c.R2BucketName,
	}
}

// parseProviders parses a comma-separated provider list. Empty means defaults.
func parseProviders(s string) ([]genai.Provider, error) {
	var (
		out  []genai.Provider
		errs []error
	)
	for _, name := range splitList(s) {
		p, ok := genai.ParseProvider(strings.ToLower(name))
		if !ok {
			errs = append(errs, fmt.Errorf("LLM_PROVIDERS: unknown provider %q", name))
			continue
		}
		out = append(out, p)
	}
	return out, errors.Join(errs...)
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getListEnv retrieves a comma-separated list with fallback to default value
func getListEnv(key string, defaultValue []string) []string {
	if items := splitList(os.Getenv(key)); len(items) > 0 {
		return items
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
