package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvPublicBaseURL   = "PUBLIC_BASE_URL"

	// Data
	EnvDataDir                = "DATA_DIR"
	EnvSessionTTL             = "SESSION_TTL"
	EnvSessionCleanupInterval = "SESSION_CLEANUP_INTERVAL"

	// Catalog
	EnvCatalogPath       = "CATALOG_PATH"
	EnvCatalogR2Key      = "CATALOG_R2_KEY"
	EnvMatchOnlineMarker = "MATCH_ONLINE_MARKER"
	EnvMatchTopK         = "MATCH_TOP_K"

	// Conversation
	EnvMaxMessageLength = "MAX_MESSAGE_LENGTH"
	EnvMaxHistory       = "MAX_HISTORY"

	// R2
	EnvR2AccountID       = "R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "R2_BUCKET_NAME"

	// Rate Limits
	EnvHTTPRateBurst  = "HTTP_RATE_BURST"
	EnvHTTPRateRefill = "HTTP_RATE_REFILL"
	EnvLLMRateBurst   = "LLM_RATE_BURST"
	EnvLLMRateRefill  = "LLM_RATE_REFILL"
	EnvLLMRateDaily   = "LLM_RATE_DAILY"

	// LLM
	EnvLLMProviders   = "LLM_PROVIDERS"
	EnvLLMTimeout     = "LLM_TIMEOUT"
	EnvGeminiAPIKey   = "GEMINI_API_KEY"
	EnvGroqAPIKey     = "GROQ_API_KEY"
	EnvCerebrasAPIKey = "CEREBRAS_API_KEY"
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
	EnvOpenAIEndpoint = "OPENAI_ENDPOINT"
	EnvGeminiModels   = "GEMINI_MODELS"
	EnvGroqModels     = "GROQ_MODELS"
	EnvCerebrasModels = "CEREBRAS_MODELS"
	EnvOpenAIModels   = "OPENAI_MODELS"

	// Sentry
	EnvSentryToken       = "SENTRY_TOKEN"
	EnvSentryHost        = "SENTRY_HOST"
	EnvSentryEnvironment = "SENTRY_ENVIRONMENT"
	EnvSentryRelease     = "SENTRY_RELEASE"
	EnvSentrySampleRate  = "SENTRY_SAMPLE_RATE"

	// Better Stack
	EnvBetterStackToken    = "BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "BETTERSTACK_ENDPOINT"

	// Metrics Auth
	EnvMetricsUsername = "METRICS_USERNAME"
	EnvMetricsPassword = "METRICS_PASSWORD"
)

// DefaultPort is used when PORT is unset.
const DefaultPort = "10000"
