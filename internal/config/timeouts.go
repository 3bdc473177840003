// Package config provides centralized timeout constants for the application.
//
// A conversation turn may wait on a chain of LLM providers, each retried,
// so HTTP write timeouts are sized from the LLM timeout rather than from
// typical request latency.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the server read timeout. Request bodies are small JSON documents.
	HTTPRead = 10 * time.Second

	// HTTPIdle is the idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second

	// HTTPWriteMargin is added to the LLM timeout to get the write timeout,
	// leaving room for persistence and response serialization.
	HTTPWriteMargin = 10 * time.Second
)

// Default LLM timeout for one conversation turn, fallbacks included.
const LLMTurn = 45 * time.Second

// Background job intervals
const (
	// SessionCleanupInterval is how often expired sessions are purged.
	SessionCleanupInterval = time.Hour

	// SessionCleanupInitialDelay lets the server settle before the first purge.
	SessionCleanupInitialDelay = time.Minute

	// MetricsUpdateInterval is how often the session and meeting gauges are refreshed.
	MetricsUpdateInterval = time.Minute

	// UpcomingMeetingsWindow is the look-ahead of the upcoming meeting gauge.
	UpcomingMeetingsWindow = 7 * 24 * time.Hour
)

// Startup and probe timeouts
const (
	// CatalogFetch bounds downloading the catalog from R2 at startup.
	CatalogFetch = 30 * time.Second

	// ReadinessCheck bounds the dependency checks behind /readyz.
	ReadinessCheck = 3 * time.Second
)

// GracefulShutdown is the default timeout for graceful server shutdown.
const GracefulShutdown = 30 * time.Second
