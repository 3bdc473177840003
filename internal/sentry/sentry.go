// Package sentry initializes the Sentry SDK against Better Stack's
// error collection backend and reports errors tagged with the session and
// request they occurred in.
package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/genocem/Edumond-AI-portal/internal/ctxutil"
)

// Config holds Sentry configuration for Better Stack integration.
type Config struct {
	// Token is the Better Stack Errors application token.
	Token string

	// Host is the Better Stack Errors ingesting host (e.g., "errors.betterstack.com").
	Host string

	// Environment identifies the deployment environment (e.g., "production", "staging").
	Environment string

	// Release identifies the application release version.
	Release string

	// SampleRate controls error sampling (0.0-1.0, default 1.0 = 100%).
	SampleRate float64

	// Debug enables Sentry SDK debug logging.
	Debug bool
}

// DSN builds the Better Stack DSN. The project ID is required by the SDK
// and ignored by Better Stack.
func (c Config) DSN() string {
	return fmt.Sprintf("https://%s@%s/1", c.Token, c.Host)
}

// Initialize sets up the Sentry SDK. An empty Token disables error tracking.
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil
	}
	if cfg.Host == "" {
		return fmt.Errorf("sentry host is required when token is provided")
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN(),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
		SendDefaultPII:   false,
		BeforeSend:       scrubEvent,
	})
}

// scrubEvent drops request bodies and credentials. Request bodies carry
// student messages and must not leave the service.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event == nil || event.Request == nil {
		return event
	}
	event.Request.Data = ""
	event.Request.Cookies = ""
	for _, h := range []string{"Authorization", "Cookie", "X-Api-Key"} {
		delete(event.Request.Headers, h)
	}
	return event
}

// Flush waits for buffered events to be sent to the server.
// Returns true if all events were sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled returns true if Sentry is initialized and active.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureException reports err with the session and request IDs from ctx
// as tags. It uses the hub bound to ctx when there is one.
func CaptureException(ctx context.Context, err error) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tracingTags(ctx) {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

func tracingTags(ctx context.Context) map[string]string {
	tags := make(map[string]string, 2)
	if id := ctxutil.GetSessionID(ctx); id != "" {
		tags["session_id"] = id
	}
	if id, ok := ctxutil.GetRequestID(ctx); ok && id != "" {
		tags["request_id"] = id
	}
	return tags
}
