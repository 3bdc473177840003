// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	sessionIDKey contextKey = "ctxutil.sessionID"
	requestIDKey contextKey = "ctxutil.requestID"
)

// WithSessionID adds a conversation session ID to the context.
// It is used for per-session rate limiting and log correlation.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// GetSessionID retrieves the session ID from the context.
// Returns the session ID if found, empty string otherwise.
func GetSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(sessionIDKey).(string); ok {
		return sessionID
	}
	return ""
}

// WithRequestID adds a request ID to the context for tracing.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok && requestID != ""
}

// PreserveTracing creates a detached context that keeps only tracing values.
// The new context is independent of the parent's cancellation and deadline.
//
// Use it for work that must finish even if the client disconnects, such as
// persisting a turn after a slow LLM call.
func PreserveTracing(ctx context.Context) context.Context {
	newCtx := context.Background()

	if sessionID := GetSessionID(ctx); sessionID != "" {
		newCtx = WithSessionID(newCtx, sessionID)
	}
	if requestID, ok := GetRequestID(ctx); ok {
		newCtx = WithRequestID(newCtx, requestID)
	}

	return newCtx
}
