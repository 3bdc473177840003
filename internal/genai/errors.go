// Package genai provides integration with LLM APIs (Gemini, Groq, and Cerebras).
// This file contains error classification for retry/fallback decisions.
package genai

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"github.com/genocem/Edumond-AI-portal/internal/stringutil"
)

// ErrorAction defines the action to take based on error type.
type ErrorAction int

const (
	// ActionRetry indicates the request should be retried with the same provider/model.
	ActionRetry ErrorAction = iota
	// ActionFallback indicates fallback to another provider should be attempted.
	ActionFallback
	// ActionFail indicates the request should fail immediately (permanent error).
	ActionFail
)

// String returns a human-readable string for the error action.
func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFallback:
		return "fallback"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// errEmptyReply is returned when a provider answers without any text.
var errEmptyReply = errors.New("empty response from model")

// LLMError wraps an error with the provider and HTTP status that produced it.
type LLMError struct {
	Err        error
	StatusCode int
	Provider   Provider
}

// Error implements the error interface.
func (e *LLMError) Error() string {
	msg := string(e.Provider) + ": " + e.Err.Error()
	if e.StatusCode > 0 {
		msg += " (status: " + strconv.Itoa(e.StatusCode) + ")"
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *LLMError) Unwrap() error {
	return e.Err
}

// WrapError attaches the provider and, when the SDK exposes one, the HTTP
// status code to err.
func WrapError(err error, provider Provider) error {
	if err == nil {
		return nil
	}
	return &LLMError{Err: err, StatusCode: sdkStatusCode(err), Provider: provider}
}

// sdkStatusCode extracts the HTTP status from openai-go and genai API errors.
func sdkStatusCode(err error) int {
	var oaErr *openai.Error
	if errors.As(err, &oaErr) {
		return oaErr.StatusCode
	}
	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	return 0
}

// ClassifyError determines the appropriate action based on the error:
//   - Transient errors (429, 5xx, network, timeout) → Retry
//   - Quota exhaustion → Fallback to other provider
//   - Permanent errors (400, 401, 403, 404, cancellation) → Fail immediately
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionFail
	}

	if errors.Is(err, context.Canceled) {
		return ActionFail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ActionRetry
	}
	if errors.Is(err, errEmptyReply) {
		return ActionFallback
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) && llmErr.StatusCode > 0 {
		return classifyStatusCode(llmErr.StatusCode)
	}

	errStr := strings.ToLower(err.Error())

	// Quota exhaustion is checked before generic rate limiting
	if stringutil.ContainsAny(errStr, "quota", "daily limit", "monthly limit", "billing") {
		return ActionFallback
	}
	if stringutil.ContainsAny(errStr, "rate limit", "too many requests", "resource_exhausted", "429") {
		return ActionRetry
	}
	if stringutil.ContainsAny(errStr, "unavailable", "500", "502", "503", "504",
		"internal server error", "bad gateway", "gateway timeout", "overloaded", "capacity") {
		return ActionRetry
	}
	if stringutil.ContainsAny(errStr, "408", "409", "timeout", "deadline", "connection") {
		return ActionRetry
	}
	if stringutil.ContainsAny(errStr,
		"400", "bad request", "malformed",
		"401", "unauthorized", "unauthenticated", "invalid api key",
		"403", "forbidden", "permission denied",
		"404", "not found",
		"422", "unprocessable") {
		return ActionFail
	}

	// Unknown errors are retried
	return ActionRetry
}

// classifyStatusCode determines action based on HTTP status code.
func classifyStatusCode(statusCode int) ErrorAction {
	switch {
	case statusCode == http.StatusTooManyRequests,
		statusCode == http.StatusRequestTimeout,
		statusCode == http.StatusConflict,
		statusCode >= 500 && statusCode < 600:
		return ActionRetry
	case statusCode >= 400 && statusCode < 500:
		return ActionFail
	default:
		return ActionRetry
	}
}

// IsRetryable returns true if the error is transient and can be retried.
func IsRetryable(err error) bool {
	return ClassifyError(err) == ActionRetry
}

// IsPermanent returns true if the error is permanent and should not be retried.
func IsPermanent(err error) bool {
	return ClassifyError(err) == ActionFail
}

// ErrorStatus maps an error to a metric status label.
func ErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		switch code := llmErr.StatusCode; {
		case code == http.StatusTooManyRequests:
			return "rate_limit"
		case code >= 500:
			return "server_error"
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return "auth_error"
		case code == http.StatusBadRequest:
			return "invalid_request"
		}
	}

	switch ClassifyError(err) {
	case ActionFallback:
		return "quota_exhausted"
	case ActionRetry:
		return "transient_error"
	default:
		return "error"
	}
}
