// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates the caller provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidPhase indicates an operation is not allowed in the session's current phase.
	ErrInvalidPhase = errors.New("operation not allowed in current phase")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrProviderUnavailable indicates no external turn producer could serve the request.
	ErrProviderUnavailable = errors.New("turn producer unavailable")
)

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput reports whether err is or wraps ErrInvalidInput or is a *ValidationError.
func IsInvalidInput(err error) bool {
	if errors.Is(err, ErrInvalidInput) {
		return true
	}
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInvalidPhase reports whether err is or wraps ErrInvalidPhase.
func IsInvalidPhase(err error) bool {
	return errors.Is(err, ErrInvalidPhase)
}

// IsRateLimitExceeded reports whether err is or wraps ErrRateLimitExceeded.
func IsRateLimitExceeded(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
