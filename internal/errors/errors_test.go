package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		checkFn  func(error) bool
		expected bool
	}{
		{"ErrNotFound is recognized", ErrNotFound, IsNotFound, true},
		{"joined ErrNotFound is recognized", errors.Join(ErrNotFound, errors.New("ctx")), IsNotFound, true},
		{"wrapped ErrNotFound is recognized", fmt.Errorf("course %q: %w", "x", ErrNotFound), IsNotFound, true},
		{"different error is not ErrNotFound", ErrRateLimitExceeded, IsNotFound, false},
		{"ErrRateLimitExceeded is recognized", ErrRateLimitExceeded, IsRateLimitExceeded, true},
		{"ErrInvalidInput is recognized", ErrInvalidInput, IsInvalidInput, true},
		{"ValidationError counts as invalid input", NewValidationError("message", "empty"), IsInvalidInput, true},
		{"ErrInvalidPhase is recognized", fmt.Errorf("schedule: %w", ErrInvalidPhase), IsInvalidPhase, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.checkFn(tt.err))
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := NewValidationError("datetime", "must be RFC3339")
	assert.Equal(t, "datetime", err.Field)
	assert.Equal(t, "validation failed on datetime: must be RFC3339", err.Error())
}
