package errors

import (
	"errors"
	"fmt"
)

// Op names the operation an error came from, e.g. {"catalog", "load_r2"}.
type Op struct {
	Module string
	Name   string
}

func (o Op) String() string {
	return o.Module + ":" + o.Name
}

// Wrap attaches o and a message safe to show API clients. Returns nil if err is nil.
func (o Op) Wrap(err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{Op: o, Cause: err, UserMessage: userMessage}
}

// WrappedError keeps the internal cause for logs and Sentry apart from the
// message returned to the client.
type WrappedError struct {
	Op          Op
	Cause       error
	UserMessage string
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Op, e.UserMessage, e.Cause)
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the client-facing message of the outermost
// WrappedError in the chain, or fallback when there is none.
func UserMessage(err error, fallback string) string {
	var wrapped *WrappedError
	if errors.As(err, &wrapped) && wrapped.UserMessage != "" {
		return wrapped.UserMessage
	}
	return fallback
}
