package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domerrors "github.com/genocem/Edumond-AI-portal/internal/errors"
	"github.com/genocem/Edumond-AI-portal/internal/sentry"
)

// Error codes returned in API error bodies.
const (
	codeInvalidInput = "invalid_input"
	codeNotFound     = "not_found"
	codeInvalidPhase = "invalid_phase"
	codeRateLimited  = "rate_limited"
	codeUnauthorized = "unauthorized"
	codeInternal     = "internal"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// respondError maps domain errors to HTTP statuses. Unclassified errors are
// reported to Sentry and answered with a generic 500.
func (a *Application) respondError(c *gin.Context, err error) {
	status, body := classifyError(err)

	route := c.FullPath()
	a.metrics.RecordHTTPError(body.Code, route)
	_ = c.Error(err)

	if status == http.StatusInternalServerError {
		sentry.CaptureException(c.Request.Context(), err)
	}
	c.AbortWithStatusJSON(status, body)
}

func classifyError(err error) (int, errorBody) {
	var ve *domerrors.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorBody{Error: ve.Message, Code: codeInvalidInput, Field: ve.Field}
	case domerrors.IsInvalidInput(err):
		return http.StatusBadRequest, errorBody{Error: err.Error(), Code: codeInvalidInput}
	case domerrors.IsNotFound(err):
		return http.StatusNotFound, errorBody{Error: err.Error(), Code: codeNotFound}
	case domerrors.IsInvalidPhase(err):
		return http.StatusConflict, errorBody{Error: err.Error(), Code: codeInvalidPhase}
	case domerrors.IsRateLimitExceeded(err):
		return http.StatusTooManyRequests, errorBody{Error: err.Error(), Code: codeRateLimited}
	default:
		return http.StatusInternalServerError, errorBody{Error: domerrors.UserMessage(err, "internal error"), Code: codeInternal}
	}
}
