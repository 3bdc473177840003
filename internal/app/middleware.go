package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/genocem/Edumond-AI-portal/internal/ctxutil"
	"github.com/genocem/Edumond-AI-portal/internal/logger"
	"github.com/genocem/Edumond-AI-portal/internal/metrics"
	"github.com/genocem/Edumond-AI-portal/internal/ratelimit"
)

const headerRequestID = "X-Request-ID"

// requestIDMiddleware reuses an inbound request or correlation ID, or
// generates one, and stores it in the request context and response header.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = c.GetHeader("X-Correlation-ID")
		}
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), requestID))
		c.Header(headerRequestID, requestID)
		c.Next()
	}
}

// sessionContextMiddleware tags the request context with the :id path parameter.
func sessionContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.Param("id"); id != "" {
			c.Request = c.Request.WithContext(ctxutil.WithSessionID(c.Request.Context(), id))
		}
		c.Next()
	}
}

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Next()
	}
}

// rateLimitMiddleware rejects clients that exceed the per-IP budget with 429.
func rateLimitMiddleware(limiter *ratelimit.KeyedLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{
			Error: "too many requests",
			Code:  codeRateLimited,
		})
	}
}

// loggingMiddleware logs HTTP requests and records their duration.
// 5xx logs at error, 4xx other than 404 at warn, everything else at debug.
func loggingMiddleware(log *logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(route, c.Request.Method, strconv.Itoa(status), duration.Seconds())

		ctx := c.Request.Context()
		entry := log.WithField("http_method", c.Request.Method).
			WithField("http_path", c.Request.URL.Path).
			WithField("http_route", route).
			WithField("http_status", status).
			WithField("duration_ms", duration.Milliseconds()).
			WithField("client_ip", c.ClientIP())
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.ErrorContext(ctx, "HTTP request failed")
		case status >= 400 && status != http.StatusNotFound:
			entry.WarnContext(ctx, "HTTP request rejected")
		default:
			entry.DebugContext(ctx, "HTTP request completed")
		}
	}
}
