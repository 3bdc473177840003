package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
// Record methods are safe to call on a nil *Metrics.
type Metrics struct {
	// Conversation metrics
	TurnsTotal              *prometheus.CounterVec
	PhaseDisagreementsTotal *prometheus.CounterVec
	RecommendationsReturned prometheus.Histogram
	ActiveSessions          prometheus.Gauge
	UpcomingMeetings        prometheus.Gauge

	// LLM metrics
	LLMRequestsTotal   *prometheus.CounterVec
	LLMDuration        *prometheus.HistogramVec
	LLMFallbackTotal   *prometheus.CounterVec
	LLMFallbackLatency *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrorsTotal     *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
	RateLimiterKeys    *prometheus.GaugeVec

	// Catalog metrics
	CatalogCourses    prometheus.Gauge
	CatalogLoadsTotal *prometheus.CounterVec

	// Background job metrics
	JobDuration *prometheus.HistogramVec
	JobItems    *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		TurnsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "edumond_conversation_turns_total",
				Help: "Total conversation turns by reply source and resulting phase",
			},
			[]string{"source", "phase"}, // source: producer, fallback
		),

		PhaseDisagreementsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "edumond_phase_disagreements_total",
				Help: "Turns where the phase claimed by the producer differed from the inferred phase",
			},
			[]string{"claimed", "inferred"},
		),

		RecommendationsReturned: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "edumond_recommendations_returned",
				Help:    "Number of recommendations attached to a response",
				Buckets: []float64{0, 1, 2, 3, 4, 5},
			},
		),

		ActiveSessions: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "edumond_active_sessions",
				Help: "Number of stored sessions after the last cleanup",
			},
		),

		UpcomingMeetings: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "edumond_upcoming_meetings",
				Help: "Scheduled meetings in the next seven days",
			},
		),

		LLMRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "edumond_llm_requests_total",
				Help: "Total LLM requests by provider, operation and status",
			},
			[]string{"provider", "operation", "status"}, // operation: greet, reply
		),

		LLMDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edumond_llm_duration_seconds",
				Help:    "Successful LLM request duration by provider and operation",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"provider", "operation"},
		),

		LLMFallbackTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "edumond_llm_fallback_total",
				Help: "Total provider fallbacks by source provider, target provider and operation",
			},
			[]string{"from", "to", "operation"},
		),

		LLMFallbackLatency: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edumond_llm_fallback_latency_seconds",
				Help:    "Total latency of requests that needed a provider fallback",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
			},
			[]string{"from", "to", "operation"},
		),

		HTTPRequestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edumond_http_request_duration_seconds",
				Help:    "HTTP request duration by route and status code",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"route", "method", "status"},
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "edumond_http_errors_total",
				Help: "Total HTTP errors by type and route",
			},
			[]string{"error_type", "route"}, // error_type: not_found, invalid_input, invalid_phase, internal
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "edumond_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: llm, http
		),

		RateLimiterKeys: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "edumond_rate_limiter_keys",
				Help: "Number of keys tracked by each rate limiter",
			},
			[]string{"limiter_type"},
		),

		CatalogCourses: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "edumond_catalog_courses",
				Help: "Number of courses in the loaded catalog",
			},
		),

		CatalogLoadsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "edumond_catalog_loads_total",
				Help: "Catalog load attempts by source and status",
			},
			[]string{"source", "status"}, // source: embedded, file, r2
		),

		JobDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edumond_job_duration_seconds",
				Help:    "Background job duration",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"job"}, // job: session_cleanup
		),

		JobItems: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "edumond_job_items_total",
				Help: "Items processed by background jobs",
			},
			[]string{"job"},
		),
	}

	return m
}

// RecordTurn records a completed conversation turn
func (m *Metrics) RecordTurn(source, phase string) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(source, phase).Inc()
}

// RecordPhaseDisagreement records a producer phase that lost to the inferred phase
func (m *Metrics) RecordPhaseDisagreement(claimed, inferred string) {
	if m == nil {
		return
	}
	m.PhaseDisagreementsTotal.WithLabelValues(claimed, inferred).Inc()
}

// RecordRecommendations records how many recommendations a response carried
func (m *Metrics) RecordRecommendations(n int) {
	if m == nil {
		return
	}
	m.RecommendationsReturned.Observe(float64(n))
}

// SetActiveSessions sets the active session gauge
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// SetUpcomingMeetings sets the upcoming meeting gauge
func (m *Metrics) SetUpcomingMeetings(n int) {
	if m == nil {
		return
	}
	m.UpcomingMeetings.Set(float64(n))
}

// RecordLLMSuccess records a successful LLM request
func (m *Metrics) RecordLLMSuccess(provider, operation string, duration float64) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, operation, "success").Inc()
	m.LLMDuration.WithLabelValues(provider, operation).Observe(duration)
}

// RecordLLMError records a failed LLM request with a classified status
func (m *Metrics) RecordLLMError(provider, operation, status string) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, operation, status).Inc()
}

// RecordLLMFallback records a provider-to-provider fallback
func (m *Metrics) RecordLLMFallback(from, to, operation string, duration float64) {
	if m == nil {
		return
	}
	m.LLMFallbackTotal.WithLabelValues(from, to, operation).Inc()
	m.LLMFallbackLatency.WithLabelValues(from, to, operation).Observe(duration)
}

// RecordHTTPRequest records an HTTP request duration
func (m *Metrics) RecordHTTPRequest(route, method, status string, duration float64) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(route, method, status).Observe(duration)
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, route string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(errorType, route).Inc()
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// SetRateLimiterKeys sets the number of keys a limiter tracks
func (m *Metrics) SetRateLimiterKeys(limiterType string, n int) {
	if m == nil {
		return
	}
	m.RateLimiterKeys.WithLabelValues(limiterType).Set(float64(n))
}

// RecordCatalogLoad records a catalog load attempt and, on success, its size
func (m *Metrics) RecordCatalogLoad(source, status string, courses int) {
	if m == nil {
		return
	}
	m.CatalogLoadsTotal.WithLabelValues(source, status).Inc()
	if status == "success" {
		m.CatalogCourses.Set(float64(courses))
	}
}

// RecordJob records one background job run and the number of items it processed
func (m *Metrics) RecordJob(job string, duration float64, items int64) {
	if m == nil {
		return
	}
	m.JobDuration.WithLabelValues(job).Observe(duration)
	if items > 0 {
		m.JobItems.WithLabelValues(job).Add(float64(items))
	}
}
