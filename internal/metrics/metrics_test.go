package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := New(registry)
	require.NotNil(t, m)

	assert.NotNil(t, m.TurnsTotal)
	assert.NotNil(t, m.PhaseDisagreementsTotal)
	assert.NotNil(t, m.RecommendationsReturned)
	assert.NotNil(t, m.ActiveSessions)
	assert.NotNil(t, m.LLMRequestsTotal)
	assert.NotNil(t, m.LLMDuration)
	assert.NotNil(t, m.LLMFallbackTotal)
	assert.NotNil(t, m.LLMFallbackLatency)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.HTTPErrorsTotal)
	assert.NotNil(t, m.RateLimiterDropped)
	assert.NotNil(t, m.CatalogCourses)
	assert.NotNil(t, m.CatalogLoadsTotal)
}

func TestRecordTurn(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.RecordTurn("producer", "ask_country")
	m.RecordTurn("producer", "ask_country")
	m.RecordTurn("fallback", "recommend")

	assert.InDelta(t, 2, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("producer", "ask_country")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("fallback", "recommend")), 0)
}

func TestRecordPhaseDisagreement(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.RecordPhaseDisagreement("recommend", "ask_native")
	assert.InDelta(t, 1, testutil.ToFloat64(m.PhaseDisagreementsTotal.WithLabelValues("recommend", "ask_native")), 0)
}

func TestRecordLLM(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.RecordLLMSuccess("gemini", "reply", 0.8)
	m.RecordLLMError("groq", "reply", "rate_limit")
	m.RecordLLMFallback("gemini", "groq", "reply", 1.2)

	assert.InDelta(t, 1, testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("gemini", "reply", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("groq", "reply", "rate_limit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LLMFallbackTotal.WithLabelValues("gemini", "groq", "reply")), 0)
}

func TestGauges(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.SetActiveSessions(7)
	m.SetUpcomingMeetings(2)
	m.RecordCatalogLoad("embedded", "success", 12)
	m.RecordCatalogLoad("r2", "error", 0)
	m.SetRateLimiterKeys("http", 3)

	assert.InDelta(t, 3, testutil.ToFloat64(m.RateLimiterKeys.WithLabelValues("http")), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(m.ActiveSessions), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.UpcomingMeetings), 0)
	assert.InDelta(t, 12, testutil.ToFloat64(m.CatalogCourses), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CatalogLoadsTotal.WithLabelValues("r2", "error")), 0)
}

func TestRecordJob(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.RecordJob("session_cleanup", 0.2, 5)
	m.RecordJob("session_cleanup", 0.1, 0)

	assert.InDelta(t, 5, testutil.ToFloat64(m.JobItems.WithLabelValues("session_cleanup")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.JobDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordTurn("fallback", "ask_goal")
		m.RecordPhaseDisagreement("a", "b")
		m.RecordRecommendations(3)
		m.SetActiveSessions(1)
		m.SetUpcomingMeetings(1)
		m.RecordLLMSuccess("gemini", "reply", 1)
		m.RecordLLMError("gemini", "reply", "timeout")
		m.RecordLLMFallback("gemini", "groq", "reply", 1)
		m.RecordHTTPRequest("/healthz", "GET", "200", 0.01)
		m.RecordHTTPError("not_found", "/api/v1/programs/:id")
		m.RecordRateLimiterDrop("llm")
		m.SetRateLimiterKeys("llm", 2)
		m.RecordCatalogLoad("file", "success", 3)
		m.RecordJob("session_cleanup", 0.1, 4)
	})
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_ = New(registry)
	assert.Panics(t, func() { _ = New(registry) })
}
