package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordersIncrementLabelledSeries(t *testing.T) {
	m := New()
	m.MirrorOutcome("content", "acknowledged")
	m.MirrorOutcome("content", "acknowledged")
	m.MirrorAttempt(false)
	m.ReactionToggled("comment", true)
	m.Request(http.MethodGet, 404)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mirrorOutcomes.WithLabelValues("content", "acknowledged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mirrorAttempts.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reactionToggles.WithLabelValues("comment", "on")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "4xx")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.MirrorOutcome("content", "failed")
	m.MirrorAttempt(true)
	m.ReactionToggled("content", false)
	m.Request(http.MethodPost, 200)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesSeries(t *testing.T) {
	m := New()
	m.ReactionToggled("content", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `social_reaction_toggles_total{state="on",target="content"} 1`))
}
