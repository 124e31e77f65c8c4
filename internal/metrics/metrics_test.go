package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsights_Counters(t *testing.T) {
	m := New()

	m.ObserveComputation(OutcomeOK, time.Now(), 12)
	m.ObserveComputation(OutcomeDegraded, time.Now(), 0)
	m.CacheHit()
	m.CacheHit()
	m.CacheMiss()
	m.DigestSend(OutcomeSkipped)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.computations.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.computations.WithLabelValues(OutcomeDegraded)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheMisses))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.customers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.digestSends.WithLabelValues(OutcomeSkipped)))
}

func TestInsights_NilSafe(t *testing.T) {
	var m *Insights
	assert.NotPanics(t, func() {
		m.ObserveComputation(OutcomeOK, time.Now(), 1)
		m.CacheHit()
		m.CacheMiss()
		m.DigestSend(OutcomeSent)
		assert.NotNil(t, m.Gatherer())
	})
}

func TestInsights_Gatherer(t *testing.T) {
	m := New()
	m.CacheHit()

	n, err := testutil.GatherAndCount(m.Gatherer(), "crm_insights_cache_hits_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInsights_Handler(t *testing.T) {
	m := New()
	m.CacheMiss()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "crm_insights_cache_misses_total 1"))
}
