package prometheus

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RegistersAndServes(t *testing.T) {
	mc := NewCollector("mailsweep")

	counter := mc.NewCounterVec("test_counter_total", "test", []string{"label"})
	counter.Inc("a")
	counter.Add(2, "b")

	gauge := mc.NewGaugeVec("test_gauge", "test", []string{"label"})
	gauge.Set(3, "a")
	gauge.Inc("a")
	gauge.Dec("a")

	hist := mc.NewHistogramVec("test_seconds", "test", nil, []string{"label"})
	hist.Observe(0.25, "a")
	stop := hist.Time("a")
	stop()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	mc.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "mailsweep_test_counter_total")
	assert.Contains(t, body, "mailsweep_test_gauge")
	assert.Contains(t, body, "mailsweep_test_seconds")
}

func TestAppMetrics_Record(t *testing.T) {
	mc := NewCollector("mailsweep")
	m := NewAppMetrics(mc)

	m.RecordHTTPRequest("POST", "/api/v1/operations/delete", "200", 30*time.Millisecond)
	m.RecordBulkOperation("delete", "succeeded", 2500, 0, 3, 1, 2*time.Second)
	m.SetBatchSize("modify", 18)
	m.SetBreakerOpen(true)
	m.SetBreakerOpen(false)
	stop := m.TimeDBQuery("save_operation")
	stop()
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordPublish(true)
	m.RecordPublish(false)
	m.RecordError("PARTIAL_FAILURE")

	rec := httptest.NewRecorder()
	mc.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, "mailsweep_bulk_operations_total")
	assert.Contains(t, body, `type="delete"`)
	assert.Contains(t, body, "mailsweep_bulk_batch_retries_total")
	assert.Contains(t, body, "mailsweep_circuit_breaker_open 0")
	assert.Contains(t, body, "mailsweep_cache_results_total")
}
