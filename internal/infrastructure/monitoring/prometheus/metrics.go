package prometheus

import "time"

// AppMetrics bundles every metric the service exposes. All recording goes
// through the typed helpers so label sets stay consistent.
type AppMetrics struct {
	httpRequests    CounterVec
	httpDuration    HistogramVec
	bulkOperations  CounterVec
	bulkItems       CounterVec
	bulkBatches     CounterVec
	bulkRetries     CounterVec
	bulkDuration    HistogramVec
	batchSize       GaugeVec
	breakerOpen     GaugeVec
	dbQueryDuration HistogramVec
	cacheResults    CounterVec
	mqPublishes     CounterVec
	errorsTotal     CounterVec
}

// NewAppMetrics registers the service's metrics against mc.
func NewAppMetrics(mc MetricsCollector) *AppMetrics {
	return &AppMetrics{
		httpRequests: mc.NewCounterVec("http_requests_total",
			"HTTP requests by method, path and status.",
			[]string{"method", "path", "status"}),
		httpDuration: mc.NewHistogramVec("http_request_duration_seconds",
			"HTTP request latency.",
			nil, []string{"method", "path"}),
		bulkOperations: mc.NewCounterVec("bulk_operations_total",
			"Bulk operations by type and outcome.",
			[]string{"type", "outcome"}),
		bulkItems: mc.NewCounterVec("bulk_items_total",
			"Items processed by bulk operations, by type and result.",
			[]string{"type", "result"}),
		bulkBatches: mc.NewCounterVec("bulk_batches_total",
			"Dispatched batch units by operation type.",
			[]string{"type"}),
		bulkRetries: mc.NewCounterVec("bulk_batch_retries_total",
			"Batch units that needed at least one retry.",
			[]string{"type"}),
		bulkDuration: mc.NewHistogramVec("bulk_operation_duration_seconds",
			"End-to-end bulk operation duration.",
			[]float64{0.5, 1, 5, 15, 60, 300, 900}, []string{"type"}),
		batchSize: mc.NewGaugeVec("bulk_batch_size",
			"Most recent adaptive batch size.",
			[]string{"type"}),
		breakerOpen: mc.NewGaugeVec("circuit_breaker_open",
			"1 while the dispatch circuit breaker is open.",
			nil),
		dbQueryDuration: mc.NewHistogramVec("db_query_duration_seconds",
			"Operation store query latency by query name.",
			nil, []string{"query"}),
		cacheResults: mc.NewCounterVec("cache_results_total",
			"Cache lookups by outcome (hit or miss).",
			[]string{"outcome"}),
		mqPublishes: mc.NewCounterVec("mq_publish_total",
			"Audit events published, by outcome.",
			[]string{"outcome"}),
		errorsTotal: mc.NewCounterVec("errors_total",
			"Errors by code.",
			[]string{"code"}),
	}
}

func (m *AppMetrics) RecordHTTPRequest(method, path, status string, elapsed time.Duration) {
	m.httpRequests.Inc(method, path, status)
	m.httpDuration.Observe(elapsed.Seconds(), method, path)
}

// RecordBulkOperation records one finished operation and its per-item tallies.
func (m *AppMetrics) RecordBulkOperation(opType, outcome string, succeeded, failed, batches, retried int, elapsed time.Duration) {
	m.bulkOperations.Inc(opType, outcome)
	m.bulkItems.Add(float64(succeeded), opType, "success")
	m.bulkItems.Add(float64(failed), opType, "failure")
	m.bulkBatches.Add(float64(batches), opType)
	m.bulkRetries.Add(float64(retried), opType)
	m.bulkDuration.Observe(elapsed.Seconds(), opType)
}

func (m *AppMetrics) SetBatchSize(opType string, size int) {
	m.batchSize.Set(float64(size), opType)
}

func (m *AppMetrics) SetBreakerOpen(open bool) {
	v := 0.0
	if open {
		v = 1.0
	}
	m.breakerOpen.Set(v)
}

// TimeDBQuery returns a stop function recording the query's latency.
func (m *AppMetrics) TimeDBQuery(query string) func() {
	return m.dbQueryDuration.Time(query)
}

func (m *AppMetrics) RecordCacheHit()  { m.cacheResults.Inc("hit") }
func (m *AppMetrics) RecordCacheMiss() { m.cacheResults.Inc("miss") }

func (m *AppMetrics) RecordPublish(ok bool) {
	if ok {
		m.mqPublishes.Inc("ok")
		return
	}
	m.mqPublishes.Inc("error")
}

func (m *AppMetrics) RecordError(code string) {
	m.errorsTotal.Inc(code)
}
