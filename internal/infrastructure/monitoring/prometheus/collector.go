// Package prometheus wraps the Prometheus client behind a small collector
// interface so callers register and record metrics without depending on the
// client library directly.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector registers and serves metrics.
type MetricsCollector interface {
	NewCounterVec(name, help string, labels []string) CounterVec
	NewGaugeVec(name, help string, labels []string) GaugeVec
	NewHistogramVec(name, help string, buckets []float64, labels []string) HistogramVec
	Handler() http.Handler
}

// CounterVec is a labeled monotonically increasing counter.
type CounterVec interface {
	Inc(labels ...string)
	Add(value float64, labels ...string)
}

// GaugeVec is a labeled value that can go up and down.
type GaugeVec interface {
	Set(value float64, labels ...string)
	Inc(labels ...string)
	Dec(labels ...string)
}

// HistogramVec records labeled observations into buckets.
type HistogramVec interface {
	Observe(value float64, labels ...string)
	Time(labels ...string) func()
}

type collector struct {
	registry  *prometheus.Registry
	namespace string
}

// NewCollector creates a MetricsCollector with its own registry and the
// standard Go and process collectors pre-registered.
func NewCollector(namespace string) MetricsCollector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &collector{registry: registry, namespace: namespace}
}

func (c *collector) NewCounterVec(name, help string, labels []string) CounterVec {
	v := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      help,
	}, labels)
	c.registry.MustRegister(v)
	return &counterVec{v: v}
}

func (c *collector) NewGaugeVec(name, help string, labels []string) GaugeVec {
	v := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      help,
	}, labels)
	c.registry.MustRegister(v)
	return &gaugeVec{v: v}
}

func (c *collector) NewHistogramVec(name, help string, buckets []float64, labels []string) HistogramVec {
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	v := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	c.registry.MustRegister(v)
	return &histogramVec{v: v}
}

func (c *collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

type counterVec struct {
	v *prometheus.CounterVec
}

func (c *counterVec) Inc(labels ...string)                { c.v.WithLabelValues(labels...).Inc() }
func (c *counterVec) Add(value float64, labels ...string) { c.v.WithLabelValues(labels...).Add(value) }

type gaugeVec struct {
	v *prometheus.GaugeVec
}

func (g *gaugeVec) Set(value float64, labels ...string) { g.v.WithLabelValues(labels...).Set(value) }
func (g *gaugeVec) Inc(labels ...string)                { g.v.WithLabelValues(labels...).Inc() }
func (g *gaugeVec) Dec(labels ...string)                { g.v.WithLabelValues(labels...).Dec() }

type histogramVec struct {
	v *prometheus.HistogramVec
}

func (h *histogramVec) Observe(value float64, labels ...string) {
	h.v.WithLabelValues(labels...).Observe(value)
}

// Time returns a stop function that observes the elapsed seconds.
func (h *histogramVec) Time(labels ...string) func() {
	start := time.Now()
	return func() {
		h.Observe(time.Since(start).Seconds(), labels...)
	}
}
