// Package metrics - Prometheus metrics cho phần tính điểm khách hàng.
// Mọi method đều an toàn khi receiver nil (test / chạy không bật metrics).
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crm_insights"

// Các giá trị label outcome
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeSent     = "sent"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Insights gom các collector của module insights
type Insights struct {
	registry *prometheus.Registry

	computations   *prometheus.CounterVec
	computeSeconds prometheus.Histogram
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	customers      prometheus.Gauge
	digestSends    *prometheus.CounterVec
}

// New tạo registry riêng (kèm Go/process collectors) và đăng ký các collector
func New() *Insights {
	reg := prometheus.NewRegistry()
	m := &Insights{
		registry: reg,
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computations_total",
			Help:      "Số lượt tính điểm theo kết quả (ok|degraded).",
		}, []string{"outcome"}),
		computeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_duration_seconds",
			Help:      "Thời gian đọc dữ liệu + tính điểm.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Số lần đọc payload từ cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Số lần cache không có payload.",
		}),
		customers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scored_customers",
			Help:      "Số khách trong lượt tính gần nhất.",
		}),
		digestSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digest_sends_total",
			Help:      "Số lần gửi email tổng hợp theo kết quả (sent|skipped|failed).",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.computations,
		m.computeSeconds,
		m.cacheHits,
		m.cacheMisses,
		m.customers,
		m.digestSends,
	)
	return m
}

// Handler http.Handler cho /metrics
func (m *Insights) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer registry riêng của Insights, nil -> prometheus.DefaultGatherer
func (m *Insights) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.DefaultGatherer
	}
	return m.registry
}

// ObserveComputation ghi 1 lượt tính điểm
func (m *Insights) ObserveComputation(outcome string, started time.Time, customers int) {
	if m == nil {
		return
	}
	m.computations.WithLabelValues(outcome).Inc()
	m.computeSeconds.Observe(time.Since(started).Seconds())
	if outcome == OutcomeOK {
		m.customers.Set(float64(customers))
	}
}

func (m *Insights) CacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Insights) CacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Insights) DigestSend(outcome string) {
	if m != nil {
		m.digestSends.WithLabelValues(outcome).Inc()
	}
}
