// Package metrics provides Prometheus metrics for the AgentOps service
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	Registry *prometheus.Registry

	// Transport metrics, labelled by transport (http, grpc)
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Engine metrics
	QueriesTotal       *prometheus.CounterVec
	CitationsPerAnswer prometheus.Histogram
	PassagesRanked     prometheus.Histogram

	// Corpus metrics
	CorpusDocuments prometheus.Gauge
	CorpusSections  prometheus.Gauge
	CorpusSkipped   prometheus.Gauge

	// Telemetry events mirrored from the recorder
	EventsTotal *prometheus.CounterVec

	ServerUptimeSeconds prometheus.Gauge
	ServerStartTime     time.Time
}

// NewMetrics creates all metrics on a fresh registry that also carries the Go and process collectors
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetricsWith(reg)
}

// NewMetricsWith creates all metrics on reg
func NewMetricsWith(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		Registry:        reg,
		ServerStartTime: time.Now(),
	}

	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentops_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"transport", "method", "status"},
	)

	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentops_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"transport", "method"},
	)

	m.RequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentops_requests_in_flight",
			Help: "Number of API requests currently being processed",
		},
	)

	m.QueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentops_queries_total",
			Help: "Total number of composed answers and drafts",
		},
		[]string{"mode", "outcome"},
	)

	m.CitationsPerAnswer = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agentops_citations_per_answer",
			Help:    "Number of distinct policies cited per composed text",
			Buckets: []float64{0, 1, 2, 3, 5},
		},
	)

	m.PassagesRanked = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agentops_passages_ranked",
			Help:    "Number of passages returned by the ranker per query",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	m.CorpusDocuments = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentops_corpus_documents",
			Help: "Policy documents loaded",
		},
	)

	m.CorpusSections = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentops_corpus_sections",
			Help: "Policy sections loaded",
		},
	)

	m.CorpusSkipped = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentops_corpus_skipped_sources",
			Help: "Policy sources rejected at load time",
		},
	)

	m.EventsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentops_telemetry_events_total",
			Help: "Telemetry events recorded, by type",
		},
		[]string{"event_type"},
	)

	m.ServerUptimeSeconds = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentops_server_uptime_seconds",
			Help: "Server uptime in seconds",
		},
	)

	return m
}

// RunUptime updates the uptime gauge every interval until ctx is done
func (m *Metrics) RunUptime(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ServerUptimeSeconds.Set(time.Since(m.ServerStartTime).Seconds())
		}
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// RecordRequest records one API request
func (m *Metrics) RecordRequest(transport, method, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(transport, method, status).Inc()
	m.RequestDuration.WithLabelValues(transport, method).Observe(duration.Seconds())
}

// RecordQuery records one composed answer or draft
func (m *Metrics) RecordQuery(mode string, passages, citations int) {
	outcome := "matched"
	if citations == 0 {
		outcome = "no_match"
	}
	m.QueriesTotal.WithLabelValues(mode, outcome).Inc()
	m.PassagesRanked.Observe(float64(passages))
	m.CitationsPerAnswer.Observe(float64(citations))
}

// UpdateCorpusStats sets the corpus gauges
func (m *Metrics) UpdateCorpusStats(documents, sections, skipped int) {
	m.CorpusDocuments.Set(float64(documents))
	m.CorpusSections.Set(float64(sections))
	m.CorpusSkipped.Set(float64(skipped))
}

// RecordEvent counts a telemetry event
func (m *Metrics) RecordEvent(eventType string) {
	m.EventsTotal.WithLabelValues(eventType).Inc()
}
