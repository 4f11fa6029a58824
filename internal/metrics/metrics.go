// Package metrics exposes Prometheus collectors for ingestion, retrieval and
// answering. All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kotae"

// Metrics holds the collectors and the registry they are registered with.
type Metrics struct {
	registry *prometheus.Registry

	ingestions      *prometheus.CounterVec
	ingestDuration  prometheus.Histogram
	segmentsIndexed prometheus.Counter
	documents       prometheus.Gauge
	segments        prometheus.Gauge
	searchDuration  prometheus.Histogram
	searchErrors    prometheus.Counter
	answers         *prometheus.CounterVec
	answerDuration  *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_total",
			Help:      "Ingestion attempts by outcome (indexed, rejected, failed).",
		}, []string{"status"}),
		ingestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingestion_duration_seconds",
			Help:      "Time to extract, chunk, embed and commit one document.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		segmentsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_indexed_total",
			Help:      "Segments committed to the vector index.",
		}),
		documents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "documents",
			Help:      "Documents currently in the catalog.",
		}),
		segments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "segments",
			Help:      "Segments currently in the vector index.",
		}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time to embed a query and scan the index.",
			Buckets:   prometheus.DefBuckets,
		}),
		searchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_errors_total",
			Help:      "Searches that failed and degraded to an empty context.",
		}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Questions answered by outcome (success, timeout, error).",
		}, []string{"status"}),
		answerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_stage_duration_seconds",
			Help:      "Duration of each answering stage.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"stage"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ingestions, m.ingestDuration, m.segmentsIndexed, m.documents, m.segments,
		m.searchDuration, m.searchErrors, m.answers, m.answerDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveIngestion counts an ingestion attempt with the given status.
func (m *Metrics) ObserveIngestion(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ingestions.WithLabelValues(status).Inc()
	m.ingestDuration.Observe(elapsed.Seconds())
}

// ObserveCommit records a committed document and the resulting totals.
func (m *Metrics) ObserveCommit(segments, totalDocuments, totalSegments int) {
	if m == nil {
		return
	}
	m.segmentsIndexed.Add(float64(segments))
	m.documents.Set(float64(totalDocuments))
	m.segments.Set(float64(totalSegments))
}

// ObserveSearch records one search.
func (m *Metrics) ObserveSearch(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.searchDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.searchErrors.Inc()
	}
}

// ObserveAnswer records the outcome of a question and its stage durations.
func (m *Metrics) ObserveAnswer(status string, search, generation time.Duration) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(status).Inc()
	m.answerDuration.WithLabelValues("search").Observe(search.Seconds())
	m.answerDuration.WithLabelValues("generation").Observe(generation.Seconds())
}
