// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Job outcomes.
const (
	OutcomeNormalized = "normalized"
	OutcomeNoMatch    = "no_match"
	OutcomeDecodeErr  = "decode_error"
	OutcomeFailed     = "failed"
)

// Metrics holds the collectors for one pipeline.
type Metrics struct {
	registry      *prometheus.Registry
	jobs          *prometheus.CounterVec
	normalizeErrs *prometheus.CounterVec
	ignoredItems  prometheus.Counter
	matchScore    prometheus.Histogram
	candidates    prometheus.Histogram
	writeFailures prometheus.Counter
}

// New creates collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legistar",
			Name:      "jobs_total",
			Help:      "Match jobs processed, by outcome.",
		}, []string{"outcome"}),
		normalizeErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legistar",
			Name:      "normalize_errors_total",
			Help:      "Events that failed normalization, by error kind.",
		}, []string{"kind"}),
		ignoredItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "legistar",
			Name:      "ignored_items_total",
			Help:      "Event items dropped by the ignore list.",
		}),
		matchScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "legistar",
			Name:      "selected_match_score",
			Help:      "Similarity score of the selected event.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "legistar",
			Name:      "match_candidates",
			Help:      "Number of candidate events per job.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}),
		writeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "legistar",
			Name:      "write_failures_total",
			Help:      "Failed canonical event batch writes.",
		}),
	}
	m.registry.MustRegister(m.jobs, m.normalizeErrs, m.ignoredItems, m.matchScore, m.candidates, m.writeFailures)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveJob counts one job by outcome.
func (m *Metrics) ObserveJob(outcome string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(outcome).Inc()
}

// ObserveMatch records the candidate count and the selected score.
func (m *Metrics) ObserveMatch(candidates, selectedScore int, selected bool) {
	if m == nil {
		return
	}
	m.candidates.Observe(float64(candidates))
	if selected {
		m.matchScore.Observe(float64(selectedScore))
	}
}

// ObserveNormalizeError counts a failed normalization.
func (m *Metrics) ObserveNormalizeError(kind string) {
	if m == nil {
		return
	}
	m.normalizeErrs.WithLabelValues(kind).Inc()
}

// ObserveIgnored counts items removed by the ignore list.
func (m *Metrics) ObserveIgnored(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ignoredItems.Add(float64(n))
}

// ObserveWriteFailure counts a failed batch write.
func (m *Metrics) ObserveWriteFailure() {
	if m == nil {
		return
	}
	m.writeFailures.Inc()
}
