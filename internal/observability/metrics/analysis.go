package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Analysis outcome labels.
const (
	AnalysisOK          = "ok"
	AnalysisNoFiles     = "no_files"
	AnalysisNotRelevant = "not_relevant"
	AnalysisError       = "error"
)

type analysisCollectors struct {
	analysesTotal       *prometheus.CounterVec
	analysisDuration    *prometheus.HistogramVec
	violationsPerResult prometheus.Histogram
	externalCallsTotal  *prometheus.CounterVec
	externalDuration    *prometheus.HistogramVec
}

func newAnalysisCollectors() *analysisCollectors {
	return &analysisCollectors{
		analysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "total",
				Help:      "Total document analyses by outcome.",
			},
			[]string{"outcome"},
		),
		analysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "duration_seconds",
				Help:      "End-to-end analysis duration in seconds by outcome.",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
			},
			[]string{"outcome"},
		),
		violationsPerResult: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "violations",
				Help:      "Distribution of violations per successful analysis.",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
		),
		externalCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "external",
				Name:      "calls_total",
				Help:      "Total calls to model servers and brokers by outcome.",
			},
			[]string{"operation", "outcome"},
		),
		externalDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "external",
				Name:      "call_duration_seconds",
				Help:      "External call duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (c *analysisCollectors) register(registry *prometheus.Registry) {
	registry.MustRegister(
		c.analysesTotal,
		c.analysisDuration,
		c.violationsPerResult,
		c.externalCallsTotal,
		c.externalDuration,
	)
}

func (m *HTTPServerMetrics) RecordAnalysis(outcome string, violations int, duration time.Duration) {
	if outcome == "" {
		outcome = AnalysisError
	}
	m.analysis.analysesTotal.WithLabelValues(outcome).Inc()
	m.analysis.analysisDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if outcome == AnalysisOK {
		m.analysis.violationsPerResult.Observe(float64(violations))
	}
}

// ObserveExternalCall matches resilience.Observer.
func (m *HTTPServerMetrics) ObserveExternalCall(operation, outcome string, duration time.Duration) {
	m.analysis.externalCallsTotal.WithLabelValues(operation, outcome).Inc()
	m.analysis.externalDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
