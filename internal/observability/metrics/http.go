package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lva"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	analysis *analysisCollectors
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "path", "method", "code"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	analysis := newAnalysisCollectors()

	registry.MustRegister(requestTotal, requestDuration, requestInFlight)
	analysis.register(registry)

	return &HTTPServerMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		analysis:        analysis,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var routes = []string{"/analyze-documents", "/healthz", "/metrics", "/openapi.yaml"}

const otherRoute = "other"

// Middleware instruments next with promhttp, one curried handler per known route.
func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	byRoute := make(map[string]http.Handler, len(routes)+1)
	for _, route := range append(routes, otherRoute) {
		labels := prometheus.Labels{"service": service, "path": route}
		byRoute[route] = promhttp.InstrumentHandlerDuration(
			m.requestDuration.MustCurryWith(labels),
			promhttp.InstrumentHandlerCounter(m.requestTotal.MustCurryWith(labels), next),
		)
	}

	return promhttp.InstrumentHandlerInFlight(m.requestInFlight, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		byRoute[normalizePath(r.URL.Path)].ServeHTTP(w, r)
	}))
}

// normalizePath keeps label cardinality bounded for unknown routes.
func normalizePath(path string) string {
	for _, route := range routes {
		if path == route {
			return route
		}
	}
	return otherRoute
}
