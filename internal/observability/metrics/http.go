package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
)

// HTTPServerMetrics carries the API-side registry. Each process owns its
// registry so api and worker can expose disjoint metric sets on separate
// ports.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	askTotal          *prometheus.CounterVec
	askDuration       *prometheus.HistogramVec
	askSources        *prometheus.HistogramVec
	askNoContextTotal *prometheus.CounterVec
	cacheClearsTotal  *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hrag",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hrag",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hrag",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	askTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hrag",
			Subsystem: "ask",
			Name:      "requests_total",
			Help:      "Total completed ask requests by outcome.",
		},
		[]string{"service", "status"},
	)
	askDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hrag",
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "Ask pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	askSources := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hrag",
			Subsystem: "ask",
			Name:      "sources_returned",
			Help:      "Distribution of sources per successful ask request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service"},
	)
	askNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hrag",
			Subsystem: "ask",
			Name:      "no_context_total",
			Help:      "Total ask requests answered without retrieved sources.",
		},
		[]string{"service"},
	)
	cacheClearsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hrag",
			Subsystem: "cache",
			Name:      "clears_total",
			Help:      "Total operator-initiated cache clears.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		askTotal,
		askDuration,
		askSources,
		askNoContextTotal,
		cacheClearsTotal,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		askTotal:          askTotal,
		askDuration:       askDuration,
		askSources:        askSources,
		askNoContextTotal: askNoContextTotal,
		cacheClearsTotal:  cacheClearsTotal,
	}
}

// RegisterQueryCacheStats exposes the live query cache counters. Gauges are
// used because Clear resets the underlying counters.
func (m *HTTPServerMetrics) RegisterQueryCacheStats(service string, stats func() domain.CacheStats) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace:   "hrag",
				Subsystem:   "cache",
				Name:        "hits",
				Help:        "Query cache hits since the last clear.",
				ConstLabels: prometheus.Labels{"service": service},
			},
			func() float64 { return float64(stats().Hits) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace:   "hrag",
				Subsystem:   "cache",
				Name:        "misses",
				Help:        "Query cache misses since the last clear.",
				ConstLabels: prometheus.Labels{"service": service},
			},
			func() float64 { return float64(stats().Misses) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace:   "hrag",
				Subsystem:   "cache",
				Name:        "entries",
				Help:        "Live entries in the local cache tier.",
				ConstLabels: prometheus.Labels{"service": service},
			},
			func() float64 { return float64(stats().EntryCount) },
		),
	)
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordAsk(service string, sourceCount int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.askTotal.WithLabelValues(service, status).Inc()
	m.askDuration.WithLabelValues(service).Observe(duration.Seconds())

	if err != nil {
		return
	}
	m.askSources.WithLabelValues(service).Observe(float64(sourceCount))
	if sourceCount == 0 {
		m.askNoContextTotal.WithLabelValues(service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordCacheClear(service string) {
	m.cacheClearsTotal.WithLabelValues(service).Inc()
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
