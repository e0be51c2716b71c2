// Package metrics exposes Prometheus collectors for fetches, exports and
// HTTP requests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "market_workbook"

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	rows          *prometheus.CounterVec
	dispatches    *prometheus.CounterVec
	requests      *prometheus.CounterVec
}

// New registers all collectors plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Group fetches by mode and outcome.",
		}, []string{"mode", "status"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Wall time of one group fetch.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"mode"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_runs_total",
			Help:      "Export runs by mode, trigger and outcome.",
		}, []string{"mode", "trigger", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_exported_total",
			Help:      "Quote rows written to workbooks.",
		}, []string{"mode"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Workbook deliveries by backend and outcome.",
		}, []string{"backend", "status"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code class.",
		}, []string{"route", "code"}),
	}
	m.Registry.MustRegister(
		m.fetches, m.fetchDuration, m.runs, m.rows, m.dispatches, m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveFetch records one group fetch.
func (m *Metrics) ObserveFetch(mode, status string, elapsed time.Duration) {
	m.fetches.WithLabelValues(mode, status).Inc()
	m.fetchDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// ObserveRun records a finished export run.
func (m *Metrics) ObserveRun(mode, trigger string, rows int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.runs.WithLabelValues(mode, trigger, status).Inc()
	m.rows.WithLabelValues(mode).Add(float64(rows))
}

// ObserveDispatch records one delivery attempt.
func (m *Metrics) ObserveDispatch(backend string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.dispatches.WithLabelValues(backend, status).Inc()
}

// ObserveRequest records one HTTP response.
func (m *Metrics) ObserveRequest(route string, code int) {
	m.requests.WithLabelValues(route, codeClass(code)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func codeClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
