// Package metrics collects Prometheus metrics for the stub store API and
// the stub editor.
//
// All metrics live on a private registry so tests and embedded servers can
// create independent instances:
//
//	m := metrics.New()
//	mux.Handle("/metrics", m.Handler())
//	ed := editor.New(target, nil, client, editor.WithRecorder(m))
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stubrouter"

// Result label values.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Metrics holds the stubrouter collectors.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec
	editorOps   *prometheus.CounterVec
	storeOps    *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Count of stub store API requests",
			},
			[]string{"method", "status"},
		),
		apiDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "Duration of stub store API requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		editorOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "editor_operations_total",
				Help:      "Count of stub editor operations by result",
			},
			[]string{"operation", "result"},
		),
		storeOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_operations_total",
				Help:      "Count of stub storage operations by result",
			},
			[]string{"operation", "result"},
		),
	}

	m.registry.MustRegister(
		m.apiRequests,
		m.apiDuration,
		m.editorOps,
		m.storeOps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAPIRequest records one stub store API request.
func (m *Metrics) ObserveAPIRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.apiDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveEditorOperation records one editor operation.
func (m *Metrics) ObserveEditorOperation(op string, err error) {
	if m == nil {
		return
	}
	m.editorOps.WithLabelValues(op, result(err)).Inc()
}

// ObserveStorageOperation records one storage backend operation.
func (m *Metrics) ObserveStorageOperation(op string, err error) {
	if m == nil {
		return
	}
	m.storeOps.WithLabelValues(op, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultFailed
	}
	return ResultOK
}
