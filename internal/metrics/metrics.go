// Package metrics exposes the Prometheus collectors of a pagegrid process.
//
// Every collector lives on a private registry so tests and multiple apps in
// one process never clash on the default one. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultConflict = "conflict"
	ResultNotFound = "not_found"
	ResultError    = "error"
	ResultFallback = "fallback"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Registry metrics
	Organisms prometheus.Gauge
	Lookups   *prometheus.CounterVec

	// Editor metrics
	Commits *prometheus.CounterVec

	// Render metrics
	Renders        *prometheus.CounterVec
	RenderDuration *prometheus.HistogramVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Live sync metrics
	LiveConnections prometheus.Gauge
	LiveEvents      *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Organisms: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pagegrid_organisms",
				Help: "Number of organisms in the registry",
			},
		),
		Lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagegrid_registry_lookups_total",
				Help: "Total number of registry lookups",
			},
			[]string{"result"},
		),
		Commits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagegrid_editor_commits_total",
				Help: "Total number of editor commits",
			},
			[]string{"organism", "result"},
		),
		Renders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagegrid_renders_total",
				Help: "Total number of organism renders",
			},
			[]string{"organism", "result"},
		),
		RenderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pagegrid_render_duration_seconds",
				Help:    "Organism render duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"organism"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagegrid_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pagegrid_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "route"},
		),
		LiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pagegrid_live_connections",
				Help: "Number of connected live sync clients",
			},
		),
		LiveEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagegrid_live_events_total",
				Help: "Total number of events broadcast to live sync rooms",
			},
			[]string{"kind"},
		),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) SetOrganisms(n int) {
	if m == nil {
		return
	}
	m.Organisms.Set(float64(n))
}

func (m *Metrics) RecordLookup(found bool) {
	if m == nil {
		return
	}
	result := ResultOK
	if !found {
		result = ResultNotFound
	}
	m.Lookups.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordCommit(organismID, result string) {
	if m == nil {
		return
	}
	m.Commits.WithLabelValues(organismID, result).Inc()
}

func (m *Metrics) RecordRender(organismID, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Renders.WithLabelValues(organismID, result).Inc()
	m.RenderDuration.WithLabelValues(organismID).Observe(d.Seconds())
}

func (m *Metrics) RecordRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// LiveConnected adjusts the connected client gauge by delta.
func (m *Metrics) LiveConnected(delta int) {
	if m == nil {
		return
	}
	m.LiveConnections.Add(float64(delta))
}

func (m *Metrics) RecordLiveEvent(kind string) {
	if m == nil {
		return
	}
	m.LiveEvents.WithLabelValues(kind).Inc()
}
