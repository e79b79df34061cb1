// metrics/metrics.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package metrics holds the Prometheus metrics of product rendering. They
// are served over HTTP by the product server and can be written to a
// node_exporter textfile by batch runs.
package metrics

import (
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "metproducts"

// Metrics holds the counters, histograms and gauges for rendering.
type Metrics struct {
	PanelsRendered *prometheus.CounterVec   // labels: product, outcome={success,error}
	RenderDuration *prometheus.HistogramVec // labels: product
	BytesStored    prometheus.Counter
	LastSuccess    *prometheus.GaugeVec   // labels: product; Unix seconds
	EventsSent     *prometheus.CounterVec // labels: outcome={success,error}

	gatherer prometheus.Gatherer
	clock    clockwork.Clock
}

func newMetrics(reg *prometheus.Registry, gatherer prometheus.Gatherer, clock clockwork.Clock) *Metrics {
	m := &Metrics{
		PanelsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panels_rendered_total",
			Help:      "Panels rendered by product and outcome.",
		}, []string{"product", "outcome"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time to render and store one panel.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"product"}),
		BytesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_stored_total",
			Help:      "Total size of stored products.",
		}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Time of the last successful render of each product.",
		}, []string{"product"}),
		EventsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_sent_total",
			Help:      "Product notifications by outcome.",
		}, []string{"outcome"}),
		gatherer: gatherer,
		clock:    clock,
	}

	if reg != nil {
		reg.MustRegister(m.PanelsRendered, m.RenderDuration, m.BytesStored, m.LastSuccess, m.EventsSent)
	} else {
		prometheus.MustRegister(m.PanelsRendered, m.RenderDuration, m.BytesStored, m.LastSuccess, m.EventsSent)
	}
	return m
}

// New creates the metrics and registers them with the default Prometheus
// registry.
func New() *Metrics {
	return newMetrics(nil, prometheus.DefaultGatherer, clockwork.NewRealClock())
}

// NewForTesting creates metrics with a fresh registry and the given clock,
// to avoid "already registered" panics when called from multiple tests.
func NewForTesting(clock clockwork.Clock) *Metrics {
	reg := prometheus.NewRegistry()
	return newMetrics(reg, reg, clock)
}

// StartRender begins timing a render of product; the returned function
// records the outcome when it completes.
func (m *Metrics) StartRender(product string) func(err error) {
	start := m.clock.Now()
	return func(err error) {
		m.RenderDuration.WithLabelValues(product).Observe(m.clock.Since(start).Seconds())
		if err != nil {
			m.PanelsRendered.WithLabelValues(product, "error").Inc()
			return
		}
		m.PanelsRendered.WithLabelValues(product, "success").Inc()
		m.LastSuccess.WithLabelValues(product).Set(float64(m.clock.Now().Unix()))
	}
}

func (m *Metrics) Stored(n int64) {
	m.BytesStored.Add(float64(n))
}

func (m *Metrics) EventSent(err error) {
	if err != nil {
		m.EventsSent.WithLabelValues("error").Inc()
	} else {
		m.EventsSent.WithLabelValues("success").Inc()
	}
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// WriteTextfile writes the metrics to path for the node_exporter textfile
// collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.gatherer)
}
