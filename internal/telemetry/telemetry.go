// Package telemetry exposes Prometheus metrics for evaluations and the HTTP API.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tradedesk"

type Metrics struct {
	registry *prometheus.Registry

	// Evaluations counts engine runs.
	// Labels: grade (A-F)
	Evaluations *prometheus.CounterVec

	EvaluationDuration prometheus.Histogram

	// StageItems holds the item count after each pipeline stage of the last run.
	// Labels: stage
	StageItems *prometheus.GaugeVec

	// StageDropped counts items removed by each pipeline stage.
	// Labels: stage
	StageDropped *prometheus.CounterVec

	// Requests counts HTTP requests.
	// Labels: route, method, code
	Requests *prometheus.CounterVec

	Dismissals prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Evaluations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "evaluations_total",
				Help:      "Total number of snapshot evaluations by report grade",
			},
			[]string{"grade"},
		),
		EvaluationDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of snapshot evaluations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		StageItems: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "stage_items",
				Help:      "Items remaining after each pipeline stage in the latest run",
			},
			[]string{"stage"},
		),
		StageDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "stage_dropped_items_total",
				Help:      "Total number of items removed by each pipeline stage",
			},
			[]string{"stage"},
		),
		Requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "code"},
		),
		Dismissals: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "dismissals_total",
				Help:      "Total number of dismissals recorded",
			},
		),
	}
}

// ObserveStage records pipeline progress. Metrics satisfies engine.Observer.
func (m *Metrics) ObserveStage(stage string, before, after int) {
	m.StageItems.WithLabelValues(stage).Set(float64(after))
	if dropped := before - after; dropped > 0 {
		m.StageDropped.WithLabelValues(stage).Add(float64(dropped))
	}
}

func (m *Metrics) ObserveEvaluation(grade string, took time.Duration) {
	m.Evaluations.WithLabelValues(grade).Inc()
	m.EvaluationDuration.Observe(took.Seconds())
}

func (m *Metrics) ObserveRequest(route, method string, code int) {
	m.Requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
