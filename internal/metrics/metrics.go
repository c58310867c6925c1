// Package metrics exposes Prometheus collectors for the pet engine. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gremlin"

// Metrics groups the engine's collectors.
type Metrics struct {
	actions      *prometheus.CounterVec
	ticks        prometheus.Counter
	pranks       prometheus.Counter
	pets         prometheus.Gauge
	saves        *prometheus.CounterVec
	saveDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "User actions handled, by action and outcome.",
		}, []string{"action", "outcome"}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decay_ticks_total",
			Help:      "Decay scheduler ticks completed.",
		}),
		pranks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pranks_total",
			Help:      "Prank events raised by transformed pets.",
		}),
		pets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pets",
			Help:      "Pets in the store at the last tick.",
		}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Persistence writes, by result.",
		}, []string{"result"}),
		saveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "save_duration_seconds",
			Help:      "Time spent writing the store to its backing file.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 7),
		}),
	}
	reg.MustRegister(m.actions, m.ticks, m.pranks, m.pets, m.saves, m.saveDuration)
	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Action records one handled user action.
func (m *Metrics) Action(action, outcome string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, outcome).Inc()
}

// Tick records one completed scheduler tick.
func (m *Metrics) Tick(pets, pranks int) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.pets.Set(float64(pets))
	m.pranks.Add(float64(pranks))
}

// Save records one persistence attempt.
func (m *Metrics) Save(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.saves.WithLabelValues(result).Inc()
	m.saveDuration.Observe(d.Seconds())
}
