// Package metrics holds the Prometheus instruments of the bot.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dialog outcomes.
const (
	OutcomeSubmitted = "submitted"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
	OutcomeAborted   = "aborted"
	OutcomeExpired   = "expired"
)

// Metrics groups all instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	DialogsStarted   prometheus.Counter
	DialogsFinished  *prometheus.CounterVec
	Events           *prometheus.CounterVec
	PhaseTransitions *prometheus.CounterVec
	ExternalErrors   *prometheus.CounterVec
	SubmitLatency    prometheus.Histogram
	ActiveDialogs    prometheus.Gauge
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DialogsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialogs_started_total",
			Help:      "Task dialogs started.",
		}),
		DialogsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialogs_finished_total",
			Help:      "Task dialogs finished by outcome.",
		}, []string{"outcome"}),
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound dialog events by kind.",
		}, []string{"kind"}),
		PhaseTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Dialog phase transitions by target phase.",
		}, []string{"phase"}),
		ExternalErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_errors_total",
			Help:      "Failed calls to external collaborators.",
		}, []string{"collaborator"}),
		SubmitLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submit_latency_ms",
			Help:      "Task submission latency in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		ActiveDialogs: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_dialogs",
			Help:      "Dialogs currently awaiting user input.",
		}),
	}
}

func (m *Metrics) DialogStarted() {
	if m == nil {
		return
	}
	m.DialogsStarted.Inc()
}

func (m *Metrics) DialogFinished(outcome string) {
	if m == nil {
		return
	}
	m.DialogsFinished.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Event(kind string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(kind).Inc()
}

func (m *Metrics) Phase(phase string) {
	if m == nil {
		return
	}
	m.PhaseTransitions.WithLabelValues(phase).Inc()
}

func (m *Metrics) ExternalError(collaborator string) {
	if m == nil {
		return
	}
	m.ExternalErrors.WithLabelValues(collaborator).Inc()
}

func (m *Metrics) ObserveSubmit(d time.Duration) {
	if m == nil {
		return
	}
	m.SubmitLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) SetActive(n int) {
	if m == nil {
		return
	}
	m.ActiveDialogs.Set(float64(n))
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
