package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dispatch outcomes recorded by the dispatcher.
const (
	OutcomeOK          = "ok"
	OutcomeFailed      = "failed"
	OutcomeUnavailable = "unavailable"
)

// Submission outcomes recorded by the submission service.
const (
	SubmissionAccepted = "accepted"
	SubmissionRejected = "rejected"
)

// Metrics bundles the bridge collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	dispatches       *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	submissions      *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studiobridge_dispatches_total",
				Help: "Commands relayed to the GUI, by outcome",
			},
			[]string{"outcome"},
		),
		dispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studiobridge_dispatch_duration_seconds",
				Help:    "Time spent waiting for the GUI to evaluate a command",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studiobridge_submissions_total",
				Help: "Answer submissions received, by outcome",
			},
			[]string{"outcome"},
		),
	}
	m.registry.MustRegister(
		m.dispatches,
		m.dispatchDuration,
		m.submissions,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveDispatch records one dispatch. Unavailable dispatches carry no duration.
func (m *Metrics) ObserveDispatch(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(outcome).Inc()
	if outcome != OutcomeUnavailable {
		m.dispatchDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	}
}

// ObserveSubmission records one submission attempt.
func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
