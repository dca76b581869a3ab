// Package metrics exposes Prometheus collectors for the session engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's collectors and the registry they live in.
type Metrics struct {
	Registry *prometheus.Registry

	SessionsStarted   *prometheus.CounterVec
	SessionsCompleted *prometheus.CounterVec
	Answers           *prometheus.CounterVec
	Errors            *prometheus.CounterVec
	OpDuration        *prometheus.HistogramVec
	SessionScore      prometheus.Histogram
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		SessionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studyloop_sessions_started_total",
				Help: "Sessions started, by kind and difficulty.",
			},
			[]string{"kind", "difficulty"},
		),
		SessionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studyloop_sessions_completed_total",
				Help: "Sessions completed, by kind.",
			},
			[]string{"kind"},
		),
		Answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studyloop_answers_total",
				Help: "Answers submitted, by question kind and outcome.",
			},
			[]string{"question_kind", "outcome"},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studyloop_engine_errors_total",
				Help: "Engine operation failures, by operation and error kind.",
			},
			[]string{"op", "kind"},
		),
		OpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studyloop_engine_operation_duration_seconds",
				Help:    "Time spent in engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		SessionScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "studyloop_session_score",
			Help:    "Final score of completed sessions.",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
	}
	m.Registry.MustRegister(
		m.SessionsStarted,
		m.SessionsCompleted,
		m.Answers,
		m.Errors,
		m.OpDuration,
		m.SessionScore,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records the duration of op. A non-empty kind also counts a
// failure of that kind.
func (m *Metrics) Observe(op string, start time.Time, kind string) {
	m.OpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if kind != "" {
		m.Errors.WithLabelValues(op, kind).Inc()
	}
}

// Outcome labels an answer for the answers counter.
func Outcome(correct, graded bool) string {
	switch {
	case !graded:
		return "ungraded"
	case correct:
		return "correct"
	default:
		return "incorrect"
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
