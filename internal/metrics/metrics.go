// Package metrics exposes Prometheus collectors for skill activity.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "meetremind"

// Metrics is nil-safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	requests  *prometheus.CounterVec
	outcomes  *prometheus.CounterVec
	reminders *prometheus.CounterVec
	apiErrors *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

// MustNewMetrics registers the collectors on reg. Collectors that are already
// registered are reused so a second App in the same process does not panic.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "skill",
			Name:      "requests_total",
			Help:      "Skill requests by classified kind.",
		}, []string{"kind"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "skill",
			Name:      "schedule_outcomes_total",
			Help:      "Scheduling decisions by outcome.",
		}, []string{"outcome"}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "skill",
			Name:      "reminders_total",
			Help:      "Reminder create attempts by lead time and result.",
		}, []string{"offset", "result"}),
		apiErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Platform API failures by service and HTTP status (0 for transport errors).",
		}, []string{"service", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "skill",
			Name:      "request_duration_seconds",
			Help:      "Time spent handling one skill request.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}

	m.requests = registerCounterVec(reg, m.requests)
	m.outcomes = registerCounterVec(reg, m.outcomes)
	m.reminders = registerCounterVec(reg, m.reminders)
	m.apiErrors = registerCounterVec(reg, m.apiErrors)
	if err := reg.Register(m.latency); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			panic(err)
		}
		m.latency = already.ExistingCollector.(*prometheus.HistogramVec)
	}
	return m
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector.(*prometheus.CounterVec)
		}
		panic(err)
	}
	return c
}

func (m *Metrics) IncRequest(kind string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveRequest(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(kind).Observe(seconds)
}

func (m *Metrics) IncOutcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}

// IncReminder counts one create attempt; result is "created" or "failed".
func (m *Metrics) IncReminder(offset, result string) {
	if m == nil {
		return
	}
	m.reminders.WithLabelValues(offset, result).Inc()
}

func (m *Metrics) IncAPIError(service string, status int) {
	if m == nil {
		return
	}
	m.apiErrors.WithLabelValues(service, strconv.Itoa(status)).Inc()
}
