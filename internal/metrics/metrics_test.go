package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := MustNewMetrics(reg)

	m.IncRequest("datetime")
	m.IncRequest("datetime")
	m.IncOutcome("both_scheduled")
	m.IncReminder("10m0s", "created")
	m.IncAPIError("reminders", 401)
	m.ObserveRequest("datetime", 0.01)

	require.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("datetime")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues("both_scheduled")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.reminders.WithLabelValues("10m0s", "created")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.apiErrors.WithLabelValues("reminders", "401")))
	require.Equal(t, 1, testutil.CollectAndCount(m.latency))
}

func TestReRegistrationReusesCollectors(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	a := MustNewMetrics(reg)
	b := MustNewMetrics(reg)

	a.IncRequest("launch")
	b.IncRequest("launch")
	require.Equal(t, 2.0, testutil.ToFloat64(b.requests.WithLabelValues("launch")))
}

func TestNilSafe(t *testing.T) {
	t.Parallel()
	var m *Metrics
	require.NotPanics(t, func() {
		m.IncRequest("x")
		m.ObserveRequest("x", 1)
		m.IncOutcome("x")
		m.IncReminder("x", "y")
		m.IncAPIError("x", 500)
	})
}
