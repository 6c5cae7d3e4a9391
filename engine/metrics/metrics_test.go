package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	out := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[mf.GetName()] += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[mf.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.TransitionFired("hero", "locomotion")
	m.TransitionFired("hero", "locomotion")
	m.StatesPurged("hero", "locomotion", 3)
	m.StatesPurged("hero", "locomotion", 0)
	m.EventsRaised("hero", 2)
	m.StaleSamplers(4)
	m.SetInstances(7)
	m.ObserveStep("blend", 0.0001)
	m.ObserveFrame(0.002)

	got := gather(t, reg)
	assert.Equal(t, 2.0, got["animgraph_state_machine_transitions_fired_total"])
	assert.Equal(t, 3.0, got["animgraph_state_machine_states_purged_total"])
	assert.Equal(t, 2.0, got["animgraph_sampler_events_raised_total"])
	assert.Equal(t, 4.0, got["animgraph_sampler_stale_samplers_total"])
	assert.Equal(t, 7.0, got["animgraph_animator_instances"])
	assert.Equal(t, 1.0, got["animgraph_animator_step_duration_seconds"])
	assert.Equal(t, 1.0, got["animgraph_animator_frame_duration_seconds"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TransitionFired("g", "sm")
		m.StatesPurged("g", "sm", 1)
		m.EventsRaised("g", 1)
		m.StaleSamplers(1)
		m.SetInstances(1)
		m.ObserveStep("s", 1)
		m.ObserveFrame(1)
	})
}
