// Package metrics holds the prometheus collectors of the animation runtime.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "animgraph"

// Metrics is the collector set of one animator.
// A nil *Metrics records nothing, so callers never need to check.
type Metrics struct {
	// transitionsFired counts transitions fired by state-machine instances.
	// Labels: graph, state_machine
	transitionsFired *prometheus.CounterVec

	// statesPurged counts animation states retired after blending out.
	// Labels: graph, state_machine
	statesPurged *prometheus.CounterVec

	// eventsRaised counts clip events crossed during sampling.
	// Labels: graph
	eventsRaised *prometheus.CounterVec

	// staleSamplers counts sampler list entries dropped for receiving no weight.
	staleSamplers prometheus.Counter

	// instances tracks the number of live graph instances.
	instances prometheus.Gauge

	// stepDuration measures each ordered frame step across all instances.
	// Labels: step
	stepDuration *prometheus.HistogramVec

	// frameDuration measures a whole Update call.
	frameDuration prometheus.Histogram
}

// New creates the collector set and registers it with reg.
// A nil reg creates unregistered collectors.
//
// Parameters:
//   - reg: the registerer, typically prometheus.DefaultRegisterer or a test registry
//
// Returns:
//   - *Metrics: the collectors
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		transitionsFired: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state_machine",
			Name:      "transitions_fired_total",
			Help:      "Total transitions fired by state machine instances",
		}, []string{"graph", "state_machine"}),
		statesPurged: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state_machine",
			Name:      "states_purged_total",
			Help:      "Total animation states retired after blending out",
		}, []string{"graph", "state_machine"}),
		eventsRaised: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "events_raised_total",
			Help:      "Total clip events raised",
		}, []string{"graph"}),
		staleSamplers: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "stale_samplers_total",
			Help:      "Total clip samplers dropped for receiving no weight",
		}),
		instances: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "animator",
			Name:      "instances",
			Help:      "Number of live animation graph instances",
		}),
		stepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "animator",
			Name:      "step_duration_seconds",
			Help:      "Duration of one frame step across all instances",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01},
		}, []string{"step"}),
		frameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "animator",
			Name:      "frame_duration_seconds",
			Help:      "Duration of a whole animator update",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033},
		}),
	}
}

// TransitionFired records a fired transition.
func (m *Metrics) TransitionFired(graph, stateMachine string) {
	if m == nil {
		return
	}
	m.transitionsFired.WithLabelValues(graph, stateMachine).Inc()
}

// StatesPurged records n retired states.
func (m *Metrics) StatesPurged(graph, stateMachine string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.statesPurged.WithLabelValues(graph, stateMachine).Add(float64(n))
}

// EventsRaised records n raised clip events.
func (m *Metrics) EventsRaised(graph string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.eventsRaised.WithLabelValues(graph).Add(float64(n))
}

// StaleSamplers records n dropped samplers.
func (m *Metrics) StaleSamplers(n int) {
	if m == nil || n == 0 {
		return
	}
	m.staleSamplers.Add(float64(n))
}

// SetInstances sets the live instance gauge.
func (m *Metrics) SetInstances(n int) {
	if m == nil {
		return
	}
	m.instances.Set(float64(n))
}

// ObserveStep records the duration of one frame step in seconds.
func (m *Metrics) ObserveStep(step string, seconds float64) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(step).Observe(seconds)
}

// ObserveFrame records the duration of a whole update in seconds.
func (m *Metrics) ObserveFrame(seconds float64) {
	if m == nil {
		return
	}
	m.frameDuration.Observe(seconds)
}
