package animator

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-animgraph/engine/metrics"
)

// AnimatorBuilderOption is a functional option for configuring an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithWorkers is an option builder that sets the number of pooled workers used for the frame steps.
//
// Parameters:
//   - workers: the worker count; values below 1 keep the default of NumCPU-1
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the worker count option to an animator
func WithWorkers(workers int) AnimatorBuilderOption {
	return func(a *animator) {
		if workers > 0 {
			a.workers = workers
		}
	}
}

// WithMaxInstances is an option builder that caps the number of instances the Animator accepts.
//
// Parameters:
//   - maxInstances: the instance limit; 0 means unlimited
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the max instances option to an animator
func WithMaxInstances(maxInstances int) AnimatorBuilderOption {
	return func(a *animator) {
		a.maxInstances = maxInstances
	}
}

// WithLogger is an option builder that sets the Animator's logger.
//
// Parameters:
//   - logger: the structured logger; nil keeps slog.Default()
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the logger option to an animator
func WithLogger(logger *slog.Logger) AnimatorBuilderOption {
	return func(a *animator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics is an option builder that attaches prometheus collectors to the Animator.
//
// Parameters:
//   - m: the collector set created with metrics.New
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the metrics option to an animator
func WithMetrics(m *metrics.Metrics) AnimatorBuilderOption {
	return func(a *animator) {
		a.metrics = m
	}
}
