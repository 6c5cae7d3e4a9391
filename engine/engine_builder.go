package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-animgraph/engine/animator"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithAnimator sets the animator advanced on every tick.
//
// Parameters:
//   - a: the animator to drive
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAnimator(a animator.Animator) EngineBuilderOption {
	return func(e *engine) {
		e.animator = a
	}
}

// WithLogger sets the logger used for panic reports and profiler output.
//
// Parameters:
//   - logger: the structured logger
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithFixedDelta makes every tick report the nominal tick interval instead of the
// measured wall-clock time, so runs are reproducible.
//
// Parameters:
//   - fixed: if true, delta time is 1/tick rate
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFixedDelta(fixed bool) EngineBuilderOption {
	return func(e *engine) {
		e.fixedDelta = fixed
	}
}

// WithMaxTicks stops the engine after n ticks. 0 runs until Quit.
//
// Parameters:
//   - n: the tick limit
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxTicks(n int) EngineBuilderOption {
	return func(e *engine) {
		e.maxTicks = n
	}
}
