package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/compiler"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animator"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/model"
	"github.com/Carmen-Shannon/oxy-animgraph/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWithTimeout(t *testing.T, e Engine) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		e.Quit()
		t.Fatal("engine did not stop")
	}
}

func TestMaxTicksWithFixedDelta(t *testing.T) {
	var ticks atomic.Int32
	var deltas []float32

	e := NewEngine(
		WithLogger(logging.NewNop()),
		WithTickRate(500),
		WithFixedDelta(true),
		WithMaxTicks(5),
	)
	e.SetTickCallback(func(dt float32) {
		ticks.Add(1)
		deltas = append(deltas, dt)
	})
	runWithTimeout(t, e)

	assert.Equal(t, int32(5), ticks.Load())
	for _, dt := range deltas {
		assert.InDelta(t, 0.002, dt, 1e-6)
	}
}

func TestQuitFromCallback(t *testing.T) {
	var ticks atomic.Int32
	var e Engine
	e = NewEngine(WithLogger(logging.NewNop()), WithTickRate(500))
	e.SetTickCallback(func(dt float32) {
		if ticks.Add(1) == 3 {
			e.Quit()
		}
	})
	runWithTimeout(t, e)
	assert.Equal(t, int32(3), ticks.Load())

	// Quit after stop is a no-op.
	assert.NotPanics(t, e.Quit)
}

func TestTickPanicStopsEngine(t *testing.T) {
	e := NewEngine(WithLogger(logging.NewNop()), WithTickRate(500))
	e.SetTickCallback(func(dt float32) {
		panic("boom")
	})
	runWithTimeout(t, e)
}

func TestEngineDrivesAnimator(t *testing.T) {
	g, err := compiler.Compile(&compiler.Asset{
		Name:  "idle",
		Clips: []compiler.ClipAsset{{Name: "idle", Length: 2}},
		Nodes: []compiler.NodeAsset{
			{ID: "clip", Kind: compiler.NodeKindClip, Clip: "idle", Loop: true},
			{ID: "out", Kind: compiler.NodeKindFinalPose},
		},
		Edges: []compiler.EdgeAsset{{From: "clip", To: "out"}},
	})
	require.NoError(t, err)

	skeleton, err := model.NewSkeleton([]model.Bone{{Name: "root", ParentIndex: -1}})
	require.NoError(t, err)
	clips, err := animator.ClipSetForGraph(g, skeleton, nil)
	require.NoError(t, err)

	anim := animator.NewAnimator(animator.WithWorkers(1), animator.WithLogger(logging.NewNop()))
	defer anim.Release()
	id, err := anim.AddInstance(g, clips)
	require.NoError(t, err)

	e := NewEngine(
		WithLogger(logging.NewNop()),
		WithAnimator(anim),
		WithTickRate(400),
		WithFixedDelta(true),
		WithMaxTicks(4),
		WithProfiling(true),
	)
	assert.Equal(t, anim, e.Animator())
	runWithTimeout(t, e)

	samplers, err := anim.Samplers(id)
	require.NoError(t, err)
	require.Len(t, samplers, 1)
	assert.InDelta(t, 0.01, samplers[0].Time, 1e-6)
}

func TestSetTickRateWhileRunning(t *testing.T) {
	var ticks atomic.Int32
	e := NewEngine(WithLogger(logging.NewNop()), WithTickRate(1), WithMaxTicks(2))
	e.SetTickCallback(func(dt float32) { ticks.Add(1) })

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	// At 1Hz two ticks would take two seconds; speeding up finishes well before.
	time.Sleep(50 * time.Millisecond)
	e.SetTickRate(1000)

	select {
	case <-done:
	case <-time.After(1500 * time.Millisecond):
		e.Quit()
		t.Fatal("tick rate change was not applied")
	}
	assert.Equal(t, int32(2), ticks.Load())
}
