// Package animator runs every animation graph instance of a host through the ordered
// per-frame pipeline.
//
// Each frame is a fixed sequence of steps. Within a step every instance, or every
// state-machine instance, is independent, so the step is forked onto a worker pool and
// joined before the next step starts:
//
//  1. sync: top-level weight propagation, parameter copy, state-machine total weights
//  2. evaluate: transition evaluation on every state-machine instance
//  3. init: node rows for states created in step 2
//  4. blend: request consumption, state aging, weight blending, purging
//  5. propagate: state weights into node rows
//  6. advance: clip time advance and contribution collection
//  7. aggregate: sampler list upsert and stale cleanup
//  8. sample: pose blending, event raising, root motion
package animator

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Carmen-Shannon/oxy-animgraph/common"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/blend"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/graph"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/sampler"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/state_machine"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/metrics"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/model"
)

// Runtime API errors.
var (
	ErrInstanceNotFound   = errors.New("animation instance not found")
	ErrParameterNotFound  = errors.New("animation parameter not found")
	ErrMaxInstances       = errors.New("animator instance limit reached")
	ErrClipSourceMismatch = errors.New("clip source does not match graph clip table")
)

// Frame step names, as reported to metrics.
const (
	stepSync      = "sync"
	stepEvaluate  = "evaluate"
	stepInit      = "init"
	stepBlend     = "blend"
	stepPropagate = "propagate"
	stepAdvance   = "advance"
	stepAggregate = "aggregate"
	stepSample    = "sample"
)

// ClipSource is the keyframe data an instance samples. Its clip table must line up with
// the compiled graph's. model.ClipSet implements it.
type ClipSource interface {
	sampler.ClipSource
	ClipCount() int
	ClipLength(index uint16) float32
}

var _ ClipSource = &model.ClipSet{}

// animator is the implementation of the Animator interface.
type animator struct {
	mu *sync.RWMutex

	logger  *slog.Logger
	metrics *metrics.Metrics

	instances []*instance
	index     map[InstanceID]int
	nextID    InstanceID

	maxInstances int
	workers      int
	pool         worker.DynamicWorkerPool
	releaseOnce  sync.Once

	// machineRefs is the flat per-frame list of every state-machine instance.
	machineRefs []machineRef
}

type machineRef struct {
	inst    *instance
	machine *state_machine.Instance
}

// Animator evaluates animation graph instances.
//
// Host code adds instances, writes their parameters between frames, calls Update once
// per frame and then reads poses, events and root motion. All methods are safe for
// concurrent use; Update holds an exclusive lock for the whole frame.
type Animator interface {
	// AddInstance creates an instance of a compiled graph.
	//
	// Parameters:
	//   - g: the compiled graph, shared read-only across instances
	//   - clips: keyframe data whose clip table matches g.Clips in count and length
	//   - options: InstanceOption functions to configure the instance
	//
	// Returns:
	//   - InstanceID: the id of the new instance
	//   - error: ErrMaxInstances or ErrClipSourceMismatch
	AddInstance(g *graph.Graph, clips ClipSource, options ...InstanceOption) (InstanceID, error)

	// RemoveInstance drops an instance.
	//
	// Parameters:
	//   - id: the instance to remove
	//
	// Returns:
	//   - error: ErrInstanceNotFound if id is unknown
	RemoveInstance(id InstanceID) error

	// InstanceCount returns the number of live instances.
	InstanceCount() int

	// SetBool writes a bool parameter by name hash.
	SetBool(id InstanceID, hash uint64, value bool) error
	// SetInt writes an int parameter by name hash.
	SetInt(id InstanceID, hash uint64, value int32) error
	// SetFloat writes a float parameter by name hash.
	SetFloat(id InstanceID, hash uint64, value float32) error
	// SetBoolByName writes a bool parameter by name.
	SetBoolByName(id InstanceID, name string, value bool) error
	// SetIntByName writes an int parameter by name.
	SetIntByName(id InstanceID, name string, value int32) error
	// SetFloatByName writes a float parameter by name.
	SetFloatByName(id InstanceID, name string, value float32) error

	// Update advances every instance by one frame.
	// A runtime invariant violation in any instance panics on the calling goroutine
	// after the current step has joined.
	//
	// Parameters:
	//   - deltaTime: frame time in seconds
	Update(deltaTime float32)

	// Pose returns the instance's blended pose. The pose is owned by the animator and
	// rewritten by every Update.
	Pose(id InstanceID) (*sampler.Pose, error)

	// Events returns a copy of the events raised during the last Update.
	Events(id InstanceID) ([]sampler.RaisedEvent, error)

	// RootMotion returns the root-motion delta of the last Update.
	RootMotion(id InstanceID) (sampler.RootMotion, error)

	// Transform returns the instance's entity transform.
	Transform(id InstanceID) (model.Transform, error)

	// SetTransform overwrites the instance's entity transform.
	SetTransform(id InstanceID, t model.Transform) error

	// Samplers returns a copy of the instance's aggregated sampler list.
	Samplers(id InstanceID) ([]blend.ClipSampler, error)

	// StateMachine returns a snapshot of one of the instance's state machines.
	//
	// Parameters:
	//   - id: the instance
	//   - index: the machine's index in the compiled graph
	//
	// Returns:
	//   - StateMachineView: the snapshot
	//   - error: ErrInstanceNotFound if id or index is unknown
	StateMachine(id InstanceID, index uint8) (StateMachineView, error)

	// Release stops the worker pool. The animator must not be updated afterwards.
	Release()
}

var _ Animator = &animator{}

// NewAnimator creates a new Animator with the given options.
//
// Parameters:
//   - options: variadic list of AnimatorBuilderOption functions to configure the animator
//
// Returns:
//   - Animator: the configured animator
func NewAnimator(options ...AnimatorBuilderOption) Animator {
	a := &animator{
		mu:      &sync.RWMutex{},
		logger:  slog.Default(),
		index:   make(map[InstanceID]int),
		nextID:  1,
		workers: max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(a)
	}

	// Created after options so WithWorkers can override the default.
	a.pool = worker.NewDynamicWorkerPool(a.workers, 256, 1*time.Second)
	return a
}

func (a *animator) AddInstance(g *graph.Graph, clips ClipSource, options ...InstanceOption) (InstanceID, error) {
	if g == nil {
		return 0, errors.New("add instance: nil graph")
	}
	if clips == nil || clips.ClipCount() != len(g.Clips) {
		got := 0
		if clips != nil {
			got = clips.ClipCount()
		}
		return 0, fmt.Errorf("%w: graph %s has %d clips, source has %d", ErrClipSourceMismatch, g.Name, len(g.Clips), got)
	}
	// Events wrap at the compiled length and poses at the source's, so they must agree.
	for i, c := range g.Clips {
		if d := clips.ClipLength(uint16(i)) - c.Length; d > common.Epsilon || d < -common.Epsilon {
			return 0, fmt.Errorf("%w: graph %s clip %q is %gs, source clip is %gs",
				ErrClipSourceMismatch, g.Name, c.Name, c.Length, clips.ClipLength(uint16(i)))
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.maxInstances > 0 && len(a.instances) >= a.maxInstances {
		return 0, fmt.Errorf("%w: %d", ErrMaxInstances, a.maxInstances)
	}

	id := a.nextID
	a.nextID++
	a.index[id] = len(a.instances)
	a.instances = append(a.instances, newInstance(id, g, clips, options...))
	a.metrics.SetInstances(len(a.instances))

	a.logger.Debug("animation instance added", "instance", uint64(id), "graph", g.Name)
	return id, nil
}

func (a *animator) RemoveInstance(id InstanceID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	i, ok := a.index[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrInstanceNotFound, id)
	}
	last := len(a.instances) - 1
	if i != last {
		a.instances[i] = a.instances[last]
		a.index[a.instances[i].id] = i
	}
	a.instances[last] = nil
	a.instances = a.instances[:last]
	delete(a.index, id)
	a.metrics.SetInstances(len(a.instances))
	return nil
}

func (a *animator) InstanceCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.instances)
}

// lookup returns the instance for id. The caller holds a.mu.
func (a *animator) lookup(id InstanceID) (*instance, error) {
	i, ok := a.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInstanceNotFound, id)
	}
	return a.instances[i], nil
}

// setParameter runs set against the instance's store under the write lock.
func (a *animator) setParameter(id InstanceID, what string, set func(inst *instance) bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	inst, err := a.lookup(id)
	if err != nil {
		return err
	}
	if !set(inst) {
		return fmt.Errorf("%w: %s in graph %s", ErrParameterNotFound, what, inst.graph.Name)
	}
	return nil
}

func (a *animator) SetBool(id InstanceID, hash uint64, value bool) error {
	return a.setParameter(id, fmt.Sprintf("bool %#x", hash), func(inst *instance) bool {
		return inst.params.SetBool(hash, value)
	})
}

func (a *animator) SetInt(id InstanceID, hash uint64, value int32) error {
	return a.setParameter(id, fmt.Sprintf("int %#x", hash), func(inst *instance) bool {
		return inst.params.SetInt(hash, value)
	})
}

func (a *animator) SetFloat(id InstanceID, hash uint64, value float32) error {
	return a.setParameter(id, fmt.Sprintf("float %#x", hash), func(inst *instance) bool {
		return inst.params.SetFloat(hash, value)
	})
}

func (a *animator) SetBoolByName(id InstanceID, name string, value bool) error {
	return a.setParameter(id, "bool "+name, func(inst *instance) bool {
		return inst.params.SetBool(common.NameHash(name), value)
	})
}

func (a *animator) SetIntByName(id InstanceID, name string, value int32) error {
	return a.setParameter(id, "int "+name, func(inst *instance) bool {
		return inst.params.SetInt(common.NameHash(name), value)
	})
}

func (a *animator) SetFloatByName(id InstanceID, name string, value float32) error {
	return a.setParameter(id, "float "+name, func(inst *instance) bool {
		return inst.params.SetFloat(common.NameHash(name), value)
	})
}

func (a *animator) Update(deltaTime float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.instances) == 0 {
		return
	}
	start := time.Now()

	a.forEachInstance(stepSync, func(inst *instance) {
		inst.syncMachines()
	})

	a.machineRefs = a.machineRefs[:0]
	for _, inst := range a.instances {
		for _, m := range inst.machines {
			a.machineRefs = append(a.machineRefs, machineRef{inst: inst, machine: m})
		}
	}

	a.forEachMachine(stepEvaluate, func(ref machineRef) {
		ev := ref.machine.Evaluate()
		if ev.Fired < 0 {
			return
		}
		machine := ref.machine.Machine()
		a.metrics.TransitionFired(ref.inst.graph.Name, machine.Name)
		a.logger.Debug("transition fired",
			"instance", uint64(ref.inst.id),
			"state_machine", machine.Name,
			"from", machine.States[ev.From].Name,
			"to", machine.States[ev.To].Name,
		)
	})

	a.forEachMachine(stepInit, func(ref machineRef) {
		ref.machine.InitPendingNodes()
	})

	a.forEachMachine(stepBlend, func(ref machineRef) {
		res := ref.machine.Blend(deltaTime)
		if len(res.Purged) == 0 {
			return
		}
		machine := ref.machine.Machine()
		a.metrics.StatesPurged(ref.inst.graph.Name, machine.Name, len(res.Purged))
		for _, s := range res.Purged {
			a.logger.Debug("state purged",
				"instance", uint64(ref.inst.id),
				"state_machine", machine.Name,
				"state", machine.States[s].Name,
			)
		}
	})

	a.forEachMachine(stepPropagate, func(ref machineRef) {
		ref.machine.Propagate()
	})

	weights := blend.NewWeightMap(len(a.instances))
	a.forEachInstance(stepAdvance, func(inst *instance) {
		inst.advanceClips(deltaTime, weights)
	})

	a.forEachInstance(stepAggregate, func(inst *instance) {
		a.metrics.StaleSamplers(inst.aggregate(weights))
	})

	a.forEachInstance(stepSample, func(inst *instance) {
		a.metrics.EventsRaised(inst.graph.Name, inst.sample())
	})

	a.metrics.ObserveFrame(time.Since(start).Seconds())
}

func (a *animator) forEachInstance(step string, fn func(inst *instance)) {
	a.fork(step, len(a.instances), func(i int) {
		fn(a.instances[i])
	})
}

func (a *animator) forEachMachine(step string, fn func(ref machineRef)) {
	a.fork(step, len(a.machineRefs), func(i int) {
		fn(a.machineRefs[i])
	})
}

// fork runs fn for every index in [0, n) on the worker pool and waits for all of them.
// The first panic raised by a task is re-raised here once the step has joined.
func (a *animator) fork(step string, n int, fn func(i int)) {
	if n == 0 {
		return
	}
	start := time.Now()

	var wg sync.WaitGroup
	var faultOnce sync.Once
	var fault any

	wg.Add(n)
	for i := 0; i < n; i++ {
		idx := i
		a.pool.SubmitTask(worker.Task{
			ID:      idx,
			Payload: step,
			Do: func() (any, error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						faultOnce.Do(func() { fault = r })
					}
				}()
				fn(idx)
				return nil, nil
			},
		})
	}
	wg.Wait()

	a.metrics.ObserveStep(step, time.Since(start).Seconds())
	if fault != nil {
		panic(fmt.Sprintf("animator: %s step: %v", step, fault))
	}
}

func (a *animator) Pose(id InstanceID) (*sampler.Pose, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	inst, err := a.lookup(id)
	if err != nil {
		return nil, err
	}
	return inst.pose, nil
}

func (a *animator) Events(id InstanceID) ([]sampler.RaisedEvent, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	inst, err := a.lookup(id)
	if err != nil {
		return nil, err
	}
	return append([]sampler.RaisedEvent(nil), inst.events...), nil
}

func (a *animator) RootMotion(id InstanceID) (sampler.RootMotion, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	inst, err := a.lookup(id)
	if err != nil {
		return sampler.IdentityRootMotion(), err
	}
	return inst.rootMotion, nil
}

func (a *animator) Transform(id InstanceID) (model.Transform, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	inst, err := a.lookup(id)
	if err != nil {
		return model.IdentityTransform(), err
	}
	return inst.transform, nil
}

func (a *animator) SetTransform(id InstanceID, t model.Transform) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	inst, err := a.lookup(id)
	if err != nil {
		return err
	}
	inst.transform = t
	return nil
}

func (a *animator) Samplers(id InstanceID) ([]blend.ClipSampler, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	inst, err := a.lookup(id)
	if err != nil {
		return nil, err
	}
	return append([]blend.ClipSampler(nil), inst.samplers...), nil
}

func (a *animator) StateMachine(id InstanceID, index uint8) (StateMachineView, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	inst, err := a.lookup(id)
	if err != nil {
		return StateMachineView{}, err
	}
	if int(index) >= len(inst.machines) {
		return StateMachineView{}, fmt.Errorf("%w: state machine %d of instance %d", ErrInstanceNotFound, index, id)
	}
	return newStateMachineView(inst.machines[index]), nil
}

func (a *animator) Release() {
	a.releaseOnce.Do(func() {
		a.pool.Stop()
	})
}
