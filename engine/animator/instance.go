package animator

import (
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/blend"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/graph"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/node_state"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/parameter"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/sampler"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/state_machine"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/model"
)

// InstanceID identifies one graph instance inside an Animator.
type InstanceID uint64

// InstanceOption is a functional option for configuring an instance in AddInstance.
type InstanceOption func(*instance)

// WithRootMotionMode is an option builder that selects how the instance's root motion is handled.
//
// Parameters:
//   - mode: Disabled, Auto or Manual
//
// Returns:
//   - InstanceOption: a function that applies the root motion mode to an instance
func WithRootMotionMode(mode sampler.RootMotionMode) InstanceOption {
	return func(i *instance) {
		i.rootMode = mode
	}
}

// WithEvents is an option builder that enables or disables clip event raising for the instance.
//
// Parameters:
//   - enabled: false to skip event raising entirely
//
// Returns:
//   - InstanceOption: a function that applies the event option to an instance
func WithEvents(enabled bool) InstanceOption {
	return func(i *instance) {
		i.eventsEnabled = enabled
	}
}

// WithTransform is an option builder that sets the instance's starting transform.
//
// Parameters:
//   - t: the initial entity transform
//
// Returns:
//   - InstanceOption: a function that applies the transform to an instance
func WithTransform(t model.Transform) InstanceOption {
	return func(i *instance) {
		i.transform = t
	}
}

// instance is one entity playing a compiled graph.
type instance struct {
	id    InstanceID
	graph *graph.Graph
	clips ClipSource

	params   *parameter.Store
	nodes    node_state.Table
	machines []*state_machine.Instance

	samplers   []blend.ClipSampler
	pose       *sampler.Pose
	events     []sampler.RaisedEvent
	rootMotion sampler.RootMotion
	transform  model.Transform

	rootMode      sampler.RootMotionMode
	eventsEnabled bool
}

func newInstance(id InstanceID, g *graph.Graph, clips ClipSource, options ...InstanceOption) *instance {
	inst := &instance{
		id:            id,
		graph:         g,
		clips:         clips,
		params:        parameter.NewStore(&g.Parameters),
		machines:      make([]*state_machine.Instance, len(g.StateMachines)),
		pose:          sampler.NewPose(clips.BoneCount()),
		rootMotion:    sampler.IdentityRootMotion(),
		transform:     model.IdentityTransform(),
		eventsEnabled: true,
	}
	for _, option := range options {
		option(inst)
	}

	inst.nodes.Populate(node_state.GraphOwner, &g.Nodes)
	for i := range g.StateMachines {
		inst.machines[i] = state_machine.NewInstance(uint8(i), &g.StateMachines[i], &g.Parameters)
	}
	return inst
}

// syncMachines pushes the top-level graph weight into its node rows, copies the
// parameters into every machine and recomputes every machine's total weight from the
// state-machine node rows that reference it. Rows owned by machines still carry last
// frame's weights, so nested machines follow their parent one frame late.
func (inst *instance) syncMachines() {
	inst.nodes.Propagate(node_state.GraphOwner, 1)

	for _, m := range inst.machines {
		m.Weight = 0
		m.Params.CopyFrom(inst.params)
	}
	inst.addMachineWeights(inst.nodes.StateMachines)
	for _, m := range inst.machines {
		inst.addMachineWeights(m.Nodes.StateMachines)
	}
}

func (inst *instance) addMachineWeights(rows []node_state.StateMachineNodeState) {
	for i := range rows {
		inst.machines[rows[i].StateMachineIndex].Weight += rows[i].Weight
	}
}

// advanceClips moves clip time forward on the top-level table and every awake machine,
// then offers the weighted clip rows to the frame's weight map.
func (inst *instance) advanceClips(deltaTime float32, weights *blend.WeightMap) {
	inst.nodes.AdvanceClips(deltaTime)
	contributions := blend.Collect(nil, 0, &inst.nodes)

	for _, m := range inst.machines {
		if m.Dormant() {
			continue
		}
		m.Nodes.AdvanceClips(deltaTime)
		contributions = blend.Collect(contributions, int(m.Index())+1, &m.Nodes)
	}
	weights.Add(uint64(inst.id), contributions...)
}

// aggregate rebuilds the sampler list from this frame's contributions.
//
// Returns:
//   - int: the number of stale samplers dropped
func (inst *instance) aggregate(weights *blend.WeightMap) int {
	var stale int
	inst.samplers, stale = blend.Aggregate(inst.samplers, weights.Contributions(uint64(inst.id)))
	return stale
}

// sample blends the pose, raises events and computes root motion.
//
// Returns:
//   - int: the number of events raised
func (inst *instance) sample() int {
	sampler.BlendPose(inst.pose, inst.samplers, inst.clips)

	inst.events = inst.events[:0]
	if inst.eventsEnabled {
		inst.events = sampler.RaiseEvents(inst.events, inst.samplers, inst.clips)
	}

	inst.rootMotion = sampler.IdentityRootMotion()
	if inst.rootMode != sampler.RootMotionDisabled {
		inst.rootMotion = sampler.ComputeRootMotion(inst.samplers, inst.clips)
		if inst.rootMode == sampler.RootMotionAuto {
			inst.rootMotion.Apply(&inst.transform)
		}
	}
	return len(inst.events)
}
