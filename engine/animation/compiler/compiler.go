// Package compiler turns authored animation graph assets into immutable graph.Graph
// values.
//
// An asset is a flat list of nodes with owner references and a list of edges. The
// compiler validates the asset, assigns missing clip config ids on a private copy,
// resolves ownership and edges into an index arena, then walks the arena once to emit
// the compiled node graphs, state machines, parameter definitions and clip table.
package compiler

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/Carmen-Shannon/oxy-animgraph/common"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/buffer_id"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/graph"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/parameter"
)

// assetNamespace seeds the name-derived AssetID of compiled graphs.
var assetNamespace = uuid.MustParse("6f1c3a52-8d0e-4b7a-9a54-2f0e6c1d9b33")

// maxStateMachines is the size of the byte-addressed state machine table.
const maxStateMachines = math.MaxUint8 + 1

// compiler is the implementation of the Compiler interface.
type compiler struct {
	logger *slog.Logger
}

// Compiler converts authored assets into compiled graphs.
type Compiler interface {
	// Compile validates a and produces its compiled graph. The asset itself is never
	// modified; clip config ids are assigned on a private copy.
	//
	// Parameters:
	//   - a: the authored asset
	//
	// Returns:
	//   - *graph.Graph: the compiled graph
	//   - error: an error wrapping one of the package's sentinel errors
	Compile(a *Asset) (*graph.Graph, error)
}

var _ Compiler = &compiler{}

// NewCompiler creates a new Compiler with the given options.
//
// Parameters:
//   - options: variadic list of CompilerBuilderOption functions to configure the compiler
//
// Returns:
//   - Compiler: the configured compiler
func NewCompiler(options ...CompilerBuilderOption) Compiler {
	c := &compiler{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Compile compiles a with a default Compiler.
func Compile(a *Asset) (*graph.Graph, error) {
	return NewCompiler().Compile(a)
}

func (c *compiler) Compile(a *Asset) (*graph.Graph, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil asset", ErrInvalidAsset)
	}
	if err := Validate(a); err != nil {
		return nil, err
	}

	work := a.Clone()
	if err := AssignConfigIDs(work); err != nil {
		return nil, err
	}
	ar, err := buildArena(work)
	if err != nil {
		return nil, err
	}

	run := &compileRun{
		asset:      work,
		arena:      ar,
		smIndex:    map[int]uint8{},
		clipByName: map[string]uint16{},
		out: &graph.Graph{
			AssetID: uuid.NewSHA1(assetNamespace, []byte(work.Name)),
			Name:    work.Name,
		},
	}
	if err := run.compile(); err != nil {
		return nil, fmt.Errorf("compile %s: %w", work.Name, err)
	}

	g := run.out
	c.logger.Info("compiled animation graph",
		"asset", g.Name,
		"asset_id", g.AssetID.String(),
		"state_machines", len(g.StateMachines),
		"clips", len(g.Clips),
		"clip_nodes", run.clipNodes,
		"parameters", len(g.Parameters.Bools)+len(g.Parameters.Ints)+len(g.Parameters.Floats),
	)
	for i := range g.StateMachines {
		sm := &g.StateMachines[i]
		c.logger.Debug("compiled state machine",
			"asset", g.Name,
			"index", i,
			"name", sm.Name,
			"states", len(sm.States),
			"default_state", sm.States[sm.DefaultState].Name,
		)
	}
	return g, nil
}

// compileRun is the state of one Compile call.
type compileRun struct {
	asset      *Asset
	arena      *arena
	out        *graph.Graph
	smIndex    map[int]uint8
	clipByName map[string]uint16
	clipNodes  int
}

func (r *compileRun) compile() error {
	if err := r.parameters(); err != nil {
		return err
	}
	if err := r.clips(); err != nil {
		return err
	}

	// State machines are numbered in declaration order across the whole tree.
	for i := range r.arena.nodes {
		if r.arena.kind(i) != NodeKindStateMachine {
			continue
		}
		if len(r.smIndex) == maxStateMachines {
			return fmt.Errorf("%w: more than %d state machines", ErrInvalidAsset, maxStateMachines)
		}
		r.smIndex[i] = uint8(len(r.smIndex))
	}

	r.out.StateMachines = make([]graph.StateMachine, len(r.smIndex))
	nodes, err := r.nodeGraph(-1)
	if err != nil {
		return err
	}
	r.out.Nodes = nodes

	for i := range r.arena.nodes {
		idx, ok := r.smIndex[i]
		if !ok {
			continue
		}
		sm, err := r.stateMachine(i)
		if err != nil {
			return err
		}
		r.out.StateMachines[idx] = sm
	}
	return nil
}

// parameters converts the authored parameter list into hashed definitions.
func (r *compileRun) parameters() error {
	defs := &r.out.Parameters
	seen := map[ParameterType]map[uint64]string{}
	for _, p := range r.asset.Parameters {
		h := common.NameHash(p.Name)
		if seen[p.Type] == nil {
			seen[p.Type] = map[uint64]string{}
		}
		if prev, dup := seen[p.Type][h]; dup {
			return fmt.Errorf("%w: %s parameter %q collides with %q", ErrInvalidAsset, p.Type, p.Name, prev)
		}
		seen[p.Type][h] = p.Name

		switch p.Type {
		case ParameterBool:
			v, err := boolValue(p.Default)
			if err != nil {
				return fmt.Errorf("%w: default of %q: %v", ErrInvalidAsset, p.Name, err)
			}
			defs.Bools = append(defs.Bools, parameter.Definition[bool]{Hash: h, Name: p.Name, Default: v})
		case ParameterInt:
			v, err := intValue(p.Default)
			if err != nil {
				return fmt.Errorf("%w: default of %q: %v", ErrInvalidAsset, p.Name, err)
			}
			defs.Ints = append(defs.Ints, parameter.Definition[int32]{Hash: h, Name: p.Name, Default: v})
		case ParameterFloat:
			v, err := floatValue(p.Default)
			if err != nil {
				return fmt.Errorf("%w: default of %q: %v", ErrInvalidAsset, p.Name, err)
			}
			defs.Floats = append(defs.Floats, parameter.Definition[float32]{Hash: h, Name: p.Name, Default: v})
		}
	}
	return nil
}

func (r *compileRun) clips() error {
	if len(r.asset.Clips) > math.MaxUint16+1 {
		return fmt.Errorf("%w: too many clips", ErrInvalidAsset)
	}
	for i, c := range r.asset.Clips {
		if _, dup := r.clipByName[c.Name]; dup {
			return fmt.Errorf("%w: duplicate clip %q", ErrInvalidAsset, c.Name)
		}
		r.clipByName[c.Name] = uint16(i)
		r.out.Clips = append(r.out.Clips, graph.Clip{Name: c.Name, Length: c.Length})
	}
	return nil
}

// nodeGraph compiles the clips, state machines and final pose owned by owner, which is
// a state arena index or -1 for the top-level graph.
func (r *compileRun) nodeGraph(owner int) (graph.NodeGraph, error) {
	var ng graph.NodeGraph
	where := "top-level graph"
	if owner >= 0 {
		where = fmt.Sprintf("state %q", r.arena.id(owner))
	}

	local := map[int]uint8{}
	for _, i := range r.arena.children(owner, NodeKindStateMachine) {
		local[i] = uint8(len(ng.StateMachines))
		ng.StateMachines = append(ng.StateMachines, graph.StateMachineNode{StateMachineIndex: r.smIndex[i]})
	}

	for _, i := range r.arena.children(owner, NodeKindClip) {
		n := r.arena.nodes[i].asset
		ci, ok := r.clipByName[n.Clip]
		if !ok {
			return ng, fmt.Errorf("%w: node %q plays %q", ErrUnknownClip, n.ID, n.Clip)
		}
		ng.Clips = append(ng.Clips, graph.SingleClipNode{
			ClipIndex:  ci,
			Loop:       n.Loop,
			Speed:      common.Coalesce(n.Speed, 1),
			ClipLength: r.out.Clips[ci].Length,
			ConfigID:   n.ConfigID,
		})
		r.clipNodes++
	}

	finals := r.arena.children(owner, NodeKindFinalPose)
	switch {
	case len(finals) == 0:
		return ng, fmt.Errorf("%w: %s", ErrFinalPoseMissing, where)
	case len(finals) > 1:
		return ng, fmt.Errorf("%w: %s has %d", ErrFinalPoseDuplicate, where, len(finals))
	}
	inputs := r.arena.nodes[finals[0]].inputs
	switch {
	case len(inputs) == 0:
		return ng, fmt.Errorf("%w: %s final pose %q has no input", ErrFinalPoseMissing, where, r.arena.id(finals[0]))
	case len(inputs) > 1:
		return ng, fmt.Errorf("%w: %s final pose %q has %d inputs", ErrInvalidAsset, where, r.arena.id(finals[0]), len(inputs))
	}

	src := inputs[0]
	switch r.arena.kind(src) {
	case NodeKindClip:
		ng.FinalPose.PoseLink = graph.PoseLink{
			NodeType: graph.NodeTypeSingleClip,
			LinkID:   buffer_id.New(r.arena.nodes[src].asset.ConfigID),
		}
	case NodeKindStateMachine:
		ng.FinalPose.PoseLink = graph.PoseLink{
			NodeType: graph.NodeTypeStateMachine,
			LinkID:   buffer_id.New(local[src]),
		}
	}
	return ng, nil
}

// stateMachine compiles the state machine at arena index sm.
func (r *compileRun) stateMachine(sm int) (graph.StateMachine, error) {
	node := r.arena.nodes[sm].asset
	out := graph.StateMachine{Name: common.Coalesce(node.Name, node.ID)}

	states := r.arena.children(sm, NodeKindState)
	if len(states) == 0 {
		return out, fmt.Errorf("%w: state machine %q has no states", ErrEntryMissing, node.ID)
	}
	if len(states) > math.MaxUint8+1 {
		return out, fmt.Errorf("%w: state machine %q has more than %d states", ErrInvalidAsset, node.ID, math.MaxUint8+1)
	}
	stateIndex := make(map[int]uint8, len(states))
	out.States = make([]graph.State, len(states))
	for si, s := range states {
		stateIndex[s] = uint8(si)
		a := r.arena.nodes[s].asset
		ng, err := r.nodeGraph(s)
		if err != nil {
			return out, err
		}
		out.States[si] = graph.State{Name: common.Coalesce(a.Name, a.ID), Nodes: ng}
	}

	entries := r.arena.children(sm, NodeKindEntry)
	switch {
	case len(entries) == 0:
		return out, fmt.Errorf("%w: state machine %q", ErrEntryMissing, node.ID)
	case len(entries) > 1:
		return out, fmt.Errorf("%w: state machine %q has %d entry nodes", ErrEntryAmbiguous, node.ID, len(entries))
	}
	targets := r.arena.nodes[entries[0]].outputs
	switch {
	case len(targets) == 0:
		return out, fmt.Errorf("%w: entry of %q is not connected", ErrEntryMissing, node.ID)
	case len(targets) > 1:
		return out, fmt.Errorf("%w: entry of %q has %d targets", ErrEntryAmbiguous, node.ID, len(targets))
	}
	out.DefaultState = stateIndex[targets[0]]

	for _, t := range r.arena.children(sm, NodeKindTransition) {
		tr, err := r.transition(t, stateIndex)
		if err != nil {
			return out, err
		}
		out.States[tr.From].Transitions = append(out.States[tr.From].Transitions, tr)
	}
	return out, nil
}

func (r *compileRun) transition(t int, stateIndex map[int]uint8) (graph.Transition, error) {
	an := &r.arena.nodes[t]
	n := an.asset
	if len(an.inputs) != 1 || len(an.outputs) != 1 {
		return graph.Transition{}, fmt.Errorf("%w: %q needs one from and one to state, has %d and %d",
			ErrMalformedTransition, n.ID, len(an.inputs), len(an.outputs))
	}
	from, to := an.inputs[0], an.outputs[0]
	if from == to {
		return graph.Transition{}, fmt.Errorf("%w: %q loops on state %q", ErrMalformedTransition, n.ID, r.arena.id(from))
	}

	tr := graph.Transition{
		From:       stateIndex[from],
		To:         stateIndex[to],
		Priority:   n.Priority,
		HasEndTime: n.HasEndTime,
		EndTime:    n.EndTime,
		Duration:   n.Duration,
	}
	if n.BlendMode == "cubic" {
		tr.Mode = graph.BlendModeCubic
	}
	for ci := range n.Conditions {
		cond, err := r.condition(&n.Conditions[ci], from)
		if err != nil {
			return tr, fmt.Errorf("transition %q condition %d: %w", n.ID, ci, err)
		}
		tr.Conditions = append(tr.Conditions, cond)
	}
	return tr, nil
}

// condition compiles one authored condition of a transition leaving fromState.
func (r *compileRun) condition(c *ConditionAsset, fromState int) (graph.Condition, error) {
	op, ok := graph.ParseCompareOp(common.Coalesce(c.Op, "=="))
	if !ok {
		return graph.Condition{}, fmt.Errorf("%w: operator %q", ErrInvalidAsset, c.Op)
	}
	defs := &r.out.Parameters
	h := common.NameHash(c.Parameter)

	switch c.Type {
	case ConditionBool:
		slot := defs.BoolIndex(h)
		if slot < 0 {
			return graph.Condition{}, fmt.Errorf("%w: bool %q", ErrUnknownParameter, c.Parameter)
		}
		v, err := boolValue(c.Value)
		if err != nil {
			return graph.Condition{}, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
		}
		return graph.Condition{Op: op, Value: graph.BoolCondition{ParameterIndex: slot, Value: v}}, nil

	case ConditionInt:
		slot := defs.IntIndex(h)
		if slot < 0 {
			return graph.Condition{}, fmt.Errorf("%w: int %q", ErrUnknownParameter, c.Parameter)
		}
		v, err := intValue(c.Value)
		if err != nil {
			return graph.Condition{}, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
		}
		return graph.Condition{Op: op, Value: graph.IntCondition{ParameterIndex: slot, Value: v}}, nil

	case ConditionFloat:
		slot := defs.FloatIndex(h)
		if slot < 0 {
			return graph.Condition{}, fmt.Errorf("%w: float %q", ErrUnknownParameter, c.Parameter)
		}
		v, err := floatValue(c.Value)
		if err != nil {
			return graph.Condition{}, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
		}
		return graph.Condition{Op: op, Value: graph.FloatCondition{ParameterIndex: slot, Value: v}}, nil

	case ConditionRemainingTime:
		ci, ok := r.arena.byID[c.Clip]
		if !ok || r.arena.kind(ci) != NodeKindClip || r.arena.nodes[ci].parent != fromState {
			return graph.Condition{}, fmt.Errorf("%w: %q in state %q", ErrRemainingTimeClip, c.Clip, r.arena.id(fromState))
		}
		v, err := floatValue(c.Value)
		if err != nil {
			return graph.Condition{}, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
		}
		kind := graph.RemainingAbsolute
		if c.Ratio {
			kind = graph.RemainingRatio
		}
		return graph.Condition{
			Op: graph.CompareLessOrEqual,
			Value: graph.RemainingTimeCondition{
				ClipConfigID: r.arena.nodes[ci].asset.ConfigID,
				Kind:         kind,
				Time:         v,
			},
		}, nil
	}
	return graph.Condition{}, fmt.Errorf("%w: condition type %q", ErrInvalidAsset, c.Type)
}

// boolValue converts a decoded YAML scalar to bool. Nil is false.
func boolValue(v any) (bool, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	}
	return false, fmt.Errorf("expected bool, got %T", v)
}

// intValue converts a decoded YAML scalar to int32. Nil is zero.
func intValue(v any) (int32, error) {
	var n int64
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint64:
		if x > math.MaxInt32 {
			return 0, fmt.Errorf("integer %d out of range", x)
		}
		n = int64(x)
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("integer %d out of range", n)
	}
	return int32(n), nil
}

// floatValue converts a decoded YAML scalar to float32. Integers are accepted.
func floatValue(v any) (float32, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return float32(x), nil
	case float32:
		return x, nil
	case int, int32, int64, uint64:
		n, err := intValue(x)
		return float32(n), err
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}
