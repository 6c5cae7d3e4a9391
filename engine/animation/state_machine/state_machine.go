// Package state_machine evaluates one compiled state machine per instance: it creates
// states, fires transitions, blends their weights and retires dead states together with
// the node rows they own.
//
// A frame runs Evaluate, InitPendingNodes, Blend and Propagate in that order. Each call
// only touches the instance it is called on, so instances can be processed in parallel
// between frame barriers.
package state_machine

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-animgraph/common"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/buffer_id"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/graph"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/node_state"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/parameter"
)

// Evaluation reports what Evaluate did this frame.
type Evaluation struct {
	// Initialized is true on the frame the default state was entered.
	Initialized bool
	// Fired is the index of the fired transition in the from-state's list, or -1.
	Fired int
	// From and To are the state indices of the fired transition.
	From, To uint8
}

// BlendResult reports what Blend did this frame.
type BlendResult struct {
	// Committed is true when the in-flight transition settled this frame.
	Committed bool
	// Purged lists the state indices retired this frame.
	Purged []uint8
}

// Instance is the runtime state of one state machine belonging to one entity.
type Instance struct {
	index   uint8
	machine *graph.StateMachine

	// Weight is the total weight handed down by the state-machine nodes referencing
	// this machine. Below common.Epsilon the instance is dormant.
	Weight float32
	// Params is the instance's copy of the entity's parameters.
	Params *parameter.Store
	// Nodes mirrors the node graphs of every live state.
	Nodes node_state.Table
	// States are the live animation states, in no particular order.
	States []AnimationState

	Current    CurrentState
	Transition TransitionState
	Request    TransitionRequest

	currentRef  StateRef
	previousRef StateRef
	pendingInit bool
}

// NewInstance creates an uninitialized instance of machine.
//
// Parameters:
//   - index: the machine's index in the compiled graph's state-machine table
//   - machine: the compiled state machine, shared read-only
//   - defs: the graph's parameter definitions
//
// Returns:
//   - *Instance: the new instance; it enters its default state on the first Evaluate
func NewInstance(index uint8, machine *graph.StateMachine, defs *parameter.Definitions) *Instance {
	return &Instance{
		index:       index,
		machine:     machine,
		Params:      parameter.NewStore(defs),
		Current:     CurrentState{ID: buffer_id.Null},
		Transition:  TransitionState{ID: buffer_id.Null},
		Request:     TransitionRequest{ID: buffer_id.Null},
		currentRef:  StateRef{ID: buffer_id.Null},
		previousRef: StateRef{ID: buffer_id.Null},
	}
}

// Index returns the machine's index in the compiled graph.
func (m *Instance) Index() uint8 { return m.index }

// Machine returns the compiled state machine.
func (m *Instance) Machine() *graph.StateMachine { return m.machine }

// Dormant reports whether the instance currently carries no weight.
func (m *Instance) Dormant() bool { return m.Weight < common.Epsilon }

// CurrentRef returns the most recently entered state.
func (m *Instance) CurrentRef() StateRef { return m.currentRef }

// PreviousRef returns the state entered before CurrentRef.
func (m *Instance) PreviousRef() StateRef { return m.previousRef }

// PendingInit reports whether a created state still needs node rows.
func (m *Instance) PendingInit() bool { return m.pendingInit }

// needsInitialize is true until the default state has been entered.
func (m *Instance) needsInitialize() bool {
	return !m.Current.ID.Valid() && !m.currentRef.ID.Valid()
}

// needsEvaluate is true when the most recently entered state is either settled or the
// in-flight transition target.
func (m *Instance) needsEvaluate() bool {
	if !m.currentRef.ID.Valid() {
		return false
	}
	return m.currentRef.ID.Same(m.Current.ID) || m.currentRef.ID.Same(m.Transition.ID)
}

// Evaluate enters the default state on the first frame, otherwise walks the current
// state's transitions in order and fires the first whose gate and conditions pass.
// Dormant instances initialize but do not evaluate transitions.
//
// Returns:
//   - Evaluation: what happened this frame
func (m *Instance) Evaluate() Evaluation {
	result := Evaluation{Fired: -1}

	if m.needsInitialize() {
		m.createState(m.machine.DefaultState, 0)
		result.Initialized = true
		result.To = m.machine.DefaultState
		return result
	}

	if m.Dormant() || !m.needsEvaluate() {
		return result
	}

	from, ok := buffer_id.Lookup(m.States, &m.currentRef.ID, nil)
	if !ok {
		panic(fmt.Sprintf("state_machine %q: current state %d has no entry", m.machine.Name, m.currentRef.StateIndex))
	}
	fromIndex := from.StateIndex
	fromTime := from.Time

	transitions := m.machine.States[fromIndex].Transitions
	for i := range transitions {
		tr := &transitions[i]
		if tr.HasEndTime && fromTime < tr.EndTime {
			continue
		}
		if !m.conditionsHold(fromIndex, tr.Conditions) {
			continue
		}
		m.createState(tr.To, tr.Duration)
		result.Fired = i
		result.From = fromIndex
		result.To = tr.To
		return result
	}
	return result
}

// conditionsHold ANDs the conditions, short-circuiting on the first failure.
func (m *Instance) conditionsHold(from uint8, conditions []graph.Condition) bool {
	for _, c := range conditions {
		if !m.conditionHolds(from, c) {
			return false
		}
	}
	return true
}

func (m *Instance) conditionHolds(from uint8, c graph.Condition) bool {
	switch v := c.Value.(type) {
	case graph.BoolCondition:
		return graph.CompareBool(c.Op, m.Params.Bool(v.ParameterIndex), v.Value)
	case graph.IntCondition:
		return graph.Compare(c.Op, m.Params.Int(v.ParameterIndex), v.Value)
	case graph.FloatCondition:
		return graph.Compare(c.Op, m.Params.Float(v.ParameterIndex), v.Value)
	case graph.RemainingTimeCondition:
		id := buffer_id.New(v.ClipConfigID)
		row, ok := m.Nodes.Clip(&id, int16(from))
		if !ok {
			panic(fmt.Sprintf("state_machine %q: clip node %d missing in state %d", m.machine.Name, v.ClipConfigID, from))
		}
		return graph.Compare(c.Op, row.RemainingTime(v.Kind), v.Time)
	}
	panic(fmt.Sprintf("state_machine %q: unknown condition value %T", m.machine.Name, c.Value))
}

// createState adds an entry for stateIndex, or reuses the entry of a state that is still
// blending out, then points the evaluator at it and requests a transition.
func (m *Instance) createState(stateIndex uint8, duration float32) {
	id := buffer_id.New(stateIndex)
	slot := buffer_id.IndexOf(m.States, &id, nil)
	if slot < 0 {
		m.States = append(m.States, AnimationState{StateIndex: stateIndex, NeedsInit: true})
		slot = len(m.States) - 1
		m.pendingInit = true
	}

	m.previousRef = m.currentRef
	m.currentRef = StateRef{ID: buffer_id.NewAt(stateIndex, slot), StateIndex: stateIndex}
	m.Request = TransitionRequest{ID: buffer_id.NewAt(stateIndex, slot), Duration: duration}
}

// InitPendingNodes populates node rows for every state created since the last call.
func (m *Instance) InitPendingNodes() {
	if !m.pendingInit {
		return
	}
	for i := range m.States {
		s := &m.States[i]
		if !s.NeedsInit {
			continue
		}
		m.Nodes.Populate(int16(s.StateIndex), &m.machine.States[s.StateIndex].Nodes)
		s.NeedsInit = false
	}
	m.pendingInit = false
}

// Blend consumes the pending request, ages every state by deltaTime, recomputes weights
// so they sum to Weight and retires states that no longer carry weight.
// Dormant instances consume requests and age but keep their weights and states.
//
// Parameters:
//   - deltaTime: frame time in seconds
//
// Returns:
//   - BlendResult: commits and purges performed this frame
func (m *Instance) Blend(deltaTime float32) BlendResult {
	var result BlendResult

	if m.Request.ID.Valid() {
		if s, ok := buffer_id.Lookup(m.States, &m.Request.ID, nil); ok {
			duration := m.Request.Duration
			if !m.Current.ID.Valid() {
				duration = 0
			}
			m.Transition = TransitionState{ID: m.Request.ID, Duration: duration}
			s.Time = 0
		}
		m.Request = TransitionRequest{ID: buffer_id.Null}
	}

	for i := range m.States {
		m.States[i].Time += deltaTime
	}

	if m.Dormant() {
		return result
	}

	dest := buffer_id.IndexOf(m.States, &m.Transition.ID, nil)
	if dest >= 0 {
		result.Committed = m.blendTowards(dest)
	} else {
		m.rescale()
	}

	if result.Committed {
		dest = -1
	}
	result.Purged = m.purge(dest)
	return result
}

// blendTowards ramps the destination linearly over the transition duration and
// renormalizes every other state over the remaining weight.
func (m *Instance) blendTowards(dest int) bool {
	total := m.Weight
	d := &m.States[dest]

	duration := m.Transition.Duration
	if duration < common.Epsilon {
		d.Weight = total
	} else {
		d.Weight = common.Clamp(d.Time/duration, 0, total)
	}

	committed := false
	if d.Time+common.Epsilon >= duration {
		m.Current = CurrentState{ID: m.Transition.ID}
		m.Transition = TransitionState{ID: buffer_id.Null}
		committed = true
	}

	if committed || len(m.States) == 1 {
		// A settled or lone destination carries the whole current total.
		d.Weight = total
	}
	if len(m.States) == 1 {
		return committed
	}

	remaining := total - d.Weight
	var sum float32
	for i := range m.States {
		if i != dest {
			sum += m.States[i].Weight
		}
	}
	if remaining <= common.Epsilon {
		d.Weight = total
		for i := range m.States {
			if i != dest {
				m.States[i].Weight = 0
			}
		}
		return committed
	}
	if sum <= common.Epsilon {
		panic(fmt.Sprintf("state_machine %q: renormalizing over non-positive weight sum %g", m.machine.Name, sum))
	}
	scale := remaining / sum
	for i := range m.States {
		if i != dest {
			m.States[i].Weight *= scale
		}
	}
	return committed
}

// rescale keeps settled weights summing to the machine's total when it changes.
func (m *Instance) rescale() {
	switch len(m.States) {
	case 0:
		return
	case 1:
		m.States[0].Weight = m.Weight
		return
	}
	var sum float32
	for i := range m.States {
		sum += m.States[i].Weight
	}
	if sum <= common.Epsilon {
		panic(fmt.Sprintf("state_machine %q: %d states without weight or transition", m.machine.Name, len(m.States)))
	}
	if d := sum - m.Weight; d < common.Epsilon && d > -common.Epsilon {
		return
	}
	scale := m.Weight / sum
	for i := range m.States {
		m.States[i].Weight *= scale
	}
}

// purge swap-removes states without weight, except the in-flight destination, and
// their node rows.
func (m *Instance) purge(dest int) []uint8 {
	var purged []uint8
	for i := len(m.States) - 1; i >= 0; i-- {
		if i == dest || m.States[i].Live() {
			continue
		}
		idx := m.States[i].StateIndex
		m.Nodes.Purge(int16(idx))
		m.States = buffer_id.SwapRemove(m.States, i)
		purged = append(purged, idx)
	}
	return purged
}

// Propagate pushes every live state's weight into its node rows.
// Dormant instances are skipped.
func (m *Instance) Propagate() {
	if m.Dormant() {
		return
	}
	for i := range m.States {
		s := &m.States[i]
		if !s.Live() {
			continue
		}
		m.Nodes.Propagate(int16(s.StateIndex), s.Weight)
	}
}

// StateWeight returns the weight of stateIndex, or 0 when it is not live.
func (m *Instance) StateWeight(stateIndex uint8) float32 {
	id := buffer_id.New(stateIndex)
	if s, ok := buffer_id.Lookup(m.States, &id, nil); ok {
		return s.Weight
	}
	return 0
}

// TotalStateWeight returns the sum of every state's weight.
func (m *Instance) TotalStateWeight() float32 {
	var sum float32
	for i := range m.States {
		sum += m.States[i].Weight
	}
	return sum
}

// CurrentStateIndex returns the settled state.
//
// Returns:
//   - uint8: the settled state index
//   - bool: false before the first transition commits
func (m *Instance) CurrentStateIndex() (uint8, bool) {
	if !m.Current.ID.Valid() {
		return 0, false
	}
	return m.Current.ID.ID(), true
}

// TransitionTarget returns the in-flight transition target.
//
// Returns:
//   - uint8: the target state index
//   - bool: false when no transition is in flight
func (m *Instance) TransitionTarget() (uint8, bool) {
	if !m.Transition.ID.Valid() {
		return 0, false
	}
	return m.Transition.ID.ID(), true
}
