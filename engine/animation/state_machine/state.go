package state_machine

import (
	"github.com/Carmen-Shannon/oxy-animgraph/common"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/buffer_id"
)

// AnimationState is one state that is currently blending in, settled or blending out.
type AnimationState struct {
	StateIndex uint8
	// Time is the elapsed time since the state was last entered.
	Time   float32
	Weight float32
	// NeedsInit is set until the state's node rows have been populated.
	NeedsInit bool
}

// BufferKey returns the state index, which is the entry's stable id.
func (s AnimationState) BufferKey() uint8 { return s.StateIndex }

// Live reports whether the state carries weight.
func (s AnimationState) Live() bool { return s.Weight > common.Epsilon }

// StateRef is the evaluator's own record of the most recently entered state.
type StateRef struct {
	ID         buffer_id.BufferID
	StateIndex uint8
}

// CurrentState is the settled state of a state machine.
type CurrentState struct {
	ID buffer_id.BufferID
}

// TransitionState is the in-flight transition target.
type TransitionState struct {
	ID       buffer_id.BufferID
	Duration float32
}

// TransitionRequest is a one-shot command to begin a transition, consumed by Blend.
type TransitionRequest struct {
	ID       buffer_id.BufferID
	Duration float32
}
