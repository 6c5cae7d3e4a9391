// Package node_state holds the per-instance mutable mirror of a compiled node graph.
//
// One Table serves either the top-level graph of an entity (owner GraphOwner) or one
// state-machine instance, in which case it holds a copy of the node rows of every live
// state, keyed by the state's index.
package node_state

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/buffer_id"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/graph"
)

// GraphOwner is the owner index of rows belonging to the top-level graph.
const GraphOwner int16 = -1

// ClipNodeState is the runtime row of a single-clip node.
type ClipNodeState struct {
	ConfigID  uint8
	Owner     int16
	ClipIndex uint16
	Loop      bool
	Speed     float32
	TotalTime float32

	Weight       float32
	Time         float32
	PreviousTime float32
}

// BufferKey returns the clip config id.
func (c ClipNodeState) BufferKey() uint8 { return c.ConfigID }

// RemainingTime returns how much of the clip is left to play.
// Looping clips never run out and report math.MaxFloat32.
//
// Parameters:
//   - kind: absolute seconds or a ratio of the clip length
//
// Returns:
//   - float32: the remaining time
func (c *ClipNodeState) RemainingTime(kind graph.RemainingTimeKind) float32 {
	if c.Loop {
		return math.MaxFloat32
	}
	remaining := c.TotalTime - c.Time
	if kind == graph.RemainingRatio {
		if c.TotalTime <= 0 {
			return 0
		}
		return remaining / c.TotalTime
	}
	return remaining
}

// StateMachineNodeState is the runtime row of a state-machine node.
type StateMachineNodeState struct {
	// NodeIndex is the node's position in its NodeGraph.StateMachines list.
	NodeIndex         uint8
	Owner             int16
	StateMachineIndex uint8
	Weight            float32
}

// BufferKey returns the node index.
func (s StateMachineNodeState) BufferKey() uint8 { return s.NodeIndex }

// FinalPoseNodeState is the runtime row of a final-pose node.
// PoseLink is a per-instance copy so its BufferID hint can be refreshed.
type FinalPoseNodeState struct {
	Owner    int16
	PoseLink graph.PoseLink
}

// Table is the node state table of one graph or state-machine instance.
type Table struct {
	FinalPoses    []FinalPoseNodeState
	Clips         []ClipNodeState
	StateMachines []StateMachineNodeState
}

// Populate appends rows for every node of g, owned by owner.
//
// Parameters:
//   - owner: GraphOwner or the index of the state that owns g
//   - g: the compiled node graph to mirror
func (t *Table) Populate(owner int16, g *graph.NodeGraph) {
	t.FinalPoses = append(t.FinalPoses, FinalPoseNodeState{Owner: owner, PoseLink: g.FinalPose.PoseLink})

	for _, c := range g.Clips {
		t.Clips = append(t.Clips, ClipNodeState{
			ConfigID:  c.ConfigID,
			Owner:     owner,
			ClipIndex: c.ClipIndex,
			Loop:      c.Loop,
			Speed:     c.Speed,
			TotalTime: c.ClipLength,
		})
	}

	for i, sm := range g.StateMachines {
		t.StateMachines = append(t.StateMachines, StateMachineNodeState{
			NodeIndex:         uint8(i),
			Owner:             owner,
			StateMachineIndex: sm.StateMachineIndex,
		})
	}
}

// Purge swap-removes every row owned by owner.
//
// Parameters:
//   - owner: the owner whose rows are removed
//
// Returns:
//   - int: the number of rows removed
func (t *Table) Purge(owner int16) int {
	removed := 0
	for i := len(t.FinalPoses) - 1; i >= 0; i-- {
		if t.FinalPoses[i].Owner == owner {
			t.FinalPoses = buffer_id.SwapRemove(t.FinalPoses, i)
			removed++
		}
	}
	for i := len(t.Clips) - 1; i >= 0; i-- {
		if t.Clips[i].Owner == owner {
			t.Clips = buffer_id.SwapRemove(t.Clips, i)
			removed++
		}
	}
	for i := len(t.StateMachines) - 1; i >= 0; i-- {
		if t.StateMachines[i].Owner == owner {
			t.StateMachines = buffer_id.SwapRemove(t.StateMachines, i)
			removed++
		}
	}
	return removed
}

// HasOwner reports whether rows for owner have been populated.
func (t *Table) HasOwner(owner int16) bool {
	for i := range t.FinalPoses {
		if t.FinalPoses[i].Owner == owner {
			return true
		}
	}
	return false
}

// Propagate pushes weight from owner's final-pose node to the node it links.
// A clip node takes the weight directly. A state-machine node takes it and stops;
// its state machine pushes further on its own pass.
// Missing rows mean a populate/purge bug and panic.
//
// Parameters:
//   - owner: GraphOwner or a live state index
//   - weight: the owner's settled weight
func (t *Table) Propagate(owner int16, weight float32) {
	var fp *FinalPoseNodeState
	for i := range t.FinalPoses {
		if t.FinalPoses[i].Owner == owner {
			fp = &t.FinalPoses[i]
			break
		}
	}
	if fp == nil {
		panic(fmt.Sprintf("node_state: no final pose row for owner %d", owner))
	}

	link := &fp.PoseLink
	switch link.NodeType {
	case graph.NodeTypeSingleClip:
		row, ok := buffer_id.Lookup(t.Clips, &link.LinkID, func(c *ClipNodeState) bool { return c.Owner == owner })
		if !ok {
			panic(fmt.Sprintf("node_state: clip node %d missing for owner %d", link.LinkID.ID(), owner))
		}
		row.Weight = weight
	case graph.NodeTypeStateMachine:
		row, ok := buffer_id.Lookup(t.StateMachines, &link.LinkID, func(s *StateMachineNodeState) bool { return s.Owner == owner })
		if !ok {
			panic(fmt.Sprintf("node_state: state machine node %d missing for owner %d", link.LinkID.ID(), owner))
		}
		row.Weight = weight
	}
}

// AdvanceClips moves every weighted clip row forward by deltaTime scaled by its speed,
// remembering the previous time for event crossing.
//
// Parameters:
//   - deltaTime: frame time in seconds
func (t *Table) AdvanceClips(deltaTime float32) {
	for i := range t.Clips {
		c := &t.Clips[i]
		if c.Weight == 0 {
			continue
		}
		c.PreviousTime = c.Time
		c.Time += deltaTime * c.Speed
	}
}

// Clip resolves a clip row by config id within owner.
//
// Parameters:
//   - id: the config id; its cached slot is refreshed
//   - owner: the owning state index, or GraphOwner
//
// Returns:
//   - *ClipNodeState: the row, valid until the table is mutated
//   - bool: false if no such row exists
func (t *Table) Clip(id *buffer_id.BufferID, owner int16) (*ClipNodeState, bool) {
	return buffer_id.Lookup(t.Clips, id, func(c *ClipNodeState) bool { return c.Owner == owner })
}

// Reset drops every row.
func (t *Table) Reset() {
	t.FinalPoses = t.FinalPoses[:0]
	t.Clips = t.Clips[:0]
	t.StateMachines = t.StateMachines[:0]
}
