// Package graph holds the compiled, immutable form of an animation graph.
//
// A compiled Graph is produced once by the compiler and shared read-only by every
// instance that plays it. All cross references are indices into tables owned by the
// Graph, or byte-sized ids resolved per instance through buffer_id.BufferID.
package graph

import (
	"github.com/google/uuid"

	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/buffer_id"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/parameter"
)

// NodeType tags the kind of node a PoseLink points at.
type NodeType uint8

const (
	NodeTypeNone NodeType = iota
	NodeTypeSingleClip
	NodeTypeStateMachine
)

func (n NodeType) String() string {
	switch n {
	case NodeTypeSingleClip:
		return "single_clip"
	case NodeTypeStateMachine:
		return "state_machine"
	default:
		return "none"
	}
}

// BlendMode is the curve tag carried by a transition.
// Weights always ramp linearly; the tag is preserved for tooling.
type BlendMode uint8

const (
	BlendModeLinear BlendMode = iota
	BlendModeCubic
)

func (b BlendMode) String() string {
	if b == BlendModeCubic {
		return "cubic"
	}
	return "linear"
}

// PoseLink identifies the node feeding a final-pose node.
// For clip nodes LinkID carries the clip config id; for state-machine nodes it carries
// the node's position in its NodeGraph.StateMachines list.
type PoseLink struct {
	NodeType NodeType
	LinkID   buffer_id.BufferID
}

// FinalPoseNode is the single output of a node graph.
type FinalPoseNode struct {
	PoseLink PoseLink
}

// SingleClipNode plays one clip from the graph's clip table.
type SingleClipNode struct {
	// ClipIndex indexes Graph.Clips.
	ClipIndex uint16
	Loop      bool
	Speed     float32
	// ClipLength is the clip's length in seconds.
	ClipLength float32
	// ConfigID is unique across the whole asset tree, in [1, 255].
	ConfigID uint8
}

// StateMachineNode embeds a state machine into a node graph.
type StateMachineNode struct {
	// StateMachineIndex indexes Graph.StateMachines.
	StateMachineIndex uint8
}

// NodeGraph is the flattened node set of the top-level graph or of one state.
type NodeGraph struct {
	FinalPose     FinalPoseNode
	Clips         []SingleClipNode
	StateMachines []StateMachineNode
}

// ClipCount returns the number of clip nodes in the graph.
func (g *NodeGraph) ClipCount() int {
	return len(g.Clips)
}

// StateMachine is a compiled finite state machine.
type StateMachine struct {
	Name         string
	DefaultState uint8
	States       []State
}

// State is one compiled state: its own node graph and its outgoing transitions in
// evaluation order.
type State struct {
	Name        string
	Nodes       NodeGraph
	Transitions []Transition
}

// Transition is a conditional edge between two states of the same state machine.
type Transition struct {
	From uint8
	To   uint8
	// Priority mirrors the authored value. Evaluation order is the order of
	// State.Transitions.
	Priority   uint8
	HasEndTime bool
	// EndTime is the minimum time spent in From before conditions are considered.
	EndTime    float32
	Duration   float32
	Mode       BlendMode
	Conditions []Condition
}

// Clip is one entry of the graph's clip table.
type Clip struct {
	Name   string
	Length float32
}

// Graph is a compiled animation graph asset.
type Graph struct {
	// AssetID is derived from the asset name and stays stable across recompiles.
	AssetID       uuid.UUID
	Name          string
	Nodes         NodeGraph
	StateMachines []StateMachine
	Parameters    parameter.Definitions
	Clips         []Clip
}

// ClipNames returns the clip table names in index order.
func (g *Graph) ClipNames() []string {
	names := make([]string, len(g.Clips))
	for i, c := range g.Clips {
		names[i] = c.Name
	}
	return names
}

// ClipLengths returns the clip table lengths in index order.
func (g *Graph) ClipLengths() []float32 {
	lengths := make([]float32, len(g.Clips))
	for i, c := range g.Clips {
		lengths[i] = c.Length
	}
	return lengths
}
