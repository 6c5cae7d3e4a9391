package compiler

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-animgraph/common"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoStateAsset builds a minimal graph: one state machine with states A and B, each
// playing its own clip, and a transition A -> B on go == true.
func twoStateAsset() *Asset {
	return &Asset{
		Name:       "two_state",
		Parameters: []ParameterAsset{{Name: "go", Type: ParameterBool}},
		Clips:      []ClipAsset{{Name: "a", Length: 1}, {Name: "b", Length: 1}},
		Nodes: []NodeAsset{
			{ID: "sm", Kind: NodeKindStateMachine},
			{ID: "out", Kind: NodeKindFinalPose},
			{ID: "entry", Kind: NodeKindEntry, Owner: "sm"},
			{ID: "A", Kind: NodeKindState, Owner: "sm"},
			{ID: "a_clip", Kind: NodeKindClip, Owner: "A", Clip: "a", Loop: true},
			{ID: "a_out", Kind: NodeKindFinalPose, Owner: "A"},
			{ID: "B", Kind: NodeKindState, Owner: "sm"},
			{ID: "b_clip", Kind: NodeKindClip, Owner: "B", Clip: "b", Loop: true},
			{ID: "b_out", Kind: NodeKindFinalPose, Owner: "B"},
			{ID: "a_to_b", Kind: NodeKindTransition, Owner: "sm", Duration: 0.5, Conditions: []ConditionAsset{
				{Type: ConditionBool, Parameter: "go", Value: true},
			}},
		},
		Edges: []EdgeAsset{
			{From: "sm", To: "out"},
			{From: "entry", To: "A"},
			{From: "a_clip", To: "a_out"},
			{From: "b_clip", To: "b_out"},
			{From: "A", To: "a_to_b"},
			{From: "a_to_b", To: "B"},
		},
	}
}

func nodeByID(a *Asset, id string) *NodeAsset {
	for i := range a.Nodes {
		if a.Nodes[i].ID == id {
			return &a.Nodes[i]
		}
	}
	return nil
}

func TestCompileLocomotionFile(t *testing.T) {
	a, err := LoadAsset(filepath.Join("testdata", "locomotion.yaml"))
	require.NoError(t, err)

	g, err := Compile(a)
	require.NoError(t, err)

	assert.Equal(t, "locomotion", g.Name)
	assert.Equal(t, []string{"idle", "walk"}, g.ClipNames())
	assert.Equal(t, []float32{2, 1.2}, g.ClipLengths())

	require.Len(t, g.Parameters.Bools, 1)
	require.Len(t, g.Parameters.Ints, 1)
	require.Len(t, g.Parameters.Floats, 1)
	assert.Equal(t, common.NameHash("moving"), g.Parameters.Bools[0].Hash)
	assert.Equal(t, int32(2), g.Parameters.Ints[0].Default)
	assert.Equal(t, float32(1.5), g.Parameters.Floats[0].Default)

	assert.Equal(t, graph.NodeTypeStateMachine, g.Nodes.FinalPose.PoseLink.NodeType)
	assert.Equal(t, uint8(0), g.Nodes.FinalPose.PoseLink.LinkID.ID())
	require.Len(t, g.Nodes.StateMachines, 1)
	assert.Empty(t, g.Nodes.Clips)

	require.Len(t, g.StateMachines, 1)
	sm := g.StateMachines[0]
	assert.Equal(t, "Locomotion", sm.Name)
	assert.Equal(t, uint8(0), sm.DefaultState)
	require.Len(t, sm.States, 2)
	assert.Equal(t, "Idle", sm.States[0].Name)
	assert.Equal(t, "Walk", sm.States[1].Name)

	idle := sm.States[0]
	require.Len(t, idle.Nodes.Clips, 1)
	assert.Equal(t, uint8(1), idle.Nodes.Clips[0].ConfigID, "first free id")
	assert.Equal(t, float32(1), idle.Nodes.Clips[0].Speed, "speed defaults to 1")
	assert.Equal(t, float32(2), idle.Nodes.Clips[0].ClipLength)
	assert.Equal(t, graph.NodeTypeSingleClip, idle.Nodes.FinalPose.PoseLink.NodeType)
	assert.Equal(t, uint8(1), idle.Nodes.FinalPose.PoseLink.LinkID.ID())

	walk := sm.States[1]
	require.Len(t, walk.Nodes.Clips, 1)
	assert.Equal(t, uint8(7), walk.Nodes.Clips[0].ConfigID, "explicit id kept")
	assert.Equal(t, float32(1.25), walk.Nodes.Clips[0].Speed)
	assert.Equal(t, uint16(1), walk.Nodes.Clips[0].ClipIndex)

	require.Len(t, idle.Transitions, 1)
	toWalk := idle.Transitions[0]
	assert.Equal(t, uint8(0), toWalk.From)
	assert.Equal(t, uint8(1), toWalk.To)
	assert.Equal(t, float32(0.5), toWalk.Duration)
	assert.Equal(t, graph.BlendModeLinear, toWalk.Mode)
	require.Len(t, toWalk.Conditions, 1)
	assert.Equal(t, graph.CompareEqual, toWalk.Conditions[0].Op)
	assert.Equal(t, graph.BoolCondition{ParameterIndex: 0, Value: true}, toWalk.Conditions[0].Value)

	require.Len(t, walk.Transitions, 1)
	toIdle := walk.Transitions[0]
	assert.Equal(t, graph.BlendModeCubic, toIdle.Mode)
	assert.Equal(t, uint8(3), toIdle.Priority)
	require.Len(t, toIdle.Conditions, 2)
	assert.Equal(t, graph.CompareNotEqual, toIdle.Conditions[0].Op)
	assert.Equal(t, graph.CompareLessOrEqual, toIdle.Conditions[1].Op, "remaining time always compares with <=")
	assert.Equal(t, graph.RemainingTimeCondition{ClipConfigID: 7, Kind: graph.RemainingRatio, Time: 0.25}, toIdle.Conditions[1].Value)
}

func TestCompileAssetIDStable(t *testing.T) {
	g1, err := Compile(twoStateAsset())
	require.NoError(t, err)
	g2, err := Compile(twoStateAsset())
	require.NoError(t, err)
	assert.Equal(t, g1.AssetID, g2.AssetID)

	other := twoStateAsset()
	other.Name = "other"
	g3, err := Compile(other)
	require.NoError(t, err)
	assert.NotEqual(t, g1.AssetID, g3.AssetID)
}

func TestCompileLeavesAssetUntouched(t *testing.T) {
	a := twoStateAsset()
	_, err := Compile(a)
	require.NoError(t, err)
	assert.Zero(t, nodeByID(a, "a_clip").ConfigID)
	assert.Zero(t, nodeByID(a, "b_clip").ConfigID)
}

func TestCompileNestedStateMachine(t *testing.T) {
	a := twoStateAsset()
	// State B plays an inner machine instead of a clip.
	b := nodeByID(a, "b_clip")
	b.ID = "inner"
	b.Kind = NodeKindStateMachine
	b.Clip = ""
	b.Loop = false
	a.Edges[3] = EdgeAsset{From: "inner", To: "b_out"}
	a.Clips = append(a.Clips, ClipAsset{Name: "c", Length: 0.5})
	a.Nodes = append(a.Nodes,
		NodeAsset{ID: "inner_entry", Kind: NodeKindEntry, Owner: "inner"},
		NodeAsset{ID: "C", Kind: NodeKindState, Owner: "inner"},
		NodeAsset{ID: "c_clip", Kind: NodeKindClip, Owner: "C", Clip: "c"},
		NodeAsset{ID: "c_out", Kind: NodeKindFinalPose, Owner: "C"},
	)
	a.Edges = append(a.Edges,
		EdgeAsset{From: "inner_entry", To: "C"},
		EdgeAsset{From: "c_clip", To: "c_out"},
	)

	g, err := Compile(a)
	require.NoError(t, err)
	require.Len(t, g.StateMachines, 2)
	assert.Equal(t, "sm", g.StateMachines[0].Name)
	assert.Equal(t, "inner", g.StateMachines[1].Name)

	stateB := g.StateMachines[0].States[1]
	assert.Empty(t, stateB.Nodes.Clips)
	require.Len(t, stateB.Nodes.StateMachines, 1)
	assert.Equal(t, uint8(1), stateB.Nodes.StateMachines[0].StateMachineIndex)
	assert.Equal(t, graph.NodeTypeStateMachine, stateB.Nodes.FinalPose.PoseLink.NodeType)
	assert.Equal(t, uint8(0), stateB.Nodes.FinalPose.PoseLink.LinkID.ID(), "local index into the state's node list")

	inner := g.StateMachines[1]
	require.Len(t, inner.States, 1)
	assert.False(t, inner.States[0].Nodes.Clips[0].Loop)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Asset)
		want   error
	}{
		{
			name: "unknown parameter",
			mutate: func(a *Asset) {
				nodeByID(a, "a_to_b").Conditions[0].Parameter = "missing"
			},
			want: ErrUnknownParameter,
		},
		{
			name: "parameter of the wrong type",
			mutate: func(a *Asset) {
				nodeByID(a, "a_to_b").Conditions[0].Type = ConditionFloat
			},
			want: ErrUnknownParameter,
		},
		{
			name: "unknown clip",
			mutate: func(a *Asset) {
				nodeByID(a, "a_clip").Clip = "nope"
			},
			want: ErrUnknownClip,
		},
		{
			name: "final pose missing in state",
			mutate: func(a *Asset) {
				nodeByID(a, "a_out").Kind = NodeKindClip
				nodeByID(a, "a_out").Clip = "a"
				a.Edges = append(a.Edges[:2], a.Edges[3:]...)
			},
			want: ErrFinalPoseMissing,
		},
		{
			name: "final pose without input",
			mutate: func(a *Asset) {
				a.Edges = append(a.Edges[:2], a.Edges[3:]...)
			},
			want: ErrFinalPoseMissing,
		},
		{
			name: "duplicate final pose",
			mutate: func(a *Asset) {
				a.Nodes = append(a.Nodes, NodeAsset{ID: "out2", Kind: NodeKindFinalPose})
			},
			want: ErrFinalPoseDuplicate,
		},
		{
			name: "entry missing",
			mutate: func(a *Asset) {
				a.Edges = append(a.Edges[:1], a.Edges[2:]...)
			},
			want: ErrEntryMissing,
		},
		{
			name: "entry ambiguous",
			mutate: func(a *Asset) {
				a.Edges = append(a.Edges, EdgeAsset{From: "entry", To: "B"})
			},
			want: ErrEntryAmbiguous,
		},
		{
			name: "two entry nodes",
			mutate: func(a *Asset) {
				a.Nodes = append(a.Nodes, NodeAsset{ID: "entry2", Kind: NodeKindEntry, Owner: "sm"})
			},
			want: ErrEntryAmbiguous,
		},
		{
			name: "transition without target",
			mutate: func(a *Asset) {
				a.Edges = a.Edges[:5]
			},
			want: ErrMalformedTransition,
		},
		{
			name: "self transition",
			mutate: func(a *Asset) {
				a.Edges[5] = EdgeAsset{From: "a_to_b", To: "A"}
			},
			want: ErrMalformedTransition,
		},
		{
			name: "remaining time on clip of another state",
			mutate: func(a *Asset) {
				nodeByID(a, "a_to_b").Conditions = []ConditionAsset{
					{Type: ConditionRemainingTime, Clip: "b_clip", Value: 0.1},
				}
			},
			want: ErrRemainingTimeClip,
		},
		{
			name: "state outside a state machine",
			mutate: func(a *Asset) {
				nodeByID(a, "B").Owner = ""
			},
			want: ErrInvalidOwner,
		},
		{
			name: "clip owned by a state machine",
			mutate: func(a *Asset) {
				nodeByID(a, "a_clip").Owner = "sm"
			},
			want: ErrInvalidOwner,
		},
		{
			name: "unknown owner",
			mutate: func(a *Asset) {
				nodeByID(a, "a_clip").Owner = "ghost"
			},
			want: ErrUnknownNode,
		},
		{
			name: "edge across owners",
			mutate: func(a *Asset) {
				a.Edges[2] = EdgeAsset{From: "a_clip", To: "out"}
			},
			want: ErrInvalidAsset,
		},
		{
			name: "disallowed edge kind",
			mutate: func(a *Asset) {
				a.Edges = append(a.Edges, EdgeAsset{From: "A", To: "B"})
			},
			want: ErrInvalidAsset,
		},
		{
			name: "duplicate node id",
			mutate: func(a *Asset) {
				nodeByID(a, "b_out").ID = "a_out"
			},
			want: ErrInvalidAsset,
		},
		{
			name: "duplicate config id",
			mutate: func(a *Asset) {
				nodeByID(a, "a_clip").ConfigID = 4
				nodeByID(a, "b_clip").ConfigID = 4
			},
			want: ErrDuplicateConfigID,
		},
		{
			name: "bad name",
			mutate: func(a *Asset) {
				a.Name = "has space"
			},
			want: ErrInvalidAsset,
		},
		{
			name: "bad operator",
			mutate: func(a *Asset) {
				nodeByID(a, "a_to_b").Conditions[0].Op = "=~"
			},
			want: ErrInvalidAsset,
		},
		{
			name: "condition value of the wrong type",
			mutate: func(a *Asset) {
				nodeByID(a, "a_to_b").Conditions[0].Value = 3.5
			},
			want: ErrInvalidAsset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := twoStateAsset()
			tt.mutate(a)
			_, err := Compile(a)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAssignConfigIDs(t *testing.T) {
	t.Run("first fit around explicit ids", func(t *testing.T) {
		a := &Asset{Nodes: []NodeAsset{
			{ID: "x", Kind: NodeKindClip},
			{ID: "y", Kind: NodeKindClip, ConfigID: 1},
			{ID: "z", Kind: NodeKindClip},
			{ID: "s", Kind: NodeKindState},
		}}
		require.NoError(t, AssignConfigIDs(a))
		assert.Equal(t, uint8(2), a.Nodes[0].ConfigID)
		assert.Equal(t, uint8(1), a.Nodes[1].ConfigID)
		assert.Equal(t, uint8(3), a.Nodes[2].ConfigID)
		assert.Zero(t, a.Nodes[3].ConfigID)
	})

	t.Run("exhausted", func(t *testing.T) {
		a := &Asset{Name: "big"}
		for i := 0; i < MaxConfigID+1; i++ {
			a.Nodes = append(a.Nodes, NodeAsset{ID: fmt.Sprintf("c%d", i), Kind: NodeKindClip})
		}
		err := AssignConfigIDs(a)
		assert.ErrorIs(t, err, ErrConfigIDExhausted)
	})

	t.Run("all ids usable", func(t *testing.T) {
		a := &Asset{}
		for i := 0; i < MaxConfigID; i++ {
			a.Nodes = append(a.Nodes, NodeAsset{ID: fmt.Sprintf("c%d", i), Kind: NodeKindClip})
		}
		require.NoError(t, AssignConfigIDs(a))
		seen := map[uint8]bool{}
		for _, n := range a.Nodes {
			assert.NotZero(t, n.ConfigID)
			assert.False(t, seen[n.ConfigID])
			seen[n.ConfigID] = true
		}
	})
}

func TestSaveAndLoadAsset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two_state.yaml")
	a := twoStateAsset()
	require.NoError(t, SaveAsset(path, a))
	assert.Equal(t, uint8(1), nodeByID(a, "a_clip").ConfigID)
	assert.Equal(t, uint8(2), nodeByID(a, "b_clip").ConfigID)

	loaded, err := LoadAsset(path)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), nodeByID(loaded, "a_clip").ConfigID)
	assert.Equal(t, uint8(2), nodeByID(loaded, "b_clip").ConfigID)
	assert.Equal(t, a.Edges, loaded.Edges)

	g, err := Compile(loaded)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), g.StateMachines[0].States[1].Nodes.Clips[0].ConfigID)
}

func TestParseAssetRejectsUnknownFields(t *testing.T) {
	_, err := ParseAsset([]byte("name: x\nnodes: []\nwibble: 1\n"))
	assert.ErrorIs(t, err, ErrInvalidAsset)
}

func TestAnimNameTag(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{name: "identifier", value: "walk_clip", ok: true},
		{name: "dotted", value: "locomotion.idle-2", ok: true},
		{name: "leading digit", value: "2walk", ok: false},
		{name: "space", value: "has space", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assetValidate.Var(tt.value, "anim_name")
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
