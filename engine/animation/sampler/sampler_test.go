package sampler

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-animgraph/common"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/blend"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClips moves every bone along X at (clip+1) units per second and, when spin is set,
// turns the root about Y at one radian per second.
type fakeClips struct {
	lengths []float32
	parents []int32
	events  map[uint16][]model.ClipEvent
	rot     map[uint16][4]float32
	spin    bool
}

func (f *fakeClips) SampleBone(clip uint16, bone int, time float32) model.Transform {
	tr := model.IdentityTransform()
	tr.Translation = [3]float32{time * float32(clip+1), float32(bone), 0}
	if r, ok := f.rot[clip]; ok {
		tr.Rotation = r
	}
	if f.spin && bone == 0 {
		half := float64(time) / 2
		tr.Rotation = [4]float32{0, float32(math.Sin(half)), 0, float32(math.Cos(half))}
	}
	return tr
}

func (f *fakeClips) LoopTime(clip uint16, time float32) float32 {
	l := f.lengths[clip]
	return float32(math.Mod(float64(time), float64(l)))
}

func (f *fakeClips) BoneCount() int             { return len(f.parents) }
func (f *fakeClips) ParentIndex(bone int) int32 { return f.parents[bone] }
func (f *fakeClips) ClipEvents(clip uint16) []model.ClipEvent {
	return f.events[clip]
}

func newFake() *fakeClips {
	return &fakeClips{
		lengths: []float32{1, 2},
		parents: []int32{-1, 0},
		events:  map[uint16][]model.ClipEvent{},
		rot:     map[uint16][4]float32{},
	}
}

func TestBlendPoseWeightsAndHierarchy(t *testing.T) {
	src := newFake()
	pose := NewPose(2)

	active := BlendPose(pose, []blend.ClipSampler{
		{ClipIndex: 0, Weight: 0.25, Time: 0.4},
		{ClipIndex: 1, Weight: 0.75, Time: 0.4},
		{ClipIndex: 1, Weight: 0, Time: 9},
	}, src)
	require.Equal(t, 2, active)

	// 0.25*0.4*1 + 0.75*0.4*2
	assert.InDelta(t, 0.7, pose.Local[0].Translation[0], 1e-6)
	assert.InDelta(t, 1.0, pose.Local[1].Translation[1], 1e-6)
	assert.InDelta(t, 1.0, pose.Local[0].Scale[0], 1e-6)

	// Child translation is composed onto the parent's.
	assert.InDelta(t, 1.4, pose.BoneToRoot[1][12], 1e-5)
	assert.InDelta(t, 1.0, pose.BoneToRoot[1][13], 1e-5)
}

func TestBlendPoseLoopsTime(t *testing.T) {
	src := newFake()
	pose := NewPose(2)
	BlendPose(pose, []blend.ClipSampler{{ClipIndex: 0, Weight: 1, Time: 2.25, Loop: true}}, src)
	assert.InDelta(t, 0.25, pose.Local[0].Translation[0], 1e-5)
}

func TestBlendPoseShortestPath(t *testing.T) {
	src := newFake()
	q := common.QuatNormalize([4]float32{0, 0.3, 0, 0.9})
	src.rot[0] = q
	src.rot[1] = [4]float32{-q[0], -q[1], -q[2], -q[3]}

	pose := NewPose(2)
	BlendPose(pose, []blend.ClipSampler{
		{ClipIndex: 0, Weight: 0.5},
		{ClipIndex: 1, Weight: 0.5},
	}, src)

	for i := range q {
		assert.InDelta(t, q[i], pose.Local[0].Rotation[i], 1e-5)
	}
}

func TestBlendPoseWithoutWeightKeepsPose(t *testing.T) {
	src := newFake()
	pose := NewPose(2)
	pose.Local[0].Translation = [3]float32{5, 5, 5}

	assert.Equal(t, 0, BlendPose(pose, []blend.ClipSampler{{ClipIndex: 0, Weight: 0}}, src))
	assert.Equal(t, [3]float32{5, 5, 5}, pose.Local[0].Translation)
}

func TestEventsFireOnceWithoutLoop(t *testing.T) {
	src := newFake()
	src.events[1] = []model.ClipEvent{{Time: 0.5, FunctionName: "step", IntParameter: 2}}

	fired := 0
	prev := float32(0)
	for frame := 1; frame <= 30; frame++ {
		cur := float32(frame) * 0.1
		events := RaiseEvents(nil, []blend.ClipSampler{
			{ClipIndex: 1, Weight: 0.8, Time: cur, PreviousTime: prev, TotalTime: 2},
		}, src)
		for _, e := range events {
			assert.Equal(t, "step", e.Event.FunctionName)
			assert.Equal(t, int32(2), e.Event.IntParameter)
			assert.Equal(t, float32(0.8), e.Weight)
			assert.InDelta(t, 0.5, cur, 0.1)
		}
		fired += len(events)
		prev = cur
	}
	assert.Equal(t, 1, fired)
}

func TestEventsAcrossLoopWrap(t *testing.T) {
	src := newFake()
	src.events[0] = []model.ClipEvent{
		{Time: 0.05, FunctionName: "start"},
		{Time: 0.9, FunctionName: "end"},
		{Time: 0.5, FunctionName: "middle"},
	}

	events := RaiseEvents(nil, []blend.ClipSampler{
		{ClipIndex: 0, Weight: 1, PreviousTime: 1.85, Time: 2.1, TotalTime: 1, Loop: true},
	}, src)

	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Event.FunctionName)
	}
	assert.ElementsMatch(t, []string{"start", "end"}, names)
}

func TestEventsLoopFireOncePerCycle(t *testing.T) {
	src := newFake()
	src.events[0] = []model.ClipEvent{{Time: 0.25, FunctionName: "tick"}}

	fired := 0
	prev := float32(0)
	for frame := 1; frame <= 40; frame++ {
		cur := float32(frame) * 0.1
		fired += len(RaiseEvents(nil, []blend.ClipSampler{
			{ClipIndex: 0, Weight: 1, PreviousTime: prev, Time: cur, TotalTime: 1, Loop: true},
		}, src))
		prev = cur
	}
	// Four full cycles of a one-second clip.
	assert.Equal(t, 4, fired)
}

func TestRootMotionDelta(t *testing.T) {
	src := newFake()
	src.spin = true

	rm := ComputeRootMotion([]blend.ClipSampler{
		{ClipIndex: 0, Weight: 1, PreviousTime: 0.2, Time: 0.3},
	}, src)

	assert.InDelta(t, 0.1, rm.Translation[0], 1e-5)
	want := [4]float32{0, float32(math.Sin(-0.05)), 0, float32(math.Cos(-0.05))}
	for i := range want {
		assert.InDelta(t, want[i], rm.Rotation[i], 1e-4)
	}
}

func TestRootMotionIdentityWithoutMovement(t *testing.T) {
	src := newFake()
	assert.Equal(t, IdentityRootMotion(), ComputeRootMotion(nil, src))
	assert.Equal(t, IdentityRootMotion(), ComputeRootMotion([]blend.ClipSampler{
		{ClipIndex: 0, Weight: 1, PreviousTime: 0.5, Time: 0.5},
	}, src))
}

func TestRootMotionApply(t *testing.T) {
	tr := model.IdentityTransform()
	rm := RootMotion{Translation: [3]float32{1, 0, 2}, Rotation: common.QuatIdentity()}
	rm.Apply(&tr)
	rm.Apply(&tr)
	assert.Equal(t, [3]float32{2, 0, 4}, tr.Translation)
	assert.Equal(t, common.QuatIdentity(), tr.Rotation)
}

func TestParseRootMotionMode(t *testing.T) {
	for _, m := range []RootMotionMode{RootMotionDisabled, RootMotionAuto, RootMotionManual} {
		got, ok := ParseRootMotionMode(m.String())
		assert.True(t, ok)
		assert.Equal(t, m, got)
	}
	_, ok := ParseRootMotionMode("sideways")
	assert.False(t, ok)
}
