// Package sampler turns an entity's aggregated sampler list into a blended skeleton
// pose, the animation events crossed this frame and a root-motion delta.
//
// Bone sampling itself is delegated to a PoseSampler, which must be a pure function
// of clip, bone and time.
package sampler

import (
	"github.com/Carmen-Shannon/oxy-animgraph/common"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/blend"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/model"
)

// PoseSampler samples bone-local transforms from compiled clips.
type PoseSampler interface {
	// SampleBone returns the bone-local transform of bone in clip at a clip-local time.
	SampleBone(clip uint16, bone int, time float32) model.Transform
	// LoopTime wraps an unbounded playback time into the clip's length.
	LoopTime(clip uint16, time float32) float32
}

// Hierarchy answers parent queries for the final composition pass.
type Hierarchy interface {
	BoneCount() int
	ParentIndex(bone int) int32
}

// EventSource lists the events embedded in a clip.
type EventSource interface {
	ClipEvents(clip uint16) []model.ClipEvent
}

// ClipSource is everything an entity needs to sample its clips.
// model.ClipSet implements it.
type ClipSource interface {
	PoseSampler
	Hierarchy
	EventSource
}

var _ ClipSource = &model.ClipSet{}

// sampleTimes returns the clip-local current and previous times of s.
func sampleTimes(src PoseSampler, s *blend.ClipSampler) (float32, float32) {
	if s.Loop {
		return src.LoopTime(s.ClipIndex, s.Time), src.LoopTime(s.ClipIndex, s.PreviousTime)
	}
	return s.Time, s.PreviousTime
}

// accumulator sums weighted transforms, flipping quaternions onto the accumulator's
// hemisphere so blends take the shortest path.
type accumulator struct {
	t     [3]float32
	r     [4]float32
	s     [3]float32
	empty bool
}

func newAccumulator() accumulator {
	return accumulator{empty: true}
}

func (a *accumulator) add(x model.Transform, w float32) {
	if a.empty {
		a.t = common.Vec3Scale(x.Translation, w)
		a.r = [4]float32{x.Rotation[0] * w, x.Rotation[1] * w, x.Rotation[2] * w, x.Rotation[3] * w}
		a.s = common.Vec3Scale(x.Scale, w)
		a.empty = false
		return
	}
	a.t = common.Vec3Add(a.t, common.Vec3Scale(x.Translation, w))
	rw := w
	if common.QuatDot(a.r, x.Rotation) < 0 {
		rw = -w
	}
	a.r = [4]float32{
		a.r[0] + x.Rotation[0]*rw,
		a.r[1] + x.Rotation[1]*rw,
		a.r[2] + x.Rotation[2]*rw,
		a.r[3] + x.Rotation[3]*rw,
	}
	a.s = common.Vec3Add(a.s, common.Vec3Scale(x.Scale, w))
}

func (a *accumulator) transform() model.Transform {
	return model.Transform{Translation: a.t, Rotation: common.QuatNormalize(a.r), Scale: a.s}
}
