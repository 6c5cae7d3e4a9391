package sampler

import (
	"github.com/Carmen-Shannon/oxy-animgraph/common"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/blend"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/model"
)

// RootMotionMode selects what happens to an entity's root-motion delta.
type RootMotionMode uint8

const (
	// RootMotionDisabled skips root motion entirely.
	RootMotionDisabled RootMotionMode = iota
	// RootMotionAuto applies the delta to the entity transform every frame.
	RootMotionAuto
	// RootMotionManual computes the delta and leaves it for the host.
	RootMotionManual
)

func (m RootMotionMode) String() string {
	switch m {
	case RootMotionAuto:
		return "auto"
	case RootMotionManual:
		return "manual"
	default:
		return "disabled"
	}
}

// ParseRootMotionMode maps "disabled", "auto" or "manual" to a mode.
func ParseRootMotionMode(s string) (RootMotionMode, bool) {
	switch s {
	case "", "disabled":
		return RootMotionDisabled, true
	case "auto":
		return RootMotionAuto, true
	case "manual":
		return RootMotionManual, true
	}
	return RootMotionDisabled, false
}

// RootMotion is the per-frame movement of the root bone.
type RootMotion struct {
	Translation [3]float32
	Rotation    [4]float32
}

// IdentityRootMotion is no movement.
func IdentityRootMotion() RootMotion {
	return RootMotion{Rotation: common.QuatIdentity()}
}

// ComputeRootMotion blends bone 0 at the current and previous times of every weighted
// sampler and returns the difference. Samplers that did not move are skipped.
//
// Parameters:
//   - samplers: the entity's aggregated sampler list
//   - src: the entity's pose sampler
//
// Returns:
//   - RootMotion: translation current-previous and rotation normalize(inverse(current)*previous)
func ComputeRootMotion(samplers []blend.ClipSampler, src PoseSampler) RootMotion {
	cur := newAccumulator()
	prev := newAccumulator()

	for i := range samplers {
		s := &samplers[i]
		if s.Weight <= common.Epsilon {
			continue
		}
		ct, pt := sampleTimes(src, s)
		if ct == pt {
			continue
		}
		cur.add(src.SampleBone(s.ClipIndex, 0, ct), s.Weight)
		prev.add(src.SampleBone(s.ClipIndex, 0, pt), s.Weight)
	}
	if cur.empty {
		return IdentityRootMotion()
	}

	c := cur.transform()
	p := prev.transform()
	return RootMotion{
		Translation: common.Vec3Sub(c.Translation, p.Translation),
		Rotation:    common.QuatNormalize(common.QuatMul(common.QuatInverse(c.Rotation), p.Rotation)),
	}
}

// Apply moves t by the delta: translation is added, rotation is pre-multiplied.
func (rm RootMotion) Apply(t *model.Transform) {
	t.Translation = common.Vec3Add(t.Translation, rm.Translation)
	t.Rotation = common.QuatNormalize(common.QuatMul(rm.Rotation, t.Rotation))
}
