package sampler

import (
	"github.com/Carmen-Shannon/oxy-animgraph/common"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/blend"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/model"
)

// Pose is the blended skeleton output of one entity.
type Pose struct {
	// Local holds bone-local transforms after blending.
	Local []model.Transform
	// BoneToRoot holds column-major bone-to-root matrices after hierarchy composition.
	BoneToRoot [][16]float32
}

// NewPose allocates a pose for bones bones, initialized to identity.
func NewPose(bones int) *Pose {
	p := &Pose{
		Local:      make([]model.Transform, bones),
		BoneToRoot: make([][16]float32, bones),
	}
	for i := range p.Local {
		p.Local[i] = model.IdentityTransform()
		common.Identity(p.BoneToRoot[i][:])
	}
	return p
}

// BlendPose samples every weighted sampler, accumulates the weighted bone transforms
// and composes the hierarchy. The pose is left untouched when no sampler carries weight.
//
// Parameters:
//   - pose: destination, sized to src.BoneCount()
//   - samplers: the entity's aggregated sampler list
//   - src: the entity's clip source
//
// Returns:
//   - int: the number of samplers that contributed
func BlendPose(pose *Pose, samplers []blend.ClipSampler, src ClipSource) int {
	bones := min(len(pose.Local), src.BoneCount())

	active := 0
	for i := range samplers {
		if samplers[i].Weight > common.Epsilon {
			active++
		}
	}
	if active == 0 {
		return 0
	}

	for bone := 0; bone < bones; bone++ {
		acc := newAccumulator()
		for i := range samplers {
			s := &samplers[i]
			if s.Weight <= common.Epsilon {
				continue
			}
			cur, _ := sampleTimes(src, s)
			acc.add(src.SampleBone(s.ClipIndex, bone, cur), s.Weight)
		}
		pose.Local[bone] = acc.transform()
	}

	composeHierarchy(pose, src, bones)
	return active
}

// composeHierarchy fills BoneToRoot from Local. Parents precede children.
func composeHierarchy(pose *Pose, h Hierarchy, bones int) {
	var local [16]float32
	for bone := 0; bone < bones; bone++ {
		l := &pose.Local[bone]
		common.BuildTRSMatrix(local[:], l.Translation, l.Rotation, l.Scale)
		parent := h.ParentIndex(bone)
		if parent < 0 || int(parent) >= bone {
			pose.BoneToRoot[bone] = local
			continue
		}
		common.Mul4(pose.BoneToRoot[bone][:], pose.BoneToRoot[parent][:], local[:])
	}
}
