package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-animgraph/common"
)

// ErrClipLengthMismatch is returned when keyframe data disagrees with the compiled clip length.
var ErrClipLengthMismatch = errors.New("clip duration does not match compiled clip length")

// ClipSet binds a skeleton to an ordered clip table.
// It answers bone samples, looped times, hierarchy queries and clip events for the
// runtime sampler, addressing clips by their index in the table.
// A ClipSet is read-only after construction and safe for concurrent use.
type ClipSet struct {
	skeleton *Skeleton
	clips    []*AnimationClip
	// channels maps clip index -> bone index -> channel index.
	channels []map[int32]int
}

// NewClipSet creates a ClipSet over the given skeleton and clip table.
//
// Parameters:
//   - skeleton: the bone hierarchy shared by every clip
//   - clips: the clip table, indexed by compiled clip index
//
// Returns:
//   - *ClipSet: the bound clip set
//   - error: error if a channel targets a bone outside the skeleton
func NewClipSet(skeleton *Skeleton, clips []*AnimationClip) (*ClipSet, error) {
	cs := &ClipSet{
		skeleton: skeleton,
		clips:    clips,
		channels: make([]map[int32]int, len(clips)),
	}
	for ci, clip := range clips {
		cs.channels[ci] = make(map[int32]int, len(clip.Channels))
		for chi, ch := range clip.Channels {
			if ch.BoneIndex < 0 || int(ch.BoneIndex) >= skeleton.BoneCount() {
				return nil, fmt.Errorf("clip %q channel %d targets bone %d outside skeleton of %d bones",
					clip.Name, chi, ch.BoneIndex, skeleton.BoneCount())
			}
			cs.channels[ci][ch.BoneIndex] = chi
		}
	}
	return cs, nil
}

// NewClipSetByName orders clips to match a compiled clip table.
// Names missing from byName get an empty clip of the given length so the bind pose is sampled.
//
// Parameters:
//   - skeleton: the bone hierarchy shared by every clip
//   - names: clip names in compiled clip-table order
//   - lengths: clip lengths in compiled clip-table order
//   - byName: available keyframe data keyed by clip name
//
// Returns:
//   - *ClipSet: the bound clip set
//   - error: ErrClipLengthMismatch if a clip's duration differs from its compiled length, or
//     error if a channel targets a bone outside the skeleton
func NewClipSetByName(skeleton *Skeleton, names []string, lengths []float32, byName map[string]*AnimationClip) (*ClipSet, error) {
	clips := make([]*AnimationClip, len(names))
	for i, name := range names {
		var length float32
		if i < len(lengths) {
			length = lengths[i]
		}
		if c, ok := byName[name]; ok {
			if d := c.Duration - length; i < len(lengths) && (d > common.Epsilon || d < -common.Epsilon) {
				return nil, fmt.Errorf("%w: clip %q lasts %gs, compiled length %gs", ErrClipLengthMismatch, name, c.Duration, length)
			}
			clips[i] = c
			continue
		}
		clips[i] = &AnimationClip{Name: name, Duration: length}
	}
	return NewClipSet(skeleton, clips)
}

// ClipCount returns the number of clips in the table.
func (cs *ClipSet) ClipCount() int {
	return len(cs.clips)
}

// ClipLength returns the duration of the clip at index, or 0 when out of range.
func (cs *ClipSet) ClipLength(index uint16) float32 {
	if int(index) >= len(cs.clips) {
		return 0
	}
	return cs.clips[index].Duration
}

// Clip returns the clip at index, or nil when out of range.
func (cs *ClipSet) Clip(index uint16) *AnimationClip {
	if int(index) >= len(cs.clips) {
		return nil
	}
	return cs.clips[index]
}

// BoneCount returns the number of bones in the bound skeleton.
func (cs *ClipSet) BoneCount() int {
	return cs.skeleton.BoneCount()
}

// ParentIndex returns the parent of bone in the bound skeleton.
func (cs *ClipSet) ParentIndex(bone int) int32 {
	return cs.skeleton.ParentIndex(bone)
}

// SampleBone returns the bone-local transform of bone in clip at the given clip-local time.
// Bones without a channel return their bind pose.
//
// Parameters:
//   - clip: index into the clip table
//   - bone: bone index
//   - time: clip-local time in seconds
//
// Returns:
//   - Transform: the sampled bone-local transform
func (cs *ClipSet) SampleBone(clip uint16, bone int, time float32) Transform {
	bind := IdentityTransform()
	if bone >= 0 && bone < cs.skeleton.BoneCount() {
		bind = cs.skeleton.Bones[bone].LocalTransform
	}
	if int(clip) >= len(cs.clips) {
		return bind
	}
	chi, ok := cs.channels[clip][int32(bone)]
	if !ok {
		return bind
	}
	return SampleChannel(&cs.clips[clip].Channels[chi], time, bind)
}

// LoopTime wraps time into the clip's length.
func (cs *ClipSet) LoopTime(clip uint16, time float32) float32 {
	if int(clip) >= len(cs.clips) {
		return 0
	}
	return cs.clips[clip].LoopTime(time)
}

// ClipEvents returns the events embedded in clip.
func (cs *ClipSet) ClipEvents(clip uint16) []ClipEvent {
	if int(clip) >= len(cs.clips) {
		return nil
	}
	return cs.clips[clip].Events
}
