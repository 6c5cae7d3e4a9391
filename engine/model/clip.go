package model

import (
	"math"
	"sort"

	"github.com/Carmen-Shannon/oxy-animgraph/common"
)

// LoopTime wraps an unbounded playback time into [0, Duration).
// A clip without length always maps to 0.
//
// Parameters:
//   - time: the accumulated playback time in seconds
//
// Returns:
//   - float32: the clip-local time
func (c *AnimationClip) LoopTime(time float32) float32 {
	if c.Duration <= 0 {
		return 0
	}
	t := float32(math.Mod(float64(time), float64(c.Duration)))
	if t < 0 {
		t += c.Duration
	}
	return t
}

// SampleChannel evaluates one channel at the given clip-local time.
// Components without keys keep the value from bind.
//
// Parameters:
//   - ch: the channel to evaluate
//   - time: clip-local time in seconds
//   - bind: fallback transform for components the channel does not animate
//
// Returns:
//   - Transform: the interpolated bone-local transform
func SampleChannel(ch *AnimationChannel, time float32, bind Transform) Transform {
	out := bind
	if len(ch.PositionKeys) > 0 {
		out.Translation = sampleVector(ch.PositionKeys, time)
	}
	if len(ch.RotationKeys) > 0 {
		out.Rotation = sampleQuaternion(ch.RotationKeys, time)
	}
	if len(ch.ScaleKeys) > 0 {
		out.Scale = sampleVector(ch.ScaleKeys, time)
	}
	return out
}

// keySpan finds the pair of keys surrounding time and the blend factor between them.
// Times outside the key range clamp to the first or last key.
func keySpan(n int, keyTime func(int) float32, time float32) (int, int, float32) {
	if n == 1 || time <= keyTime(0) {
		return 0, 0, 0
	}
	if time >= keyTime(n-1) {
		return n - 1, n - 1, 0
	}
	next := sort.Search(n, func(i int) bool { return keyTime(i) > time })
	prev := next - 1
	span := keyTime(next) - keyTime(prev)
	if span <= 0 {
		return next, next, 0
	}
	return prev, next, (time - keyTime(prev)) / span
}

func sampleVector(keys []VectorKeyframe, time float32) [3]float32 {
	a, b, t := keySpan(len(keys), func(i int) float32 { return keys[i].Time }, time)
	if a == b {
		return keys[a].Value
	}
	return common.Vec3Lerp(keys[a].Value, keys[b].Value, t)
}

func sampleQuaternion(keys []QuaternionKeyframe, time float32) [4]float32 {
	a, b, t := keySpan(len(keys), func(i int) float32 { return keys[i].Time }, time)
	if a == b {
		return common.QuatNormalize(keys[a].Value)
	}
	return common.QuatSlerp(common.QuatNormalize(keys[a].Value), common.QuatNormalize(keys[b].Value), t)
}
