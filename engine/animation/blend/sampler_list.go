package blend

// ClipSampler is one entry of an entity's flat sampler list: a clip and the weight and
// timing the pose sampler needs for it this frame.
type ClipSampler struct {
	ClipIndex    uint16
	Weight       float32
	Time         float32
	PreviousTime float32
	TotalTime    float32
	Loop         bool
}

// Aggregate upserts contributions into samplers by clip index and drops every sampler
// that received no contribution this frame.
// The first contribution for a clip sets its timing; later ones for the same clip add
// their weight.
//
// Parameters:
//   - samplers: the entity's sampler list from the previous frame
//   - contributions: this frame's contributions, in deterministic order
//
// Returns:
//   - []ClipSampler: the updated list, reusing samplers' storage
//   - int: the number of stale samplers removed
func Aggregate(samplers []ClipSampler, contributions []Contribution) ([]ClipSampler, int) {
	touched := make([]bool, len(samplers), len(samplers)+len(contributions))

	for _, c := range contributions {
		i := find(samplers, c.ClipIndex)
		if i >= 0 && touched[i] {
			samplers[i].Weight += c.Weight
			continue
		}
		s := ClipSampler{
			ClipIndex:    c.ClipIndex,
			Weight:       c.Weight,
			Time:         c.Time,
			PreviousTime: c.PreviousTime,
			TotalTime:    c.TotalTime,
			Loop:         c.Loop,
		}
		if i >= 0 {
			samplers[i] = s
			touched[i] = true
			continue
		}
		samplers = append(samplers, s)
		touched = append(touched, true)
	}

	kept := samplers[:0]
	for i, s := range samplers {
		if touched[i] {
			kept = append(kept, s)
		}
	}
	stale := len(samplers) - len(kept)
	clear(samplers[len(kept):])
	return kept, stale
}

func find(samplers []ClipSampler, clip uint16) int {
	for i := range samplers {
		if samplers[i].ClipIndex == clip {
			return i
		}
	}
	return -1
}
