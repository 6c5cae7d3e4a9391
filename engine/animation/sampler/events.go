package sampler

import (
	"github.com/Carmen-Shannon/oxy-animgraph/common"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/blend"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/model"
)

// RaisedEvent is an event crossed this frame.
type RaisedEvent struct {
	ClipIndex uint16
	// Weight is the source clip's blend weight.
	Weight float32
	Event  model.ClipEvent
}

// eventSampler is the part of ClipSource event raising needs.
type eventSampler interface {
	PoseSampler
	EventSource
}

// RaiseEvents appends every event whose time was crossed between each sampler's
// previous and current clip-local time. A sampler that wrapped this frame checks
// (previous, length] and (0, current].
//
// Parameters:
//   - dst: the entity's event buffer, truncated by the caller each frame
//   - samplers: the entity's aggregated sampler list
//   - src: the entity's clip source
//
// Returns:
//   - []RaisedEvent: dst with this frame's events appended
func RaiseEvents(dst []RaisedEvent, samplers []blend.ClipSampler, src eventSampler) []RaisedEvent {
	for i := range samplers {
		s := &samplers[i]
		if s.Weight <= common.Epsilon {
			continue
		}
		events := src.ClipEvents(s.ClipIndex)
		if len(events) == 0 {
			continue
		}
		cur, prev := sampleTimes(src, s)
		if cur == prev {
			continue
		}
		looped := prev > cur
		for _, e := range events {
			if !crossed(e.Time, prev, cur, s.TotalTime, looped) {
				continue
			}
			dst = append(dst, RaisedEvent{ClipIndex: s.ClipIndex, Weight: s.Weight, Event: e})
		}
	}
	return dst
}

func crossed(t, prev, cur, total float32, looped bool) bool {
	if looped {
		return (t > prev && t <= total) || (t > 0 && t <= cur)
	}
	return t > prev && t <= cur
}
