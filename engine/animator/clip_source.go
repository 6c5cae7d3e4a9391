package animator

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/graph"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/model"
)

// ClipSetForGraph binds keyframe clips to a compiled graph's clip table by name.
//
// Parameters:
//   - g: the compiled graph
//   - skeleton: the skeleton every clip animates
//   - byName: the available clips keyed by name
//
// Returns:
//   - *model.ClipSet: a clip set indexed like g.Clips
//   - error: model.ErrClipLengthMismatch if a clip disagrees with its compiled length, or
//     error if a clip channel does not fit the skeleton
func ClipSetForGraph(g *graph.Graph, skeleton *model.Skeleton, byName map[string]*model.AnimationClip) (*model.ClipSet, error) {
	cs, err := model.NewClipSetByName(skeleton, g.ClipNames(), g.ClipLengths(), byName)
	if err != nil {
		return nil, fmt.Errorf("bind clips of graph %s: %w", g.Name, err)
	}
	return cs, nil
}
