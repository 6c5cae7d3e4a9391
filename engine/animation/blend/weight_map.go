// Package blend aggregates per-node clip weights into each entity's flat sampler list.
package blend

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/node_state"
)

// Contribution is one weighted clip row offered to an entity's sampler list.
type Contribution struct {
	// Source orders contributions deterministically: 0 for the entity's own graph,
	// state-machine index + 1 for state-machine instances.
	Source       int
	ClipIndex    uint16
	Weight       float32
	Time         float32
	PreviousTime float32
	TotalTime    float32
	Loop         bool
}

// WeightMap is the frame-scoped multi-map from entity to clip contributions.
// Writers on different goroutines may Add concurrently; readers run after the
// frame barrier. Create one per frame and drop it when the frame ends.
type WeightMap struct {
	mu      sync.Mutex
	entries map[uint64][]Contribution
}

// NewWeightMap creates an empty map sized for the given number of entities.
func NewWeightMap(entities int) *WeightMap {
	return &WeightMap{entries: make(map[uint64][]Contribution, entities)}
}

// Add appends contributions for entity.
//
// Parameters:
//   - entity: the owning entity id
//   - c: the contributions to append
func (w *WeightMap) Add(entity uint64, c ...Contribution) {
	if len(c) == 0 {
		return
	}
	w.mu.Lock()
	w.entries[entity] = append(w.entries[entity], c...)
	w.mu.Unlock()
}

// Contributions returns entity's contributions ordered by source.
// Rows from the same source keep their insertion order.
//
// Parameters:
//   - entity: the owning entity id
//
// Returns:
//   - []Contribution: the ordered contributions, owned by the map
func (w *WeightMap) Contributions(entity uint64) []Contribution {
	w.mu.Lock()
	c := w.entries[entity]
	w.mu.Unlock()
	slices.SortStableFunc(c, func(a, b Contribution) int { return a.Source - b.Source })
	return c
}

// Collect builds the contributions of every weighted clip row in table.
//
// Parameters:
//   - dst: slice to append to
//   - source: the Source tag of the table's owner
//   - table: the node state table to read
//
// Returns:
//   - []Contribution: dst with the table's rows appended
func Collect(dst []Contribution, source int, table *node_state.Table) []Contribution {
	for i := range table.Clips {
		c := &table.Clips[i]
		if c.Weight == 0 {
			continue
		}
		dst = append(dst, Contribution{
			Source:       source,
			ClipIndex:    c.ClipIndex,
			Weight:       c.Weight,
			Time:         c.Time,
			PreviousTime: c.PreviousTime,
			TotalTime:    c.TotalTime,
			Loop:         c.Loop,
		})
	}
	return dst
}
