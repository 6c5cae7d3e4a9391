package compiler

import "fmt"

// MaxConfigID is the largest clip config id. Id 0 means unassigned.
const MaxConfigID = 255

// AssignConfigIDs gives every clip node without a config id the first unused id in
// [1, MaxConfigID], scanning from 1. Existing ids are kept.
//
// Parameters:
//   - a: the asset; clip nodes are updated in place
//
// Returns:
//   - error: ErrDuplicateConfigID if two nodes already share an id, or
//     ErrConfigIDExhausted if the id space runs out
func AssignConfigIDs(a *Asset) error {
	var used [MaxConfigID + 1]bool
	owner := map[uint8]string{}
	for i := range a.Nodes {
		n := &a.Nodes[i]
		if n.Kind != NodeKindClip || n.ConfigID == 0 {
			continue
		}
		if prev, dup := owner[n.ConfigID]; dup {
			return fmt.Errorf("%w: %d used by %q and %q", ErrDuplicateConfigID, n.ConfigID, prev, n.ID)
		}
		owner[n.ConfigID] = n.ID
		used[n.ConfigID] = true
	}

	next := 1
	for i := range a.Nodes {
		n := &a.Nodes[i]
		if n.Kind != NodeKindClip || n.ConfigID != 0 {
			continue
		}
		for next <= MaxConfigID && used[next] {
			next++
		}
		if next > MaxConfigID {
			return fmt.Errorf("%w: clip node %q in asset %q", ErrConfigIDExhausted, n.ID, a.Name)
		}
		n.ConfigID = uint8(next)
		used[next] = true
	}
	return nil
}
