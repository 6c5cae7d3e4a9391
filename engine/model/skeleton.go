package model

import "fmt"

// NewSkeleton builds a Skeleton from a bone list and fills in the root and name lookup tables.
// Bones must be ordered so that every parent precedes its children.
//
// Parameters:
//   - bones: the bones of the hierarchy, parent-first
//
// Returns:
//   - *Skeleton: the indexed skeleton
//   - error: error if a parent index is out of range or does not precede its child
func NewSkeleton(bones []Bone) (*Skeleton, error) {
	s := &Skeleton{Bones: bones}
	if err := s.Index(); err != nil {
		return nil, err
	}
	return s, nil
}

// Index rebuilds RootBoneIndices and BoneNameToIndex from Bones.
// Called after decoding a skeleton from YAML, where only the bone list is stored.
//
// Returns:
//   - error: error if a parent index is out of range or does not precede its child
func (s *Skeleton) Index() error {
	s.RootBoneIndices = s.RootBoneIndices[:0]
	s.BoneNameToIndex = make(map[string]int32, len(s.Bones))
	for i, b := range s.Bones {
		if b.ParentIndex >= int32(i) || b.ParentIndex < -1 {
			return fmt.Errorf("bone %d (%q) has invalid parent %d", i, b.Name, b.ParentIndex)
		}
		if b.ParentIndex == -1 {
			s.RootBoneIndices = append(s.RootBoneIndices, int32(i))
		}
		if b.Name != "" {
			s.BoneNameToIndex[b.Name] = int32(i)
		}
		if s.Bones[i].LocalTransform.Rotation == [4]float32{} {
			s.Bones[i].LocalTransform.Rotation = [4]float32{0, 0, 0, 1}
		}
		if s.Bones[i].LocalTransform.Scale == [3]float32{} {
			s.Bones[i].LocalTransform.Scale = [3]float32{1, 1, 1}
		}
	}
	return nil
}

// BoneCount returns the number of bones in the skeleton.
func (s *Skeleton) BoneCount() int {
	return len(s.Bones)
}

// ParentIndex returns the parent of the given bone, or -1 for roots and out-of-range indices.
func (s *Skeleton) ParentIndex(bone int) int32 {
	if bone < 0 || bone >= len(s.Bones) {
		return -1
	}
	return s.Bones[bone].ParentIndex
}
