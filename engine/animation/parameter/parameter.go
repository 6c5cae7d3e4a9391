package parameter

import (
	"github.com/Carmen-Shannon/oxy-animgraph/common"
)

// Definition describes one parameter in a compiled graph: its name hash, the name for
// diagnostics and its default value.
type Definition[T bool | int32 | float32] struct {
	Hash    uint64
	Name    string
	Default T
}

// Definitions holds the three independent parameter lists of a compiled graph.
type Definitions struct {
	Bools  []Definition[bool]
	Ints   []Definition[int32]
	Floats []Definition[float32]
}

// BoolIndex returns the slot of the bool parameter with the given hash, or -1.
func (d *Definitions) BoolIndex(hash uint64) int { return indexOf(d.Bools, hash) }

// IntIndex returns the slot of the int parameter with the given hash, or -1.
func (d *Definitions) IntIndex(hash uint64) int { return indexOf(d.Ints, hash) }

// FloatIndex returns the slot of the float parameter with the given hash, or -1.
func (d *Definitions) FloatIndex(hash uint64) int { return indexOf(d.Floats, hash) }

func indexOf[T bool | int32 | float32](defs []Definition[T], hash uint64) int {
	for i := range defs {
		if defs[i].Hash == hash {
			return i
		}
	}
	return -1
}

// Store holds the live parameter values of one graph instance, or the synchronized copy
// held by one state-machine instance. Values are addressed by slot index at runtime and
// by name hash from gameplay code.
type Store struct {
	defs   *Definitions
	bools  []bool
	ints   []int32
	floats []float32
}

// NewStore creates a Store initialized to the default values in defs.
// defs is shared, not copied, and must not change after the store is created.
//
// Parameters:
//   - defs: the compiled parameter definitions
//
// Returns:
//   - *Store: the new store
func NewStore(defs *Definitions) *Store {
	s := &Store{
		defs:   defs,
		bools:  make([]bool, len(defs.Bools)),
		ints:   make([]int32, len(defs.Ints)),
		floats: make([]float32, len(defs.Floats)),
	}
	s.Reset()
	return s
}

// Reset restores every value to its default.
func (s *Store) Reset() {
	for i, d := range s.defs.Bools {
		s.bools[i] = d.Default
	}
	for i, d := range s.defs.Ints {
		s.ints[i] = d.Default
	}
	for i, d := range s.defs.Floats {
		s.floats[i] = d.Default
	}
}

// Definitions returns the definitions backing the store.
func (s *Store) Definitions() *Definitions {
	return s.defs
}

// SetBool writes the bool parameter with the given name hash.
//
// Parameters:
//   - hash: the parameter's name hash
//   - value: the new value
//
// Returns:
//   - bool: false if no bool parameter has that hash
func (s *Store) SetBool(hash uint64, value bool) bool {
	i := s.defs.BoolIndex(hash)
	if i < 0 {
		return false
	}
	s.bools[i] = value
	return true
}

// SetInt writes the int parameter with the given name hash.
//
// Parameters:
//   - hash: the parameter's name hash
//   - value: the new value
//
// Returns:
//   - bool: false if no int parameter has that hash
func (s *Store) SetInt(hash uint64, value int32) bool {
	i := s.defs.IntIndex(hash)
	if i < 0 {
		return false
	}
	s.ints[i] = value
	return true
}

// SetFloat writes the float parameter with the given name hash.
//
// Parameters:
//   - hash: the parameter's name hash
//   - value: the new value
//
// Returns:
//   - bool: false if no float parameter has that hash
func (s *Store) SetFloat(hash uint64, value float32) bool {
	i := s.defs.FloatIndex(hash)
	if i < 0 {
		return false
	}
	s.floats[i] = value
	return true
}

// SetBoolByName hashes name and writes the bool parameter.
func (s *Store) SetBoolByName(name string, value bool) bool {
	return s.SetBool(common.NameHash(name), value)
}

// SetIntByName hashes name and writes the int parameter.
func (s *Store) SetIntByName(name string, value int32) bool {
	return s.SetInt(common.NameHash(name), value)
}

// SetFloatByName hashes name and writes the float parameter.
func (s *Store) SetFloatByName(name string, value float32) bool {
	return s.SetFloat(common.NameHash(name), value)
}

// Bool returns the bool value in slot. Out-of-range slots are a compiler bug and panic.
func (s *Store) Bool(slot int) bool { return s.bools[slot] }

// Int returns the int value in slot. Out-of-range slots are a compiler bug and panic.
func (s *Store) Int(slot int) int32 { return s.ints[slot] }

// Float returns the float value in slot. Out-of-range slots are a compiler bug and panic.
func (s *Store) Float(slot int) float32 { return s.floats[slot] }

// CopyFrom overwrites every value with the values of src.
// Both stores must share the same definitions.
//
// Parameters:
//   - src: the store to copy from
func (s *Store) CopyFrom(src *Store) {
	copy(s.bools, src.bools)
	copy(s.ints, src.ints)
	copy(s.floats, src.floats)
}
