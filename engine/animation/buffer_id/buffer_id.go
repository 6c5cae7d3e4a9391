package buffer_id

import "math"

// noHint marks a BufferID without a cached slot.
const noHint int16 = -1

// BufferID addresses an element of a dynamic, order-changing collection.
// It pairs a stable byte-sized unique ID with a cached slot index that is only a hint:
// swap-removes move unrelated elements into stale slots, so every lookup verifies the
// hint and falls back to a linear scan that refreshes it.
//
// BufferIDs are values that carry their own cache. Pass them by pointer to lookups so
// the refreshed hint is kept.
type BufferID struct {
	id    uint8
	hint  int16
	valid bool
}

// Null is the BufferID that never resolves.
var Null = BufferID{hint: noHint}

// New returns a valid BufferID for the given unique ID with no cached slot.
//
// Parameters:
//   - id: the stable unique ID of the element
//
// Returns:
//   - BufferID: the new id, which resolves through a full scan on first use
func New(id uint8) BufferID {
	return BufferID{id: id, hint: noHint, valid: true}
}

// NewAt returns a valid BufferID for the given unique ID with slot as the cached index.
//
// Parameters:
//   - id: the stable unique ID of the element
//   - slot: the element's current position in its collection
//
// Returns:
//   - BufferID: the new id
func NewAt(id uint8, slot int) BufferID {
	b := New(id)
	b.setHint(slot)
	return b
}

// ID returns the stable unique ID.
func (b BufferID) ID() uint8 {
	return b.id
}

// Hint returns the cached slot index, or -1 when none is cached.
func (b BufferID) Hint() int {
	return int(b.hint)
}

// Valid reports whether the id can resolve at all.
func (b BufferID) Valid() bool {
	return b.valid
}

// Same reports whether two ids name the same element, ignoring cached slots.
// Null is never the same as anything, including another Null.
func (b BufferID) Same(other BufferID) bool {
	return b.valid && other.valid && b.id == other.id
}

// Invalidate drops the cached slot, forcing the next lookup to rescan.
func (b *BufferID) Invalidate() {
	b.hint = noHint
}

func (b *BufferID) setHint(slot int) {
	if slot < 0 || slot > math.MaxInt16 {
		b.hint = noHint
		return
	}
	b.hint = int16(slot)
}

// Element is implemented by collection entries addressable through a BufferID.
type Element interface {
	BufferKey() uint8
}

// IndexOf resolves id against elems and returns the slot index, or -1 if no element matches.
// The cached slot is tried first. On a miss the collection is scanned linearly and the
// cache is refreshed. match, when non-nil, narrows the search to elements for which it
// returns true; it is checked on the cached slot as well.
//
// Parameters:
//   - elems: the collection to search
//   - id: the id to resolve; its cached slot is updated in place
//   - match: optional extra predicate an element must satisfy
//
// Returns:
//   - int: the slot of the matching element, or -1
func IndexOf[T Element](elems []T, id *BufferID, match func(*T) bool) int {
	if id == nil || !id.valid {
		return -1
	}

	if h := int(id.hint); h >= 0 && h < len(elems) {
		e := &elems[h]
		if (*e).BufferKey() == id.id && (match == nil || match(e)) {
			return h
		}
	}

	for i := range elems {
		e := &elems[i]
		if (*e).BufferKey() != id.id {
			continue
		}
		if match != nil && !match(e) {
			continue
		}
		id.setHint(i)
		return i
	}

	id.hint = noHint
	return -1
}

// Lookup resolves id against elems and returns a pointer into the collection.
//
// Parameters:
//   - elems: the collection to search
//   - id: the id to resolve; its cached slot is updated in place
//   - match: optional extra predicate an element must satisfy
//
// Returns:
//   - *T: pointer to the matching element, valid until the collection is mutated
//   - bool: false if nothing matched
func Lookup[T Element](elems []T, id *BufferID, match func(*T) bool) (*T, bool) {
	i := IndexOf(elems, id, match)
	if i < 0 {
		return nil, false
	}
	return &elems[i], true
}

// SwapRemove removes elems[i] by moving the last element into its slot.
// Order is not preserved, which is why BufferID hints must be verified on every lookup.
//
// Parameters:
//   - elems: the collection
//   - i: the slot to remove
//
// Returns:
//   - []T: the shortened collection
func SwapRemove[T any](elems []T, i int) []T {
	last := len(elems) - 1
	if i != last {
		elems[i] = elems[last]
	}
	var zero T
	elems[last] = zero
	return elems[:last]
}
