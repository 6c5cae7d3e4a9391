package buffer_id

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	key   uint8
	owner int
}

func (e entry) BufferKey() uint8 { return e.key }

func TestNullNeverResolves(t *testing.T) {
	elems := []entry{{key: 0}, {key: 1}}
	id := Null
	assert.False(t, id.Valid())
	assert.Equal(t, -1, IndexOf(elems, &id, nil))
	assert.False(t, Null.Same(Null))
}

func TestIndexOfUsesAndRefreshesHint(t *testing.T) {
	elems := []entry{{key: 4}, {key: 7}, {key: 9}}

	id := New(9)
	assert.Equal(t, -1, id.Hint())
	require.Equal(t, 2, IndexOf(elems, &id, nil))
	assert.Equal(t, 2, id.Hint())

	// Stale hint pointing at a different element falls back to a scan.
	elems = SwapRemove(elems, 0)
	require.Equal(t, []entry{{key: 9}, {key: 7}}, elems)
	assert.Equal(t, 0, IndexOf(elems, &id, nil))
	assert.Equal(t, 0, id.Hint())

	// Hint past the end of the collection.
	stale := NewAt(7, 12)
	assert.Equal(t, 1, IndexOf(elems, &stale, nil))
	assert.Equal(t, 1, stale.Hint())
}

func TestIndexOfMatchPredicate(t *testing.T) {
	elems := []entry{{key: 3, owner: -1}, {key: 3, owner: 2}}
	id := NewAt(3, 0)

	i := IndexOf(elems, &id, func(e *entry) bool { return e.owner == 2 })
	assert.Equal(t, 1, i)
	assert.Equal(t, 1, id.Hint())

	missing := New(3)
	assert.Equal(t, -1, IndexOf(elems, &missing, func(e *entry) bool { return e.owner == 5 }))
	assert.Equal(t, -1, missing.Hint())
}

func TestLookupReturnsPointerIntoCollection(t *testing.T) {
	elems := []entry{{key: 1}, {key: 2}}
	id := New(2)
	e, ok := Lookup(elems, &id, nil)
	require.True(t, ok)
	e.owner = 42
	assert.Equal(t, 42, elems[1].owner)

	gone := New(99)
	_, ok = Lookup(elems, &gone, nil)
	assert.False(t, ok)
}

// Random insert/swap-remove sequences must never return a mismatched element,
// whatever the cached slot says.
func TestCacheCoherenceUnderSwapRemove(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		var elems []entry
		ids := map[uint8]*BufferID{}
		live := map[uint8]bool{}
		next := uint8(0)

		for op := 0; op < 200; op++ {
			if len(elems) == 0 || (rng.Intn(3) > 0 && next < 250) {
				elems = append(elems, entry{key: next})
				id := NewAt(next, len(elems)-1)
				ids[next] = &id
				live[next] = true
				next++
			} else {
				i := rng.Intn(len(elems))
				delete(live, elems[i].key)
				elems = SwapRemove(elems, i)
			}

			for key, id := range ids {
				got := IndexOf(elems, id, nil)
				if live[key] {
					require.GreaterOrEqual(t, got, 0, "live id %d not found", key)
					require.Equal(t, key, elems[got].key)
					require.Equal(t, got, id.Hint())
				} else {
					require.Equal(t, -1, got, "removed id %d resolved", key)
				}
			}
		}
	}
}
