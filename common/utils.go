package common

import (
	"cmp"

	"github.com/cespare/xxhash/v2"
)

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Clamp restricts v to the closed range [lo, hi].
//
// Parameters:
//   - v: the value to clamp
//   - lo: lower bound
//   - hi: upper bound
//
// Returns:
//   - T: v limited to [lo, hi]
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NameHash returns the 64-bit runtime key for a parameter or asset name.
// Names are only kept for diagnostics, every runtime join uses this hash.
//
// Parameters:
//   - name: the name to hash
//
// Returns:
//   - uint64: the xxhash64 digest of name
func NameHash(name string) uint64 {
	return xxhash.Sum64String(name)
}
