// Package sizing checks that offsets read from a file describe ranges
// inside it.
package sizing

import "math/bits"

// Within reports whether the n bytes at off end at or before limit.
func Within(off, n, limit uint64) bool {
	end, carry := bits.Add64(off, n, 0)
	return carry == 0 && end <= limit
}

// Table reports whether a table of count records of size bytes each,
// starting at off, ends at or before limit.
func Table(off, count, size, limit uint64) bool {
	hi, total := bits.Mul64(count, size)
	return hi == 0 && Within(off, total, limit)
}
