// Package lookup2 implements Bob Jenkins' public domain lookup2 hash.
//
// The output is bit-for-bit compatible with the reference lookup2.c on
// little-endian machines. Archive name tables and the v6 archive content
// hashes are keyed by it, so the mixing steps must not be altered.
package lookup2

import (
	"encoding/binary"
	"unsafe"
)

// golden is the golden ratio; an arbitrary seed for a and b.
const golden = 0x9e3779b9

func mix(a, b, c uint32) (uint32, uint32, uint32) {
	a -= b
	a -= c
	a ^= c >> 13
	b -= c
	b -= a
	b ^= a << 8
	c -= a
	c -= b
	c ^= b >> 13
	a -= b
	a -= c
	a ^= c >> 12
	b -= c
	b -= a
	b ^= a << 16
	c -= a
	c -= b
	c ^= b >> 5
	a -= b
	a -= c
	a ^= c >> 3
	b -= c
	b -= a
	b ^= a << 10
	c -= a
	c -= b
	c ^= b >> 15
	return a, b, c
}

// Hash returns the lookup2 hash of k seeded with initial.
func Hash(k []byte, initial uint32) uint32 {
	a, b, c := uint32(golden), uint32(golden), initial
	length := uint32(len(k))

	for len(k) >= 12 {
		a += binary.LittleEndian.Uint32(k[0:])
		b += binary.LittleEndian.Uint32(k[4:])
		c += binary.LittleEndian.Uint32(k[8:])
		a, b, c = mix(a, b, c)
		k = k[12:]
	}

	// The low byte of c is reserved for the length.
	c += length
	switch len(k) {
	case 11:
		c += uint32(k[10]) << 24
		fallthrough
	case 10:
		c += uint32(k[9]) << 16
		fallthrough
	case 9:
		c += uint32(k[8]) << 8
		fallthrough
	case 8:
		b += uint32(k[7]) << 24
		fallthrough
	case 7:
		b += uint32(k[6]) << 16
		fallthrough
	case 6:
		b += uint32(k[5]) << 8
		fallthrough
	case 5:
		b += uint32(k[4])
		fallthrough
	case 4:
		a += uint32(k[3]) << 24
		fallthrough
	case 3:
		a += uint32(k[2]) << 16
		fallthrough
	case 2:
		a += uint32(k[1]) << 8
		fallthrough
	case 1:
		a += uint32(k[0])
	}
	_, _, c = mix(a, b, c)
	return c
}

// HashString hashes the bytes of s without copying them.
func HashString(s string, initial uint32) uint32 {
	// Hash only reads its input.
	return Hash(unsafe.Slice(unsafe.StringData(s), len(s)), initial)
}
