// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xorname implements the fixed-width XOR-metric identifiers and
// prefix-tree operations that index every section, elder and candidate in
// the overlay. A Name is a 256-bit opaque identifier; a Prefix names the
// region of the key space a section is responsible for.
package xorname

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Len is the width of a Name in bytes (256 bits).
const Len = 32

// Bits is the width of a Name in bits.
const Bits = Len * 8

// Name is a 256-bit identifier in the overlay's key space. The distance
// between two names is their bitwise XOR interpreted as a big-endian
// unsigned integer; smaller XOR means closer.
type Name [Len]byte

// FromPublicKey derives the XOR name of a node from its signing public key,
// matching the "256-bit identifier derived by hashing a node's signing
// public key" rule used throughout the overlay.
func FromPublicKey(pub []byte) Name {
	return Name(sha256.Sum256(pub))
}

// FromBytes copies b (which must be exactly Len bytes) into a Name.
func FromBytes(b []byte) (Name, error) {
	var n Name
	if len(b) != Len {
		return n, fmt.Errorf("xorname: want %d bytes, got %d", Len, len(b))
	}
	copy(n[:], b)
	return n, nil
}

// Bytes returns the name's raw bytes.
func (n Name) Bytes() []byte {
	b := make([]byte, Len)
	copy(b, n[:])
	return b
}

// String returns the hex encoding of n.
func (n Name) String() string {
	return hex.EncodeToString(n[:])
}

// Equal reports whether n and other are the same name.
func (n Name) Equal(other Name) bool {
	return n == other
}

// Cmp returns -1, 0 or 1 as n is numerically less than, equal to, or
// greater than other, treating both as big-endian unsigned integers. This
// is a plain lexicographic byte comparison, independent of any target.
func (n Name) Cmp(other Name) int {
	return bytes.Compare(n[:], other[:])
}

// xor returns the bitwise XOR of a and b.
func xor(a, b Name) Name {
	var out Name
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// CloserTo reports whether a is closer to target than b, under the XOR
// metric: (a XOR target) < (b XOR target). This is a strict weak order
// with target as the unique minimum.
func CloserTo(a, b, target Name) bool {
	da := xor(a, target)
	db := xor(b, target)
	return bytes.Compare(da[:], db[:]) < 0
}

// CloserToOrEqual reports whether a is closer to target than b, or a == b.
func CloserToOrEqual(a, b, target Name) bool {
	return a == b || CloserTo(a, b, target)
}

// Bit returns the value (0 or 1) of the i-th most-significant bit of n.
// Bit 0 is the top bit of byte 0.
func (n Name) Bit(i int) uint8 {
	byteIdx := i / 8
	bitIdx := uint(7 - i%8)
	return (n[byteIdx] >> bitIdx) & 1
}

// CommonPrefixBits returns the number of leading bits a and b share, i.e.
// the length of the longest common prefix between the two names.
func CommonPrefixBits(a, b Name) int {
	for i := 0; i < Len; i++ {
		if a[i] == b[i] {
			continue
		}
		diff := a[i] ^ b[i]
		for bit := 0; bit < 8; bit++ {
			if diff&(0x80>>uint(bit)) != 0 {
				return i*8 + bit
			}
		}
	}
	return Bits
}
