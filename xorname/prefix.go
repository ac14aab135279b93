// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package xorname

import (
	"encoding/json"
	"sort"
	"strings"
)

// Prefix identifies the region of the key space a section is responsible
// for: the first Len bits of bits that matter, of which only the leading
// length are significant. Two prefixes of the same length with the same
// leading bits are the same prefix; a shorter prefix is an ancestor of any
// longer one sharing its bits.
type Prefix struct {
	bits   Name
	length int
}

// EmptyPrefix is the zero-length prefix: it matches every name and has no
// ancestor.
var EmptyPrefix = Prefix{length: 0}

// NewPrefix builds a Prefix of the given bit length from name, keeping
// only the leading length bits (the rest are masked to zero so that two
// prefixes with the same length and leading bits compare equal).
func NewPrefix(name Name, length int) Prefix {
	if length < 0 {
		length = 0
	}
	if length > Bits {
		length = Bits
	}
	p := Prefix{bits: name, length: length}
	p.mask()
	return p
}

// mask zeroes every bit beyond p.length so equality and hashing are
// well-defined regardless of what garbage lived past the boundary.
func (p *Prefix) mask() {
	full := p.length / 8
	rem := p.length % 8
	for i := full + 1; i < Len; i++ {
		p.bits[i] = 0
	}
	if full < Len && rem > 0 {
		keep := byte(0xFF << uint(8-rem))
		p.bits[full] &= keep
	} else if full < Len && rem == 0 {
		p.bits[full] = 0
	}
}

// Len returns the prefix's bit length.
func (p Prefix) Len() int {
	return p.length
}

// Name returns the masked bits backing the prefix, suitable for use as a
// representative name inside the prefix's region.
func (p Prefix) Name() Name {
	return p.bits
}

// Matches reports whether name falls within the region p identifies.
func (p Prefix) Matches(name Name) bool {
	return CommonPrefixBits(p.bits, name) >= p.length
}

// IsCompatible reports whether p and other are the same prefix or one is
// an ancestor of the other (neither strictly diverges from the other
// within the shorter prefix's length).
func (p Prefix) IsCompatible(other Prefix) bool {
	minLen := p.length
	if other.length < minLen {
		minLen = other.length
	}
	return CommonPrefixBits(p.bits, other.bits) >= minLen
}

// IsAncestorOf reports whether p is a strict ancestor of other: other is
// longer and agrees with p on p's leading bits.
func (p Prefix) IsAncestorOf(other Prefix) bool {
	return p.length < other.length && CommonPrefixBits(p.bits, other.bits) >= p.length
}

// Ancestor returns the ancestor of p truncated to n bits. Panics-free:
// n is clamped to [0, p.length].
func (p Prefix) Ancestor(n int) Prefix {
	if n > p.length {
		n = p.length
	}
	return NewPrefix(p.bits, n)
}

// Parent returns the direct ancestor of p, one bit shorter. Calling Parent
// on EmptyPrefix returns EmptyPrefix.
func (p Prefix) Parent() Prefix {
	if p.length == 0 {
		return p
	}
	return p.Ancestor(p.length - 1)
}

// Sibling returns the prefix that differs from p only in its final bit,
// i.e. the other child of p's parent. Calling Sibling on EmptyPrefix
// returns EmptyPrefix.
func (p Prefix) Sibling() Prefix {
	if p.length == 0 {
		return p
	}
	flipped := p.bits
	byteIdx := (p.length - 1) / 8
	bitIdx := uint(7 - (p.length-1)%8)
	flipped[byteIdx] ^= 1 << bitIdx
	return NewPrefix(flipped, p.length)
}

// Split returns the two child prefixes of p, one bit longer: the branch
// reached by appending 0 and the branch reached by appending 1.
func (p Prefix) Split() (zero, one Prefix) {
	zeroBits := p.bits
	oneBits := p.bits
	byteIdx := p.length / 8
	bitIdx := uint(7 - p.length%8)
	if byteIdx < Len {
		oneBits[byteIdx] |= 1 << bitIdx
	}
	return NewPrefix(zeroBits, p.length+1), NewPrefix(oneBits, p.length+1)
}

// IsSiblingOf reports whether p and other are the two children of the
// same parent.
func (p Prefix) IsSiblingOf(other Prefix) bool {
	return p.length == other.length && p.length > 0 && p.Parent() == other.Parent() && p != other
}

// Equal reports whether p and other identify exactly the same region.
func (p Prefix) Equal(other Prefix) bool {
	return p.length == other.length && p.bits == other.bits
}

// String renders p as a sequence of '0'/'1' characters, one per
// significant bit, e.g. "101".
func (p Prefix) String() string {
	var sb strings.Builder
	for i := 0; i < p.length; i++ {
		if p.bits.Bit(i) == 0 {
			sb.WriteByte('0')
		} else {
			sb.WriteByte('1')
		}
	}
	return sb.String()
}

// CmpDistance orders a and b by XOR distance to name; used to rank
// candidate sections or elders by closeness to a target. Returns -1, 0, 1
// as Cmp does.
func CmpDistance(a, b, name Name) int {
	switch {
	case CloserTo(a, b, name):
		return -1
	case CloserTo(b, a, name):
		return 1
	default:
		return 0
	}
}

// SortByDistance orders names by ascending XOR distance to target.
func SortByDistance(names []Name, target Name) {
	sort.Slice(names, func(i, j int) bool {
		return CloserTo(names[i], names[j], target)
	})
}

// prefixWire is the wire form of a Prefix, exposing its otherwise
// unexported fields for encoding.
type prefixWire struct {
	Bits   Name `json:"bits"`
	Length int  `json:"length"`
}

// MarshalJSON encodes p as its bits and length.
func (p Prefix) MarshalJSON() ([]byte, error) {
	return json.Marshal(prefixWire{Bits: p.bits, Length: p.length})
}

// UnmarshalJSON decodes p from the form MarshalJSON produces.
func (p *Prefix) UnmarshalJSON(data []byte) error {
	var w prefixWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.bits = w.Bits
	p.length = w.Length
	return nil
}
