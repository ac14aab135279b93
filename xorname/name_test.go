// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package xorname

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func nameOf(b byte) Name {
	var n Name
	n[0] = b
	return n
}

func TestCloserTo(t *testing.T) {
	require := require.New(t)

	target := nameOf(0x00)
	a := nameOf(0x01)
	b := nameOf(0x02)

	require.True(CloserTo(a, b, target))
	require.False(CloserTo(b, a, target))
	require.True(CloserToOrEqual(a, a, target))
	require.False(CloserTo(a, a, target))
}

func TestCloserToIsStrictWeakOrderWithTargetAsMinimum(t *testing.T) {
	require := require.New(t)

	target := nameOf(0x55)
	require.False(CloserTo(target, target, target))
	require.True(CloserToOrEqual(target, nameOf(0x56), target))
}

func TestCommonPrefixBits(t *testing.T) {
	require := require.New(t)

	var a, b Name
	require.Equal(Bits, CommonPrefixBits(a, b))

	a[0] = 0b10110000
	b[0] = 0b10100000
	require.Equal(3, CommonPrefixBits(a, b))
}

func TestBit(t *testing.T) {
	require := require.New(t)

	var n Name
	n[0] = 0b10000000
	require.Equal(uint8(1), n.Bit(0))
	require.Equal(uint8(0), n.Bit(1))
}

func TestCmpAndEqual(t *testing.T) {
	require := require.New(t)

	a := nameOf(0x01)
	b := nameOf(0x02)
	require.Equal(-1, a.Cmp(b))
	require.Equal(1, b.Cmp(a))
	require.Equal(0, a.Cmp(a))
	require.True(a.Equal(a))
	require.False(a.Equal(b))
}

func TestFromBytesRejectsWrongLength(t *testing.T) {
	require := require.New(t)

	_, err := FromBytes(make([]byte, Len-1))
	require.Error(err)

	n, err := FromBytes(make([]byte, Len))
	require.NoError(err)
	require.Equal(Name{}, n)
}

func TestFromPublicKeyIsDeterministic(t *testing.T) {
	require := require.New(t)

	pub := []byte("a fixed-size public key for testing purposes only")
	require.Equal(FromPublicKey(pub), FromPublicKey(pub))
}
