// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterIdempotence(t *testing.T) {
	require := require.New(t)

	f := NewFilter(4)
	var h [32]byte
	h[0] = 0x01

	require.False(f.SeenMessage(h), "first arrival is new")
	require.True(f.SeenMessage(h), "second arrival is a duplicate")
}

func TestFilterEvictsOldestBeyondCapacity(t *testing.T) {
	require := require.New(t)

	f := NewFilter(2)
	var h1, h2, h3 [32]byte
	h1[0], h2[0], h3[0] = 1, 2, 3

	f.SeenMessage(h1)
	f.SeenMessage(h2)
	f.SeenMessage(h3) // evicts h1

	require.False(f.SeenMessage(h1), "h1 was evicted, so it looks new again")
	require.Equal(2, f.Len())
}
