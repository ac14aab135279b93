// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package membership

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/mesh/xorname"
)

func TestQualifiesDividesByAge(t *testing.T) {
	require := require.New(t)

	require.True(qualifies(0, 0))
	require.True(qualifies(1, 0))
	require.True(qualifies(1, 2))
	require.False(qualifies(1, 1))
	require.True(qualifies(2, 4))
	require.False(qualifies(2, 2))
}

func TestRelocationTrackerCountdown(t *testing.T) {
	require := require.New(t)

	tracker := NewRelocationTracker()
	var name xorname.Name
	name[0] = 0x01

	members := map[xorname.Name]uint8{name: 1}

	// age=1 qualifies on every even ordinal.
	ready := tracker.OnOnlineAccepted(members, 0)
	require.Empty(ready, "first qualifying event only arms the prepare")

	ready = tracker.OnOnlineAccepted(members, 2)
	require.Equal([]xorname.Name{name}, ready)
}

func TestDestinationPrefixPicksClosestKnownPrefix(t *testing.T) {
	require := require.New(t)

	var name xorname.Name
	name[0] = 0xAA
	var trigger [32]byte

	zero := xorname.NewPrefix(xorname.Name{}, 1)
	known := []xorname.Prefix{xorname.EmptyPrefix, zero}

	dest := DestinationPrefix(name, trigger, known)
	require.True(dest.Len() >= xorname.EmptyPrefix.Len())
}
