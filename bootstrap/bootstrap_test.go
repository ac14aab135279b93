// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bootstrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientCyclesThroughContactsOnDenial(t *testing.T) {
	require := require.New(t)

	c := NewClient([]string{"a", "b", "c"}, Config{JoinTimeout: time.Hour, Cooldown: time.Minute}, nil)
	addr, ok := c.Start()
	require.True(ok)
	require.Equal("a", addr)

	addr, err := c.Denied()
	require.NoError(err)
	require.Equal("b", addr)

	addr, err = c.Denied()
	require.NoError(err)
	require.Equal("c", addr)
}

func TestClientExhaustsAllContacts(t *testing.T) {
	require := require.New(t)

	c := NewClient([]string{"a", "b"}, Config{JoinTimeout: time.Hour, Cooldown: time.Hour}, nil)
	_, ok := c.Start()
	require.True(ok)

	_, err := c.Denied()
	require.NoError(err)

	_, err = c.Denied()
	require.ErrorIs(err, ErrExhausted)
	require.Equal(StateFailed, c.State())
}

func TestClientReadmitsBlacklistedContactAfterCooldown(t *testing.T) {
	require := require.New(t)

	now := time.Now()
	c := NewClient([]string{"a", "b"}, Config{JoinTimeout: time.Hour, Cooldown: time.Second}, nil)
	c.now = func() time.Time { return now }

	_, ok := c.Start()
	require.True(ok)
	_, err := c.Denied() // blacklists "a", moves to "b"
	require.NoError(err)

	now = now.Add(2 * time.Second) // cooldown elapsed for "a"
	addr, err := c.Denied()        // blacklists "b", wraps to "a" which is eligible again
	require.NoError(err)
	require.Equal("a", addr)
}

func TestClientIdentifiedTransitionsState(t *testing.T) {
	require := require.New(t)

	c := NewClient([]string{"a"}, Config{JoinTimeout: time.Hour, Cooldown: time.Minute}, nil)
	_, ok := c.Start()
	require.True(ok)
	c.Identified()
	require.Equal(StateIdentified, c.State())
}
