// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package messages

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/mesh/xorname"
)

func TestHashIsDeterministic(t *testing.T) {
	require := require.New(t)

	var a, b xorname.Name
	a[0], b[0] = 0x01, 0x02
	msg := NewUserMessage(Node(a), Node(b), []byte("hello"))

	require.Equal(msg.Hash(), msg.Hash())
}

func TestHashDistinguishesPayloads(t *testing.T) {
	require := require.New(t)

	var a xorname.Name
	m1 := NewUserMessage(Node(a), Node(a), []byte("hello"))
	m2 := NewUserMessage(Node(a), Node(a), []byte("world"))

	require.NotEqual(m1.Hash(), m2.Hash())
}

func TestLocationString(t *testing.T) {
	require := require.New(t)

	var n xorname.Name
	require.Contains(Node(n).String(), "Node(")
	require.Contains(Section(n).String(), "Section(")
	require.Contains(SectionPrefix(xorname.EmptyPrefix).String(), "Prefix(")
}
