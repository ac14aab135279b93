// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package membership

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/mesh/blschain"
	"github.com/luxfi/mesh/crypto/bls"
	"github.com/luxfi/mesh/identity"
	"github.com/luxfi/mesh/section"
	"github.com/luxfi/mesh/xorname"
)

func genesisChainForTest(t *testing.T) *blschain.Chain {
	t.Helper()
	var ikm [32]byte
	_, err := rand.Read(ikm[:])
	require.NoError(t, err)
	sk, err := bls.GenerateKey(ikm)
	require.NoError(t, err)
	return blschain.Genesis(sk.PublicKey(), blschain.SignGenesis(sk))
}

func newTestModel(t *testing.T, elderSize int) *section.Model {
	t.Helper()
	return section.NewModel(xorname.EmptyPrefix, elderSize, genesisChainForTest(t))
}

func TestElderChangeNoOpWhenSetUnchanged(t *testing.T) {
	require := require.New(t)

	model := newTestModel(t, 7)
	id, err := identity.New(10)
	require.NoError(err)
	model.AddMember(id.Public(), section.PresenceOnline)

	ec := NewElderChange(model)
	result := ec.CheckElderBlock()
	require.False(result.Changed)
}

func TestElderChangeDetectsNewMember(t *testing.T) {
	require := require.New(t)

	model := newTestModel(t, 7)
	ec := NewElderChange(model)

	newMember, err := identity.New(10)
	require.NoError(err)
	model.AddMember(newMember.Public(), section.PresenceOnline)

	result := ec.CheckElderBlock()
	require.True(result.Changed)
	require.Contains(result.NewElders, newMember.Public().Name)
}

func TestElderChangeIgnoresSecondCheckWhileInFlight(t *testing.T) {
	require := require.New(t)

	model := newTestModel(t, 7)
	ec := NewElderChange(model)

	newMember, err := identity.New(10)
	require.NoError(err)
	model.AddMember(newMember.Public(), section.PresenceOnline)

	first := ec.CheckElderBlock()
	require.True(first.Changed)

	second := ec.CheckElderBlock()
	require.False(second.Changed)

	for _, name := range first.NewElders {
		ec.SectionInfoVoteAccepted(name)
	}
	third := ec.CheckElderBlock()
	require.False(third.Changed)
}
