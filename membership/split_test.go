// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package membership

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/mesh/identity"
	"github.com/luxfi/mesh/section"
	"github.com/luxfi/mesh/xorname"
)

func addOnlineMemberInBranch(t *testing.T, model *section.Model, branch xorname.Prefix) {
	t.Helper()
	for {
		id, err := identity.New(4)
		require.NoError(t, err)
		if branch.Matches(id.Name()) {
			require.True(t, model.AddMember(id.Public(), section.PresenceOnline))
			return
		}
	}
}

func TestShouldSplitRequiresBothBranchesAboveThreshold(t *testing.T) {
	require := require.New(t)

	model := newTestModel(t, 7)
	zero, one := xorname.EmptyPrefix.Split()

	require.False(ShouldSplit(model, xorname.EmptyPrefix, 2))

	addOnlineMemberInBranch(t, model, zero)
	addOnlineMemberInBranch(t, model, zero)
	require.False(ShouldSplit(model, xorname.EmptyPrefix, 2))

	addOnlineMemberInBranch(t, model, one)
	addOnlineMemberInBranch(t, model, one)
	require.True(ShouldSplit(model, xorname.EmptyPrefix, 2))
}

func TestSplitMembersPartitionsByXorName(t *testing.T) {
	require := require.New(t)

	model := newTestModel(t, 7)
	zero, one := xorname.EmptyPrefix.Split()
	addOnlineMemberInBranch(t, model, zero)
	addOnlineMemberInBranch(t, model, one)

	zeroMembers, oneMembers := SplitMembers(model, xorname.EmptyPrefix)
	require.Len(zeroMembers, 1)
	require.Len(oneMembers, 1)
	require.True(zero.Matches(zeroMembers[0].Identity.Name))
	require.True(one.Matches(oneMembers[0].Identity.Name))
}

func TestShouldMergeRequiresSiblingsAndLowCombinedCount(t *testing.T) {
	require := require.New(t)

	zero, one := xorname.EmptyPrefix.Split()
	a := section.NewModel(zero, 7, genesisChainForTest(t))
	b := section.NewModel(one, 7, genesisChainForTest(t))

	addOnlineMemberInBranch(t, a, zero)
	require.True(ShouldMerge(a, b, 4))

	addOnlineMemberInBranch(t, a, zero)
	addOnlineMemberInBranch(t, a, zero)
	addOnlineMemberInBranch(t, a, zero)
	addOnlineMemberInBranch(t, a, zero)
	require.False(ShouldMerge(a, b, 4))
}
