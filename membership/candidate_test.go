// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/mesh/identity"
	"github.com/luxfi/mesh/xorname"
)

func TestAcceptAsCandidateHappyPath(t *testing.T) {
	require := require.New(t)

	m := NewAcceptAsCandidate()
	require.Equal(Idle, m.State)

	cand, err := identity.New(4)
	require.NoError(err)
	pub := cand.Public()

	action := m.ExpectCandidateBlock(pub, time.Now().Add(time.Minute), false, xorname.Prefix{})
	require.Equal(Vote(VoteNone), action.Vote)
	require.Equal(Proofing, m.State)
	require.True(m.Busy())

	action = m.CandidateInfo(true)
	require.True(action.SendProofRequest)

	action = m.ResourceProofResponse(true, false)
	require.True(action.SendProofReceipt)

	action = m.ResourceProofResponse(true, true)
	require.Equal(VoteOnline, action.Vote)
	require.True(m.Candidate.OnlineVoted)

	action = m.OnlineBlock(pub.Name)
	require.True(action.SendApproval)
	require.Equal(Idle, m.State)
	require.False(m.Busy())
}

func TestAcceptAsCandidateRefusesWhenBusy(t *testing.T) {
	require := require.New(t)

	m := NewAcceptAsCandidate()
	c1, err := identity.New(4)
	require.NoError(err)
	m.ExpectCandidateBlock(c1.Public(), time.Now().Add(time.Minute), false, xorname.Prefix{})

	c2, err := identity.New(4)
	require.NoError(err)
	action := m.ExpectCandidateBlock(c2.Public(), time.Now().Add(time.Minute), false, xorname.Prefix{})
	require.True(action.SendRefuse)
}

func TestTimeoutAcceptVotesPurge(t *testing.T) {
	require := require.New(t)

	m := NewAcceptAsCandidate()
	cand, err := identity.New(4)
	require.NoError(err)
	m.ExpectCandidateBlock(cand.Public(), time.Now(), false, xorname.Prefix{})

	action := m.TimeoutAccept()
	require.Equal(VotePurgeCandidate, action.Vote)

	action = m.PurgeCandidateBlock(cand.Public().Name)
	require.Equal(Idle, m.State)
	require.False(m.Busy())
}

func TestStaleBlocksForOtherCandidatesAreDiscarded(t *testing.T) {
	require := require.New(t)

	m := NewAcceptAsCandidate()
	cand, err := identity.New(4)
	require.NoError(err)
	m.ExpectCandidateBlock(cand.Public(), time.Now().Add(time.Minute), false, xorname.Prefix{})

	other, err := identity.New(4)
	require.NoError(err)
	action := m.OnlineBlock(other.Public().Name)
	require.False(action.SendApproval)
	require.True(m.Busy())
}
