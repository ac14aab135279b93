// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package accumulator

import (
	"crypto/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/mesh/crypto/bls"
	"github.com/luxfi/mesh/messages"
	"github.com/luxfi/mesh/section"
	"github.com/luxfi/mesh/xorname"
)

func genKey(t *testing.T) *bls.SecretKey {
	t.Helper()
	var ikm [32]byte
	_, err := rand.Read(ikm[:])
	require.NoError(t, err)
	sk, err := bls.GenerateKey(ikm)
	require.NoError(t, err)
	return sk
}

// buildElders returns n threshold signing shares plus the Authority
// describing them, with sks[i] the share belonging to the i'th name in
// ElderNames() order. An elder's identity (what names it in the elder map)
// is independent of its signing share: ElderInfo.PublicKey is the share's
// own public key (what the accumulator checks an individual share
// against), while authority.SectionKey is the group public key the shares
// were dealer-split from (what a combination of threshold+1 of them
// verifies against), matching how signShareLocked and the accumulator
// actually operate.
func buildElders(t *testing.T, n int) ([]*bls.SecretKey, section.Authority) {
	t.Helper()
	keySet, err := bls.GenerateThresholdKeySet(n, 4)
	require.NoError(t, err)

	names := make([]xorname.Name, n)
	for i := range names {
		names[i] = xorname.FromPublicKey(genKey(t).PublicKey().Bytes())
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Cmp(names[j]) < 0 })

	sks := make([]*bls.SecretKey, n)
	elders := make(map[xorname.Name]section.ElderInfo, n)
	for i, name := range names {
		sks[i] = keySet.Shares[i]
		elders[name] = section.ElderInfo{PublicKey: keySet.Shares[i].PublicKey()}
	}
	authority := section.NewAuthority(xorname.EmptyPrefix, keySet.GroupPublicKey, elders)
	return sks, authority
}

// sortedIndex returns sk's position in sks, i.e. its SignerIndex within
// the Authority buildElders produced it alongside.
func sortedIndex(sks []*bls.SecretKey, sk *bls.SecretKey) int {
	for i, s := range sks {
		if s == sk {
			return i
		}
	}
	return -1
}

func TestAccumulatorQuorumBoundary(t *testing.T) {
	require := require.New(t)

	sks, authority := buildElders(t, 7) // elder_size=7, threshold=4, quorum=5
	acc := New(4, 120*time.Second)

	var a, b xorname.Name
	a[0], b[0] = 0x01, 0x02
	plain := messages.NewUserMessage(messages.Node(a), messages.Node(b), []byte("hello"))

	send := func(sk *bls.SecretKey) (*messages.Message, bool) {
		h := plain.Hash()
		share := sk.Sign(h[:])
		idx := sortedIndex(sks, sk)
		return acc.Add(messages.MessageWithShare{
			Plain: plain,
			Share: messages.SignatureShare{SignerIndex: idx, Share: share},
		}, authority)
	}

	for i := 0; i < 4; i++ {
		_, ok := send(sks[i])
		require.False(ok, "share %d should not yet reach quorum", i)
	}

	msg, ok := send(sks[4])
	require.True(ok, "5th share should cross threshold+1=5")
	require.NotNil(msg)

	_, ok = send(sks[5])
	require.False(ok, "entry already combined; further shares return nothing")
}

func TestAccumulatorRejectsDuplicateSignerShare(t *testing.T) {
	require := require.New(t)

	sks, authority := buildElders(t, 7)
	acc := New(4, 120*time.Second)

	var a xorname.Name
	plain := messages.NewUserMessage(messages.Node(a), messages.Node(a), []byte("x"))
	h := plain.Hash()

	idx := sortedIndex(sks, sks[0])
	share := sks[0].Sign(h[:])

	_, ok := acc.Add(messages.MessageWithShare{Plain: plain, Share: messages.SignatureShare{SignerIndex: idx, Share: share}}, authority)
	require.False(ok)

	// Same signer, same hash, again: must not count as a second share.
	_, ok = acc.Add(messages.MessageWithShare{Plain: plain, Share: messages.SignatureShare{SignerIndex: idx, Share: share}}, authority)
	require.False(ok)
	require.Equal(1, acc.Len())
}

func TestAccumulatorRejectsInvalidSignerIndex(t *testing.T) {
	require := require.New(t)

	_, authority := buildElders(t, 7)
	acc := New(4, 120*time.Second)

	var a xorname.Name
	plain := messages.NewUserMessage(messages.Node(a), messages.Node(a), []byte("x"))
	h := plain.Hash()
	sk := genKey(t)

	_, ok := acc.Add(messages.MessageWithShare{
		Plain: plain,
		Share: messages.SignatureShare{SignerIndex: 99, Share: sk.Sign(h[:])},
	}, authority)
	require.False(ok)
}

func TestAccumulatorExpiry(t *testing.T) {
	require := require.New(t)

	sks, authority := buildElders(t, 7)
	acc := New(4, time.Second)

	fakeNow := time.Now()
	acc.now = func() time.Time { return fakeNow }

	var a xorname.Name
	plain := messages.NewUserMessage(messages.Node(a), messages.Node(a), []byte("x"))
	h := plain.Hash()
	idx := sortedIndex(sks, sks[0])
	_, _ = acc.Add(messages.MessageWithShare{Plain: plain, Share: messages.SignatureShare{SignerIndex: idx, Share: sks[0].Sign(h[:])}}, authority)
	require.Equal(1, acc.Len())

	fakeNow = fakeNow.Add(2 * time.Second)
	acc.removeExpiredLocked()
	require.Equal(0, acc.Len())
}
