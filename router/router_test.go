// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/mesh/blschain"
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

func signedMessage(t *testing.T, chain *blschain.Chain, dst messages.Location) messages.Message {
	t.Helper()
	var src xorname.Name
	plain := messages.NewUserMessage(messages.Node(src), dst, []byte("hi"))
	return messages.Message{Plain: plain, SectionProof: chain.Full()}
}

func TestRouteLocalDestination(t *testing.T) {
	require := require.New(t)

	sk := genKey(t)
	chain := blschain.Genesis(sk.PublicKey(), blschain.SignGenesis(sk))
	view := section.NewNetworkView()

	var us xorname.Name
	us[0] = 0x01
	r := New(us, xorname.EmptyPrefix, 4, chain, view, 16, nil)

	msg := signedMessage(t, chain, messages.Node(us))
	outcome := r.Route(msg)
	require.Equal(DecisionLocal, outcome.Decision)
}

func TestRouteDuplicateIsDropped(t *testing.T) {
	require := require.New(t)

	sk := genKey(t)
	chain := blschain.Genesis(sk.PublicKey(), blschain.SignGenesis(sk))
	view := section.NewNetworkView()
	var us xorname.Name
	r := New(us, xorname.EmptyPrefix, 4, chain, view, 16, nil)

	msg := signedMessage(t, chain, messages.Node(us))
	require.Equal(DecisionLocal, r.Route(msg).Decision)
	require.Equal(DecisionDuplicate, r.Route(msg).Decision)
}

func TestRouteBouncesUntrustedProof(t *testing.T) {
	require := require.New(t)

	sk := genKey(t)
	chain := blschain.Genesis(sk.PublicKey(), blschain.SignGenesis(sk))
	view := section.NewNetworkView()
	var us xorname.Name
	r := New(us, xorname.EmptyPrefix, 4, chain, view, 16, nil)

	other := genKey(t)
	foreignChain := blschain.Genesis(other.PublicKey(), blschain.SignGenesis(other))
	var dst xorname.Name
	dst[0] = 0x05
	msg := messages.Message{
		Plain:        messages.NewUserMessage(messages.Node(us), messages.Node(dst), []byte("hi")),
		SectionProof: foreignChain.Full(),
	}

	outcome := r.Route(msg)
	require.Equal(DecisionBounceUntrusted, outcome.Decision)
}

func TestRouteForwardsToBestMatchingSection(t *testing.T) {
	require := require.New(t)

	sk := genKey(t)
	chain := blschain.Genesis(sk.PublicKey(), blschain.SignGenesis(sk))
	view := section.NewNetworkView()

	elderSK := genKey(t)
	elderName := xorname.FromPublicKey(elderSK.PublicKey().Bytes())
	farPrefix := xorname.NewPrefix(elderName, 1)
	authority := section.NewAuthority(farPrefix, genKey(t).PublicKey(), map[xorname.Name]section.ElderInfo{
		elderName: {PublicKey: elderSK.PublicKey(), Address: "10.0.0.1:1234"},
	})
	view.Update(authority)

	var us xorname.Name
	r := New(us, xorname.EmptyPrefix, 0, chain, view, 16, nil)

	msg := signedMessage(t, chain, messages.Node(elderName))
	outcome := r.Route(msg)
	require.Equal(DecisionForward, outcome.Decision)
	require.Len(outcome.Targets, 1)
}

func TestRouteBouncesUnknownDestination(t *testing.T) {
	require := require.New(t)

	sk := genKey(t)
	chain := blschain.Genesis(sk.PublicKey(), blschain.SignGenesis(sk))
	view := section.NewNetworkView()
	var us xorname.Name
	r := New(us, xorname.NewPrefix(xorname.Name{}, 1), 4, chain, view, 16, nil)

	var far xorname.Name
	far[0] = 0xFF
	msg := signedMessage(t, chain, messages.Node(far))
	outcome := r.Route(msg)
	require.Equal(DecisionBounceUnknown, outcome.Decision)
}
