// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/mesh/blschain"
	"github.com/luxfi/mesh/crypto/bls"
	"github.com/luxfi/mesh/messages"
	"github.com/luxfi/mesh/xorname"
)

func genKeyForWireTest(t *testing.T) *bls.SecretKey {
	t.Helper()
	var ikm [32]byte
	_, err := rand.Read(ikm[:])
	require.NoError(t, err)
	sk, err := bls.GenerateKey(ikm)
	require.NoError(t, err)
	return sk
}

func TestMarshalMessageRoundTrip(t *testing.T) {
	require := require.New(t)

	sk := genKeyForWireTest(t)
	chain := blschain.Genesis(sk.PublicKey(), blschain.SignGenesis(sk))

	var src, dst xorname.Name
	src[0], dst[0] = 1, 2
	plain := messages.NewUserMessage(messages.Node(src), messages.Node(dst), []byte("hello"))
	h := plain.Hash()
	sig := sk.Sign(h[:])
	msg := messages.Message{Plain: plain, SectionProof: chain.Full(), Signature: sig}

	data, err := MarshalMessage(msg)
	require.NoError(err)

	decoded, err := UnmarshalMessage(data)
	require.NoError(err)
	require.Equal(msg.Plain.Hash(), decoded.Plain.Hash())
	require.Equal(msg.Plain.Variant.UserMessage, decoded.Plain.Variant.UserMessage)
	require.Equal(sig.Bytes(), decoded.Signature.Bytes())
	require.Equal(chain.Last().Bytes(), decoded.SectionProof.Last().Bytes())
}
