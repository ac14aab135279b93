// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package blschain

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/mesh/crypto/bls"
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

func TestGenesisAndAppend(t *testing.T) {
	require := require.New(t)

	sk0 := genKey(t)
	chain := Genesis(sk0.PublicKey(), SignGenesis(sk0))
	require.Equal(1, chain.Len())

	sk1 := genKey(t)
	sig := sk0.Sign(sk1.PublicKey().Bytes())
	require.NoError(chain.Append(sk1.PublicKey(), sig))
	require.Equal(2, chain.Len())
	require.True(chain.Last().Equal(sk1.PublicKey()))
}

func TestAppendRejectsBadSignature(t *testing.T) {
	require := require.New(t)

	sk0 := genKey(t)
	chain := Genesis(sk0.PublicKey(), SignGenesis(sk0))

	sk1 := genKey(t)
	wrongSig := sk1.Sign(sk1.PublicKey().Bytes())
	err := chain.Append(sk1.PublicKey(), wrongSig)
	require.ErrorIs(err, ErrInvalidSignature)
	require.Equal(1, chain.Len())
}

func TestVerifySliceFull(t *testing.T) {
	require := require.New(t)

	sk0 := genKey(t)
	chain := Genesis(sk0.PublicKey(), SignGenesis(sk0))
	sk1 := genKey(t)
	require.NoError(chain.Append(sk1.PublicKey(), sk0.Sign(sk1.PublicKey().Bytes())))

	trust := chain.VerifySlice(chain.Full(), sk0.PublicKey())
	require.Equal(TrustFull, trust)
}

func TestVerifySlicePartialWhenTrustedKeyUnknown(t *testing.T) {
	require := require.New(t)

	sk0 := genKey(t)
	chain := Genesis(sk0.PublicKey(), SignGenesis(sk0))
	sk1 := genKey(t)
	require.NoError(chain.Append(sk1.PublicKey(), sk0.Sign(sk1.PublicKey().Bytes())))

	unknown := genKey(t)
	trust := chain.VerifySlice(chain.Full(), unknown.PublicKey())
	require.Equal(TrustPartial, trust)
}

func TestVerifySliceNoneOnBrokenLink(t *testing.T) {
	require := require.New(t)

	sk0 := genKey(t)
	chain := Genesis(sk0.PublicKey(), SignGenesis(sk0))

	sk1 := genKey(t)
	forged := sk1.Sign(sk1.PublicKey().Bytes())
	broken := Slice{links: []Link{{Key: sk0.PublicKey(), Signature: SignGenesis(sk0)}, {Key: sk1.PublicKey(), Signature: forged}}}

	trust := chain.VerifySlice(broken, sk0.PublicKey())
	require.Equal(TrustNone, trust)
}

func TestHasKey(t *testing.T) {
	require := require.New(t)

	sk0 := genKey(t)
	chain := Genesis(sk0.PublicKey(), SignGenesis(sk0))
	require.True(chain.HasKey(sk0.PublicKey()))

	other := genKey(t)
	require.False(chain.HasKey(other.PublicKey()))
}
