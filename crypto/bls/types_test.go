// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bls

import (
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func genSecretKey(t *testing.T) *SecretKey {
	t.Helper()
	var ikm [32]byte
	_, err := rand.Read(ikm[:])
	require.NoError(t, err)
	sk, err := GenerateKey(ikm)
	require.NoError(t, err)
	return sk
}

func TestSignVerifyRoundTrip(t *testing.T) {
	require := require.New(t)

	sk := genSecretKey(t)
	msg := []byte("section key rotation")
	sig := sk.Sign(msg)
	require.True(Verify(sk.PublicKey(), msg, sig))
	require.False(Verify(sk.PublicKey(), []byte("different"), sig))
}

func TestPublicKeyBytesRoundTrip(t *testing.T) {
	require := require.New(t)

	sk := genSecretKey(t)
	pk := sk.PublicKey()
	decoded, err := PublicKeyFromBytes(pk.Bytes())
	require.NoError(err)
	require.True(pk.Equal(decoded))
}

func TestPublicKeyJSONRoundTrip(t *testing.T) {
	require := require.New(t)

	sk := genSecretKey(t)
	pk := sk.PublicKey()

	data, err := json.Marshal(pk)
	require.NoError(err)

	var decoded PublicKey
	require.NoError(json.Unmarshal(data, &decoded))
	require.True(pk.Equal(&decoded))
}

func TestSignatureJSONRoundTrip(t *testing.T) {
	require := require.New(t)

	sk := genSecretKey(t)
	sig := sk.Sign([]byte("hello"))

	data, err := json.Marshal(sig)
	require.NoError(err)

	var decoded Signature
	require.NoError(json.Unmarshal(data, &decoded))
	require.Equal(sig.Bytes(), decoded.Bytes())
}

func TestAggregateVerify(t *testing.T) {
	require := require.New(t)

	sk1, sk2 := genSecretKey(t), genSecretKey(t)
	msg1, msg2 := []byte("msg one"), []byte("msg two")
	sig1, sig2 := sk1.Sign(msg1), sk2.Sign(msg2)

	agg, err := Aggregate([]*Signature{sig1, sig2})
	require.NoError(err)
	require.True(AggregateVerify([]*PublicKey{sk1.PublicKey(), sk2.PublicKey()}, [][]byte{msg1, msg2}, agg))
}
