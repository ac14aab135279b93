// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bls

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThresholdCombineVerifiesUnderGroupKey(t *testing.T) {
	require := require.New(t)

	keySet, err := GenerateThresholdKeySet(7, 4)
	require.NoError(err)

	msg := []byte("quorum message")
	shares := make(map[int]*Signature, 5)
	for i := 0; i < 5; i++ {
		shares[i] = keySet.Shares[i].Sign(msg)
	}

	combined, err := CombineSignatures(shares)
	require.NoError(err)
	require.True(Verify(keySet.GroupPublicKey, msg, combined))
}

func TestThresholdCombineIsIndependentOfWhichSharesContribute(t *testing.T) {
	require := require.New(t)

	keySet, err := GenerateThresholdKeySet(7, 4)
	require.NoError(err)

	msg := []byte("any threshold+1 should agree")

	first := map[int]*Signature{0: keySet.Shares[0].Sign(msg), 1: keySet.Shares[1].Sign(msg), 2: keySet.Shares[2].Sign(msg), 3: keySet.Shares[3].Sign(msg), 4: keySet.Shares[4].Sign(msg)}
	second := map[int]*Signature{2: keySet.Shares[2].Sign(msg), 3: keySet.Shares[3].Sign(msg), 4: keySet.Shares[4].Sign(msg), 5: keySet.Shares[5].Sign(msg), 6: keySet.Shares[6].Sign(msg)}

	combined1, err := CombineSignatures(first)
	require.NoError(err)
	combined2, err := CombineSignatures(second)
	require.NoError(err)

	require.Equal(combined1.Bytes(), combined2.Bytes())
	require.True(Verify(keySet.GroupPublicKey, msg, combined1))
}

func TestThresholdCombineBelowThresholdDoesNotVerify(t *testing.T) {
	require := require.New(t)

	keySet, err := GenerateThresholdKeySet(7, 4)
	require.NoError(err)

	msg := []byte("not enough shares")
	shares := map[int]*Signature{
		0: keySet.Shares[0].Sign(msg),
		1: keySet.Shares[1].Sign(msg),
		2: keySet.Shares[2].Sign(msg),
	}

	combined, err := CombineSignatures(shares)
	require.NoError(err)
	require.False(Verify(keySet.GroupPublicKey, msg, combined))
}

func TestThresholdGenesisDegeneratesToSingleKey(t *testing.T) {
	require := require.New(t)

	keySet, err := GenerateThresholdKeySet(1, 0)
	require.NoError(err)
	require.Len(keySet.Shares, 1)

	msg := []byte("genesis section")
	sig := keySet.Shares[0].Sign(msg)
	require.True(Verify(keySet.GroupPublicKey, msg, sig))

	combined, err := CombineSignatures(map[int]*Signature{0: sig})
	require.NoError(err)
	require.Equal(sig.Bytes(), combined.Bytes())
}

func TestGenerateThresholdKeySetRejectsBadParameters(t *testing.T) {
	require := require.New(t)

	_, err := GenerateThresholdKeySet(0, 0)
	require.Error(err)

	_, err = GenerateThresholdKeySet(5, 5)
	require.Error(err)

	_, err = GenerateThresholdKeySet(5, -1)
	require.Error(err)
}
