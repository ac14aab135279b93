// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bls wraps the BLS12-381 primitives used to sign section keys
// (blschain.Chain) and to accumulate per-elder signature shares into a
// fully-signed message (accumulator.Accumulator). The pairing arithmetic
// itself is supplied by github.com/supranational/blst; this package only
// fixes the domain separation tag, serialisation, and the minimal-pubkey
// signature scheme used throughout the rest of the module.
//
// Key generation, signing and verification are specified here only to the
// extent the routing core depends on their shape — the underlying curve
// operations are out of scope for this spec (see SPEC_FULL.md §7).
package bls

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	blst "github.com/supranational/blst/bindings/go"
)

// dst is the domain separation tag for signatures produced by this
// package. Changing it invalidates every existing signature.
const dst = "LUXMESH-BLS-SIG-BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_"

var errInvalidLength = errors.New("bls: invalid encoded length")

// PublicKey is a compressed BLS12-381 G1 public key (48 bytes).
type PublicKey struct {
	p blst.P1Affine
}

// SecretKey is a BLS12-381 scalar.
type SecretKey struct {
	s blst.SecretKey
}

// Signature is a compressed BLS12-381 G2 signature (96 bytes).
type Signature struct {
	p blst.P2Affine
}

// GenerateKey derives a new secret key from a cryptographically random seed.
func GenerateKey(ikm [32]byte) (*SecretKey, error) {
	sk := new(blst.SecretKey)
	sk.KeyGen(ikm[:])
	return &SecretKey{s: *sk}, nil
}

// PublicKey returns the public key corresponding to sk.
func (sk *SecretKey) PublicKey() *PublicKey {
	pk := new(blst.P1Affine).From(&sk.s)
	return &PublicKey{p: *pk}
}

// Sign signs msg, returning a signature over BLS12-381 G2.
func (sk *SecretKey) Sign(msg []byte) *Signature {
	sig := new(blst.P2Affine).Sign(&sk.s, msg, []byte(dst))
	return &Signature{p: *sig}
}

// Bytes returns the compressed encoding of pk.
func (pk *PublicKey) Bytes() []byte {
	return pk.p.Compress()
}

// String returns the hex encoding of pk.
func (pk *PublicKey) String() string {
	return hex.EncodeToString(pk.Bytes())
}

// Equal reports whether pk and other encode the same key.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	if other == nil {
		return false
	}
	return pk.p.Equals(&other.p)
}

// MarshalJSON encodes pk as a hex string, for wire messages that carry
// section keys.
func (pk *PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(pk.String())
}

// UnmarshalJSON decodes pk from the hex string MarshalJSON produces.
func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("bls: %w", err)
	}
	decoded, err := PublicKeyFromBytes(b)
	if err != nil {
		return err
	}
	*pk = *decoded
	return nil
}

// PublicKeyFromBytes decodes a compressed public key.
func PublicKeyFromBytes(b []byte) (*PublicKey, error) {
	p := new(blst.P1Affine).Uncompress(b)
	if p == nil {
		return nil, fmt.Errorf("bls: %w", errInvalidLength)
	}
	if !p.KeyValidate() {
		return nil, errors.New("bls: public key fails subgroup check")
	}
	return &PublicKey{p: *p}, nil
}

// Bytes returns the compressed encoding of sig.
func (sig *Signature) Bytes() []byte {
	return sig.p.Compress()
}

// String returns the hex encoding of sig.
func (sig *Signature) String() string {
	return hex.EncodeToString(sig.Bytes())
}

// MarshalJSON encodes sig as a hex string.
func (sig *Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(sig.String())
}

// UnmarshalJSON decodes sig from the hex string MarshalJSON produces.
func (sig *Signature) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("bls: %w", err)
	}
	decoded, err := SignatureFromBytes(b)
	if err != nil {
		return err
	}
	*sig = *decoded
	return nil
}

// SignatureFromBytes decodes a compressed signature.
func SignatureFromBytes(b []byte) (*Signature, error) {
	p := new(blst.P2Affine).Uncompress(b)
	if p == nil {
		return nil, fmt.Errorf("bls: %w", errInvalidLength)
	}
	return &Signature{p: *p}, nil
}

// Verify reports whether sig is a valid signature over msg by pk.
func Verify(pk *PublicKey, msg []byte, sig *Signature) bool {
	if pk == nil || sig == nil {
		return false
	}
	return sig.p.Verify(true, &pk.p, true, msg, []byte(dst))
}

// Aggregate combines independent signatures over (possibly different)
// messages into a single signature by summing them. CombineSignatures
// uses it as its point-addition primitive, which is how the accumulator
// reaches it; the proof chain stores each link's signature separately
// and does not call it.
func Aggregate(sigs []*Signature) (*Signature, error) {
	if len(sigs) == 0 {
		return nil, errors.New("bls: aggregate of zero signatures")
	}
	affines := make([]*blst.P2Affine, len(sigs))
	for i, s := range sigs {
		affines[i] = &s.p
	}
	agg := new(blst.P2Aggregate)
	if !agg.Aggregate(affines, true) {
		return nil, errors.New("bls: signature failed group check during aggregation")
	}
	return &Signature{p: *agg.ToAffine()}, nil
}

// AggregateVerify reports whether agg is a valid combination of individual
// signatures, each by pks[i] over msgs[i].
func AggregateVerify(pks []*PublicKey, msgs [][]byte, agg *Signature) bool {
	if len(pks) != len(msgs) || len(pks) == 0 || agg == nil {
		return false
	}
	pkAffines := make([]*blst.P1Affine, len(pks))
	dsts := make([][]byte, len(pks))
	for i, pk := range pks {
		pkAffines[i] = &pk.p
		dsts[i] = []byte(dst)
	}
	return agg.p.AggregateVerify(true, pkAffines, true, msgs, dsts)
}
