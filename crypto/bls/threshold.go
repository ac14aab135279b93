// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bls

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math/big"

	blst "github.com/supranational/blst/bindings/go"
)

// blsModulus is r, the order of the BLS12-381 scalar field. It is a public
// curve parameter, not a secret.
var blsModulus, _ = new(big.Int).SetString(
	"52435875175126190479447740508185965837690552500527637822603658699938581184513", 10)

// ThresholdKeySet is the output of a trusted-dealer split of one BLS secret
// key into n shares recoverable by any threshold+1 of them. GroupPublicKey
// is the split key's public key: what a section's ProofChain link and
// SignatureAccumulator quorum both verify against. Shares[i] is the share
// handed to the i'th participant (0-based, matching SignatureShare's
// SignerIndex and Authority.ElderNames()'s ordering).
type ThresholdKeySet struct {
	GroupPublicKey *PublicKey
	Shares         []*SecretKey
}

// GenerateThresholdKeySet runs a Shamir/Feldman-style dealer split: a
// random polynomial of degree threshold is drawn over the scalar field,
// its constant term is the group secret key, and participant i's share is
// the polynomial evaluated at x=i+1 (x=0 is reserved for the group secret
// itself). Any threshold+1 shares' Lagrange interpolation at x=0
// reconstructs the group secret; fewer reveal nothing about it.
//
// For n=1, threshold=0 the polynomial is a constant and the lone
// participant's share equals the group secret key outright — the genesis
// section, with a single elder, needs no real splitting.
func GenerateThresholdKeySet(n, threshold int) (*ThresholdKeySet, error) {
	return splitWithCoefficients(n, threshold, func(i int) (*big.Int, error) {
		return rand.Int(rand.Reader, blsModulus)
	})
}

// GenerateThresholdKeySetFromSeed is the deterministic counterpart to
// GenerateThresholdKeySet: the dealer polynomial's coefficients are drawn
// from a counter-mode SHA-256 expansion of seed instead of crypto/rand.
// Every caller who derives the same seed independently reconstructs the
// identical ThresholdKeySet — including every participant's own secret
// share — without any of them transmitting it. That is the point: a
// section's elders already converge on the same post-rotation committee
// (membership.ElderChange's committed block), so deriving its signing key
// the same way removes the need for a separate interactive key-exchange
// round. It is not how a production threshold scheme would distribute
// shares (anyone who learns seed learns every share), which is why this
// function backs the in-memory reference dkg.Source rather than the
// interactive, out-of-scope DKG protocol codec.FrameDKG gestures at.
func GenerateThresholdKeySetFromSeed(seed []byte, n, threshold int) (*ThresholdKeySet, error) {
	return splitWithCoefficients(n, threshold, func(i int) (*big.Int, error) {
		var counter [4]byte
		binary.BigEndian.PutUint32(counter[:], uint32(i))
		digest := sha256.Sum256(append(append([]byte{}, seed...), counter[:]...))
		return new(big.Int).Mod(new(big.Int).SetBytes(digest[:]), blsModulus), nil
	})
}

// splitWithCoefficients runs the dealer split shared by both
// GenerateThresholdKeySet and GenerateThresholdKeySetFromSeed, drawing
// each polynomial coefficient from coeff.
func splitWithCoefficients(n, threshold int, coeff func(i int) (*big.Int, error)) (*ThresholdKeySet, error) {
	if n <= 0 {
		return nil, errors.New("bls: threshold key set needs at least one participant")
	}
	if threshold < 0 || threshold >= n {
		return nil, errors.New("bls: threshold must be in [0, n)")
	}

	coeffs := make([]*big.Int, threshold+1)
	for i := range coeffs {
		c, err := coeff(i)
		if err != nil {
			return nil, err
		}
		coeffs[i] = c
	}

	groupSK, err := secretKeyFromScalar(coeffs[0])
	if err != nil {
		return nil, err
	}

	shares := make([]*SecretKey, n)
	for i := 0; i < n; i++ {
		y := evalPoly(coeffs, big.NewInt(int64(i+1)))
		sk, err := secretKeyFromScalar(y)
		if err != nil {
			return nil, err
		}
		shares[i] = sk
	}

	return &ThresholdKeySet{GroupPublicKey: groupSK.PublicKey(), Shares: shares}, nil
}

// evalPoly evaluates the polynomial with coefficients coeffs (ascending
// degree, coeffs[0] the constant term) at x, modulo the scalar field.
func evalPoly(coeffs []*big.Int, x *big.Int) *big.Int {
	result := new(big.Int)
	power := big.NewInt(1)
	term := new(big.Int)
	for _, c := range coeffs {
		term.Mul(c, power)
		result.Add(result, term)
		result.Mod(result, blsModulus)
		power.Mul(power, x)
		power.Mod(power, blsModulus)
	}
	return result
}

// secretKeyFromScalar builds a SecretKey from a scalar already reduced
// modulo the field order, the way GenerateKey builds one from random seed
// material via blst's own key-derivation entrypoint.
func secretKeyFromScalar(y *big.Int) (*SecretKey, error) {
	var buf [32]byte
	y.FillBytes(buf[:])
	sk := new(blst.SecretKey)
	sk.Deserialize(buf[:])
	return &SecretKey{s: *sk}, nil
}

// CombineSignatures reconstructs the group signature from a set of
// per-signer shares over the same message, via Lagrange interpolation at
// x=0 over exactly the signer indices present. This is what the
// SignatureAccumulator calls once threshold+1 shares have arrived: unlike
// Aggregate (an unweighted sum of signatures, which this function uses
// only as its point-addition primitive), the result here verifies under the single
// ThresholdKeySet.GroupPublicKey the shares were split from — it does not
// depend on which threshold+1 of the n signers happened to contribute.
func CombineSignatures(shares map[int]*Signature) (*Signature, error) {
	if len(shares) == 0 {
		return nil, errors.New("bls: combine of zero shares")
	}

	indices := make([]int, 0, len(shares))
	for idx := range shares {
		indices = append(indices, idx)
	}

	terms := make([]*Signature, 0, len(indices))
	for _, i := range indices {
		lambda := lagrangeCoefficient(indices, i)
		term, err := scalarMulSignature(shares[i], lambda)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return Aggregate(terms)
}

// lagrangeCoefficient computes the Lagrange basis coefficient, evaluated at
// x=0, for participant i (0-based signer index, evaluated at field point
// i+1) over the given set of participant indices, modulo the scalar field.
func lagrangeCoefficient(indices []int, i int) *big.Int {
	xi := big.NewInt(int64(i + 1))
	num := big.NewInt(1)
	den := big.NewInt(1)
	for _, j := range indices {
		if j == i {
			continue
		}
		xj := big.NewInt(int64(j + 1))

		negXj := new(big.Int).Neg(xj)
		negXj.Mod(negXj, blsModulus)
		num.Mul(num, negXj)
		num.Mod(num, blsModulus)

		diff := new(big.Int).Sub(xi, xj)
		diff.Mod(diff, blsModulus)
		den.Mul(den, diff)
		den.Mod(den, blsModulus)
	}
	denInv := new(big.Int).ModInverse(den, blsModulus)
	result := new(big.Int).Mul(num, denInv)
	result.Mod(result, blsModulus)
	return result
}

// scalarMulSignature computes scalar*sig by double-and-add, using
// Aggregate as the sole point-addition primitive so no additional
// group-arithmetic surface is needed beyond what the rest of this package
// already exercises.
func scalarMulSignature(sig *Signature, scalar *big.Int) (*Signature, error) {
	if scalar.Sign() == 0 {
		return nil, errors.New("bls: scalar multiplication by zero")
	}

	bits := scalar.BitLen()
	var result *Signature
	addend := sig
	for i := 0; i < bits; i++ {
		if scalar.Bit(i) == 1 {
			if result == nil {
				result = addend
			} else {
				sum, err := Aggregate([]*Signature{result, addend})
				if err != nil {
					return nil, err
				}
				result = sum
			}
		}
		if i != bits-1 {
			doubled, err := Aggregate([]*Signature{addend, addend})
			if err != nil {
				return nil, err
			}
			addend = doubled
		}
	}
	return result, nil
}
