// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package blschain implements the section authority chain: an append-only
// linked list of (section key, signature by the previous key) pairs, and
// the proof-slice verification a recipient runs when it meets an unfamiliar
// signing key. The genesis link is self-signed; every later link is signed
// by the threshold committee holding the previous key.
package blschain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luxfi/mesh/crypto/bls"
)

// ErrInvalidSignature is returned by Append when sig does not verify under
// the chain's current key.
var ErrInvalidSignature = errors.New("blschain: signature does not verify under current key")

// Link is one entry of the chain: a section key and the signature that
// certifies it under the previous key (or, for the genesis link, under
// itself).
type Link struct {
	Key       *bls.PublicKey
	Signature *bls.Signature
}

// Trust is the outcome of verifying a proof slice against a locally known
// key.
type Trust int

const (
	// TrustNone means a link in the slice failed to verify: reject.
	TrustNone Trust = iota
	// TrustPartial means every link verifies internally, but the slice
	// cannot be anchored to anything we currently trust.
	TrustPartial
	// TrustFull means the slice is both internally consistent and
	// anchored at a key we trust.
	TrustFull
)

func (t Trust) String() string {
	switch t {
	case TrustFull:
		return "Full"
	case TrustPartial:
		return "Partial"
	default:
		return "None"
	}
}

// Chain is a non-empty, append-only sequence of links. last() is always
// the section's current key.
type Chain struct {
	links []Link
}

// Genesis creates a new chain whose first link is self-signed by key.
func Genesis(key *bls.PublicKey, selfSig *bls.Signature) *Chain {
	return &Chain{links: []Link{{Key: key, Signature: selfSig}}}
}

// Len returns the number of links in the chain.
func (c *Chain) Len() int {
	return len(c.links)
}

// Last returns the chain's current (most recent) key.
func (c *Chain) Last() *bls.PublicKey {
	return c.links[len(c.links)-1].Key
}

// First returns the chain's genesis key.
func (c *Chain) First() *bls.PublicKey {
	return c.links[0].Key
}

// Append adds newKey to the chain, signed by the current key's committee.
// It fails with ErrInvalidSignature if sigByCurrent does not verify newKey's
// bytes under the chain's current key.
func (c *Chain) Append(newKey *bls.PublicKey, sigByCurrent *bls.Signature) error {
	if !bls.Verify(c.Last(), newKey.Bytes(), sigByCurrent) {
		return ErrInvalidSignature
	}
	c.links = append(c.links, Link{Key: newKey, Signature: sigByCurrent})
	return nil
}

// HasKey reports whether k appears anywhere in the chain.
func (c *Chain) HasKey(k *bls.PublicKey) bool {
	for _, l := range c.links {
		if l.Key.Equal(k) {
			return true
		}
	}
	return false
}

// Keys returns the chain's keys in order, oldest first.
func (c *Chain) Keys() []*bls.PublicKey {
	out := make([]*bls.PublicKey, len(c.links))
	for i, l := range c.links {
		out[i] = l.Key
	}
	return out
}

// Slice is a (possibly shorter) proof extracted from a Chain, sent to a
// peer that may not yet trust our current key.
type Slice struct {
	links []Link
}

// SliceFrom extracts the suffix of c starting at the link holding fromKey
// (inclusive) through the current key. If fromKey is not in the chain, the
// full chain is returned.
func (c *Chain) SliceFrom(fromKey *bls.PublicKey) Slice {
	for i, l := range c.links {
		if l.Key.Equal(fromKey) {
			cp := make([]Link, len(c.links)-i)
			copy(cp, c.links[i:])
			return Slice{links: cp}
		}
	}
	cp := make([]Link, len(c.links))
	copy(cp, c.links)
	return Slice{links: cp}
}

// Full returns a slice containing the entire chain.
func (c *Chain) Full() Slice {
	cp := make([]Link, len(c.links))
	copy(cp, c.links)
	return Slice{links: cp}
}

// Last returns the claimed ending key of the slice.
func (s Slice) Last() *bls.PublicKey {
	if len(s.links) == 0 {
		return nil
	}
	return s.links[len(s.links)-1].Key
}

// Keys returns the slice's keys in order.
func (s Slice) Keys() []*bls.PublicKey {
	out := make([]*bls.PublicKey, len(s.links))
	for i, l := range s.links {
		out[i] = l.Key
	}
	return out
}

// verifyInternal reports whether every adjacent link in the slice verifies:
// link[0] is self-signed, and for i > 0, link[i].Signature verifies
// link[i].Key's bytes under link[i-1].Key.
func (s Slice) verifyInternal() bool {
	if len(s.links) == 0 {
		return false
	}
	first := s.links[0]
	if !bls.Verify(first.Key, first.Key.Bytes(), first.Signature) {
		return false
	}
	for i := 1; i < len(s.links); i++ {
		prev := s.links[i-1]
		cur := s.links[i]
		if !bls.Verify(prev.Key, cur.Key.Bytes(), cur.Signature) {
			return false
		}
	}
	return true
}

// VerifySlice classifies slice: None if any link fails to verify
// internally; Full if the slice's internal chain is valid and trustedKey
// is one of the slice's own keys; Partial if the slice verifies
// internally but does not contain trustedKey, meaning the slice might be
// genuine but cannot be anchored to the trusted key. A trustedKey that
// appears only in c, and not in the slice, gives Partial.
func (c *Chain) VerifySlice(slice Slice, trustedKey *bls.PublicKey) Trust {
	if !slice.verifyInternal() {
		return TrustNone
	}
	for _, k := range slice.Keys() {
		if k.Equal(trustedKey) {
			return TrustFull
		}
	}
	return TrustPartial
}

// SignGenesis produces the self-signature over key's own bytes, used to
// construct the genesis link of a new chain.
func SignGenesis(sk *bls.SecretKey) *bls.Signature {
	pub := sk.PublicKey()
	return sk.Sign(pub.Bytes())
}

// String returns a short human-readable summary of the chain.
func (c *Chain) String() string {
	return fmt.Sprintf("blschain{len=%d, last=%s}", c.Len(), c.Last())
}

// MarshalJSON encodes the chain as its ordered link list, for local
// persistence and the genesis payload carried by NodeApproval.
func (c *Chain) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.links)
}

// UnmarshalJSON decodes a chain previously encoded by MarshalJSON.
func (c *Chain) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &c.links)
}

// MarshalJSON encodes the slice as its ordered link list, the wire form a
// Message's SectionProof travels in.
func (s Slice) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.links)
}

// UnmarshalJSON decodes a slice previously encoded by MarshalJSON.
func (s *Slice) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &s.links)
}
