// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package identity defines a node's cryptographic identity within the
// overlay: its BLS signing keypair, the XOR name derived from its public
// key, and its age counter. A node's xor_name is fully determined by its
// public key; age starts at the configured floor and only ever increments,
// via relocation.
package identity

import (
	"crypto/rand"
	"fmt"

	"github.com/luxfi/mesh/crypto/bls"
	"github.com/luxfi/mesh/xorname"
)

// Identity is a node's signing keypair plus derived name and current age.
type Identity struct {
	secret *bls.SecretKey
	public *bls.PublicKey
	name   xorname.Name
	age    uint8
}

// New generates a fresh random keypair and derives the corresponding
// identity, with age set to floor.
func New(floor uint8) (*Identity, error) {
	var ikm [32]byte
	if _, err := rand.Read(ikm[:]); err != nil {
		return nil, fmt.Errorf("identity: generating seed: %w", err)
	}
	sk, err := bls.GenerateKey(ikm)
	if err != nil {
		return nil, fmt.Errorf("identity: generating key: %w", err)
	}
	return FromSecretKey(sk, floor), nil
}

// FromSecretKey builds an Identity around an already-generated secret key,
// deriving the XOR name from its public key.
func FromSecretKey(sk *bls.SecretKey, age uint8) *Identity {
	pub := sk.PublicKey()
	return &Identity{
		secret: sk,
		public: pub,
		name:   xorname.FromPublicKey(pub.Bytes()),
		age:    age,
	}
}

// PublicKey returns the node's BLS public key.
func (id *Identity) PublicKey() *bls.PublicKey {
	return id.public
}

// Name returns the node's XOR name, H(signing_public_key).
func (id *Identity) Name() xorname.Name {
	return id.name
}

// Age returns the node's current age counter.
func (id *Identity) Age() uint8 {
	return id.age
}

// Sign signs msg with the node's secret key.
func (id *Identity) Sign(msg []byte) *bls.Signature {
	return id.secret.Sign(msg)
}

// Relocated returns a copy of id with age incremented by one and the same
// keypair and name — relocation changes a node's section, not its identity.
func (id *Identity) Relocated() *Identity {
	return &Identity{secret: id.secret, public: id.public, name: id.name, age: id.age + 1}
}

// Public is the externally-visible, non-secret half of an Identity: what
// other nodes learn about a peer (its elder map entry, its membership
// record).
type Public struct {
	Name      xorname.Name
	PublicKey *bls.PublicKey
	Age       uint8
}

// Public returns the externally-visible half of id.
func (id *Identity) Public() Public {
	return Public{Name: id.name, PublicKey: id.public, Age: id.age}
}
