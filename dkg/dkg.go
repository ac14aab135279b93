// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dkg declares the boundary to the distributed-key-generation
// protocol that hands each elder its threshold BLS signing share whenever
// a committee is (re)formed — at genesis, on elder rotation, and on split.
// The interactive DKG exchange itself (commitments, complaints,
// justifications) is an external collaborator outside this module's scope,
// the same treatment messages.DKGEvent and codec.FrameDKG already give it;
// only the Source interface a node consults for its own current share, and
// a reference in-memory implementation for tests and single-process
// simulation, live here.
package dkg

import "github.com/luxfi/mesh/crypto/bls"

// Share is one participant's slice of a committee's threshold key: the
// group public key the committee signs under, the participant's position
// in the committee's sorted elder list, and its own secret signing share.
type Share struct {
	GroupPublicKey *bls.PublicKey
	Index          int
	SecretKey      *bls.SecretKey
}

// Source supplies a node with its current threshold signing share. A node
// has no share until a committee it belongs to has been seeded.
type Source interface {
	// Current returns this node's share for the committee it currently
	// belongs to, and whether one has been seeded yet.
	Current() (Share, bool)
}

// LocalDealer is a reference Source: a single slot holding whatever share
// was last seeded into it. It models a trusted dealer that has already run
// the (out of scope) interactive DKG protocol and now just hands this one
// participant its resulting share — the in-memory equivalent of
// consensus.MemoryOracle for key material instead of votes.
type LocalDealer struct {
	share Share
	has   bool
}

// NewLocalDealer returns a Source with no share seeded yet.
func NewLocalDealer() *LocalDealer {
	return &LocalDealer{}
}

// Seed installs share as the current one, replacing whatever a prior
// committee had seeded. Called once per committee formation (genesis,
// elder rotation, split) for each elder that is a member of the new
// committee.
func (d *LocalDealer) Seed(share Share) {
	d.share = share
	d.has = true
}

// Current implements Source.
func (d *LocalDealer) Current() (Share, bool) {
	return d.share, d.has
}

// DeriveForCommittee is the reference Source-seeding dealer: every elder
// who independently computes the same seed (derived from state the
// section has already agreed on — the outgoing section key plus the new
// committee's sorted member names) reconstructs the identical
// ThresholdKeySet, with no network round needed to distribute it. See
// bls.GenerateThresholdKeySetFromSeed for why this stands in for the
// interactive DKG protocol rather than replacing it.
func DeriveForCommittee(seed []byte, size, threshold int) (*bls.ThresholdKeySet, error) {
	return bls.GenerateThresholdKeySetFromSeed(seed, size, threshold)
}
