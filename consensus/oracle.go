// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package consensus declares the boundary to the gossip-based Byzantine
// agreement layer that totally orders section-local events (member joins,
// elder changes, relocations). The gossip protocol and its BFT guarantees
// are an external collaborator outside this module's scope; only the Oracle
// interface, and a reference in-memory implementation for tests, are.
package consensus

import "github.com/luxfi/mesh/xorname"

// BlockID identifies one proposed, section-local event by the hash of its
// content.
type BlockID [32]byte

// Oracle totally orders blocks that reach quorum among a section's elders.
// Implementations must treat a repeated vote from the same voter for the
// same block as a no-op, not a second count.
type Oracle interface {
	// Vote records voter's support for block. It returns the block's
	// commit sequence number and true once the block has reached quorum;
	// before that it returns (0, false).
	Vote(voter xorname.Name, block BlockID, payload []byte) (seq uint64, committed bool)

	// Payload returns the payload committed for block, if any.
	Payload(block BlockID) ([]byte, bool)
}

// MemoryOracle is a reference Oracle backed by in-process vote counting
// against a fixed elder set and threshold, the same per-voter dedup
// discipline the teacher's static-threshold quorum counter used, extended
// to assign each newly-committed block the next sequence number so
// committed blocks form a total order.
type MemoryOracle struct {
	elders    map[xorname.Name]bool
	threshold int

	nextSeq  uint64
	votes    map[BlockID]map[xorname.Name]bool
	payloads map[BlockID][]byte
	seqOf    map[BlockID]uint64
}

// NewMemoryOracle builds an Oracle requiring threshold+1 distinct elder
// votes (the same quorum size the signature accumulator uses) before a
// block commits.
func NewMemoryOracle(elders []xorname.Name, threshold int) *MemoryOracle {
	set := make(map[xorname.Name]bool, len(elders))
	for _, e := range elders {
		set[e] = true
	}
	return &MemoryOracle{
		elders:    set,
		threshold: threshold,
		votes:     make(map[BlockID]map[xorname.Name]bool),
		payloads:  make(map[BlockID][]byte),
		seqOf:     make(map[BlockID]uint64),
	}
}

// Vote implements Oracle.
func (o *MemoryOracle) Vote(voter xorname.Name, block BlockID, payload []byte) (uint64, bool) {
	if !o.elders[voter] {
		return 0, false
	}
	if seq, ok := o.seqOf[block]; ok {
		return seq, true
	}

	ballot, ok := o.votes[block]
	if !ok {
		ballot = make(map[xorname.Name]bool)
		o.votes[block] = ballot
		o.payloads[block] = payload
	}
	ballot[voter] = true

	if len(ballot) < o.threshold+1 {
		return 0, false
	}

	seq := o.nextSeq
	o.nextSeq++
	o.seqOf[block] = seq
	return seq, true
}

// Payload implements Oracle. It only returns ok once block has committed;
// an uncommitted block with some votes already cast is not yet resolvable.
func (o *MemoryOracle) Payload(block BlockID) ([]byte, bool) {
	if _, committed := o.seqOf[block]; !committed {
		return nil, false
	}
	p, ok := o.payloads[block]
	return p, ok
}
