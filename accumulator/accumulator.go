// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package accumulator collects per-elder BLS signature shares for a
// PlainMessage and emits a fully-signed Message once enough shares have
// arrived to reach quorum. It never surfaces errors to callers: add
// either returns a combined message once, or nothing.
package accumulator

import (
	"sync"
	"time"

	"github.com/luxfi/mesh/blschain"
	"github.com/luxfi/mesh/crypto/bls"
	"github.com/luxfi/mesh/messages"
	"github.com/luxfi/mesh/section"
)

// entry is the per-message-hash bookkeeping the accumulator keeps: the
// message skeleton, the shares received so far keyed by signer index, and
// when the first share for this hash arrived.
type entry struct {
	plain     messages.PlainMessage
	proof     blschain.Slice
	shares    map[int]*bls.Signature
	firstSeen time.Time
	combined  bool
	badSigner map[int]bool
}

// Accumulator is the per-process shared signature-share collector keyed
// by hash(plain_message_bytes).
type Accumulator struct {
	mu        sync.Mutex
	threshold int
	timeout   time.Duration
	entries   map[[32]byte]*entry
	now       func() time.Time
}

// New creates an Accumulator requiring threshold+1 valid shares to combine,
// expiring unaccumulated entries after timeout.
func New(threshold int, timeout time.Duration) *Accumulator {
	return &Accumulator{
		threshold: threshold,
		timeout:   timeout,
		entries:   make(map[[32]byte]*entry),
		now:       time.Now,
	}
}

// Add inserts msg's share into the accumulator. The signer index must be
// valid for authority's elder list, and the share must verify under that
// elder's key; a share that fails this check marks its signer bad, and the
// signer's later shares for the same hash are dropped. A second share from
// the same signer is dropped. Once the running share count reaches
// threshold+1, Add runs BLS combine, verifies the result against
// authority.SectionKey, and returns the combined Message; the entry is
// then marked combined and further shares for that hash are dropped.
// msg.SectionProof is carried into the result but is not checked against
// authority. If combine or the group verification fails, Add returns
// nothing, marks no signer bad, and the entry keeps accepting shares.
func (a *Accumulator) Add(msg messages.MessageWithShare, authority section.Authority) (*messages.Message, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.removeExpiredLocked()

	hash := msg.Plain.Hash()
	e, ok := a.entries[hash]
	if !ok {
		e = &entry{
			plain:     msg.Plain,
			proof:     msg.SectionProof,
			shares:    make(map[int]*bls.Signature),
			firstSeen: a.now(),
			badSigner: make(map[int]bool),
		}
		a.entries[hash] = e
	}
	if e.combined {
		return nil, false
	}

	elderNames := authority.ElderNames()
	if msg.Share.SignerIndex < 0 || msg.Share.SignerIndex >= len(elderNames) {
		return nil, false
	}
	if e.badSigner[msg.Share.SignerIndex] {
		return nil, false
	}
	signerKey := authority.Elders[elderNames[msg.Share.SignerIndex]].PublicKey
	signedBytes := msg.Plain.Hash()
	if !bls.Verify(signerKey, signedBytes[:], msg.Share.Share) {
		e.badSigner[msg.Share.SignerIndex] = true
		return nil, false
	}
	if _, dup := e.shares[msg.Share.SignerIndex]; dup {
		return nil, false
	}
	e.shares[msg.Share.SignerIndex] = msg.Share.Share

	if len(e.shares) < a.threshold+1 {
		return nil, false
	}

	combined, err := combine(e.shares)
	if err != nil {
		return nil, false
	}
	h := msg.Plain.Hash()
	if !bls.Verify(authority.SectionKey, h[:], combined) {
		return nil, false
	}

	e.combined = true
	return &messages.Message{
		Plain:        e.plain,
		SectionProof: msg.SectionProof,
		Signature:    combined,
	}, true
}

func combine(shares map[int]*bls.Signature) (*bls.Signature, error) {
	return bls.CombineSignatures(shares)
}

// removeExpiredLocked drops every entry whose first share arrived more
// than a.timeout ago, combined or not. Later shares do not extend an
// entry's lifetime, and nothing is logged or reported for a drop.
func (a *Accumulator) removeExpiredLocked() {
	cutoff := a.now().Add(-a.timeout)
	for hash, e := range a.entries {
		if e.firstSeen.Before(cutoff) {
			delete(a.entries, hash)
		}
	}
}

// SetThreshold updates the quorum required for future Add calls to
// combine, without disturbing shares already collected for entries in
// flight. Callers adjust this as their section's elder count changes, so
// a freshly formed section of fewer than bls_threshold+1 elders can still
// reach quorum among the elders it actually has.
func (a *Accumulator) SetThreshold(threshold int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.threshold = threshold
}

// Len returns the number of live (non-expired) entries, for tests and
// metrics.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}
