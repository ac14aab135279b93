// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package membership

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/luxfi/mesh/xorname"
)

// RelocationTracker implements the age-driven relocation rule: whenever a
// block accepts Online(new_node), every existing member whose age counter
// divides 2^(their_age) rolls over emits one RelocatePrepare; the prepare
// counter is decremented each subsequent qualifying event, and on reaching
// zero a Relocate is voted.
type RelocationTracker struct {
	prepares map[xorname.Name]int
}

// NewRelocationTracker returns an empty tracker.
func NewRelocationTracker() *RelocationTracker {
	return &RelocationTracker{prepares: make(map[xorname.Name]int)}
}

// qualifies reports whether a member of the given age rolls over on this
// qualifying event, per "age counter divides 2^(their_age)". eventOrdinal
// counts qualifying Online-acceptance events since section genesis.
func qualifies(age uint8, eventOrdinal uint64) bool {
	divisor := uint64(1) << uint(age)
	return eventOrdinal%divisor == 0
}

// OnOnlineAccepted is delivered whenever a block accepts Online(new_node).
// It returns the names of the members whose relocate-prepare countdown
// reached zero on this event, meaning Relocate should now be voted for
// each of them.
func (r *RelocationTracker) OnOnlineAccepted(members map[xorname.Name]uint8, eventOrdinal uint64) []xorname.Name {
	var readyToRelocate []xorname.Name
	for name, age := range members {
		if !qualifies(age, eventOrdinal) {
			continue
		}
		if _, armed := r.prepares[name]; !armed {
			r.prepares[name] = 1
			continue
		}
		r.prepares[name]--
		if r.prepares[name] <= 0 {
			delete(r.prepares, name)
			readyToRelocate = append(readyToRelocate, name)
		}
	}
	return readyToRelocate
}

// DestinationPrefix computes the XOR-closest prefix of
// hash(name || trigger_event_id), the relocating node's new home.
func DestinationPrefix(name xorname.Name, triggerEventID [32]byte, knownPrefixes []xorname.Prefix) xorname.Prefix {
	h := sha256.New()
	h.Write(name[:])
	h.Write(triggerEventID[:])
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], 0)
	h.Write(buf[:])
	sum, _ := xorname.FromBytes(h.Sum(nil))

	var best xorname.Prefix
	found := false
	for _, p := range knownPrefixes {
		if !p.Matches(sum) {
			continue
		}
		if !found || p.Len() > best.Len() {
			best, found = p, true
		}
	}
	if !found {
		return xorname.EmptyPrefix
	}
	return best
}
