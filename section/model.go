// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package section

import (
	"sort"
	"sync"

	"github.com/luxfi/mesh/blschain"
	"github.com/luxfi/mesh/crypto/bls"
	"github.com/luxfi/mesh/identity"
	"github.com/luxfi/mesh/xorname"
)

// Presence is a member's current status within the section.
type Presence int

const (
	// PresenceJoining is a member that has been voted Online but has not
	// yet completed initial sync.
	PresenceJoining Presence = iota
	// PresenceOnline is a fully participating member.
	PresenceOnline
	// PresenceRelocating is a member that has been voted for relocation
	// and is in the process of leaving this section.
	PresenceRelocating
	// PresenceOffline is a member that has left or been evicted.
	PresenceOffline
)

func (p Presence) String() string {
	switch p {
	case PresenceJoining:
		return "Joining"
	case PresenceOnline:
		return "Online"
	case PresenceRelocating:
		return "Relocating"
	case PresenceOffline:
		return "Offline"
	default:
		return "Unknown"
	}
}

// Member is one entry of the section's membership record: a node's public
// identity plus its current presence.
type Member struct {
	Identity identity.Public
	Presence Presence
}

// Model owns a section's membership record and proof chain: the elder
// set, the full member set, the current prefix and section key, and the
// chain of past section keys. It enforces no-two-members-share-a-name and
// keeps ProofChain.Last() equal to the current section key at all times.
type Model struct {
	mu        sync.RWMutex
	prefix    xorname.Prefix
	elderSize int
	members   map[xorname.Name]Member
	chain     *blschain.Chain
}

// NewModel creates a Model for prefix, rooted at a genesis chain, with no
// members yet.
func NewModel(prefix xorname.Prefix, elderSize int, chain *blschain.Chain) *Model {
	return &Model{
		prefix:    prefix,
		elderSize: elderSize,
		members:   make(map[xorname.Name]Member),
		chain:     chain,
	}
}

// Prefix returns the section's current prefix.
func (m *Model) Prefix() xorname.Prefix {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prefix
}

// SetPrefix updates the section's prefix, e.g. after a split or merge.
func (m *Model) SetPrefix(p xorname.Prefix) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefix = p
}

// CurrentKey returns the section's current signing key, i.e. the last
// link of the proof chain.
func (m *Model) CurrentKey() *bls.PublicKey {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chain.Last()
}

// Chain returns the section's proof chain.
func (m *Model) Chain() *blschain.Chain {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chain
}

// AddMember inserts or updates a member's record. Returns false if name is
// already present with a different identity (no two members may share a
// name).
func (m *Model) AddMember(id identity.Public, presence Presence) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.members[id.Name]; ok && !existing.Identity.PublicKey.Equal(id.PublicKey) {
		return false
	}
	m.members[id.Name] = Member{Identity: id, Presence: presence}
	return true
}

// SetPresence updates an existing member's presence. Returns false if the
// name is not a member.
func (m *Model) SetPresence(name xorname.Name, presence Presence) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.members[name]
	if !ok {
		return false
	}
	member.Presence = presence
	m.members[name] = member
	return true
}

// RemoveMember deletes a member's record entirely.
func (m *Model) RemoveMember(name xorname.Name) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members, name)
}

// Member returns the member record for name, if any.
func (m *Model) Member(name xorname.Name) (Member, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.members[name]
	return rec, ok
}

// Members returns a snapshot slice of all current members.
func (m *Model) Members() []Member {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Member, 0, len(m.members))
	for _, rec := range m.members {
		out = append(out, rec)
	}
	return out
}

// OnlineAdults returns the online members, regardless of elder status,
// sorted by (age desc, name asc) — the ordering elders() is computed from.
func (m *Model) OnlineAdults() []Member {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Member, 0, len(m.members))
	for _, rec := range m.members {
		if rec.Presence == PresenceOnline {
			out = append(out, rec)
		}
	}
	sortByAgeThenName(out)
	return out
}

// ComputeElders returns the top elderSize online members by (age desc,
// name asc): the elder-set invariant (spec property 2).
func (m *Model) ComputeElders() []Member {
	online := m.OnlineAdults()
	if len(online) > m.elderSize {
		online = online[:m.elderSize]
	}
	return online
}

func sortByAgeThenName(members []Member) {
	sort.Slice(members, func(i, j int) bool {
		a, b := members[i].Identity, members[j].Identity
		if a.Age != b.Age {
			return a.Age > b.Age
		}
		return a.Name.Cmp(b.Name) < 0
	})
}

// ElderSize returns the section's configured elder-count ceiling.
func (m *Model) ElderSize() int {
	return m.elderSize
}
