// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package section holds the per-section state a node tracks: its own
// section's authority (elders, key, prefix, proof chain) plus the full
// membership record, and the cache of *other* sections' authorities used
// for routing decisions.
package section

import (
	"fmt"
	"sort"

	"github.com/luxfi/mesh/crypto/bls"
	"github.com/luxfi/mesh/xorname"
)

// ElderInfo is what the authority publishes about one elder: its signing
// public key and the address other nodes can reach it at.
type ElderInfo struct {
	PublicKey *bls.PublicKey
	Address   string
}

// Authority is a Section Authority Provider (SAP): the current elder set
// and section key for a prefix. Invariant: 2 <= len(Elders) <= ElderSize;
// elders are the oldest members by (age desc, name asc); every elder's
// name matches Prefix.
type Authority struct {
	Prefix     xorname.Prefix
	SectionKey *bls.PublicKey
	Elders     map[xorname.Name]ElderInfo
}

// NewAuthority builds an Authority from a prefix, key and elder map,
// copying the map so the caller's map can be mutated afterwards.
func NewAuthority(prefix xorname.Prefix, key *bls.PublicKey, elders map[xorname.Name]ElderInfo) Authority {
	cp := make(map[xorname.Name]ElderInfo, len(elders))
	for k, v := range elders {
		cp[k] = v
	}
	return Authority{Prefix: prefix, SectionKey: key, Elders: cp}
}

// ElderNames returns the authority's elder names, ascending.
func (a Authority) ElderNames() []xorname.Name {
	out := make([]xorname.Name, 0, len(a.Elders))
	for n := range a.Elders {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// HasElder reports whether name is one of the authority's current elders.
func (a Authority) HasElder(name xorname.Name) bool {
	_, ok := a.Elders[name]
	return ok
}

// Valid reports whether the authority satisfies the elder-count and
// prefix-membership invariants for the given elder_size ceiling.
func (a Authority) Valid(elderSize int) bool {
	if len(a.Elders) < 2 || len(a.Elders) > elderSize {
		return false
	}
	for name := range a.Elders {
		if !a.Prefix.Matches(name) {
			return false
		}
	}
	return true
}

// String renders the authority for logging.
func (a Authority) String() string {
	return fmt.Sprintf("section{prefix=%s, elders=%d}", a.Prefix, len(a.Elders))
}
