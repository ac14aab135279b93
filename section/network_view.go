// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package section

import (
	"sync"

	"github.com/luxfi/mesh/crypto/bls"
	"github.com/luxfi/mesh/xorname"
)

// NetworkView is a node's cache of *other* sections' authorities, keyed by
// prefix, built up from Sync messages. It never holds this node's
// own section — that lives in Model.
type NetworkView struct {
	mu       sync.RWMutex
	sections map[xorname.Prefix]Authority
}

// NewNetworkView returns an empty view.
func NewNetworkView() *NetworkView {
	return &NetworkView{sections: make(map[xorname.Prefix]Authority)}
}

// Update records or replaces the authority known for a.Prefix
// unconditionally; a.SectionKey is not compared with the key already held,
// so an older authority can replace a newer one.
func (v *NetworkView) Update(a Authority) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sections[a.Prefix] = a
}

// Get returns the authority known for an exact prefix.
func (v *NetworkView) Get(p xorname.Prefix) (Authority, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	a, ok := v.sections[p]
	return a, ok
}

// BestMatch returns the known section whose prefix is the longest
// compatible match for name — the "known section whose prefix best
// matches" rule used by next-hop selection.
func (v *NetworkView) BestMatch(name xorname.Name) (Authority, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var (
		best    Authority
		bestLen = -1
		found   bool
	)
	for _, a := range v.sections {
		if !a.Prefix.Matches(name) {
			continue
		}
		if a.Prefix.Len() > bestLen {
			best, bestLen, found = a, a.Prefix.Len(), true
		}
	}
	return best, found
}

// KeyForPrefix returns the latest known section key for the section
// whose prefix best matches src, used to answer a BouncedUntrustedMessage
// for src's section.
func (v *NetworkView) KeyForPrefix(name xorname.Name) (*bls.PublicKey, bool) {
	a, ok := v.BestMatch(name)
	if !ok {
		return nil, false
	}
	return a.SectionKey, true
}

// All returns every authority currently cached, for Sync messages.
func (v *NetworkView) All() []Authority {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Authority, 0, len(v.sections))
	for _, a := range v.sections {
		out = append(out, a)
	}
	return out
}
