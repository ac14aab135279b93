// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package router implements the inbound message pipeline: next-hop
// selection over known sections, the duplicate-delivery filter, and
// bouncing of untrusted or unresolvable messages.
package router

import (
	"container/list"
	"sync"
)

// Filter is a bounded LRU deduplication set keyed by message hash (or,
// generalised, by any (sender, content-hash) pair), sized to hold at
// least one message epoch. First arrival for a key is reported as new;
// subsequent arrivals are reported as duplicates.
type Filter struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	index    map[[32]byte]*list.Element
}

// NewFilter returns a Filter retaining up to capacity recently-seen keys.
func NewFilter(capacity int) *Filter {
	if capacity <= 0 {
		capacity = 1
	}
	return &Filter{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[[32]byte]*list.Element),
	}
}

// SeenMessage reports whether hash has already passed through the filter
// as a delivered Message, recording it as seen if not. This is the
// "processing the same signed Message byte-for-byte twice yields exactly
// one MessageReceived event" rule.
func (f *Filter) SeenMessage(hash [32]byte) bool {
	return f.seen(hash)
}

// SeenRequest generalises the same dedup rule to inbound requests (not
// just delivered user messages), keyed by (sender, content-hash); callers
// fold the sender into hash before calling.
func (f *Filter) SeenRequest(hash [32]byte) bool {
	return f.seen(hash)
}

func (f *Filter) seen(hash [32]byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if el, ok := f.index[hash]; ok {
		f.order.MoveToFront(el)
		return true
	}

	el := f.order.PushFront(hash)
	f.index[hash] = el
	if f.order.Len() > f.capacity {
		oldest := f.order.Back()
		if oldest != nil {
			f.order.Remove(oldest)
			delete(f.index, oldest.Value.([32]byte))
		}
	}
	return false
}

// Len returns the number of keys currently retained.
func (f *Filter) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.order.Len()
}
