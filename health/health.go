// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package health tracks peer connectivity and exposes aggregate Checkers a
// Node can poll to answer "are we bootstrapped" and "are we elder-quorum
// connected" without threading that bookkeeping through the routing core.
package health

import (
	"sync"

	"github.com/luxfi/mesh/xorname"
)

// ConnectionTracker records which peers currently have a live transport
// connection, the same connected/disconnected bookkeeping the teacher's
// uptime manager kept per node ID, keyed here by the peer's XOR name instead.
type ConnectionTracker interface {
	IsConnected(name xorname.Name) bool
	Connected(name xorname.Name)
	Disconnected(name xorname.Name)
}

// connTracker is the in-memory ConnectionTracker implementation.
type connTracker struct {
	mu        sync.RWMutex
	connected map[xorname.Name]bool
}

// NewConnectionTracker builds an empty ConnectionTracker.
func NewConnectionTracker() ConnectionTracker {
	return &connTracker{connected: make(map[xorname.Name]bool)}
}

func (t *connTracker) IsConnected(name xorname.Name) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected[name]
}

func (t *connTracker) Connected(name xorname.Name) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected[name] = true
}

func (t *connTracker) Disconnected(name xorname.Name) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected[name] = false
}

// Checker reports a single boolean health condition with a human-readable
// name, the unit a Node aggregates to answer health queries.
type Checker interface {
	Name() string
	Healthy() (bool, string)
}

// bootstrappedChecker reports whether the node has completed its join
// handshake.
type bootstrappedChecker struct {
	isBootstrapped func() bool
}

// NewBootstrappedChecker builds a Checker backed by isBootstrapped, polled
// lazily each call so it always reflects current lifecycle state.
func NewBootstrappedChecker(isBootstrapped func() bool) Checker {
	return &bootstrappedChecker{isBootstrapped: isBootstrapped}
}

func (c *bootstrappedChecker) Name() string { return "bootstrapped" }

func (c *bootstrappedChecker) Healthy() (bool, string) {
	if c.isBootstrapped() {
		return true, "bootstrap complete"
	}
	return false, "bootstrap in progress"
}

// elderQuorumChecker reports whether enough of our section's elders are
// currently connected to reach bls_threshold+1 signature shares.
type elderQuorumChecker struct {
	tracker       ConnectionTracker
	elders        func() []xorname.Name
	threshold     int
	ourName       xorname.Name
	countSelfAsUp bool
}

// NewElderQuorumChecker builds a Checker that is healthy once at least
// threshold+1 of elders() (including ourselves, who are always reachable
// to ourselves) are connected per tracker.
func NewElderQuorumChecker(tracker ConnectionTracker, ourName xorname.Name, elders func() []xorname.Name, threshold int) Checker {
	return &elderQuorumChecker{tracker: tracker, elders: elders, threshold: threshold, ourName: ourName, countSelfAsUp: true}
}

func (c *elderQuorumChecker) Name() string { return "elder_quorum" }

func (c *elderQuorumChecker) Healthy() (bool, string) {
	up := 0
	for _, e := range c.elders() {
		if e == c.ourName && c.countSelfAsUp {
			up++
			continue
		}
		if c.tracker.IsConnected(e) {
			up++
		}
	}
	need := c.threshold + 1
	if up >= need {
		return true, "elder quorum reachable"
	}
	return false, "elder quorum unreachable"
}

// Registry aggregates Checkers for a single health query.
type Registry struct {
	mu       sync.Mutex
	checkers []Checker
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a Checker to the registry.
func (r *Registry) Register(c Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers = append(r.checkers, c)
}

// Result is one Checker's outcome, named for reporting.
type Result struct {
	Name    string
	Healthy bool
	Detail  string
}

// Check runs every registered Checker and reports whether all of them
// passed, alongside each individual Result.
func (r *Registry) Check() (bool, []Result) {
	r.mu.Lock()
	checkers := append([]Checker(nil), r.checkers...)
	r.mu.Unlock()

	results := make([]Result, 0, len(checkers))
	allHealthy := true
	for _, c := range checkers {
		ok, detail := c.Healthy()
		if !ok {
			allHealthy = false
		}
		results = append(results, Result{Name: c.Name(), Healthy: ok, Detail: detail})
	}
	return allHealthy, results
}
