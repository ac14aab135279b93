// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sender implements TargetedSender: per outbound message, an
// ordered candidate target list with per-target retry on transport
// failure, yielding at-least-one-elder delivery with bounded retries
// proportional to the target-list length.
package sender

import (
	"sync"

	"github.com/luxfi/log"

	mlog "github.com/luxfi/mesh/log"
	"github.com/luxfi/mesh/section"
	"github.com/luxfi/mesh/transport"
)

// TargetState is one target's delivery state for a single outbound
// message.
type TargetState int

const (
	// StateSending means this target is the current highest-priority
	// attempt in flight.
	StateSending TargetState = iota
	// StateFailed means a prior attempt to this target failed;
	// FailedCount records how many times.
	StateFailed
	// StateSent means delivery to this target was confirmed; no further
	// attempts are made to it.
	StateSent
)

// target is one candidate's bookkeeping for an in-flight message.
type target struct {
	info        section.ElderInfo
	state       TargetState
	failedCount int
}

// Config bounds a Sender's retry behaviour.
type Config struct {
	// DegreeSize (dg_size) is how many targets start in StateSending at
	// once.
	DegreeSize int
	// MaxTotalAttempts caps the total Sending transitions across all
	// targets for one message, a belt-and-braces cap on top of the
	// per-target failed_count bookkeeping.
	MaxTotalAttempts int
}

// entry is the per-message target-list state.
type entry struct {
	targets  []*target
	attempts int
}

// Sender wraps a Transport: for each outbound message it keeps an ordered
// candidate list and rotates through targets on failure until no target
// is still in flight: each target has been confirmed sent or has failed,
// or MaxTotalAttempts stops further promotion. A target confirmed sent is
// not retried, while the message stays live for the others.
type Sender struct {
	mu        sync.Mutex
	cfg       Config
	transport transport.Transport
	log       log.Logger
	entries   map[uint64]*entry
	nextToken uint64
}

// New constructs a Sender over transport t.
func New(t transport.Transport, cfg Config, logger log.Logger) *Sender {
	if cfg.DegreeSize <= 0 {
		cfg.DegreeSize = 1
	}
	if logger == nil {
		logger = mlog.NoOp()
	}
	return &Sender{cfg: cfg, transport: t, log: logger, entries: make(map[uint64]*entry)}
}

// Send begins delivery of payload to an ordered list of candidates
// (highest priority first), returning the token used to correlate later
// TransportStatus events via Failed/Sent.
func (s *Sender) Send(candidates []section.ElderInfo, payload []byte) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	targets := make([]*target, len(candidates))
	for i, c := range candidates {
		st := StateFailed
		if i < s.cfg.DegreeSize {
			st = StateSending
		}
		targets[i] = &target{info: c, state: st}
	}

	token := s.nextToken
	s.nextToken++
	s.entries[token] = &entry{targets: targets}

	for _, t := range targets {
		if t.state == StateSending {
			s.dispatch(token, t, payload)
		}
	}
	return token
}

func (s *Sender) dispatch(token uint64, t *target, payload []byte) {
	e := s.entries[token]
	e.attempts++
	s.transport.Send(t.info.Address, payload)
}

// Failed is delivered when the transport reports delivery failure to
// address for the message identified by token. It promotes that target to
// Failed(prev+1), then promotes the next highest-priority Failed entry
// with the lowest failed_count to Sending and dispatches to it. When
// every target has reached Sent or Failed and none remains Sending, the
// entry is dropped.
func (s *Sender) Failed(token uint64, address string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return
	}
	for _, t := range e.targets {
		if t.info.Address == address && t.state == StateSending {
			t.state = StateFailed
			t.failedCount++
			break
		}
	}

	if next := nextToPromote(e.targets); next != nil && e.attempts < s.maxAttempts(e) {
		next.state = StateSending
		s.dispatch(token, next, payload)
	}

	if entryIsDone(e.targets) {
		delete(s.entries, token)
	}
}

// Sent is delivered when the transport confirms delivery to address. It
// terminates attempts to that target only; the message remains live for
// the others until they too reach Sent or Failed.
func (s *Sender) Sent(token uint64, address string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return
	}
	for _, t := range e.targets {
		if t.info.Address == address {
			t.state = StateSent
		}
	}
	if entryIsDone(e.targets) {
		delete(s.entries, token)
	}
}

func (s *Sender) maxAttempts(e *entry) int {
	if s.cfg.MaxTotalAttempts <= 0 {
		return len(e.targets) + 1
	}
	return s.cfg.MaxTotalAttempts
}

// nextToPromote selects the next highest-priority Failed entry with the
// lowest failed_count, or nil if none remain.
func nextToPromote(targets []*target) *target {
	var best *target
	for _, t := range targets {
		if t.state != StateFailed {
			continue
		}
		if best == nil || t.failedCount < best.failedCount {
			best = t
		}
	}
	return best
}

// entryIsDone reports whether every target has reached Sent or Failed,
// with none remaining Sending.
func entryIsDone(targets []*target) bool {
	for _, t := range targets {
		if t.state == StateSending {
			return false
		}
	}
	return true
}

// Live reports whether token still has an in-flight entry, for tests and
// diagnostics.
func (s *Sender) Live(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[token]
	return ok
}
