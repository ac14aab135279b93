// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package membership implements the two state machines that drive section
// membership: AcceptAsCandidate, the destination-side admission handshake
// for a single concurrent candidate per section, and
// CheckAndProcessElderChange, the periodic committee-rotation routine.
// Both are driven by ordered blocks from a consensus oracle plus local
// timeouts, never by direct mutation.
package membership

import (
	"time"

	"github.com/luxfi/mesh/identity"
	"github.com/luxfi/mesh/xorname"
)

// CandidateState is AcceptAsCandidate's state for the (at most one)
// candidate currently being processed by this section.
type CandidateState int

const (
	// Idle means no candidate is currently being processed.
	Idle CandidateState = iota
	// Proofing means a candidate is mid resource-proof handshake.
	Proofing
)

func (s CandidateState) String() string {
	if s == Proofing {
		return "ProofingInProgress"
	}
	return "Idle"
}

// Candidate is a peer undergoing the resource-proof handshake.
type Candidate struct {
	Identity      identity.Public
	InfoReceived  bool
	ProofAccepted bool
	OnlineVoted   bool
	Deadline      time.Time
}

// Vote is the set of votes AcceptAsCandidate can cast. The consuming node
// is expected to submit these to its consensus oracle.
type Vote int

const (
	VoteNone Vote = iota
	VoteExpectCandidate
	VoteOnline
	VotePurgeCandidate
)

// Action bundles a vote to cast (if any) with a message to send (if any),
// the effect-descriptor style required by "transitions are pure functions
// from (State, Event) -> (State, Effects)".
type Action struct {
	Vote             Vote
	SendProofRequest bool
	SendProofReceipt bool
	SendResend       *xorname.Prefix
	SendRefuse       bool
	SendApproval     bool
}

// AcceptAsCandidate is the destination-side admission handshake. Only one
// candidate may be in flight per section at a time: the State field
// enforces linearised admission locally, while consensus ordering
// linearises decisions across elders.
type AcceptAsCandidate struct {
	State     CandidateState
	Candidate *Candidate
}

// NewAcceptAsCandidate returns a machine in the Idle state.
func NewAcceptAsCandidate() *AcceptAsCandidate {
	return &AcceptAsCandidate{State: Idle}
}

// ExpectCandidateBlock is delivered when the consensus oracle has ordered
// an ExpectCandidate block for candidate c. hasShorterPrefixSection should
// report whether a section with a shorter (less specific) prefix than
// ours also covers c's name — in that case the candidate belongs there,
// not here.
func (m *AcceptAsCandidate) ExpectCandidateBlock(c identity.Public, deadline time.Time, hasShorterPrefixSection bool, resendTo xorname.Prefix) Action {
	if m.State != Idle {
		return Action{SendRefuse: true}
	}
	if hasShorterPrefixSection {
		return Action{SendResend: &resendTo}
	}
	m.State = Proofing
	m.Candidate = &Candidate{Identity: c, Deadline: deadline}
	return Action{}
}

// CandidateInfo is delivered on receipt of an Rpc(CandidateInfo) from the
// candidate itself.
func (m *AcceptAsCandidate) CandidateInfo(valid bool) Action {
	if m.State != Proofing {
		return Action{}
	}
	if !valid {
		return Action{Vote: VotePurgeCandidate}
	}
	if m.Candidate.InfoReceived {
		return Action{}
	}
	m.Candidate.InfoReceived = true
	return Action{SendProofRequest: true}
}

// ResourceProofResponse is delivered for each chunk of the resource-proof
// exchange. valid marks whether this chunk passed; final marks whether it
// was the last expected chunk.
func (m *AcceptAsCandidate) ResourceProofResponse(valid, final bool) Action {
	if m.State != Proofing || m.Candidate.OnlineVoted {
		return Action{}
	}
	if !final {
		if valid {
			return Action{SendProofReceipt: true}
		}
		return Action{}
	}
	if !valid {
		return Action{}
	}
	m.Candidate.OnlineVoted = true
	return Action{Vote: VoteOnline}
}

// TimeoutAccept is delivered when the candidate's admission deadline
// fires without reaching an Online/PurgeCandidate consensus outcome.
func (m *AcceptAsCandidate) TimeoutAccept() Action {
	if m.State != Proofing {
		return Action{}
	}
	return Action{Vote: VotePurgeCandidate}
}

// OnlineBlock is delivered when consensus accepts Online(name). If name
// matches our in-flight candidate the machine resets to Idle and signals
// NodeApproval should be sent; otherwise it is a stale vote for some other
// candidate and is discarded.
func (m *AcceptAsCandidate) OnlineBlock(name xorname.Name) Action {
	if m.State != Proofing || m.Candidate.Identity.Name != name {
		return Action{}
	}
	m.State = Idle
	m.Candidate = nil
	return Action{SendApproval: true}
}

// PurgeCandidateBlock is delivered when consensus accepts
// PurgeCandidate(name). Symmetric to OnlineBlock.
func (m *AcceptAsCandidate) PurgeCandidateBlock(name xorname.Name) Action {
	if m.State != Proofing || m.Candidate.Identity.Name != name {
		return Action{}
	}
	m.State = Idle
	m.Candidate = nil
	return Action{}
}

// Busy reports whether a candidate is currently being processed —
// is_processing_candidate in the spec's invariant language.
func (m *AcceptAsCandidate) Busy() bool {
	return m.State == Proofing
}
