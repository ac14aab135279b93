// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package messages

import (
	"crypto/sha256"

	"github.com/luxfi/mesh/blschain"
	"github.com/luxfi/mesh/crypto/bls"
	"github.com/luxfi/mesh/identity"
	"github.com/luxfi/mesh/section"
	"github.com/luxfi/mesh/xorname"
)

// VariantKind discriminates MessageVariant.
type VariantKind int

const (
	VariantNeighbourInfo VariantKind = iota
	VariantUserMessage
	VariantNodeApproval
	VariantRelocate
	VariantBootstrapRequest
	VariantBootstrapResponse
	VariantJoinRequest
	VariantVote
	VariantKeyRotation
)

// RelocateDetails is the signed credential a relocating node presents to
// its destination section.
type RelocateDetails struct {
	Name         xorname.Name
	Age          uint8
	DestPrefix   xorname.Prefix
	TriggerEvent [32]byte
}

// GenesisInfo is carried by NodeApproval: enough of the section's state
// for a freshly-approved node to start operating.
type GenesisInfo struct {
	Authority section.Authority
	Chain     *blschain.Chain
}

// MessageVariant is the tagged payload of a PlainMessage. Exactly one of
// the typed fields is meaningful, selected by Kind.
type MessageVariant struct {
	Kind VariantKind

	NeighbourInfo    section.Authority
	UserMessage      []byte
	NodeApproval     GenesisInfo
	Relocate         RelocateDetails
	BootstrapRequest xorname.Name
	BootstrapResponse BootstrapResponse
	JoinRequest      JoinRequest
	Vote             VotePayload
	KeyRotation      []byte
}

// BootstrapResponse is the reply to a BootstrapRequest: either a Join
// grant into a named SAP, or a redirect to other contacts.
type BootstrapResponse struct {
	Joined      bool
	Authority   section.Authority
	SectionKey  *bls.PublicKey
	Rebootstrap []string
}

// JoinRequest is sent by a candidate once it has located its destination
// section. Candidate carries the joining node's identity: its resource
// proof having already been vouched for by the time a real candidate
// reaches this step, the destination section needs its public key to
// admit it into the membership record.
type JoinRequest struct {
	EldersVersion   uint64
	Candidate       identity.Public
	RelocatePayload *RelocateDetails
}

// VotePayload refers, by hash, to the plain message a consensus vote
// concerns, for DKG and elder-rotation signalling; the vote itself is not
// carried.
type VotePayload struct {
	PlainMessageHash [32]byte
}

// PlainMessage is an unsigned message: a source, a destination, and a
// variant payload.
type PlainMessage struct {
	Src     Location
	Dst     Location
	Variant MessageVariant
}

// Hash returns the content hash used to key the signature accumulator and
// the duplicate filter. It covers the source and destination (kind, name
// and prefix), the variant kind, and the UserMessage, BootstrapRequest and
// KeyRotation payloads; the other variant fields are not hashed. Two
// identical plain messages hash identically regardless of arrival path.
func (p PlainMessage) Hash() [32]byte {
	h := sha256.New()
	writeLocation(h, p.Src)
	writeLocation(h, p.Dst)
	h.Write([]byte{byte(p.Variant.Kind)})
	h.Write(p.Variant.UserMessage)
	h.Write(p.Variant.BootstrapRequest[:])
	h.Write(p.Variant.KeyRotation)
	return [32]byte(h.Sum(nil))
}

func writeLocation(h interface{ Write([]byte) (int, error) }, l Location) {
	h.Write([]byte{byte(l.Kind)})
	h.Write(l.Name[:])
	prefixName := l.Prefix.Name()
	h.Write(prefixName[:])
	h.Write([]byte{byte(l.Prefix.Len() >> 8), byte(l.Prefix.Len())})
}

// NewUserMessage builds a PlainMessage carrying an opaque application
// payload, as sent via the host's send_message action.
func NewUserMessage(src, dst Location, payload []byte) PlainMessage {
	return PlainMessage{Src: src, Dst: dst, Variant: MessageVariant{Kind: VariantUserMessage, UserMessage: payload}}
}

// NewKeyRotationMessage announces a new section key, signed over by the
// outgoing committee under its current key and run through the same
// SignatureAccumulator pipeline as any other section message. Once it
// reaches quorum, the combined signature is what blschain.Chain.Append
// requires to extend the ProofChain with newKey (spec §4.4.1 elder
// rotation; §4.4.2 a child's first key, signed by the parent, on split).
func NewKeyRotationMessage(section Location, newKey *bls.PublicKey) PlainMessage {
	return PlainMessage{
		Src:     section,
		Dst:     section,
		Variant: MessageVariant{Kind: VariantKeyRotation, KeyRotation: newKey.Bytes()},
	}
}

// Message is a signed PlainMessage: the plain payload, the proof chain
// slice ending at the key the committee signed with, and the aggregated
// BLS signature over the serialised plain message.
type Message struct {
	Plain        PlainMessage
	SectionProof blschain.Slice
	Signature    *bls.Signature
}

// SignedBytes returns the bytes that Signature is computed over: the
// content hash of Plain. Signing the hash rather than the raw payload
// keeps share verification cheap regardless of payload size.
func (m Message) SignedBytes() []byte {
	h := m.Plain.Hash()
	return h[:]
}
