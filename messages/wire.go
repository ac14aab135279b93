// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package messages

import (
	"github.com/luxfi/mesh/blschain"
	"github.com/luxfi/mesh/crypto/bls"
	"github.com/luxfi/mesh/section"
)

// SignatureShare is one elder's partial signature over a PlainMessage:
// its index in the sorted elder list, plus the BLS share itself.
type SignatureShare struct {
	SignerIndex int
	Share       *bls.Signature
}

// MessageWithShare is what flows into the signature accumulator: a plain
// message plus one elder's share and the proof chain it claims to be
// signed under.
type MessageWithShare struct {
	Plain        PlainMessage
	SectionProof blschain.Slice
	Share        SignatureShare
}

// Sync carries a node's own section and its cached view of the rest of
// the network, sent to newly-approved or re-synchronising members.
type Sync struct {
	Section     section.Authority
	NetworkView []section.Authority
}

// RelocatePromise is sent ahead of a Relocate to let the destination
// section pre-arm a slot for the incoming node.
type RelocatePromise struct {
	Details RelocateDetails
}

// BouncedUntrustedMessage is the reply sent when a recipient's proof
// chain could not place the sender's signing key: the sender should
// extend its proof slice and resend.
type BouncedUntrustedMessage struct {
	Original       Message
	LatestKnownKey *bls.PublicKey
}

// BouncedUnknownMessage is the reply sent when a recipient cannot resolve
// the destination at all: the sender should refresh its network view.
type BouncedUnknownMessage struct {
	Original Message
}

// DKGStage discriminates the elder-rotation DKG wire messages.
type DKGStage int

const (
	DKGStart DKGStage = iota
	DKGMessage
	DKGResult
)

// DKGEvent is one message of the distributed-key-generation exchange run
// when the elder set changes, carrying an opaque payload whose contents
// are a property of the consensus oracle's DKG implementation, not of
// this package.
type DKGEvent struct {
	Stage   DKGStage
	Payload []byte
}
