// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

// FrameKind discriminates the wire messages exchanged between nodes over a
// transport.Transport. It is the outermost tag a Node reads off an inbound
// frame before decoding the typed payload it names.
type FrameKind int

const (
	FrameBootstrapRequest FrameKind = iota
	FrameBootstrapResponse
	FrameJoinRequest
	FrameNodeApproval
	FrameSync
	FrameRelocate
	FrameRelocatePromise
	FrameBouncedUntrusted
	FrameBouncedUnknown
	FrameVoteShare
	FrameDKG
	FrameSignedMessage
)

// Envelope is the outer frame carried over a transport.Transport: a kind
// tag plus the versioned encoding of the typed payload it names.
type Envelope struct {
	Kind    FrameKind
	Payload []byte
}

// MarshalEnvelope encodes v under kind, wrapping it in an Envelope.
func MarshalEnvelope(kind FrameKind, v interface{}) ([]byte, error) {
	payload, err := Codec.Marshal(CurrentVersion, v)
	if err != nil {
		return nil, err
	}
	return Codec.Marshal(CurrentVersion, Envelope{Kind: kind, Payload: payload})
}

// UnmarshalEnvelope decodes the outer frame, leaving Payload for the
// caller to decode against whatever type Kind names.
func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	_, err := Codec.Unmarshal(data, &e)
	return e, err
}

// UnmarshalPayload decodes an Envelope's Payload into v.
func UnmarshalPayload(e Envelope, v interface{}) error {
	_, err := Codec.Unmarshal(e.Payload, v)
	return err
}
