// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transport declares the boundary between the routing core and
// whatever peer-connection layer carries bytes between nodes. The wire
// protocol, NAT traversal, and connection pooling are an external
// collaborator outside this module's scope; only this interface and its
// events are.
package transport

// EventKind distinguishes the kinds of asynchronous events a Transport
// delivers to its owner.
type EventKind int

const (
	// EventConnectedPeer reports a new inbound or outbound connection.
	EventConnectedPeer EventKind = iota
	// EventLostPeer reports a connection that has closed.
	EventLostPeer
	// EventInboundFrame reports bytes received from a peer.
	EventInboundFrame
	// EventSendFailed reports that a prior Send for a token did not reach
	// its destination.
	EventSendFailed
	// EventSendConfirmed reports that a prior Send for a token was
	// delivered.
	EventSendConfirmed
)

// Event is one asynchronous notification from a Transport.
type Event struct {
	Kind    EventKind
	Address string
	Payload []byte
	Token   uint64
}

// Transport is the boundary the routing core sends frames through and
// receives peer lifecycle and delivery-status events from. Implementations
// own connection establishment, retries below the TargetedSender layer,
// and wire framing; this module only calls Send and consumes Events.
type Transport interface {
	// Send transmits payload to address, returning a token that later
	// EventSendFailed/EventSendConfirmed events reference.
	Send(address string, payload []byte) uint64

	// Events returns the channel of asynchronous notifications. It is
	// closed when the transport shuts down.
	Events() <-chan Event

	// Close releases any resources held by the transport.
	Close() error
}
