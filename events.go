// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mesh

import (
	"github.com/luxfi/mesh/xorname"
)

// EventKind discriminates the variants a Node's EventStream delivers.
type EventKind int

const (
	// EventConnected means the node completed a join: as the genesis node
	// of a new network, on approval into an existing section, or after
	// relocating into another section.
	EventConnected EventKind = iota
	// EventPromotedToElder means the node was added to its section's
	// elder set.
	EventPromotedToElder
	// EventDemoted means the node was removed from its section's elder
	// set.
	EventDemoted
	// EventInfantJoined means a new member was admitted to our section.
	EventInfantJoined
	// EventMemberLeft means a member left our section (relocated away or
	// dropped).
	EventMemberLeft
	// EventEldersChanged means our section's elder set changed.
	EventEldersChanged
	// EventMessageReceived means a user message addressed to us arrived.
	EventMessageReceived
	// EventClientMessageReceived means a user message from an external
	// client arrived, expecting a reply via ReplyHandle.
	EventClientMessageReceived
	// EventRestartRequired means the node must be restarted to recover
	// (e.g. membership invariants could not be reconciled).
	EventRestartRequired
	// EventTerminated means the node's event loop has exited for good.
	EventTerminated
)

// ConnectedReason distinguishes how a node first became connected.
type ConnectedReason int

const (
	// ConnectedFirst means this node completed its first join: it created
	// the genesis section or was approved into an existing one.
	ConnectedFirst ConnectedReason = iota
	// ConnectedRelocate means this node joined by relocating into an
	// existing network.
	ConnectedRelocate
)

// Event is one item on a Node's EventStream. Exactly the fields relevant
// to Kind are meaningful; the others are zero.
type Event struct {
	Kind EventKind

	ConnectedReason ConnectedReason

	InfantName xorname.Name
	InfantAge  uint8

	MemberLeftName xorname.Name
	MemberLeftAge  uint8

	EldersPrefix            xorname.Prefix
	Elders                  []xorname.Name
	SelfStatusChangeElected bool
	SelfStatusChangeDemoted bool

	Src     xorname.Name
	Dst     xorname.Name
	Content []byte

	ReplyHandle ReplyHandle
}

// ReplyHandle lets a ClientMessageReceived handler send a reply back to
// the originating client without the routing core exposing its transport
// token directly.
type ReplyHandle struct {
	Token uint64
}

// EventStream is the read side of a Node's event channel.
type EventStream <-chan Event

// newEventSink returns a buffered channel and the Node-side sender used to
// publish events onto it, sized generously enough that a slow consumer
// does not stall section.Model mutations mid-block.
func newEventSink() (chan Event, EventStream) {
	ch := make(chan Event, 256)
	return ch, ch
}
