// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"github.com/luxfi/log"

	"github.com/luxfi/mesh/transport"
)

// loggingTransport is a stand-in transport.Transport for local
// inspection: it logs every outbound send and never delivers inbound
// frames, since a real peer-connection layer is a concern this module
// declares external to itself. A host wiring a real network wires its own
// transport.Transport here instead.
type loggingTransport struct {
	log   log.Logger
	ch    chan transport.Event
	token uint64
}

func newLoggingTransport(logger log.Logger) *loggingTransport {
	return &loggingTransport{log: logger, ch: make(chan transport.Event)}
}

func (t *loggingTransport) Send(address string, payload []byte) uint64 {
	t.token++
	t.log.Debug("loggingTransport: send", "address", address, "bytes", len(payload), "token", t.token)
	return t.token
}

func (t *loggingTransport) Events() <-chan transport.Event {
	return t.ch
}

func (t *loggingTransport) Close() error {
	close(t.ch)
	return nil
}
