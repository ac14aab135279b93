// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mesh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/mesh/config"
	"github.com/luxfi/mesh/messages"
	"github.com/luxfi/mesh/transport"
	"github.com/luxfi/mesh/xorname"
)

// fakeTransport is a minimal transport.Transport for exercising Node
// construction and the Host API without a real network.
type fakeTransport struct {
	sent  []string
	token uint64
	ch    chan transport.Event
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{ch: make(chan transport.Event, 16)}
}

func (f *fakeTransport) Send(address string, payload []byte) uint64 {
	f.sent = append(f.sent, address)
	f.token++
	return f.token
}

func (f *fakeTransport) Events() <-chan transport.Event { return f.ch }

func (f *fakeTransport) Close() error { return nil }

func genesisConfig() config.Config {
	cfg := config.Config{
		Network: config.DefaultNetworkParams(),
		Transport: config.Transport{
			IP:   "127.0.0.1",
			Port: 9000,
		},
		First: true,
	}
	return cfg
}

func TestNewGenesisNodeBecomesSoleElder(t *testing.T) {
	require := require.New(t)

	ft := newFakeTransport()
	n, _, err := New(genesisConfig(), ft, nil, nil)
	require.NoError(err)

	require.True(n.IsElder())
	require.True(n.OurPrefix().Equal(xorname.EmptyPrefix))
	require.NotNil(n.PublicKey())
	require.Equal("127.0.0.1:9000", n.OurConnectionInfo())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	require := require.New(t)

	ft := newFakeTransport()
	cfg := genesisConfig()
	cfg.Network.ElderSize = 0

	_, _, err := New(cfg, ft, nil, nil)
	require.Error(err)
}

func TestNewBootstrappingNodeSendsBootstrapRequest(t *testing.T) {
	require := require.New(t)

	ft := newFakeTransport()
	cfg := genesisConfig()
	cfg.First = false
	cfg.Contacts = []string{"10.0.0.1:9000"}

	n, _, err := New(cfg, ft, nil, nil)
	require.NoError(err)

	require.False(n.IsElder())
	require.Equal(LifecycleBootstrapping, n.lifecycle)
	require.Equal([]string{"10.0.0.1:9000"}, ft.sent)
}

func TestSendMessageFromGenesisNodeAccumulatesLocally(t *testing.T) {
	require := require.New(t)

	ft := newFakeTransport()
	n, stream, err := New(genesisConfig(), ft, nil, nil)
	require.NoError(err)

	// Drain the construction-time events so the assertion below sees
	// only the message-received event.
	for len(stream) > 0 {
		<-stream
	}

	src := messages.Node(n.OurName())
	dst := messages.Node(n.OurName())
	require.NoError(n.SendMessage(src, dst, []byte("hello")))

	ev := <-stream
	require.Equal(EventMessageReceived, ev.Kind)
	require.Equal([]byte("hello"), ev.Content)
}

func TestSendMessageBeforeJoinIsRejected(t *testing.T) {
	require := require.New(t)

	ft := newFakeTransport()
	cfg := genesisConfig()
	cfg.First = false
	cfg.Contacts = []string{"10.0.0.1:9000"}

	n, _, err := New(cfg, ft, nil, nil)
	require.NoError(err)

	err = n.SendMessage(messages.Node(n.OurName()), messages.Node(n.OurName()), []byte("hi"))
	require.ErrorIs(err, ErrNotJoined)
}
